package backend

import (
	"errors"
	"fmt"
)

var (
	// ErrUnauthorized marks any 401 from the backend: bad credentials on
	// login, or a stale/absent token on everything else.
	ErrUnauthorized = errors.New("backend rejected authorization")

	// ErrUnavailable marks transport-level failures where no response was
	// received at all. Distinct from ErrUnauthorized so callers never
	// treat a down server as a logged-out user.
	ErrUnavailable = errors.New("backend unreachable")
)

// APIError carries a non-2xx backend reply. 401s additionally match
// ErrUnauthorized via errors.Is.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend returned status %d", e.Status)
	}
	return fmt.Sprintf("backend returned status %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == 401
}
