package navigation

import (
	"context"
	"errors"
	"fmt"

	"hrportal/internal/backend"
	"hrportal/internal/domain/routing"
	"hrportal/internal/domain/session"
)

// ErrInvalidLoginResponse marks a success reply from the backend that is
// missing the token or the user's id/role. The session is left anonymous.
var ErrInvalidLoginResponse = errors.New("invalid login response")

// Controller owns every session transition around login, logout and 401.
// All mutation goes through the session store, so the Anonymous ->
// Authenticated(role) -> Anonymous state machine stays enforceable: a role
// can never change without passing back through Anonymous.
type Controller struct {
	store session.Store
}

func New(store session.Store) *Controller {
	return &Controller{store: store}
}

// OnLoginSuccess validates the backend's login reply, writes all session
// fields in one store write, and returns the role's landing path. The
// write completes before any navigation is issued, so the guard evaluated
// by the next request never sees a stale session.
//
// Any failure leaves the session fully cleared rather than half
// populated: a malformed reply or an unrecognized role must not produce a
// state that looks authenticated to the guard.
func (c *Controller) OnLoginSuccess(ctx context.Context, sid string, resp backend.LoginResponse) (string, error) {
	if resp.Token == "" || resp.User.ID == "" || resp.User.Role == "" {
		if err := c.store.Clear(ctx, sid); err != nil {
			return "", fmt.Errorf("clear session: %w", err)
		}
		return "", ErrInvalidLoginResponse
	}

	role, err := session.ParseRole(resp.User.Role)
	if err != nil {
		if clearErr := c.store.Clear(ctx, sid); clearErr != nil {
			return "", fmt.Errorf("clear session: %w", clearErr)
		}
		return "", fmt.Errorf("role %q: %w", resp.User.Role, err)
	}

	landing, err := routing.LandingPath(role)
	if err != nil {
		if clearErr := c.store.Clear(ctx, sid); clearErr != nil {
			return "", fmt.Errorf("clear session: %w", clearErr)
		}
		return "", fmt.Errorf("role %q: %w", role, err)
	}

	sess := session.Session{
		Token:       resp.Token,
		UserID:      resp.User.ID,
		Role:        role,
		DisplayName: resp.User.Name,
	}
	if err := c.store.Put(ctx, sid, sess); err != nil {
		return "", fmt.Errorf("persist session: %w", err)
	}
	return landing, nil
}

// OnLogout clears the session and reports the login path as the next
// destination. Logout is a pure client-side transition: no backend call,
// no confirmation, and repeat calls are harmless.
func (c *Controller) OnLogout(ctx context.Context, sid string) (string, error) {
	if err := c.store.Clear(ctx, sid); err != nil {
		return "", fmt.Errorf("clear session: %w", err)
	}
	return routing.LoginPath, nil
}

// OnUnauthorized handles a 401 observed by the backend client. Clearing an
// already-cleared session is a no-op, so concurrent in-flight failures may
// all land here safely.
func (c *Controller) OnUnauthorized(ctx context.Context, sid string) (string, error) {
	if err := c.store.Clear(ctx, sid); err != nil {
		return "", fmt.Errorf("clear session: %w", err)
	}
	return routing.LoginPath, nil
}

// GetSession returns the current session, or a zero session when the
// stored one no longer counts as authenticated (absent or expired token).
func (c *Controller) GetSession(ctx context.Context, sid string) (session.Session, error) {
	sess, err := c.store.Get(ctx, sid)
	if err != nil {
		return session.Session{}, err
	}
	if !sess.Authenticated() {
		return session.Session{}, nil
	}
	return sess, nil
}
