package session

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Role is the closed set of user categories the portal routes on. Role
// values are normalized to lower case at the single point they enter a
// Session (login success), so comparisons elsewhere are plain equality.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleHR       Role = "hr"
	RoleManager  Role = "manager"
	RoleCEO      Role = "ceo"
	RoleEmployee Role = "employee"
)

var ErrUnknownRole = errors.New("unknown role")

func AllRoles() []Role {
	return []Role{RoleAdmin, RoleHR, RoleManager, RoleCEO, RoleEmployee}
}

// ParseRole normalizes a backend-supplied role string into a known Role.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	switch role {
	case RoleAdmin, RoleHR, RoleManager, RoleCEO, RoleEmployee:
		return role, nil
	}
	return "", ErrUnknownRole
}

// Session is the client-held proof of authentication plus identity
// metadata. A present token means the user is considered authenticated;
// all four fields are written together and cleared together.
type Session struct {
	Token       string `json:"token"`
	UserID      string `json:"userId"`
	Role        Role   `json:"role"`
	DisplayName string `json:"displayName"`
}

// Authenticated reports whether the session carries a usable token. A JWT
// whose expiry has passed counts as no token at all.
func (s Session) Authenticated() bool {
	return s.Token != "" && !tokenExpired(s.Token, time.Now())
}

// tokenExpired inspects the token's exp claim without verifying the
// signature; only the backend can verify it, the portal just avoids
// presenting a token it already knows is dead. Opaque non-JWT tokens
// never expire locally.
func tokenExpired(token string, now time.Time) bool {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return claims.ExpiresAt.Before(now)
}
