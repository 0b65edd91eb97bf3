package routing

import (
	"strings"

	"hrportal/internal/domain/session"
)

// LoginPath is the only public landing spot; every denied navigation ends
// up here.
const LoginPath = "/login"

// RouteEntry maps a role to its landing path and the path prefixes it may
// navigate to. The table is static configuration, never mutated at runtime.
type RouteEntry struct {
	Role            session.Role
	LandingPath     string
	AllowedPrefixes []string
}

var routes = map[session.Role]RouteEntry{
	session.RoleAdmin: {
		Role:            session.RoleAdmin,
		LandingPath:     "/admin/dashboard",
		AllowedPrefixes: []string{"/admin"},
	},
	session.RoleHR: {
		Role:            session.RoleHR,
		LandingPath:     "/hr/dashboard",
		AllowedPrefixes: []string{"/hr"},
	},
	session.RoleManager: {
		Role:            session.RoleManager,
		LandingPath:     "/manager/dashboard",
		AllowedPrefixes: []string{"/manager"},
	},
	session.RoleCEO: {
		Role:            session.RoleCEO,
		LandingPath:     "/ceo/dashboard",
		AllowedPrefixes: []string{"/ceo"},
	},
	session.RoleEmployee: {
		Role:            session.RoleEmployee,
		LandingPath:     "/employee/dashboard",
		AllowedPrefixes: []string{"/employee"},
	},
}

func Entries() []RouteEntry {
	entries := make([]RouteEntry, 0, len(routes))
	for _, role := range session.AllRoles() {
		entries = append(entries, routes[role])
	}
	return entries
}

// LandingPath returns the post-login destination for a role.
func LandingPath(role session.Role) (string, error) {
	entry, ok := routes[role]
	if !ok {
		return "", session.ErrUnknownRole
	}
	return entry.LandingPath, nil
}

// PathAllowed reports whether the role may navigate to path. Prefixes
// match on segment boundaries, so "/admin" covers "/admin/dashboard" but
// not "/administrator".
func PathAllowed(role session.Role, path string) bool {
	entry, ok := routes[role]
	if !ok {
		return false
	}
	for _, prefix := range entry.AllowedPrefixes {
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return true
		}
	}
	return false
}
