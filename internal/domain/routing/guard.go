package routing

import "hrportal/internal/domain/session"

type Outcome string

const (
	OutcomeAllow    Outcome = "allow"
	OutcomeRedirect Outcome = "redirect"
)

// Decision is the result of gating one navigation attempt. TargetPath is
// set only for redirects.
type Decision struct {
	Outcome    Outcome
	TargetPath string
}

func allow() Decision {
	return Decision{Outcome: OutcomeAllow}
}

func redirect(target string) Decision {
	return Decision{Outcome: OutcomeRedirect, TargetPath: target}
}

// Decide gates a protected navigation against the current session. It is a
// pure function of its inputs and must be re-evaluated on every attempt:
// the session can change between navigations, e.g. after a 401 clears it.
//
// An unauthenticated session always redirects to the login path. A session
// holding a different role than required is sent to its own landing path,
// never allowed through; if the stored role is not in the registry the
// only safe destination is login.
func Decide(sess session.Session, requestedPath string, requiredRole session.Role) Decision {
	if !sess.Authenticated() {
		return redirect(LoginPath)
	}

	if requiredRole != "" && sess.Role != requiredRole {
		return redirect(homeOrLogin(sess.Role))
	}

	if !PathAllowed(sess.Role, requestedPath) {
		return redirect(homeOrLogin(sess.Role))
	}

	return allow()
}

func homeOrLogin(role session.Role) string {
	landing, err := LandingPath(role)
	if err != nil {
		return LoginPath
	}
	return landing
}
