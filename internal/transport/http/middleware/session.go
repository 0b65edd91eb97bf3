package middleware

import (
	"context"
	"net/http"

	"hrportal/internal/domain/routing"
	"hrportal/internal/domain/session"
	"hrportal/internal/platform/requestctx"
)

type ctxKey string

const ctxKeySession ctxKey = "portal_session"

// LoadSession resolves the portal session cookie on every request and
// stashes the session in the context. It never blocks the request:
// anonymous requests pass through so that login and the public routes
// still work, mirroring how the bearer token is optional on the backend
// side.
func LoadSession(store session.Store, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			ctx := requestctx.WithSessionID(r.Context(), cookie.Value)
			sess, err := store.Get(ctx, cookie.Value)
			if err == nil && sess.Authenticated() {
				ctx = context.WithValue(ctx, ctxKeySession, sess)
				ctx = requestctx.WithAuthToken(ctx, sess.Token)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func GetSession(ctx context.Context) (session.Session, bool) {
	sess, ok := ctx.Value(ctxKeySession).(session.Session)
	return sess, ok
}

// Protect gates a protected page subtree behind the access guard. The
// decision is computed fresh on every navigation; redirects use 303 so
// the browser always lands with a GET.
func Protect(requiredRole session.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, _ := GetSession(r.Context())
			decision := routing.Decide(sess, r.URL.Path, requiredRole)
			if decision.Outcome == routing.OutcomeRedirect {
				http.Redirect(w, r, decision.TargetPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
