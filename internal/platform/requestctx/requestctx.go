package requestctx

import "context"

type ctxKey string

const (
	requestIDKey ctxKey = "request_id"
	sessionIDKey ctxKey = "session_id"
	authTokenKey ctxKey = "auth_token"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}

// WithSessionID records which browser session a request belongs to, so the
// backend client's 401 handling can clear the right session.
func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, sessionIDKey, sessionID)
}

func GetSessionID(ctx context.Context) string {
	if value, ok := ctx.Value(sessionIDKey).(string); ok {
		return value
	}
	return ""
}

// WithAuthToken carries the session's bearer token to outbound backend
// calls. Requests without a token pass through unauthenticated.
func WithAuthToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, authTokenKey, token)
}

func GetAuthToken(ctx context.Context) string {
	if value, ok := ctx.Value(authTokenKey).(string); ok {
		return value
	}
	return ""
}
