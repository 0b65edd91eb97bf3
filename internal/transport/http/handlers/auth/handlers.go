package authhandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"hrportal/internal/backend"
	"hrportal/internal/domain/navigation"
	"hrportal/internal/domain/session"
	"hrportal/internal/platform/requestctx"
	"hrportal/internal/transport/http/api"
	"hrportal/internal/transport/http/middleware"
)

type Handler struct {
	Backend      *backend.Client
	Nav          *navigation.Controller
	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration
}

func NewHandler(client *backend.Client, nav *navigation.Controller, cookieName string, cookieSecure bool, sessionTTL time.Duration) *Handler {
	return &Handler{
		Backend:      client,
		Nav:          nav,
		CookieName:   cookieName,
		CookieSecure: cookieSecure,
		SessionTTL:   sessionTTL,
	}
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

// HandleLogin authenticates against the backend and, on a valid reply,
// establishes the portal session and reports the role's landing path. Any
// failure leaves the browser session anonymous.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())

	var payload loginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "invalid request payload", reqID)
		return
	}
	if strings.TrimSpace(payload.Email) == "" || payload.Password == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "email and password are required", reqID)
		return
	}

	oldSID := sessionID(r, h.CookieName)

	resp, err := h.Backend.Login(r.Context(), payload.Email, payload.Password)
	if err != nil {
		// Rejected credentials end any session the browser still holds; a
		// merely unreachable backend must not log the user out.
		if errors.Is(err, backend.ErrUnauthorized) {
			h.dropSession(r.Context(), w, oldSID)
		}
		h.failBackend(w, r, err)
		return
	}
	if !resp.Success {
		h.dropSession(r.Context(), w, oldSID)
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", messageOr(resp.Message, "login failed"), reqID)
		return
	}

	sid := uuid.NewString()
	landing, err := h.Nav.OnLoginSuccess(r.Context(), sid, resp)
	if err != nil {
		h.dropSession(r.Context(), w, oldSID)
		switch {
		case errors.Is(err, navigation.ErrInvalidLoginResponse):
			api.Fail(w, http.StatusBadGateway, "invalid_login_response", "login response was malformed", reqID)
		case errors.Is(err, session.ErrUnknownRole):
			api.Fail(w, http.StatusForbidden, "unknown_role", "invalid role assigned", reqID)
		default:
			slog.Error("persist login session failed", "err", err, "requestId", reqID)
			api.Fail(w, http.StatusInternalServerError, "session_error", "failed to start session", reqID)
		}
		return
	}

	// The superseded session must not stay replayable until its TTL.
	if oldSID != "" && oldSID != sid {
		if _, err := h.Nav.OnLogout(r.Context(), oldSID); err != nil {
			slog.Warn("clear superseded session failed", "err", err, "requestId", reqID)
		}
	}

	h.setSessionCookie(w, sid, h.SessionTTL)
	api.Redirect(w, landing, map[string]string{
		"userId":      resp.User.ID,
		"role":        strings.ToLower(resp.User.Role),
		"displayName": resp.User.Name,
	}, reqID)
}

// HandleLogout clears the session unconditionally. Repeat calls land in
// the same state, so an already-logged-out browser gets the same reply.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())

	target, err := h.Nav.OnLogout(r.Context(), sessionID(r, h.CookieName))
	if err != nil {
		slog.Error("logout failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusInternalServerError, "session_error", "failed to end session", reqID)
		return
	}

	h.setSessionCookie(w, "", -time.Hour)
	api.Redirect(w, target, nil, reqID)
}

// HandleSession exposes the read-only session view the SPA renders from.
func (h *Handler) HandleSession(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())

	if sess, ok := middleware.GetSession(r.Context()); ok {
		api.Success(w, map[string]any{
			"authenticated": true,
			"userId":        sess.UserID,
			"role":          sess.Role,
			"displayName":   sess.DisplayName,
		}, reqID)
		return
	}
	api.Success(w, map[string]any{"authenticated": false}, reqID)
}

func (h *Handler) HandleCheckEmail(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())

	var payload emailRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Email) == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "email is required", reqID)
		return
	}

	result, err := h.Backend.CheckEmail(r.Context(), payload.Email)
	if err != nil {
		h.failBackend(w, r, err)
		return
	}
	api.Success(w, result, reqID)
}

func (h *Handler) HandleRequestReset(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())

	var payload emailRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || strings.TrimSpace(payload.Email) == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "email is required", reqID)
		return
	}

	if err := h.Backend.RequestPasswordReset(r.Context(), payload.Email); err != nil {
		h.failBackend(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "reset_requested"}, reqID)
}

func (h *Handler) HandleResetPassword(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())

	var payload resetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil || payload.Token == "" || payload.NewPassword == "" {
		api.Fail(w, http.StatusBadRequest, "invalid_payload", "token and new password are required", reqID)
		return
	}

	if err := h.Backend.ResetPassword(r.Context(), payload.Token, payload.NewPassword); err != nil {
		h.failBackend(w, r, err)
		return
	}
	api.Success(w, map[string]string{"status": "password_reset"}, reqID)
}

// failBackend translates backend client errors into portal replies. A 401
// surfaces as invalid credentials; a transport failure is reported
// distinctly so the SPA can show "server unreachable" instead of logging
// the user out.
func (h *Handler) failBackend(w http.ResponseWriter, r *http.Request, err error) {
	reqID := requestctx.GetRequestID(r.Context())

	var apiErr *backend.APIError
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		message := "invalid credentials"
		if errors.As(err, &apiErr) && apiErr.Message != "" {
			message = apiErr.Message
		}
		api.Fail(w, http.StatusUnauthorized, "invalid_credentials", message, reqID)
	case errors.Is(err, backend.ErrUnavailable):
		api.Fail(w, http.StatusServiceUnavailable, "backend_unavailable", "unable to connect to server", reqID)
	case errors.As(err, &apiErr):
		api.Fail(w, http.StatusBadGateway, "backend_error", messageOr(apiErr.Message, "backend request failed"), reqID)
	default:
		slog.Error("backend call failed", "err", err, "requestId", reqID)
		api.Fail(w, http.StatusBadGateway, "backend_error", "backend request failed", reqID)
	}
}

// dropSession ends a still-cookied session after a failed login attempt,
// so a browser that was authenticated before the attempt is anonymous
// afterwards: the store entry is cleared and the cookie expired.
func (h *Handler) dropSession(ctx context.Context, w http.ResponseWriter, sid string) {
	if sid == "" {
		return
	}
	if _, err := h.Nav.OnLogout(ctx, sid); err != nil {
		slog.Warn("clear session after failed login failed", "err", err)
	}
	h.setSessionCookie(w, "", -time.Hour)
}

func (h *Handler) setSessionCookie(w http.ResponseWriter, sid string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.CookieName,
		Value:    sid,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		Secure:   h.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

func sessionID(r *http.Request, cookieName string) string {
	cookie, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func messageOr(message, fallback string) string {
	if strings.TrimSpace(message) == "" {
		return fallback
	}
	return message
}
