package proxyhandler

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"hrportal/internal/backend"
	"hrportal/internal/platform/requestctx"
	"hrportal/internal/transport/http/api"
)

// Handler relays every /api call to the backend through the shared
// client. The backend's endpoints are black boxes here: employee CRUD,
// attendance, leave, payroll, training and documents all flow through
// unchanged, with the session's bearer token attached on the way out.
type Handler struct {
	Backend *backend.Client
}

func NewHandler(client *backend.Client) *Handler {
	return &Handler{Backend: client}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	reqID := requestctx.GetRequestID(r.Context())

	resp, err := h.Backend.Forward(r.Context(), r)
	if err != nil {
		switch {
		case errors.Is(err, backend.ErrUnauthorized):
			// The client already cleared the session; the SPA sees the 401
			// and navigates to login itself.
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "session expired", reqID)
		case errors.Is(err, backend.ErrUnavailable):
			api.Fail(w, http.StatusServiceUnavailable, "backend_unavailable", "unable to connect to server", reqID)
		default:
			slog.Error("proxy request failed", "path", r.URL.Path, "err", err, "requestId", reqID)
			api.Fail(w, http.StatusBadGateway, "backend_error", "backend request failed", reqID)
		}
		return
	}
	defer resp.Body.Close()

	for _, header := range []string{"Content-Type", "Content-Disposition", "Cache-Control"} {
		if value := resp.Header.Get(header); value != "" {
			w.Header().Set(header, value)
		}
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		slog.Warn("proxy copy failed", "path", r.URL.Path, "err", err)
	}
}
