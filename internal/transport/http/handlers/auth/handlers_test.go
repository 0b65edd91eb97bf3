package authhandler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"hrportal/internal/backend"
	"hrportal/internal/domain/navigation"
	"hrportal/internal/domain/session"
)

type envelope struct {
	Success    bool           `json:"success"`
	Data       map[string]any `json:"data"`
	RedirectTo string         `json:"redirectTo"`
	Error      *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestHandler(t *testing.T, backendHandler http.HandlerFunc) (*Handler, session.Store, func()) {
	t.Helper()
	server := httptest.NewServer(backendHandler)
	store := session.NewMemoryStore(time.Hour)
	nav := navigation.New(store)
	client := backend.New(server.URL)
	handler := NewHandler(client, nav, "hr_portal_session", false, time.Hour)
	return handler, store, server.Close
}

func postJSON(t *testing.T, handler http.HandlerFunc, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler(rec, req)

	var reply envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode reply %q: %v", rec.Body.String(), err)
	}
	return rec, reply
}

func sessionCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, cookie := range rec.Result().Cookies() {
		if cookie.Name == "hr_portal_session" {
			return cookie
		}
	}
	return nil
}

func TestHandleLoginSuccess(t *testing.T) {
	handler, store, done := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"token":   "t1",
			"user":    map[string]string{"id": "u1", "role": "HR", "name": "Jo"},
		})
	})
	defer done()

	rec, reply := postJSON(t, handler.HandleLogin, "/portal/login", `{"email":"jo@example.com","password":"secret"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if reply.RedirectTo != "/hr/dashboard" {
		t.Fatalf("expected hr landing path, got %q", reply.RedirectTo)
	}
	if reply.Data["role"] != "hr" {
		t.Fatalf("expected lower-cased role, got %v", reply.Data["role"])
	}

	cookie := sessionCookie(rec)
	if cookie == nil || cookie.Value == "" {
		t.Fatal("expected session cookie to be set")
	}
	if !cookie.HttpOnly {
		t.Fatal("session cookie must be http-only")
	}

	sess, err := store.Get(context.Background(), cookie.Value)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	want := session.Session{Token: "t1", UserID: "u1", Role: session.RoleHR, DisplayName: "Jo"}
	if sess != want {
		t.Fatalf("expected %+v, got %+v", want, sess)
	}
}

func TestHandleLoginBadCredentials(t *testing.T) {
	handler, _, done := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"message": "invalid credentials"})
	})
	defer done()

	rec, reply := postJSON(t, handler.HandleLogin, "/portal/login", `{"email":"jo@example.com","password":"wrong"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if reply.Error == nil || reply.Error.Code != "invalid_credentials" {
		t.Fatalf("expected invalid_credentials error, got %+v", reply.Error)
	}
	if sessionCookie(rec) != nil {
		t.Fatal("no session cookie on failed login")
	}
}

func TestHandleLoginMalformedBackendReply(t *testing.T) {
	handler, _, done := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		// success but user.role missing
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"token":   "t1",
			"user":    map[string]string{"id": "u1"},
		})
	})
	defer done()

	rec, reply := postJSON(t, handler.HandleLogin, "/portal/login", `{"email":"jo@example.com","password":"secret"}`)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}
	if reply.Error == nil || reply.Error.Code != "invalid_login_response" {
		t.Fatalf("expected invalid_login_response, got %+v", reply.Error)
	}
}

func TestHandleLoginUnknownRole(t *testing.T) {
	handler, _, done := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"token":   "t1",
			"user":    map[string]string{"id": "u1", "role": "superadmin", "name": "Jo"},
		})
	})
	defer done()

	rec, reply := postJSON(t, handler.HandleLogin, "/portal/login", `{"email":"jo@example.com","password":"secret"}`)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	if reply.Error == nil || reply.Error.Code != "unknown_role" {
		t.Fatalf("expected unknown_role, got %+v", reply.Error)
	}
	if reply.Error.Message != "invalid role assigned" {
		t.Fatalf("unexpected message %q", reply.Error.Message)
	}
	if sessionCookie(rec) != nil {
		t.Fatal("no session cookie for an unknown role")
	}
}

func TestHandleLoginFailureClearsExistingSession(t *testing.T) {
	handler, store, done := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"token":   "t2",
			"user":    map[string]string{"id": "u2", "role": "superadmin", "name": "Sam"},
		})
	})
	defer done()

	ctx := context.Background()
	if err := store.Put(ctx, "sid-old", session.Session{Token: "t1", UserID: "u1", Role: session.RoleEmployee}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/portal/login", strings.NewReader(`{"email":"jo@example.com","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "hr_portal_session", Value: "sid-old"})
	rec := httptest.NewRecorder()
	handler.HandleLogin(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}

	sess, err := store.Get(ctx, "sid-old")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess != (session.Session{}) {
		t.Fatalf("failed re-login must clear the previous session, got %+v", sess)
	}

	cookie := sessionCookie(rec)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Fatalf("expected expiring cookie after failed re-login, got %+v", cookie)
	}
}

func TestHandleLoginMalformedReplyClearsExistingSession(t *testing.T) {
	handler, store, done := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"token":   "t2",
			"user":    map[string]string{"id": "u2"},
		})
	})
	defer done()

	ctx := context.Background()
	if err := store.Put(ctx, "sid-old", session.Session{Token: "t1", UserID: "u1", Role: session.RoleEmployee}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/portal/login", strings.NewReader(`{"email":"jo@example.com","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "hr_portal_session", Value: "sid-old"})
	rec := httptest.NewRecorder()
	handler.HandleLogin(rec, req)

	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rec.Code)
	}

	sess, err := store.Get(ctx, "sid-old")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess != (session.Session{}) {
		t.Fatalf("malformed login reply must clear the previous session, got %+v", sess)
	}
}

func TestHandleLoginSupersedesExistingSession(t *testing.T) {
	handler, store, done := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"token":   "t2",
			"user":    map[string]string{"id": "u2", "role": "hr", "name": "Sam"},
		})
	})
	defer done()

	ctx := context.Background()
	if err := store.Put(ctx, "sid-old", session.Session{Token: "t1", UserID: "u1", Role: session.RoleEmployee}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/portal/login", strings.NewReader(`{"email":"sam@example.com","password":"secret"}`))
	req.Header.Set("Content-Type", "application/json")
	req.AddCookie(&http.Cookie{Name: "hr_portal_session", Value: "sid-old"})
	rec := httptest.NewRecorder()
	handler.HandleLogin(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	cookie := sessionCookie(rec)
	if cookie == nil || cookie.Value == "" || cookie.Value == "sid-old" {
		t.Fatalf("expected a fresh session id, got %+v", cookie)
	}

	old, err := store.Get(ctx, "sid-old")
	if err != nil {
		t.Fatalf("get old session: %v", err)
	}
	if old != (session.Session{}) {
		t.Fatalf("superseded session must be cleared, got %+v", old)
	}

	sess, err := store.Get(ctx, cookie.Value)
	if err != nil {
		t.Fatalf("get new session: %v", err)
	}
	want := session.Session{Token: "t2", UserID: "u2", Role: session.RoleHR, DisplayName: "Sam"}
	if sess != want {
		t.Fatalf("expected %+v, got %+v", want, sess)
	}
}

func TestHandleLoginBackendDown(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	store := session.NewMemoryStore(time.Hour)
	handler := NewHandler(backend.New(server.URL), navigation.New(store), "hr_portal_session", false, time.Hour)

	rec, reply := postJSON(t, handler.HandleLogin, "/portal/login", `{"email":"jo@example.com","password":"secret"}`)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if reply.Error == nil || reply.Error.Code != "backend_unavailable" {
		t.Fatalf("expected backend_unavailable, got %+v", reply.Error)
	}
}

func TestHandleLogoutClearsSessionAndCookie(t *testing.T) {
	handler, store, done := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {})
	defer done()

	ctx := context.Background()
	if err := store.Put(ctx, "sid-1", session.Session{Token: "t1", Role: session.RoleManager}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/portal/logout", nil)
	req.AddCookie(&http.Cookie{Name: "hr_portal_session", Value: "sid-1"})
	rec := httptest.NewRecorder()
	handler.HandleLogout(rec, req)

	var reply envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &reply); err != nil {
		t.Fatalf("decode reply: %v", err)
	}
	if reply.RedirectTo != "/login" {
		t.Fatalf("expected login redirect, got %q", reply.RedirectTo)
	}

	sess, err := store.Get(ctx, "sid-1")
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if sess != (session.Session{}) {
		t.Fatalf("expected cleared session, got %+v", sess)
	}

	cookie := sessionCookie(rec)
	if cookie == nil || cookie.MaxAge >= 0 {
		t.Fatalf("expected expiring cookie, got %+v", cookie)
	}
}

func TestHandleLogoutWithoutSession(t *testing.T) {
	handler, _, done := newTestHandler(t, func(w http.ResponseWriter, r *http.Request) {})
	defer done()

	req := httptest.NewRequest(http.MethodPost, "/portal/logout", nil)
	rec := httptest.NewRecorder()
	handler.HandleLogout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("logout must succeed for anonymous users, got %d", rec.Code)
	}
}
