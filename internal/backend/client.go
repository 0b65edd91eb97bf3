package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hrportal/internal/platform/requestctx"
)

// UnauthorizedHook is invoked exactly once per observed 401, before the
// error is returned to the caller. The portal wires it to the navigation
// controller so that session clearing happens in one place only.
type UnauthorizedHook func(ctx context.Context)

// Client is the single outbound client for the HR backend. Every request
// picks up the session's bearer token from the context; every response is
// inspected for 401 before being handed back.
type Client struct {
	baseURL        string
	http           *http.Client
	onUnauthorized UnauthorizedHook
}

type Option func(*Client)

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.http.Timeout = timeout
	}
}

func WithUnauthorizedHook(hook UnauthorizedHook) Option {
	return func(c *Client) {
		c.onUnauthorized = hook
	}
}

func New(baseURL string, opts ...Option) *Client {
	client := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: &authTransport{base: http.DefaultTransport},
		},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// authTransport is the request interceptor: it attaches the bearer token
// carried in the request context, if any. Requests without a token pass
// through unauthenticated, e.g. login and check-email.
type authTransport struct {
	base http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if token := requestctx.GetAuthToken(req.Context()); token != "" && req.Header.Get("Authorization") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return t.base.RoundTrip(req)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginUser struct {
	ID   string `json:"id"`
	Role string `json:"role"`
	Name string `json:"name"`
}

type LoginResponse struct {
	Success bool      `json:"success"`
	Token   string    `json:"token"`
	User    LoginUser `json:"user"`
	Message string    `json:"message,omitempty"`
}

func (c *Client) Login(ctx context.Context, email, password string) (LoginResponse, error) {
	var out LoginResponse
	payload := loginRequest{Email: strings.ToLower(strings.TrimSpace(email)), Password: password}
	if err := c.postJSON(ctx, "/api/auth/login", payload, &out); err != nil {
		return LoginResponse{}, err
	}
	return out, nil
}

type CheckEmailResponse struct {
	Exists bool `json:"exists"`
}

func (c *Client) CheckEmail(ctx context.Context, email string) (CheckEmailResponse, error) {
	var out CheckEmailResponse
	payload := map[string]string{"email": strings.ToLower(strings.TrimSpace(email))}
	if err := c.postJSON(ctx, "/api/auth/check-email", payload, &out); err != nil {
		return CheckEmailResponse{}, err
	}
	return out, nil
}

func (c *Client) RequestPasswordReset(ctx context.Context, email string) error {
	payload := map[string]string{"email": strings.ToLower(strings.TrimSpace(email))}
	return c.postJSON(ctx, "/api/auth/request-reset", payload, nil)
}

func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) error {
	payload := map[string]string{"token": token, "newPassword": newPassword}
	return c.postJSON(ctx, "/api/auth/reset", payload, nil)
}

// Forward relays an arbitrary API request to the backend unchanged except
// for the bearer header. The reply body is the caller's to consume; 401
// and transport failures surface as typed errors instead.
func (c *Client) Forward(ctx context.Context, r *http.Request) (*http.Response, error) {
	target := c.baseURL + r.URL.Path
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, r.Body)
	if err != nil {
		return nil, fmt.Errorf("build forward request: %w", err)
	}
	if contentType := r.Header.Get("Content-Type"); contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accept := r.Header.Get("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		message := readMessage(resp.Body)
		_ = resp.Body.Close()
		c.notifyUnauthorized(ctx)
		return nil, &APIError{Status: resp.StatusCode, Message: message}
	}
	return resp, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		apiErr := &APIError{Status: resp.StatusCode, Message: readMessage(resp.Body)}
		c.notifyUnauthorized(ctx)
		return apiErr
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &APIError{Status: resp.StatusCode, Message: readMessage(resp.Body)}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *Client) notifyUnauthorized(ctx context.Context) {
	if c.onUnauthorized != nil {
		c.onUnauthorized(ctx)
	}
}

func readMessage(body io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(body, 64*1024))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var payload struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return ""
	}
	return payload.Message
}
