package portal

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"hrportal/internal/backend"
	"hrportal/internal/domain/navigation"
	"hrportal/internal/domain/routing"
	"hrportal/internal/domain/session"
	"hrportal/internal/platform/config"
	"hrportal/internal/platform/requestctx"
	authhandler "hrportal/internal/transport/http/handlers/auth"
	proxyhandler "hrportal/internal/transport/http/handlers/proxy"
	"hrportal/internal/transport/http/middleware"
)

type App struct {
	Config  config.Config
	Store   session.Store
	Backend *backend.Client
	Nav     *navigation.Controller
	Router  http.Handler
}

func New(cfg config.Config) *App {
	store := session.NewMemoryStore(cfg.SessionTTL)
	nav := navigation.New(store)

	// The backend client is the only component that reacts to a 401 by
	// clearing the session; handlers merely translate the returned error.
	client := backend.New(cfg.BackendURL,
		backend.WithTimeout(cfg.BackendTimeout),
		backend.WithUnauthorizedHook(func(ctx context.Context) {
			sid := requestctx.GetSessionID(ctx)
			if sid == "" {
				return
			}
			if _, err := nav.OnUnauthorized(ctx, sid); err != nil {
				slog.Warn("clear session after 401 failed", "err", err)
			}
		}),
	)

	app := &App{Config: cfg, Store: store, Backend: client, Nav: nav}
	app.Router = app.buildRouter()
	return app
}

func (a *App) buildRouter() http.Handler {
	cfg := a.Config
	isProd := cfg.Environment == "production"

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(middleware.SecureHeaders(isProd))
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))
	router.Use(middleware.LoadSession(a.Store, cfg.SessionCookieName))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	authHandler := authhandler.NewHandler(a.Backend, a.Nav, cfg.SessionCookieName, cfg.CookieSecure, cfg.SessionTTL)
	router.Route("/portal", func(r chi.Router) {
		r.With(middleware.LoginRateLimit(cfg.RateLimitPerMinute, time.Minute)).Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
		r.Get("/session", authHandler.HandleSession)
		r.Post("/check-email", authHandler.HandleCheckEmail)
		r.Post("/request-reset", authHandler.HandleRequestReset)
		r.Post("/reset", authHandler.HandleResetPassword)
	})

	apiProxy := proxyhandler.NewHandler(a.Backend)
	router.HandleFunc("/api/*", apiProxy.Handle)

	pages := spaHandler{staticPath: cfg.FrontendDir, indexPath: "index.html"}

	for _, entry := range routing.Entries() {
		role := entry.Role
		for _, prefix := range entry.AllowedPrefixes {
			router.Route(prefix, func(r chi.Router) {
				r.Use(middleware.Protect(role))
				r.Handle("/", pages)
				r.Handle("/*", pages)
			})
		}
	}

	router.Get(routing.LoginPath, func(w http.ResponseWriter, r *http.Request) {
		// Already-authenticated users skip the login page and land on
		// their role's home.
		if sess, ok := middleware.GetSession(r.Context()); ok {
			if landing, err := routing.LandingPath(sess.Role); err == nil {
				http.Redirect(w, r, landing, http.StatusSeeOther)
				return
			}
		}
		pages.ServeHTTP(w, r)
	})
	router.Get("/reset-password", pages.ServeHTTP)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			http.Redirect(w, r, routing.LoginPath, http.StatusSeeOther)
			return
		}
		http.NotFound(w, r)
	})

	return router
}

func Run() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	app := New(cfg)

	slog.Info("HR portal listening", "addr", cfg.Addr, "backend", cfg.BackendURL)
	if err := http.ListenAndServe(cfg.Addr, app.Router); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.NotFound(w, r)
		return
	}

	path := filepath.Join(h.staticPath, filepath.Clean(r.URL.Path))
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		http.ServeFile(w, r, path)
		return
	}

	http.ServeFile(w, r, filepath.Join(h.staticPath, h.indexPath))
}
