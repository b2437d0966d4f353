package server

import (
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/garrethdev/coastal-elements/internal/api"
	"github.com/garrethdev/coastal-elements/internal/crm"
	"github.com/garrethdev/coastal-elements/internal/handler"
	"github.com/garrethdev/coastal-elements/internal/metrics"
	"github.com/garrethdev/coastal-elements/internal/middleware"
	"github.com/garrethdev/coastal-elements/internal/session"
	"github.com/garrethdev/coastal-elements/internal/store"
)

type Server struct {
	db            *sql.DB
	snapshotStore *store.SnapshotStore
	waitlistStore *store.WaitlistStore
	sessions      *session.Manager
	collector     *metrics.Collector
	waitlistH     *handler.WaitlistHandler
	authH         *handler.AuthHandler
	dashboardH    *handler.DashboardHandler
	searchH       *handler.SearchHandler
	rateLimiter   *middleware.RateLimiter
	logger        *slog.Logger
}

type Config struct {
	BaseURL      string
	TemplatesDir string
	APIClient    *api.Client
	CRMClient    *crm.Client
}

func New(db *sql.DB, cfg Config, logger *slog.Logger) (*Server, error) {
	snapshotStore := store.NewSnapshotStore(db)
	waitlistStore := store.NewWaitlistStore(db)
	sessions := session.NewManager(snapshotStore, cfg.APIClient, logger.With("component", "session"))
	collector := metrics.NewCollector()

	tmplDir := cfg.TemplatesDir
	if tmplDir == "" {
		tmplDir = "web/templates"
	}
	renderer, err := handler.NewRenderer(tmplDir, cfg.BaseURL, logger.With("component", "render"))
	if err != nil {
		return nil, err
	}

	return &Server{
		db:            db,
		snapshotStore: snapshotStore,
		waitlistStore: waitlistStore,
		sessions:      sessions,
		collector:     collector,
		waitlistH:     handler.NewWaitlistHandler(cfg.CRMClient, waitlistStore, renderer, collector, logger.With("component", "waitlist")),
		authH:         handler.NewAuthHandler(sessions, renderer, collector, logger.With("component", "auth")),
		dashboardH:    handler.NewDashboardHandler(sessions, renderer, logger.With("component", "dashboard")),
		searchH:       handler.NewSearchHandler(sessions, cfg.APIClient, renderer, collector, logger.With("component", "search")),
		rateLimiter:   middleware.NewRateLimiter(),
		logger:        logger,
	}, nil
}

// SnapshotStore returns the snapshot store for cleanup tasks.
func (s *Server) SnapshotStore() *store.SnapshotStore {
	return s.snapshotStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	// Public marketing routes
	mux.HandleFunc("GET /{$}", s.waitlistH.Landing)
	mux.HandleFunc("GET /thanks", s.waitlistH.ThankYou)
	mux.HandleFunc("POST /waitlist", s.rateLimited(s.waitlistH.Join))
	mux.HandleFunc("POST /api/submit-email", s.rateLimited(s.waitlistH.JoinAPI))

	// Auth routes (public)
	mux.HandleFunc("GET /health", s.healthCheck)
	mux.HandleFunc("GET /login", s.authH.LoginPage)
	mux.HandleFunc("POST /login", s.rateLimited(s.authH.RequestOTP))
	mux.HandleFunc("POST /auth/verify", s.rateLimited(s.authH.Verify))
	mux.HandleFunc("POST /auth/resend", s.rateLimited(s.authH.Resend))

	// Metrics
	mux.Handle("GET /metrics", s.collector.Handler())

	// Static files
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir("web/static"))))

	// Protected routes (explicitly registered with auth middleware)
	authMw := middleware.RequireSession(s.sessions)
	mux.Handle("POST /logout", authMw(http.HandlerFunc(s.authH.Logout)))
	mux.Handle("GET /dashboard", authMw(http.HandlerFunc(s.dashboardH.Dashboard)))
	mux.Handle("POST /subscribe", authMw(http.HandlerFunc(s.dashboardH.Subscribe)))
	mux.Handle("POST /subscription/cancel", authMw(http.HandlerFunc(s.dashboardH.CancelSubscription)))
	mux.Handle("GET /search", authMw(http.HandlerFunc(s.searchH.Page)))
	mux.Handle("POST /search", authMw(http.HandlerFunc(s.searchH.Search)))
	mux.Handle("POST /search/ai", authMw(http.HandlerFunc(s.searchH.AISearch)))
	mux.Handle("POST /search/export", authMw(http.HandlerFunc(s.searchH.Export)))
	mux.Handle("GET /saved-searches", authMw(http.HandlerFunc(s.searchH.SavedSearches)))
	mux.Handle("POST /saved-searches", authMw(http.HandlerFunc(s.searchH.SaveSearch)))
	mux.Handle("POST /saved-searches/delete", authMw(http.HandlerFunc(s.searchH.DeleteSavedSearch)))

	var root http.Handler = mux
	root = middleware.EnsureVisitor(root)
	root = middleware.RequestLogger(s.logger)(root)
	return root
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	rl := middleware.RateLimit(s.rateLimiter, middleware.RealIP, 10, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func (s *Server) healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
