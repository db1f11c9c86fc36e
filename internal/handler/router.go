package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/prn-tf/libreport/internal/repository"
)

// Router assembles the API route tree.
type Router struct {
	auth      *AuthHandler
	adminAuth *AdminAuthHandler
	books     *BookHandler
	loans     *LoanHandler
	visits    *VisitHandler
	reports   *ReportHandler
	hours     *HoursHandler
	admin     *AdminHandler

	requireAuth  func(http.Handler) http.Handler
	requireAdmin func(http.Handler) http.Handler
	metrics      func(http.Handler) http.Handler

	health repository.DatabaseHealth
	logger zerolog.Logger
}

// RouterConfig contains the handlers and middleware for the route tree.
type RouterConfig struct {
	AuthHandler      *AuthHandler
	AdminAuthHandler *AdminAuthHandler
	BookHandler      *BookHandler
	LoanHandler      *LoanHandler
	VisitHandler     *VisitHandler
	ReportHandler    *ReportHandler
	HoursHandler     *HoursHandler
	AdminHandler     *AdminHandler

	RequireAuth  func(http.Handler) http.Handler
	RequireAdmin func(http.Handler) http.Handler

	// Metrics instruments every request when set.
	Metrics func(http.Handler) http.Handler

	Health repository.DatabaseHealth
	Logger zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		auth:         cfg.AuthHandler,
		adminAuth:    cfg.AdminAuthHandler,
		books:        cfg.BookHandler,
		loans:        cfg.LoanHandler,
		visits:       cfg.VisitHandler,
		reports:      cfg.ReportHandler,
		hours:        cfg.HoursHandler,
		admin:        cfg.AdminHandler,
		requireAuth:  cfg.RequireAuth,
		requireAdmin: cfg.RequireAdmin,
		metrics:      cfg.Metrics,
		health:       cfg.Health,
		logger:       cfg.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler builds the full HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(rt.requestLogger)
	r.Use(middleware.Recoverer)
	if rt.metrics != nil {
		r.Use(rt.metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/", rt.handleIndex)
		r.Get("/health", rt.handleHealth)

		// Public routes
		rt.auth.RegisterRoutes(r)
		rt.adminAuth.RegisterRoutes(r)
		rt.visits.RegisterRoutes(r)

		// Any authenticated account
		r.Group(func(r chi.Router) {
			r.Use(rt.requireAuth)

			rt.auth.RegisterProtectedRoutes(r)
			rt.adminAuth.RegisterProtectedRoutes(r)
			rt.reports.RegisterRoutes(r)
			rt.hours.RegisterRoutes(r)
			rt.loans.RegisterStudentRoutes(r)
		})

		// Admin only
		r.Group(func(r chi.Router) {
			r.Use(rt.requireAuth)
			r.Use(rt.requireAdmin)

			rt.reports.RegisterAdminRoutes(r)
			rt.books.RegisterRoutes(r)
			rt.loans.RegisterRoutes(r)
			rt.hours.RegisterAdminRoutes(r)
			rt.admin.RegisterRoutes(r)
		})
	})

	return r
}

// handleIndex lists the API surface for anyone poking the root.
func (rt *Router) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name": "libreport",
		"endpoints": []string{
			"POST /api/auth/signup",
			"POST /api/auth/login",
			"GET /api/auth/me",
			"POST /api/auth/request-reset",
			"POST /api/auth/reset",
			"POST /api/admin/auth/signup",
			"POST /api/admin/auth/login",
			"GET /api/admin/auth/me",
			"GET /api/dashboard",
			"GET /api/heatmap/visits",
			"POST /api/visit/enter",
			"GET /api/books",
			"POST /api/loans/borrow",
			"POST /api/loans/return",
			"GET /api/loans/active",
			"GET /api/reports/top-books",
			"GET /api/reports/overdue",
			"GET /api/hours",
			"GET /api/health",
		},
	})
}

// handleHealth reports database reachability.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()

	if err := rt.health.Ping(r.Context()); err != nil {
		rt.logger.Error().Err(err).Msg("health check failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{
			"ok":   false,
			"time": now,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"ok":   true,
		"time": now,
	})
}

// requestLogger logs one line per request.
func (rt *Router) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		rt.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote", r.RemoteAddr).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
