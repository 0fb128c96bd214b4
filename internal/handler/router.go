package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cvforge/cvforge-api/internal/metrics"
	"github.com/cvforge/cvforge-api/internal/middleware"
	"github.com/cvforge/cvforge-api/internal/service"
)

// RouterConfig carries the dependencies of the HTTP surface.
type RouterConfig struct {
	Auth    *service.AuthService
	Resumes *service.ResumeService

	Logger    *slog.Logger
	Collector *metrics.Collector
	Gatherer  prometheus.Gatherer

	AuthRateLimitRPS   float64
	AuthRateLimitBurst int
}

// NewRouter builds the chi router. Background work started for the router
// stops when ctx is done.
func NewRouter(ctx context.Context, cfg RouterConfig) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Collector == nil {
		cfg.Collector = metrics.NewCollector(prometheus.NewRegistry())
	}

	authHandler := NewAuthHandler(cfg.Auth, cfg.Collector)
	resumeHandler := NewResumeHandler(cfg.Resumes, cfg.Collector)

	r := chi.NewRouter()
	r.Use(middleware.Recover())
	r.Use(middleware.Logging(logger))
	r.Use(middleware.Metrics(cfg.Collector))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	if cfg.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", metrics.Handler(cfg.Gatherer))
	}

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimit(ctx, cfg.AuthRateLimitRPS, cfg.AuthRateLimitBurst))
			r.Post("/auth/register", authHandler.HandleRegister)
			r.Post("/auth/login", authHandler.HandleLogin)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(cfg.Auth, cfg.Collector))
			r.Get("/auth/me", authHandler.HandleMe)

			r.Get("/resumes", resumeHandler.HandleList)
			r.Post("/resumes", resumeHandler.HandleCreate)
			r.Get("/resumes/{resume_id}", resumeHandler.HandleGet)
			r.Put("/resumes/{resume_id}", resumeHandler.HandleUpdate)
			r.Delete("/resumes/{resume_id}", resumeHandler.HandleDelete)
			r.Post("/resumes/{resume_id}/upload", resumeHandler.HandleUpload)
		})
	})

	return r
}
