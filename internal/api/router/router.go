package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vkovalov/workbot/internal/classify"
	httpmiddleware "github.com/vkovalov/workbot/internal/http/middleware"
	"github.com/vkovalov/workbot/internal/stats"
	"github.com/vkovalov/workbot/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger          *logging.Logger
	ClassifyHandler *classify.Handler
	StatsHandler    *stats.Handler
	MetricsHandler  http.Handler
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (health checks, metrics)
	r.Group(func(public chi.Router) {
		public.Get("/health", cfg.ClassifyHandler.HealthCheck)
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	r.Route("/v1", func(v1 chi.Router) {
		v1.Post("/classify", cfg.ClassifyHandler.Classify)
		v1.Post("/check", cfg.ClassifyHandler.Check)

		v1.Route("/conversations/{conversationID}", func(conv chi.Router) {
			conv.Get("/stats", cfg.StatsHandler.GetConversationStats)
			conv.Delete("/stats", cfg.StatsHandler.ResetConversationStats)
			conv.Post("/mute", cfg.ClassifyHandler.Mute)
			conv.Post("/unmute", cfg.ClassifyHandler.Unmute)
		})

		v1.Route("/stats", func(s chi.Router) {
			s.Get("/summary", cfg.StatsHandler.GetSummary)
			s.Post("/reset-daily", cfg.StatsHandler.ResetDaily)
		})
	})

	return r
}
