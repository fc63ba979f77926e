package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/voice-normalizers/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/voice-normalizers/internal/http/middleware"
	"github.com/wolfman30/voice-normalizers/pkg/logging"
)

// Config holds router configuration. Nil handlers leave their route
// unregistered so each service can be deployed on its own.
type Config struct {
	Logger             *logging.Logger
	NormalizeTime      http.HandlerFunc
	NormalizeDOB       http.HandlerFunc
	SlotsWebhook       http.HandlerFunc
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	RateLimiter        *httpmiddleware.RateLimiter
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(logger))
	r.Use(httpmiddleware.Recover(logger))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}

	r.Get("/health", handlers.Health)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Group(func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		if cfg.NormalizeTime != nil {
			api.Post("/normalize/time", cfg.NormalizeTime)
		}
		if cfg.NormalizeDOB != nil {
			api.Post("/normalize/dob", cfg.NormalizeDOB)
		}
		if cfg.SlotsWebhook != nil {
			api.Post("/webhooks/slots", cfg.SlotsWebhook)
		}
	})

	return r
}
