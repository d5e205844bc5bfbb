package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/turnosmed/booking-engine/internal/http/handlers"
	httpmiddleware "github.com/turnosmed/booking-engine/internal/http/middleware"
	"github.com/turnosmed/booking-engine/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	CatalogHandler     *handlers.CatalogHandler
	SlotsHandler       *handlers.SlotsHandler
	BookingHandler     *handlers.BookingHandler
	MetricsHandler     http.Handler
	CORSAllowedOrigins []string
	IdentityJWTSecret  string

	// RateLimitPerSecond enables per-IP rate limiting when > 0.
	RateLimitPerSecond float64
	RateLimitBurst     int
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	r.Route("/api", func(api chi.Router) {
		api.Use(httpmiddleware.Identity(cfg.IdentityJWTSecret))
		if cfg.RateLimitPerSecond > 0 {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSecond, cfg.RateLimitBurst))
		}

		if cfg.CatalogHandler != nil {
			api.Get("/catalog", cfg.CatalogHandler.Get)
		}
		if cfg.SlotsHandler != nil {
			api.Get("/slots", cfg.SlotsHandler.List)
		}
		if cfg.BookingHandler != nil {
			api.Route("/booking/sessions", func(sessions chi.Router) {
				sessions.Post("/", cfg.BookingHandler.Create)
				sessions.Route("/{sessionID}", func(session chi.Router) {
					session.Get("/", cfg.BookingHandler.Get)
					session.Post("/slot", cfg.BookingHandler.SelectSlot)
					session.Post("/back", cfg.BookingHandler.Back)
					session.Put("/patient", cfg.BookingHandler.UpdatePatient)
					session.Post("/submit", cfg.BookingHandler.Submit)
				})
			})
		}
	})

	return r
}
