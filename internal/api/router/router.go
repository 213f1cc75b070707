package router

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/wolfman30/realty-crm/internal/assistant"
	"github.com/wolfman30/realty-crm/internal/auth"
	"github.com/wolfman30/realty-crm/internal/clients"
	httpmiddleware "github.com/wolfman30/realty-crm/internal/http/middleware"
	"github.com/wolfman30/realty-crm/internal/observability/metrics"
	"github.com/wolfman30/realty-crm/internal/properties"
	"github.com/wolfman30/realty-crm/internal/translation"
	"github.com/wolfman30/realty-crm/pkg/logging"
)

// Config holds router configuration. Optional handlers are skipped when nil.
type Config struct {
	Logger             *logging.Logger
	Tokens             httpmiddleware.TokenVerifier
	AuthHandler        *auth.Handler
	ClientsHandler     *clients.Handler
	PropertiesHandler  *properties.Handler
	TranslationHandler *translation.Handler
	AssistantHandler   *assistant.Handler
	MetricsHandler     http.Handler
	HTTPMetrics        *metrics.HTTPMetrics
	RateLimiter        *httpmiddleware.RateLimiter
	CORSAllowedOrigins []string
	Now                func() time.Time
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.HTTPMetrics != nil {
		r.Use(httpmiddleware.Metrics(cfg.HTTPMetrics))
	}

	// Public endpoints
	r.Group(func(public chi.Router) {
		public.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			_, _ = w.Write([]byte("API Running"))
		})
		public.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{
				"status":    "up",
				"message":   "Server is running",
				"timestamp": now().UTC().Format(time.RFC3339),
			})
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Rate-limited API surface
	r.Group(func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter))
		}
		api.Use(middleware.Compress(5))

		if cfg.TranslationHandler != nil {
			api.Post("/live-translate", cfg.TranslationHandler.LiveTranslate)
		}
		if cfg.AssistantHandler != nil {
			api.Post("/chatbot", cfg.AssistantHandler.Chat)
		}
		if cfg.AuthHandler != nil {
			api.Post("/api/auth/register", cfg.AuthHandler.Register)
			api.Post("/api/auth/login", cfg.AuthHandler.Login)
		}

		if cfg.Tokens == nil {
			return
		}
		// Actor-token routes
		api.Group(func(authed chi.Router) {
			authed.Use(httpmiddleware.Actor(cfg.Tokens))
			if cfg.AuthHandler != nil {
				authed.Get("/api/auth/me", cfg.AuthHandler.Me)
			}
			if cfg.ClientsHandler != nil {
				authed.Route("/api/clients", func(cr chi.Router) {
					cfg.ClientsHandler.Routes(cr, httpmiddleware.RequireAdmin)
				})
			}
			if cfg.PropertiesHandler != nil {
				authed.Route("/api/properties", cfg.PropertiesHandler.Routes)
			}
		})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
