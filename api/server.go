/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. RealIP:     Client address from X-Forwarded-For / X-Real-IP
  3. Logging:    One zap line per request, request-scoped logger
  4. Recoverer:  Panic recovery (500 instead of crash)
  5. CORS:       Cross-origin requests for a browser front end

ROUTE GROUPS:
  /api/healthz, /api/presets, /api/categories   Metadata
  /api/reviews/*                                Review runs

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/warp/register-review/logging"
)

// RouterOptions configure the middleware stack.
type RouterOptions struct {
	Logger *zap.Logger

	// AllowedOrigins for CORS. Empty allows any origin without credentials.
	AllowedOrigins []string
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	corsOpts := cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition", "X-Request-Id"},
	}
	if len(corsOpts.AllowedOrigins) == 0 {
		corsOpts.AllowedOrigins = []string{"*"}
	} else {
		corsOpts.AllowCredentials = true
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Middleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(corsOpts))

	r.Route("/api", func(r chi.Router) {
		r.Get("/healthz", h.Health)
		r.Get("/presets", h.ListPresets)
		r.Get("/categories", h.ListCategories)

		r.Route("/reviews", func(r chi.Router) {
			r.Get("/", h.ListReviews)
			r.Post("/", h.CreateReview)
			r.Get("/{id}", h.GetReview)
			r.Get("/{id}/export", h.ExportReview)
		})
	})

	return r
}
