// Package api wires the Chi router, middleware stack, and endpoint handlers.
package api

import (
	_ "embed"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/streamcast/streamcast-notify/internal/api/handler"
	"github.com/streamcast/streamcast-notify/internal/config"
	"github.com/streamcast/streamcast-notify/internal/dispatch"
	"github.com/streamcast/streamcast-notify/internal/rtc"
)

// openapiSpec is the hand-maintained API document served to the Swagger UI.
//
//go:embed openapi.json
var openapiSpec []byte

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(pool *pgxpool.Pool, coordinator *dispatch.Coordinator, issuer *rtc.Issuer, cfg *config.Config) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type"},
		ExposedHeaders:   []string{"X-Process-Time"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	h := handler.New(pool, coordinator, issuer, cfg)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
	})

	// Swagger UI over the embedded API document
	r.Get("/docs/doc.json", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(openapiSpec)
	})
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Credential issuance
		r.Post("/rtc/token", h.IssueToken)

		// Dispatch cycle trigger (external scheduler entry point)
		r.Post("/dispatch/run", h.RunCycle)
	})

	return r
}
