package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpswagger "github.com/swaggo/http-swagger"

	"github.com/sp3dr4/shortlink/config"
	"github.com/sp3dr4/shortlink/internal/domain"
	"github.com/sp3dr4/shortlink/internal/pkg/metrics"
)

// NewRouter wires the public redirect surface, the authenticated API and the
// operational endpoints. limiter may be nil when rate limiting is disabled.
func NewRouter(
	handlers *Handlers,
	auth *JWTAuthenticator,
	limiter domain.RateLimiter,
	logger *slog.Logger,
	cfg *config.Config,
	metricsRegistry metrics.Registry,
) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware(logger))
	r.Use(metrics.PrometheusMiddleware(metricsRegistry))
	r.Use(middleware.Recoverer)

	r.Get("/health", handlers.HandleHealth)
	r.Get("/ready", handlers.HandleReady)

	if cfg.Metrics.Enabled {
		if h := metricsRegistry.GetHandler(); h != nil {
			r.Handle(cfg.Metrics.Path, h)
		}
	}

	r.Get("/swagger/*", httpswagger.Handler(
		httpswagger.URL(strings.TrimRight(cfg.App.BaseURL, "/")+"/swagger/doc.json"),
	))
	r.Get("/redoc", handleRedoc)

	r.Group(func(r chi.Router) {
		if limiter != nil {
			r.Use(RateLimitMiddleware(limiter))
		}

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   cfg.CORS.AllowedOrigins,
				AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
				AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Trace-Id"},
				ExposedHeaders:   []string{"X-Trace-Id", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
				AllowCredentials: true,
				MaxAge:           300,
			}))
			r.Use(auth.Middleware)

			r.Route("/urls", func(r chi.Router) {
				r.Post("/", handlers.HandleCreateURL)
				r.Get("/", handlers.HandleListURLs)
				r.Get("/{shortCode}", handlers.HandleGetURL)
				r.Patch("/{shortCode}", handlers.HandleUpdateURL)
				r.Delete("/{shortCode}", handlers.HandleDeleteURL)
			})

			r.Route("/analytics", func(r chi.Router) {
				r.Get("/top", handlers.HandleTopURLs)
				r.Get("/{shortCode}/clicks", handlers.HandleClickEvents)
				r.Get("/{shortCode}/summary", handlers.HandleClickSummary)
			})
		})

		r.Get("/{shortCode}", handlers.HandleRedirect)
		r.Head("/{shortCode}", handlers.HandleRedirect)
	})

	return r
}

func handleRedoc(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	redocHTML := `<!DOCTYPE html>
<html>
<head>
    <title>Shortlink API Documentation - Redoc</title>
    <meta charset="utf-8"/>
    <meta name="viewport" content="width=device-width, initial-scale=1">
    <style>
        body {
            margin: 0;
            padding: 0;
        }
    </style>
</head>
<body>
    <redoc spec-url='/swagger/doc.json'></redoc>
    <script src="https://cdn.redoc.ly/redoc/latest/bundles/redoc.standalone.js"></script>
</body>
</html>`
	_, _ = w.Write([]byte(redocHTML))
}
