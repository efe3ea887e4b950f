package http

import (
	"net/http"
	"strings"

	"github.com/shortloop-dev/shortloop/internal/config"
	"github.com/shortloop-dev/shortloop/internal/infrastructure/telemetry"
	"github.com/shortloop-dev/shortloop/internal/shortlink"
	"github.com/shortloop-dev/shortloop/internal/transport/http/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var spanNames = map[string]string{
	"GET /health":                 "health",
	"GET /metrics":                "metrics",
	"POST /api/links":             "links.create",
	"GET /api/links/{code}":       "links.info",
	"GET /api/links/{code}/stats": "links.stats",
	"GET /{code}":                 "links.redirect",
}

type RouterOptions struct {
	EnableCORS    bool
	EnableLogging bool
	EnableMetrics bool

	// RateLimiter, when non-nil, gates POST /api/links.
	RateLimiter *middleware.CreateRateLimiter

	// Publisher, when non-nil, emits click events after redirects.
	Publisher shortlink.ClickPublisher
}

func DefaultRouterOptions() RouterOptions {
	return RouterOptions{
		EnableCORS:    true,
		EnableLogging: true,
		EnableMetrics: true,
	}
}

func NewRouter(cfg *config.Config, svc *shortlink.Service) http.Handler {
	return NewRouterWithOptions(cfg, svc, DefaultRouterOptions())
}

func NewRouterWithOptions(cfg *config.Config, svc *shortlink.Service, opts RouterOptions) http.Handler {
	mux := http.NewServeMux()

	healthHandler := NewHealthHandler()
	linksHandler := NewLinksHandler(cfg, svc, opts.Publisher)

	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.Handle("GET /metrics", healthHandler.Metrics())

	createMiddlewares := []func(http.Handler) http.Handler{
		middleware.APIKeyMiddleware(cfg.Security.APIKeys),
	}
	if opts.RateLimiter != nil {
		createMiddlewares = append(createMiddlewares, middleware.RateLimitMiddleware(opts.RateLimiter))
	}

	mux.Handle("POST /api/links", middleware.Chain(
		http.HandlerFunc(linksHandler.Create),
		createMiddlewares...,
	))

	mux.HandleFunc("GET /api/links/{code}", linksHandler.Info)
	mux.HandleFunc("GET /api/links/{code}/stats", linksHandler.Stats)
	mux.HandleFunc("GET /{code}", linksHandler.Redirect)

	var handler http.Handler = mux
	if opts.EnableCORS {
		handler = middleware.CORSMiddleware(handler)
	}
	if opts.EnableLogging {
		handler = middleware.LoggingMiddleware(handler)
	}
	if opts.EnableMetrics {
		handler = middleware.MetricsMiddleware(handler)
	}

	otelOptions := []otelhttp.Option{
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			key := r.Method + " " + r.Pattern
			if name, ok := spanNames[key]; ok {
				return name
			}
			if r.Pattern != "" {
				return r.Pattern
			}
			path := strings.TrimSpace(r.URL.Path)
			if path == "" {
				path = "/"
			}
			return path
		}),
	}

	if telemetry.TracerProvider != nil {
		otelOptions = append(otelOptions, otelhttp.WithTracerProvider(telemetry.TracerProvider))
	}

	return otelhttp.NewHandler(handler, cfg.App.Name, otelOptions...)
}
