package middleware

import (
	"net/http"

	"github.com/rs/cors"
)

// CORSMiddleware permits cross-origin access on every route using rs/cors.
// The redirect and unlock-form paths are hit from arbitrary origins.
func CORSMiddleware(next http.Handler) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
			http.MethodHead,
		},
		AllowedHeaders: []string{
			"Content-Type",
			"X-API-Key",
			"X-User-Id",
			"Accept",
			"Origin",
			"X-Requested-With",
			"X-Correlation-Id",
			// OpenTelemetry headers
			"traceparent",
			"tracestate",
			"baggage",
		},
	})

	return c.Handler(next)
}
