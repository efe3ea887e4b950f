package middleware

import (
	"net/http"
	"strings"

	"github.com/shortloop-dev/shortloop/internal/constants"
	"github.com/shortloop-dev/shortloop/pkg/httputils"
)

const (
	APIKeyHeader = "X-API-Key"
	UserIDHeader = "X-User-Id"
)

// APIKeyMiddleware gates link creation behind a configured key set. With no
// keys configured the endpoint runs open.
func APIKeyMiddleware(allowedKeys []string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedKeys))
	for _, k := range allowedKeys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		allowed[k] = struct{}{}
	}

	if len(allowed) == 0 {
		return func(next http.Handler) http.Handler { return next }
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := strings.TrimSpace(r.Header.Get(APIKeyHeader))
			if _, ok := allowed[apiKey]; !ok {
				httputils.WriteAPIError(w, r, constants.ErrUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
