package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/shortloop-dev/shortloop/internal/constants"
	redisStorage "github.com/shortloop-dev/shortloop/internal/storage/redis"
	"github.com/shortloop-dev/shortloop/pkg/httputils"
)

// CreateRateLimiter enforces a per-caller counter per fixed time window on
// the create endpoint.
type CreateRateLimiter struct {
	store *redisStorage.FixedWindowLimiter
	limit int64
}

func NewCreateRateLimiter(store *redisStorage.FixedWindowLimiter, limitPerMinute int) *CreateRateLimiter {
	if limitPerMinute <= 0 {
		limitPerMinute = 60
	}
	return &CreateRateLimiter{
		store: store,
		limit: int64(limitPerMinute),
	}
}

func RateLimitMiddleware(limiter *CreateRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rateLimitKey(r)
			ctx, cancel := context.WithTimeout(r.Context(), 200*time.Millisecond)
			defer cancel()

			count, err := limiter.store.Incr(ctx, key)
			if err != nil {
				// Fail open: a flaky Redis must not block link creation.
				next.ServeHTTP(w, r)
				return
			}
			if count > limiter.limit {
				httputils.WriteAPIError(w, r, constants.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request) string {
	if apiKey := strings.TrimSpace(r.Header.Get(APIKeyHeader)); apiKey != "" {
		return "api_key:" + apiKey
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return "ip:" + host
	}
	return "ip:unknown"
}
