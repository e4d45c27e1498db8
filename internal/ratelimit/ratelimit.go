package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"restaurant-service/internal/metrics"
	"restaurant-service/internal/shared/httpx"
	"restaurant-service/internal/shared/logging"
	"restaurant-service/internal/shared/redisx"
)

type Limiter struct {
	R *redisx.Client
}

func New(r *redisx.Client) *Limiter { return &Limiter{R: r} }

// Allow counts one hit for key in a fixed window that starts with the first hit.
func (l *Limiter) Allow(ctx context.Context, key string, limit int64, window time.Duration) (bool, int64, error) {
	k := "rl:" + key
	pipe := l.R.R.TxPipeline()
	incr := pipe.Incr(ctx, k)
	pipe.ExpireNX(ctx, k, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, 0, err
	}
	n := incr.Val()
	return n <= limit, n, nil
}

// PerUser limits authenticated requests per viewer. It must run after the auth
// middleware. When Redis is unreachable requests are let through.
func (l *Limiter) PerUser(scope string, limit int64, window time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			uid, err := httpx.UserFromCtx(r)
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, httpx.ErrUnauthorized, "missing_user")
				return
			}
			ok, n, err := l.Allow(r.Context(), scope+":"+strconv.FormatUint(uid, 10), limit, window)
			if err != nil {
				logging.Ctx(r.Context()).Warn().Err(err).Str("scope", scope).Msg("rate limiter unavailable")
				next.ServeHTTP(w, r)
				return
			}
			if !ok {
				metrics.RateLimited.WithLabelValues(scope).Inc()
				w.Header().Set("Retry-After", strconv.Itoa(int(window.Seconds())))
				httpx.WriteError(w, http.StatusTooManyRequests,
					fmt.Errorf("rate limit exceeded (count=%d, limit=%d)", n, limit), "rate_limited")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
