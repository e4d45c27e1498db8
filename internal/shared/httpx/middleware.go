package httpx

import (
	"net/http"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"

	"restaurant-service/internal/metrics"
	"restaurant-service/internal/shared/logging"
)

// Observe logs each request and records route metrics. The route label is the
// ServeMux pattern so path ids do not blow up label cardinality. It expects
// chi's RequestID middleware to run first.
func Observe(mux *http.ServeMux) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()
			if id := chimw.GetReqID(ctx); id != "" {
				ctx = logging.WithRequestID(ctx, id)
				r = r.WithContext(ctx)
			}
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := "unmatched"
			if _, pattern := mux.Handler(r); pattern != "" {
				route = pattern
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			d := time.Since(start)
			metrics.RecordHTTP(r.Method, route, status, d)
			logging.Ctx(ctx).Debug().Str("method", r.Method).Str("route", route).
				Int("status", status).Dur("duration", d).Msg("request")
		})
	}
}
