// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"restaurant-service/internal/shared/apperr"
)

var (
	RelationToggles = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relation_toggles_total",
			Help: "Favorite, like and follow toggles by outcome",
		},
		[]string{"kind", "op", "result"}, // op: add|remove; result: ok|conflict|not_found|invalid|error
	)

	RelationEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "relation_events_published_total",
			Help: "Relation change events handed to the broker",
		},
		[]string{"result"}, // ok|error|open|dropped
	)

	RestaurantViews = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "restaurant_views_total",
			Help: "Restaurant detail views counted",
		},
	)

	RankingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ranking_assembly_duration_seconds",
			Help:    "Time spent assembling ranking and profile views",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"view"},
	)

	RateLimited = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limited_requests_total",
			Help: "Requests rejected by the rate limiter",
		},
		[]string{"scope"},
	)

	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status",
		},
		[]string{"method", "route", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
)

// Result buckets an error from the relation service into a label value.
func Result(err error) string {
	switch {
	case err == nil:
		return "ok"
	case apperr.IsConflict(err):
		return "conflict"
	case apperr.IsNotFound(err):
		return "not_found"
	case apperr.IsValidation(err):
		return "invalid"
	default:
		return "error"
	}
}

func RecordToggle(kind string, add bool, err error) {
	op := "remove"
	if add {
		op = "add"
	}
	RelationToggles.WithLabelValues(kind, op, Result(err)).Inc()
}

func ObserveRanking(view string, start time.Time) {
	RankingDuration.WithLabelValues(view).Observe(time.Since(start).Seconds())
}

func RecordHTTP(method, route string, status int, d time.Duration) {
	HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
