package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"restaurant-service/internal/metrics"
)

func TestObserveRecordsRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	var gotID string
	mux.HandleFunc("GET /restaurants/{id}", func(w http.ResponseWriter, r *http.Request) {
		gotID = chimw.GetReqID(r.Context())
		w.WriteHeader(http.StatusTeapot)
	})
	h := chimw.RequestID(Observe(mux)(mux))

	c := metrics.HTTPRequests.WithLabelValues("GET", "GET /restaurants/{id}", "418")
	before := testutil.ToFloat64(c)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/restaurants/12", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/restaurants/13", nil))

	if got := testutil.ToFloat64(c); got != before+2 {
		t.Errorf("counter = %v, want %v", got, before+2)
	}
	if gotID == "" {
		t.Error("request id not propagated")
	}
}
