package obs_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/jumla-app/trader-gateway/internal/obs"
)

func TestHTTPMetricsLabels(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewHTTPMetrics("trader", []float64{1, 10}, registry)
	handler := obs.HTTPObs{Metrics: metrics}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	req = req.WithContext(obs.WithRoutePattern(req.Context(), "/health/ready"))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d", rr.Code)
	}

	total := testutil.ToFloat64(metrics.ReqTotal.WithLabelValues(http.MethodGet, "/health/ready", "204"))
	if total != 1 {
		t.Fatalf("expected counter to be 1, got %v", total)
	}

	samples := testutil.CollectAndCount(metrics.ReqDur)
	if samples == 0 {
		t.Fatalf("expected histogram sample")
	}

	if metrics.InFlight != nil {
		if val := testutil.ToFloat64(metrics.InFlight); val != 0 {
			t.Fatalf("expected no in-flight requests, got %v", val)
		}
	}
}

func TestDomainMetricsOutcomes(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := obs.NewDomainMetrics("trader", registry)

	metrics.ObserveCartMutation("add")
	metrics.ObserveCartMutation("add")
	metrics.ObserveCheckout("accepted")
	metrics.SetActiveSessions(3)

	if v := testutil.ToFloat64(metrics.CartMutations.WithLabelValues("add")); v != 2 {
		t.Fatalf("expected 2 add mutations, got %v", v)
	}
	if v := testutil.ToFloat64(metrics.CheckoutTotal.WithLabelValues("accepted")); v != 1 {
		t.Fatalf("expected 1 accepted checkout, got %v", v)
	}
	if v := testutil.ToFloat64(metrics.ActiveSessions); v != 3 {
		t.Fatalf("expected 3 active sessions, got %v", v)
	}
}
