package metrics_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dalemusser/churchroll/internal/app/system/apperr"
	"github.com/dalemusser/churchroll/internal/app/system/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestTransfer_Outcomes(t *testing.T) {
	m := metrics.New()
	m.Transfer(metrics.ActionApprove, nil)
	m.Transfer(metrics.ActionApprove, apperr.Conflict("gone"))
	m.Transfer(metrics.ActionApprove, apperr.Conflict("gone again"))
	m.Transfer(metrics.ActionReject, errors.New("boom"))

	want := `
# HELP churchroll_transfers_total Transfer workflow calls by action and outcome.
# TYPE churchroll_transfers_total counter
churchroll_transfers_total{action="approve",outcome="conflict"} 2
churchroll_transfers_total{action="approve",outcome="ok"} 1
churchroll_transfers_total{action="reject",outcome="storage"} 1
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(want), "churchroll_transfers_total"); err != nil {
		t.Error(err)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *metrics.Metrics
	m.Transfer(metrics.ActionRequest, nil)
	m.LoginLimited()

	called := false
	h := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { called = true }))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	if !called {
		t.Error("nil middleware must pass through")
	}
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := metrics.New()
	r := chi.NewRouter()
	r.Use(m.Middleware)
	r.Get("/members/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Handle("/metrics", m.Handler())

	for _, id := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/members/"+id, nil))
	}

	want := `
# HELP churchroll_http_requests_total HTTP requests by route pattern, method and status code.
# TYPE churchroll_http_requests_total counter
churchroll_http_requests_total{code="404",method="GET",route="/members/{id}"} 3
`
	if err := testutil.GatherAndCompare(m.Registry(), strings.NewReader(want), "churchroll_http_requests_total"); err != nil {
		t.Error(err)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "churchroll_http_request_duration_seconds") {
		t.Errorf("metrics endpoint: %d %q", rec.Code, rec.Body.String())
	}
}
