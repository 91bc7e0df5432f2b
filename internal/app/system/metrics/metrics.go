// internal/app/system/metrics/metrics.go
package metrics

import (
	"net/http"
	"strconv"

	"github.com/dalemusser/churchroll/internal/app/system/apperr"
	"github.com/felixge/httpsnoop"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Transfer actions reported by Transfer.
const (
	ActionRequest = "request"
	ActionApprove = "approve"
	ActionReject  = "reject"
)

// Metrics owns a private registry so tests can build as many as they like.
// A nil *Metrics records nothing.
type Metrics struct {
	reg *prometheus.Registry

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	transfers    *prometheus.CounterVec
	loginLimited prometheus.Counter
}

// New registers the churchroll collectors plus the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		reg: reg,
		httpRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "churchroll_http_requests_total",
				Help: "HTTP requests by route pattern, method and status code.",
			},
			[]string{"route", "method", "code"},
		),
		httpDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "churchroll_http_request_duration_seconds",
				Help:    "HTTP request latency by route pattern.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		transfers: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "churchroll_transfers_total",
				Help: "Transfer workflow calls by action and outcome.",
			},
			[]string{"action", "outcome"},
		),
		loginLimited: f.NewCounter(prometheus.CounterOpts{
			Name: "churchroll_login_rate_limited_total",
			Help: "Login attempts refused by the rate limiter.",
		}),
	}
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Middleware counts and times every request. Routes are labelled by their
// chi pattern so path ids do not explode the label space.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		snoop := httpsnoop.CaptureMetrics(next, w, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(snoop.Code)).Inc()
		m.httpDuration.WithLabelValues(route, r.Method).Observe(snoop.Duration.Seconds())
	})
}

// Transfer records the outcome of a transfer workflow call: "ok" when err is
// nil, otherwise the apperr kind.
func (m *Metrics) Transfer(action string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = apperr.KindOf(err).String()
	}
	m.transfers.WithLabelValues(action, outcome).Inc()
}

// LoginLimited counts a refused login attempt.
func (m *Metrics) LoginLimited() {
	if m == nil {
		return
	}
	m.loginLimited.Inc()
}
