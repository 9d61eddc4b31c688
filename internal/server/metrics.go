package server

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the server's Prometheus collectors on a private registry
// so tests can run side by side without duplicate registration panics.
type Metrics struct {
	registry *prometheus.Registry

	matchesCreated prometheus.Counter
	matchesEnded   *prometheus.CounterVec
	activeMatches  prometheus.Gauge
	actionsApplied *prometheus.CounterVec
	knockouts      prometheus.Counter
	wsClients      prometheus.Gauge
	httpDuration   *prometheus.HistogramVec
}

// NewMetrics creates and registers the collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		matchesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ptcg_matches_created_total",
			Help: "Matches created over the server lifetime.",
		}),
		matchesEnded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ptcg_matches_ended_total",
			Help: "Matches reaching a terminal state, by outcome.",
		}, []string{"outcome"}),
		activeMatches: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ptcg_active_matches",
			Help: "Matches currently held in memory.",
		}),
		actionsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ptcg_actions_applied_total",
			Help: "Actions submitted to the engine, by result.",
		}, []string{"result"}),
		knockouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ptcg_knockouts_total",
			Help: "Creatures knocked out across all matches.",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "ptcg_websocket_clients",
			Help: "Connected websocket spectators.",
		}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ptcg_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "status"}),
	}
	m.registry.MustRegister(
		m.matchesCreated, m.matchesEnded, m.activeMatches,
		m.actionsApplied, m.knockouts, m.wsClients, m.httpDuration,
	)
	return m
}

// Handler serves the registry in Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request latency and status.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		m.httpDuration.WithLabelValues(r.Method, strconv.Itoa(sw.status)).
			Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Hijack keeps websocket upgrades working behind the middleware.
func (w *statusWriter) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not support hijacking")
	}
	return h.Hijack()
}
