// Package metrics holds the Prometheus collectors for codesignbot and the
// optional HTTP endpoint that exposes them.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "codesignbot"

// Critic call outcomes.
const (
	OutcomeOK      = "ok"
	OutcomeError   = "error"
	OutcomeBusy    = "busy"
	OutcomeOpen    = "breaker_open"
	OutcomeTimeout = "timeout"
)

// Metrics holds every collector, registered on its own registry.
type Metrics struct {
	registry *prometheus.Registry

	MergeRuns      *prometheus.CounterVec
	MergePointsIn  *prometheus.CounterVec
	MergePointsOut *prometheus.CounterVec
	CriticRequests *prometheus.CounterVec
	CriticDuration *prometheus.HistogramVec
	ToolCalls      *prometheus.CounterVec
}

// New creates the collectors and registers them on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		MergeRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "merge_runs_total",
				Help:      "Number of merge runs by strategy.",
			},
			[]string{"strategy"},
		),
		MergePointsIn: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "merge_points_in_total",
				Help:      "Points received by the merger.",
			},
			[]string{"strategy"},
		),
		MergePointsOut: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "merge_points_out_total",
				Help:      "Points kept by the merger.",
			},
			[]string{"strategy"},
		),
		CriticRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "critic_requests_total",
				Help:      "Critic requests by operation and outcome.",
			},
			[]string{"operation", "outcome"},
		),
		CriticDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "critic_request_duration_seconds",
				Help:      "Critic request latency in seconds.",
				Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40, 60},
			},
			[]string{"operation"},
		),
		ToolCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "tool_calls_total",
				Help:      "MCP tool calls by tool and result.",
			},
			[]string{"tool", "result"},
		),
	}

	m.registry.MustRegister(
		m.MergeRuns,
		m.MergePointsIn,
		m.MergePointsOut,
		m.CriticRequests,
		m.CriticDuration,
		m.ToolCalls,
	)
	return m
}

// Registry exposes the registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// ObserveMerge records one merge run. Safe on a nil receiver.
func (m *Metrics) ObserveMerge(strategy string, in, out int) {
	if m == nil {
		return
	}
	m.MergeRuns.WithLabelValues(strategy).Inc()
	m.MergePointsIn.WithLabelValues(strategy).Add(float64(in))
	m.MergePointsOut.WithLabelValues(strategy).Add(float64(out))
}

// ObserveCritic records one critic request. Safe on a nil receiver.
func (m *Metrics) ObserveCritic(operation, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.CriticRequests.WithLabelValues(operation, outcome).Inc()
	m.CriticDuration.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// ObserveTool records one MCP tool call. Safe on a nil receiver.
func (m *Metrics) ObserveTool(tool string, isError bool) {
	if m == nil {
		return
	}
	result := "ok"
	if isError {
		result = "error"
	}
	m.ToolCalls.WithLabelValues(tool, result).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (m *Metrics) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
