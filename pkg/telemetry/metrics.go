package telemetry

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics provides Prometheus metrics for pipeline builds and runs.
//
// A nil *Metrics, or one created with metrics disabled, records nothing.
type Metrics struct {
	config MetricsConfig

	// Build metrics
	buildsCompleted *prometheus.CounterVec
	buildDuration   *prometheus.HistogramVec
	buildRounds     *prometheus.HistogramVec
	unitsIncluded   *prometheus.CounterVec

	// Run metrics
	runsCompleted *prometheus.CounterVec
	activeRuns    prometheus.Gauge

	// Unit metrics
	hookCalls    *prometheus.CounterVec
	hookDuration *prometheus.HistogramVec
	unitResults  *prometheus.CounterVec

	// Report metrics
	productsAdded   prometheus.Counter
	productsEvicted prometheus.Counter

	// Error metrics
	errorsByClass *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		// Return a no-op metrics instance
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	buckets := []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0, 5.0}

	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		buildsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_builds_total",
				Help:      "Total number of pipeline builds",
			},
			[]string{"mode", "status"},
		),
		buildDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_build_duration_seconds",
				Help:      "Duration of pipeline builds in seconds",
				Buckets:   buckets,
			},
			[]string{"mode"},
		),
		buildRounds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "pipeline_build_rounds",
				Help:      "Number of inclusion rounds a pipeline build needed",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
			},
			[]string{"mode"},
		),
		unitsIncluded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pipeline_units_included_total",
				Help:      "Total number of units included in built pipelines",
			},
			[]string{"kind"},
		),

		runsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_completed_total",
				Help:      "Total number of pipeline runs completed",
			},
			[]string{"status"},
		),
		activeRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "active_runs",
				Help:      "Current number of active pipeline runs",
			},
		),

		hookCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unit_hook_calls_total",
				Help:      "Total number of unit lifecycle hook calls",
			},
			[]string{"hook", "status"},
		),
		hookDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "unit_hook_broadcast_duration_seconds",
				Help:      "Duration of lifecycle hook broadcasts in seconds",
				Buckets:   buckets,
			},
			[]string{"hook"},
		),
		unitResults: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "unit_results_total",
				Help:      "Total number of unit run results by outcome",
			},
			[]string{"kind", "outcome"},
		),

		productsAdded: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_products_added_total",
				Help:      "Total number of products offered to reports",
			},
		),
		productsEvicted: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "report_products_evicted_total",
				Help:      "Total number of products dropped by bounded reports",
			},
		),

		errorsByClass: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_by_class_total",
				Help:      "Total number of pipeline errors by error class",
			},
			[]string{"class"},
		),
	}

	registry.MustRegister(
		m.buildsCompleted,
		m.buildDuration,
		m.buildRounds,
		m.unitsIncluded,
		m.runsCompleted,
		m.activeRuns,
		m.hookCalls,
		m.hookDuration,
		m.unitResults,
		m.productsAdded,
		m.productsEvicted,
		m.errorsByClass,
	)

	return m, nil
}

// Registry returns the registry holding the collectors, or nil when disabled.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Build Metrics

// RecordBuild records a finished pipeline build.
func (m *Metrics) RecordBuild(mode, status string, rounds int, duration time.Duration) {
	if m == nil || m.buildsCompleted == nil {
		return
	}
	m.buildsCompleted.WithLabelValues(mode, status).Inc()
	m.buildDuration.WithLabelValues(mode).Observe(duration.Seconds())
	m.buildRounds.WithLabelValues(mode).Observe(float64(rounds))
}

// RecordUnitIncluded records a unit added to a pipeline.
func (m *Metrics) RecordUnitIncluded(kind string) {
	if m == nil || m.unitsIncluded == nil {
		return
	}
	m.unitsIncluded.WithLabelValues(kind).Inc()
}

// Run Metrics

// RecordRunStarted marks a pipeline run as active.
func (m *Metrics) RecordRunStarted() {
	if m == nil || m.activeRuns == nil {
		return
	}
	m.activeRuns.Inc()
}

// RecordRunCompleted records a completed run with its status.
func (m *Metrics) RecordRunCompleted(status string) {
	if m == nil || m.runsCompleted == nil {
		return
	}
	m.runsCompleted.WithLabelValues(status).Inc()
	m.activeRuns.Dec()
}

// Unit Metrics

// RecordHookBroadcast records a lifecycle hook broadcast.
func (m *Metrics) RecordHookBroadcast(hook, status string, calls int, duration time.Duration) {
	if m == nil || m.hookCalls == nil {
		return
	}
	m.hookCalls.WithLabelValues(hook, status).Add(float64(calls))
	m.hookDuration.WithLabelValues(hook).Observe(duration.Seconds())
}

// RecordUnitResult records the outcome of a unit run.
func (m *Metrics) RecordUnitResult(kind, outcome string) {
	if m == nil || m.unitResults == nil {
		return
	}
	m.unitResults.WithLabelValues(kind, outcome).Inc()
}

// Report Metrics

// RecordProductAdded records a product offered to a report, and whether a
// product was dropped to stay within capacity.
func (m *Metrics) RecordProductAdded(evicted bool) {
	if m == nil || m.productsAdded == nil {
		return
	}
	m.productsAdded.Inc()
	if evicted {
		m.productsEvicted.Inc()
	}
}

// Error Metrics

// RecordError records an error by class.
func (m *Metrics) RecordError(errorClass string) {
	if m == nil || m.errorsByClass == nil {
		return
	}
	m.errorsByClass.WithLabelValues(errorClass).Inc()
}

// Handler returns an HTTP handler for the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil || m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
	})
}

// StartMetricsServer starts an HTTP server to expose metrics. The returned
// server can be shut down by the caller; it is nil when metrics are disabled.
func (m *Metrics) StartMetricsServer(logger zerolog.Logger) *http.Server {
	if m == nil || !m.config.Enabled {
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	server := &http.Server{
		Addr:              m.config.ListenAddress,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			// Metrics are best effort; the run goes on without them.
			logger.Error().Err(err).Str("addr", server.Addr).Msg("metrics server failed")
		}
	}()

	return server
}
