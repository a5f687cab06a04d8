package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides Prometheus metrics for the installer.
type Metrics struct {
	config MetricsConfig

	// Install run metrics
	runsStarted   prometheus.Counter
	runsCompleted *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec

	// Plugin lifecycle metrics
	pluginCalls    *prometheus.CounterVec
	pluginDuration *prometheus.HistogramVec

	// Rollback metrics
	rollbacksStarted     prometheus.Counter
	rollbackFilesRemoved prometheus.Counter
	rollbackFileFailures prometheus.Counter

	// Uninstall metrics
	uninstallsBlocked *prometheus.CounterVec

	registry *prometheus.Registry
}

// NewMetrics creates a new metrics collector with the given configuration.
// When metrics are disabled every recording method is a no-op.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{config: cfg}, nil
	}

	namespace := cfg.Namespace
	registry := prometheus.NewRegistry()

	m := &Metrics{
		config:   cfg,
		registry: registry,

		runsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "install_runs_started_total",
			Help:      "Total number of install runs started",
		}),
		runsCompleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "install_runs_completed_total",
				Help:      "Total number of install runs completed",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "install_run_duration_seconds",
				Help:      "Duration of install runs in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		pluginCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "plugin_calls_total",
				Help:      "Total number of plugin lifecycle calls",
			},
			[]string{"plugin", "operation", "status"},
		),
		pluginDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "plugin_call_duration_seconds",
				Help:      "Duration of plugin lifecycle calls in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"plugin", "operation"},
		),
		rollbacksStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollbacks_started_total",
			Help:      "Total number of rollbacks started",
		}),
		rollbackFilesRemoved: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollback_files_removed_total",
			Help:      "Total number of files removed during rollback",
		}),
		rollbackFileFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rollback_file_failures_total",
			Help:      "Total number of files that could not be removed during rollback",
		}),
		uninstallsBlocked: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "uninstalls_blocked_total",
				Help:      "Total number of uninstalls blocked by dependents",
			},
			[]string{"plugin"},
		),
	}

	registry.MustRegister(
		m.runsStarted,
		m.runsCompleted,
		m.runDuration,
		m.pluginCalls,
		m.pluginDuration,
		m.rollbacksStarted,
		m.rollbackFilesRemoved,
		m.rollbackFileFailures,
		m.uninstallsBlocked,
	)

	return m, nil
}

// RecordRunStarted increments the started-runs counter.
func (m *Metrics) RecordRunStarted() {
	if m.registry == nil {
		return
	}
	m.runsStarted.Inc()
}

// RecordRunCompleted records a completed run and its duration.
func (m *Metrics) RecordRunCompleted(status string, duration time.Duration) {
	if m.registry == nil {
		return
	}
	m.runsCompleted.WithLabelValues(status).Inc()
	m.runDuration.WithLabelValues(status).Observe(duration.Seconds())
}

// RecordPluginCall records a single plugin lifecycle call.
func (m *Metrics) RecordPluginCall(pluginName, operation, status string, duration time.Duration) {
	if m.registry == nil {
		return
	}
	m.pluginCalls.WithLabelValues(pluginName, operation, status).Inc()
	m.pluginDuration.WithLabelValues(pluginName, operation).Observe(duration.Seconds())
}

// RecordRollbackStarted increments the rollback counter.
func (m *Metrics) RecordRollbackStarted() {
	if m.registry == nil {
		return
	}
	m.rollbacksStarted.Inc()
}

// RecordRollbackFile records one file-removal attempt during rollback.
func (m *Metrics) RecordRollbackFile(removed bool) {
	if m.registry == nil {
		return
	}
	if removed {
		m.rollbackFilesRemoved.Inc()
	} else {
		m.rollbackFileFailures.Inc()
	}
}

// RecordUninstallBlocked records an uninstall refused because of dependents.
func (m *Metrics) RecordUninstallBlocked(pluginName string) {
	if m.registry == nil {
		return
	}
	m.uninstallsBlocked.WithLabelValues(pluginName).Inc()
}

// Handler returns an HTTP handler serving the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m.registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve starts an HTTP server for the metrics endpoint. It blocks, so run it
// in a goroutine.
func (m *Metrics) Serve() error {
	if m.registry == nil {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle(m.config.Path, m.Handler())
	return http.ListenAndServe(m.config.ListenAddress, mux)
}
