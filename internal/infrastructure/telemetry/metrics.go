package telemetry

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "ledger"

// LedgerMetrics holds the Prometheus collectors for ledger operations.
// Each instance owns its registry so tests can build as many as they like.
type LedgerMetrics struct {
	Registry *prometheus.Registry

	operationDuration *prometheus.HistogramVec
	operationsTotal   *prometheus.CounterVec
	lockWait          prometheus.Histogram
	integrityRuns     prometheus.Counter
	violations        prometheus.Gauge
}

// NewLedgerMetrics registers the ledger collectors plus the Go runtime and
// process collectors in a fresh registry.
func NewLedgerMetrics() *LedgerMetrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &LedgerMetrics{
		Registry: reg,

		operationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "operation_duration_seconds",
				Help:      "Duration of ledger operations including lock wait.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		operationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "operations_total",
				Help:      "Ledger operations by outcome.",
			},
			[]string{"operation", "outcome"},
		),
		lockWait: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "lock_wait_seconds",
				Help:      "Time spent waiting for vault and order locks.",
				Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
			},
		),
		integrityRuns: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "integrity_checks_total",
				Help:      "Integrity validations performed.",
			},
		),
		violations: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "integrity_violations",
				Help:      "Violations found by the most recent integrity validation.",
			},
		),
	}
}

// ObserveOperation records one ledger operation.
func (m *LedgerMetrics) ObserveOperation(operation, outcome string, d time.Duration) {
	m.operationDuration.WithLabelValues(operation).Observe(d.Seconds())
	m.operationsTotal.WithLabelValues(operation, outcome).Inc()
}

// ObserveLockWait records how long an operation waited for its locks.
func (m *LedgerMetrics) ObserveLockWait(d time.Duration) {
	m.lockWait.Observe(d.Seconds())
}

// ObserveIntegrity records the result of an integrity validation.
func (m *LedgerMetrics) ObserveIntegrity(violations int) {
	m.integrityRuns.Inc()
	m.violations.Set(float64(violations))
}

// RegisterDBStats exposes the connection pool statistics of db.
func (m *LedgerMetrics) RegisterDBStats(db *sql.DB, dbName string) error {
	return m.Registry.Register(collectors.NewDBStatsCollector(db, dbName))
}

// Handler serves the registry in the Prometheus exposition format.
func (m *LedgerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
