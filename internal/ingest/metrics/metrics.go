package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Import outcomes.
const (
	OutcomeCompleted = "completed"
	OutcomeRejected  = "rejected"
	OutcomeFailed    = "failed"
)

// Metrics provides observability for roster imports.
type Metrics struct {
	Imports  *prometheus.CounterVec
	Rows     *prometheus.CounterVec
	Duration prometheus.Histogram
	// CacheEvictFailures counts household cache entries an import could not drop.
	CacheEvictFailures prometheus.Counter
}

// New creates the import metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Imports: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldsync_imports_total",
			Help: "Roster imports by outcome",
		}, []string{"outcome"}),
		Rows: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldsync_import_rows_total",
			Help: "Imported roster rows by result",
		}, []string{"result"}), // inserted, updated, skipped
		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fieldsync_import_duration_seconds",
			Help:    "Duration of completed roster imports",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		CacheEvictFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "fieldsync_import_cache_evict_failures_total",
			Help: "Household cache invalidations that failed after an import",
		}),
	}
}

// IncrementImport records one import attempt.
func (m *Metrics) IncrementImport(outcome string) {
	if m != nil {
		m.Imports.WithLabelValues(outcome).Inc()
	}
}

// AddRows records the row counts of a completed import.
func (m *Metrics) AddRows(inserted, updated, skipped int) {
	if m != nil {
		m.Rows.WithLabelValues("inserted").Add(float64(inserted))
		m.Rows.WithLabelValues("updated").Add(float64(updated))
		m.Rows.WithLabelValues("skipped").Add(float64(skipped))
	}
}

// ObserveDuration records how long a completed import took.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m != nil {
		m.Duration.Observe(d.Seconds())
	}
}

// IncrementCacheEvictFailure records one failed household cache invalidation.
func (m *Metrics) IncrementCacheEvictFailure() {
	if m != nil {
		m.CacheEvictFailures.Inc()
	}
}
