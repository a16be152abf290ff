package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes.
const (
	OutcomeAccepted = "accepted"
	OutcomeStale    = "stale"
	OutcomeRejected = "rejected"
)

// Metrics provides observability for visit reconciliation and the visit stream.
type Metrics struct {
	Submissions    *prometheus.CounterVec
	Suspect        prometheus.Counter
	Distance       prometheus.Histogram
	StreamResults  *prometheus.CounterVec
	CacheEvictFail prometheus.Counter
}

// New creates the visit metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldsync_visit_submissions_total",
			Help: "Visit submissions by outcome",
		}, []string{"outcome", "status"}),
		Suspect: f.NewCounter(prometheus.CounterOpts{
			Name: "fieldsync_visit_suspect_total",
			Help: "Accepted visits flagged as suspect",
		}),
		Distance: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fieldsync_visit_distance_meters",
			Help:    "Distance between the submitted location and the member's registered location",
			Buckets: []float64{5, 10, 25, 50, 75, 100, 250, 500, 1000, 5000},
		}),
		StreamResults: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldsync_visit_stream_events_total",
			Help: "Visit stream publish attempts by result",
		}, []string{"result"}), // published, failed, dropped
		CacheEvictFail: f.NewCounter(prometheus.CounterOpts{
			Name: "fieldsync_visit_cache_invalidation_failures_total",
			Help: "Household cache invalidations that failed after an accepted visit",
		}),
	}
}

// IncrementSubmission records one submission outcome.
func (m *Metrics) IncrementSubmission(outcome, status string) {
	if m != nil {
		m.Submissions.WithLabelValues(outcome, status).Inc()
	}
}

// ObserveAccepted records distance and suspicion for an accepted visit.
func (m *Metrics) ObserveAccepted(distanceMeters float64, suspect bool) {
	if m == nil {
		return
	}
	m.Distance.Observe(distanceMeters)
	if suspect {
		m.Suspect.Inc()
	}
}

// IncrementStream records one visit stream result.
func (m *Metrics) IncrementStream(result string) {
	if m != nil {
		m.StreamResults.WithLabelValues(result).Inc()
	}
}

// IncrementCacheEvictFailure records a failed household cache invalidation.
func (m *Metrics) IncrementCacheEvictFailure() {
	if m != nil {
		m.CacheEvictFail.Inc()
	}
}
