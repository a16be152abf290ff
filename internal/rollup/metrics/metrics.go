package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Household cache results.
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Metrics provides observability for rollup queries.
type Metrics struct {
	QueryDuration  *prometheus.HistogramVec
	MembersScanned prometheus.Histogram
	RowsReturned   prometheus.Histogram
	Cache          *prometheus.CounterVec
}

// New creates the rollup metrics on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		QueryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fieldsync_rollup_query_duration_seconds",
			Help:    "Duration of household rollup queries",
			Buckets: prometheus.DefBuckets,
		}, []string{"sort"}),
		MembersScanned: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fieldsync_rollup_members_scanned",
			Help:    "Members read to answer one rollup query",
			Buckets: prometheus.ExponentialBuckets(10, 4, 8),
		}),
		RowsReturned: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "fieldsync_rollup_rows_returned",
			Help:    "Households returned per rollup page",
			Buckets: []float64{0, 10, 50, 100, 200, 500},
		}),
		Cache: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fieldsync_household_cache_total",
			Help: "Household member cache lookups by result",
		}, []string{"result"}),
	}
}

// ObserveQuery records one answered rollup query.
func (m *Metrics) ObserveQuery(sort string, scanned, rows int, d time.Duration) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(sort).Observe(d.Seconds())
	m.MembersScanned.Observe(float64(scanned))
	m.RowsReturned.Observe(float64(rows))
}

// IncrementCache records a household cache lookup.
func (m *Metrics) IncrementCache(result string) {
	if m != nil {
		m.Cache.WithLabelValues(result).Inc()
	}
}
