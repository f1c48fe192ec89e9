package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "livaulislam_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CacheLookups counts cache lookups by keyspace and result (hit, miss, error).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livaulislam_cache_lookups_total",
		Help: "Cache lookups by keyspace and result",
	}, []string{"keyspace", "result"})

	// EngagementMutations counts like/follow mutations by kind, action and whether a row changed.
	EngagementMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livaulislam_engagement_mutations_total",
		Help: "Like and follow mutations",
	}, []string{"kind", "action", "changed"})

	// AuthEvents counts published auth-state events by type.
	AuthEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livaulislam_auth_events_total",
		Help: "Auth-state events published",
	}, []string{"type"})

	// ArticleViews counts article detail views.
	ArticleViews = promauto.NewCounter(prometheus.CounterOpts{
		Name: "livaulislam_article_views_total",
		Help: "Article detail page views",
	})

	// WebSocketBackpressureDrops counts messages dropped due to backpressure by hub and reason.
	WebSocketBackpressureDrops = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "livaulislam_websocket_backpressure_drops_total",
		Help: "Total number of WebSocket messages dropped due to backpressure",
	}, []string{"hub", "reason"})
)

// DatabaseMetrics records query latency for one repository.
type DatabaseMetrics struct {
	table string
}

// NewDatabaseMetrics returns a DatabaseMetrics bound to table.
func NewDatabaseMetrics(table string) *DatabaseMetrics {
	return &DatabaseMetrics{table: table}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, m.table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, start)
	}
}
