package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// StoreQueryDuration covers every statement issued by a task store.
	StoreQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "todo_store_query_duration_seconds",
			Help:    "Task store statement duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		},
		[]string{"driver", "operation"},
	)

	MutationCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "todo_mutation_count",
			Help: "Task mutations by operation and outcome kind",
		},
		[]string{"operation", "outcome"},
	)

	LiveViewSubscribers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "todo_live_view_subscribers",
			Help: "Current number of live task view subscribers",
		},
	)

	LiveViewDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "todo_live_view_deliveries_total",
			Help: "Distinct task lists published to live view subscribers",
		},
	)

	LiveViewUpstreamStarts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "todo_live_view_upstream_starts_total",
			Help: "Times the live view subscribed to the task store",
		},
	)
)

func RecordStoreQuery(driver, operation string, d time.Duration) {
	StoreQueryDuration.WithLabelValues(driver, operation).Observe(d.Seconds())
}

func IncrementMutation(operation, outcome string) {
	MutationCount.WithLabelValues(operation, outcome).Inc()
}

func SetLiveViewSubscribers(n int) {
	LiveViewSubscribers.Set(float64(n))
}

// Handler exposes the default registry for scraping.
func Handler() http.Handler {
	return promhttp.Handler()
}
