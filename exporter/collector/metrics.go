package collector

import "github.com/prometheus/client_golang/prometheus"

var (
	collectionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zfs_exporter",
		Name:      "collections_total",
		Help:      "Total collection attempts by result.",
	}, []string{"result"})

	collectionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "zfs_exporter",
		Name:      "collection_duration_seconds",
		Help:      "Duration of pool inspections in seconds.",
		Buckets:   []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30},
	})

	expositionErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "zfs_exporter",
		Name:      "exposition_errors_total",
		Help:      "Snapshot samples dropped because they could not be exposed.",
	})
)

func init() {
	prometheus.MustRegister(
		collectionsTotal,
		collectionDuration,
		expositionErrorsTotal,
	)
}
