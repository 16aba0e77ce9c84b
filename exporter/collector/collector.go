package collector

import (
	"github.com/erikmagkekse/zfs-exporter/exporter/snapshot"
	"github.com/erikmagkekse/zfs-exporter/exporter/zfs"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// failureKinds is the fixed label set of zfs_collection_failure.
var failureKinds = []string{
	zfs.ErrTimeout,
	zfs.ErrNotAvailable,
	zfs.ErrParseFailure,
	zfs.ErrPartialPoolFailure,
	"UNKNOWN",
}

// SnapshotCollector exposes the cached CollectionResult. Collect only reads
// the cache, so a scrape never waits for an inspection.
type SnapshotCollector struct {
	cache *snapshot.Cache
	descs map[string]*prometheus.Desc

	up                  *prometheus.Desc
	lastSuccess         *prometheus.Desc
	consecutiveFailures *prometheus.Desc
	stale               *prometheus.Desc
	failure             *prometheus.Desc
}

func NewSnapshotCollector(cache *snapshot.Cache) *SnapshotCollector {
	c := &SnapshotCollector{
		cache: cache,
		descs: make(map[string]*prometheus.Desc, len(snapshot.Definitions)),
		up: prometheus.NewDesc("zfs_up",
			"1 if the most recent collection produced the served snapshot, 0 otherwise. Exporter-level up, distinct from the scrape up series.", nil, nil),
		lastSuccess: prometheus.NewDesc("zfs_last_success_timestamp_seconds",
			"Collection time of the served snapshot.", nil, nil),
		consecutiveFailures: prometheus.NewDesc("zfs_consecutive_failures",
			"Number of failed collections since the last success.", nil, nil),
		stale: prometheus.NewDesc("zfs_snapshot_stale",
			"1 if the served pool metrics come from an earlier collection than the last attempt.", nil, nil),
		failure: prometheus.NewDesc("zfs_collection_failure",
			"1 for the failure kind of the most recent collection.", []string{"kind"}, nil),
	}
	for _, d := range snapshot.Definitions {
		c.descs[d.Name] = prometheus.NewDesc(d.Name, d.Help, d.Labels, nil)
	}
	return c
}

func (c *SnapshotCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.up
	ch <- c.lastSuccess
	ch <- c.consecutiveFailures
	ch <- c.stale
	ch <- c.failure
	for _, d := range snapshot.Definitions {
		ch <- c.descs[d.Name]
	}
}

func (c *SnapshotCollector) Collect(ch chan<- prometheus.Metric) {
	r := c.cache.Get()

	ch <- prometheus.MustNewConstMetric(c.up, prometheus.GaugeValue, boolValue(r.Up()))
	ch <- prometheus.MustNewConstMetric(c.consecutiveFailures, prometheus.GaugeValue, float64(r.ConsecutiveFailures))
	ch <- prometheus.MustNewConstMetric(c.stale, prometheus.GaugeValue, boolValue(r.Stale()))
	for _, kind := range failureKinds {
		active := r.Failure != nil && r.Failure.Kind == kind
		ch <- prometheus.MustNewConstMetric(c.failure, prometheus.GaugeValue, boolValue(active), kind)
	}

	if r.Snapshot == nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.lastSuccess, prometheus.GaugeValue, float64(r.Snapshot.Timestamp.UnixNano())/1e9)

	for _, s := range r.Snapshot.Samples {
		m, err := c.metric(s)
		if err != nil {
			expositionErrorsTotal.Inc()
			log.Error().Err(err).Str("metric", s.Name).Msg("exposition: dropping sample")
			continue
		}
		ch <- m
	}
}

func (c *SnapshotCollector) metric(s snapshot.Sample) (prometheus.Metric, error) {
	def, ok := snapshot.Lookup(s.Name)
	if !ok {
		return nil, &ExpositionError{Metric: s.Name, Err: errUndeclared}
	}
	m, err := prometheus.NewConstMetric(c.descs[s.Name], def.Type, s.Value, s.LabelValues()...)
	if err != nil {
		return nil, &ExpositionError{Metric: s.Name, Err: err}
	}
	return m, nil
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
