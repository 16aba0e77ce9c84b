package snapshot

import "github.com/prometheus/client_golang/prometheus"

const namespace = "zfs"

// Definition describes one metric family a snapshot may contain. Label
// names are fixed here; only label values come from the storage subsystem.
type Definition struct {
	Name   string
	Help   string
	Type   prometheus.ValueType
	Labels []string
}

var (
	poolLabels    = []string{"pool"}
	datasetLabels = []string{"dataset", "pool", "type"}
)

const (
	PoolHealth              = namespace + "_pool_health"
	PoolSizeBytes           = namespace + "_pool_size_bytes"
	PoolAllocatedBytes      = namespace + "_pool_allocated_bytes"
	PoolFreeBytes           = namespace + "_pool_free_bytes"
	PoolFragmentationRatio  = namespace + "_pool_fragmentation_ratio"
	PoolDedupRatio          = namespace + "_pool_dedup_ratio"
	PoolReadOnly            = namespace + "_pool_readonly"
	PoolReadErrors          = namespace + "_pool_read_errors_total"
	PoolWriteErrors         = namespace + "_pool_write_errors_total"
	PoolChecksumErrors      = namespace + "_pool_checksum_errors_total"
	PoolScrubActive         = namespace + "_pool_scrub_active"
	PoolInspectionFailed    = namespace + "_pool_inspection_failed"
	DatasetUsedBytes        = namespace + "_dataset_used_bytes"
	DatasetAvailableBytes   = namespace + "_dataset_available_bytes"
	DatasetReferencedBytes  = namespace + "_dataset_referenced_bytes"
	DatasetCompressionRatio = namespace + "_dataset_compression_ratio"
)

// Definitions lists every family Normalize can emit.
var Definitions = []Definition{
	{PoolHealth, "Pool health: 0=ONLINE 1=DEGRADED 2=FAULTED 3=OFFLINE 4=UNKNOWN.", prometheus.GaugeValue, poolLabels},
	{PoolSizeBytes, "Total pool size in bytes.", prometheus.GaugeValue, poolLabels},
	{PoolAllocatedBytes, "Allocated pool space in bytes.", prometheus.GaugeValue, poolLabels},
	{PoolFreeBytes, "Free pool space in bytes.", prometheus.GaugeValue, poolLabels},
	{PoolFragmentationRatio, "Pool free space fragmentation as a ratio (0-1).", prometheus.GaugeValue, poolLabels},
	{PoolDedupRatio, "Pool deduplication ratio.", prometheus.GaugeValue, poolLabels},
	{PoolReadOnly, "1 if the pool is imported read-only.", prometheus.GaugeValue, poolLabels},
	{PoolReadErrors, "Read errors reported for the pool since the last zpool clear.", prometheus.CounterValue, poolLabels},
	{PoolWriteErrors, "Write errors reported for the pool since the last zpool clear.", prometheus.CounterValue, poolLabels},
	{PoolChecksumErrors, "Checksum errors reported for the pool since the last zpool clear.", prometheus.CounterValue, poolLabels},
	{PoolScrubActive, "1 if a scrub is in progress.", prometheus.GaugeValue, poolLabels},
	{PoolInspectionFailed, "1 if the pool status could not be read in the last collection.", prometheus.GaugeValue, poolLabels},
	{DatasetUsedBytes, "Space consumed by the dataset and its descendants.", prometheus.GaugeValue, datasetLabels},
	{DatasetAvailableBytes, "Space available to the dataset.", prometheus.GaugeValue, datasetLabels},
	{DatasetReferencedBytes, "Space referenced by the dataset.", prometheus.GaugeValue, datasetLabels},
	{DatasetCompressionRatio, "Compression ratio achieved for the dataset.", prometheus.GaugeValue, datasetLabels},
}

var definitionsByName = func() map[string]Definition {
	m := make(map[string]Definition, len(Definitions))
	for _, d := range Definitions {
		m[d.Name] = d
	}
	return m
}()

// Lookup returns the definition for a metric name.
func Lookup(name string) (Definition, bool) {
	d, ok := definitionsByName[name]
	return d, ok
}
