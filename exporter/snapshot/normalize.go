package snapshot

import (
	"slices"
	"strings"

	"github.com/erikmagkekse/zfs-exporter/exporter/zfs"
)

// Normalize converts an inspection result into a sorted MetricSnapshot.
// It has no side effects; equal inputs produce equal snapshots.
func Normalize(state *zfs.RawPoolState) *MetricSnapshot {
	snap := &MetricSnapshot{Timestamp: state.CollectedAt}
	add := func(name string, value float64, labelValues ...string) {
		def := definitionsByName[name]
		labels := make([]Label, len(def.Labels))
		for i, ln := range def.Labels {
			labels[i] = Label{Name: ln, Value: strings.ToValidUTF8(labelValues[i], "\uFFFD")}
		}
		snap.Samples = append(snap.Samples, Sample{Name: name, Labels: labels, Value: value})
	}

	for _, p := range state.Pools {
		add(PoolHealth, float64(p.Health), p.Name)
		add(PoolSizeBytes, float64(p.SizeBytes), p.Name)
		add(PoolAllocatedBytes, float64(p.AllocatedBytes), p.Name)
		add(PoolFreeBytes, float64(p.FreeBytes), p.Name)
		if p.Fragmentation != nil {
			add(PoolFragmentationRatio, *p.Fragmentation, p.Name)
		}
		add(PoolDedupRatio, p.DedupRatio, p.Name)
		add(PoolReadOnly, boolValue(p.ReadOnly), p.Name)

		if p.DetailError != "" {
			add(PoolInspectionFailed, 1, p.Name)
			continue
		}
		add(PoolInspectionFailed, 0, p.Name)
		add(PoolReadErrors, float64(p.ReadErrors), p.Name)
		add(PoolWriteErrors, float64(p.WriteErrors), p.Name)
		add(PoolChecksumErrors, float64(p.ChecksumErrors), p.Name)
		add(PoolScrubActive, boolValue(p.ScrubActive), p.Name)
	}

	for _, d := range state.Datasets {
		add(DatasetUsedBytes, float64(d.UsedBytes), d.Name, d.Pool, d.Type)
		add(DatasetAvailableBytes, float64(d.AvailableBytes), d.Name, d.Pool, d.Type)
		add(DatasetReferencedBytes, float64(d.ReferencedBytes), d.Name, d.Pool, d.Type)
		add(DatasetCompressionRatio, d.CompressionRatio, d.Name, d.Pool, d.Type)
	}

	slices.SortStableFunc(snap.Samples, compareSamples)
	// a duplicated pool or dataset name would make the exposition fail, keep the first
	snap.Samples = slices.CompactFunc(snap.Samples, func(a, b Sample) bool {
		return compareSamples(a, b) == 0
	})
	return snap
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
