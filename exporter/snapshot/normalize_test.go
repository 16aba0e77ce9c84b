package snapshot

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/erikmagkekse/zfs-exporter/exporter/zfs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var collectedAt = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func twoPools() *zfs.RawPoolState {
	return &zfs.RawPoolState{
		CollectedAt: collectedAt,
		Pools: []zfs.Pool{
			{
				Name:           "tank",
				Health:         zfs.HealthOnline,
				SizeBytes:      1000000000000,
				AllocatedBytes: 400000000000,
				FreeBytes:      600000000000,
				Fragmentation:  ptr(0.12),
				DedupRatio:     1,
			},
			{
				Name:           "backup",
				Health:         zfs.HealthDegraded,
				SizeBytes:      500000000000,
				AllocatedBytes: 500000000000,
				DedupRatio:     1,
				ChecksumErrors: 4,
			},
		},
	}
}

func TestNormalizeTwoPools(t *testing.T) {
	snap := Normalize(twoPools())
	assert.Equal(t, collectedAt, snap.Timestamp)

	tests := []struct {
		name string
		pool string
		want float64
	}{
		{PoolHealth, "tank", 0},
		{PoolHealth, "backup", 1},
		{PoolSizeBytes, "tank", 1000000000000},
		{PoolAllocatedBytes, "tank", 400000000000},
		{PoolFreeBytes, "tank", 600000000000},
		{PoolSizeBytes, "backup", 500000000000},
		{PoolAllocatedBytes, "backup", 500000000000},
		{PoolFreeBytes, "backup", 0},
		{PoolFragmentationRatio, "tank", 0.12},
		{PoolChecksumErrors, "backup", 4},
		{PoolInspectionFailed, "tank", 0},
	}
	for _, tt := range tests {
		got, ok := snap.Find(tt.name, tt.pool)
		require.True(t, ok, "%s{pool=%q} missing", tt.name, tt.pool)
		assert.Equal(t, tt.want, got, "%s{pool=%q}", tt.name, tt.pool)
	}

	_, ok := snap.Find(PoolFragmentationRatio, "backup")
	assert.False(t, ok, "unknown fragmentation must not be exported")
	assert.ElementsMatch(t, []string{"tank", "backup"}, snap.PoolNames())
}

func TestNormalizeDeterministic(t *testing.T) {
	a, err := json.Marshal(Normalize(twoPools()))
	require.NoError(t, err)

	reversed := twoPools()
	reversed.Pools[0], reversed.Pools[1] = reversed.Pools[1], reversed.Pools[0]
	for range 5 {
		b, err := json.Marshal(Normalize(twoPools()))
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}

	c, err := json.Marshal(Normalize(reversed))
	require.NoError(t, err)
	assert.Equal(t, a, c, "pool order from zpool must not change the snapshot")
}

func TestNormalizeHealthEncoding(t *testing.T) {
	states := map[zfs.Health]float64{
		zfs.HealthOnline:   0,
		zfs.HealthDegraded: 1,
		zfs.HealthFaulted:  2,
		zfs.HealthOffline:  3,
		zfs.HealthUnknown:  4,
	}
	for h, want := range states {
		snap := Normalize(&zfs.RawPoolState{Pools: []zfs.Pool{{Name: "p", Health: h}}})
		got, ok := snap.Find(PoolHealth, "p")
		require.True(t, ok)
		assert.Equal(t, want, got, h.String())
	}
}

func TestNormalizeFailedPoolDetail(t *testing.T) {
	state := twoPools()
	state.Pools[1].DetailError = "zpool status backup: I/O error"

	snap := Normalize(state)

	v, ok := snap.Find(PoolInspectionFailed, "backup")
	require.True(t, ok)
	assert.Equal(t, 1.0, v)

	_, ok = snap.Find(PoolChecksumErrors, "backup")
	assert.False(t, ok, "counters of an unreadable pool are unknown")

	v, ok = snap.Find(PoolSizeBytes, "backup")
	require.True(t, ok)
	assert.Equal(t, 500000000000.0, v)
}

func TestNormalizeDatasets(t *testing.T) {
	state := twoPools()
	state.Datasets = []zfs.Dataset{
		{Name: "tank/db", Pool: "tank", Type: "volume", UsedBytes: 10, AvailableBytes: 20, ReferencedBytes: 5, CompressionRatio: 1.5},
	}
	snap := Normalize(state)

	v, ok := snap.Find(DatasetCompressionRatio, "tank/db", "tank", "volume")
	require.True(t, ok)
	assert.Equal(t, 1.5, v)
	v, ok = snap.Find(DatasetUsedBytes, "tank/db", "tank", "volume")
	require.True(t, ok)
	assert.Equal(t, 10.0, v)
}

func TestNormalizeLabelsAreDeclared(t *testing.T) {
	state := twoPools()
	state.Pools[0].Name = "bad\xffname"
	state.Pools = append(state.Pools, state.Pools[1])
	state.Datasets = []zfs.Dataset{{Name: "tank/a", Pool: "tank", Type: "filesystem"}}

	snap := Normalize(state)
	seen := map[string]bool{}
	for _, s := range snap.Samples {
		def, ok := Lookup(s.Name)
		require.True(t, ok, "undeclared metric %s", s.Name)
		require.Len(t, s.Labels, len(def.Labels))
		for i, l := range s.Labels {
			assert.Equal(t, def.Labels[i], l.Name)
			assert.NotContains(t, l.Value, "\xff")
		}
		key := s.Name + "|" + fmtLabels(s.LabelValues())
		assert.False(t, seen[key], "duplicate series %s", key)
		seen[key] = true
	}
}

func fmtLabels(vals []string) string {
	b, _ := json.Marshal(vals)
	return string(b)
}
