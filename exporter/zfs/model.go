package zfs

import (
	"strings"
	"time"
)

// Health is the numeric pool health encoding exposed as zfs_pool_health.
// The values are part of the metric contract, do not reorder.
type Health int

const (
	HealthOnline   Health = 0
	HealthDegraded Health = 1
	HealthFaulted  Health = 2
	HealthOffline  Health = 3
	HealthUnknown  Health = 4
)

var healthNames = map[Health]string{
	HealthOnline:   "ONLINE",
	HealthDegraded: "DEGRADED",
	HealthFaulted:  "FAULTED",
	HealthOffline:  "OFFLINE",
	HealthUnknown:  "UNKNOWN",
}

// ParseHealth maps a zpool health column to Health. REMOVED, UNAVAIL,
// SUSPENDED and anything unrecognised become HealthUnknown.
func ParseHealth(s string) Health {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ONLINE":
		return HealthOnline
	case "DEGRADED":
		return HealthDegraded
	case "FAULTED":
		return HealthFaulted
	case "OFFLINE":
		return HealthOffline
	default:
		return HealthUnknown
	}
}

func (h Health) String() string {
	if name, ok := healthNames[h]; ok {
		return name
	}
	return healthNames[HealthUnknown]
}

func (h Health) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

type Pool struct {
	Name           string   `json:"name"`
	Health         Health   `json:"health"`
	SizeBytes      uint64   `json:"size_bytes"`
	AllocatedBytes uint64   `json:"allocated_bytes"`
	FreeBytes      uint64   `json:"free_bytes"`
	Fragmentation  *float64 `json:"fragmentation_ratio,omitempty"` // nil when zpool reports "-"
	DedupRatio     float64  `json:"dedup_ratio"`
	ReadOnly       bool     `json:"readonly"`
	ReadErrors     uint64   `json:"read_errors"`
	WriteErrors    uint64   `json:"write_errors"`
	ChecksumErrors uint64   `json:"checksum_errors"`
	ScrubActive    bool     `json:"scrub_active"`
	// DetailError is set when zpool status failed for this pool; the
	// error counters are then unknown.
	DetailError string `json:"detail_error,omitempty"`
}

type Dataset struct {
	Name             string  `json:"name"`
	Pool             string  `json:"pool"`
	Type             string  `json:"type"`
	UsedBytes        uint64  `json:"used_bytes"`
	AvailableBytes   uint64  `json:"available_bytes"`
	ReferencedBytes  uint64  `json:"referenced_bytes"`
	CompressionRatio float64 `json:"compression_ratio"`
}

// RawPoolState is the unnormalized result of one inspection cycle.
type RawPoolState struct {
	CollectedAt time.Time `json:"collected_at"`
	Pools       []Pool    `json:"pools"`
	Datasets    []Dataset `json:"datasets,omitempty"`
}

// FailedPools returns the names of pools whose detail could not be read.
func (s *RawPoolState) FailedPools() []string {
	var failed []string
	for _, p := range s.Pools {
		if p.DetailError != "" {
			failed = append(failed, p.Name)
		}
	}
	return failed
}
