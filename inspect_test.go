package main

import (
	"bytes"
	"testing"
	"time"

	v1 "github.com/erikmagkekse/zfs-exporter/exporter/api/v1"
	"github.com/erikmagkekse/zfs-exporter/exporter/zfs"

	"github.com/stretchr/testify/assert"
)

func TestWritePools(t *testing.T) {
	frag := 0.12
	state := &zfs.RawPoolState{
		CollectedAt: time.Now(),
		Pools: []zfs.Pool{
			{Name: "tank", Health: zfs.HealthOnline, SizeBytes: 1 << 40, AllocatedBytes: 1 << 39, FreeBytes: 1 << 39, Fragmentation: &frag, DedupRatio: 1, ScrubActive: true},
			{Name: "backup", Health: zfs.HealthDegraded, SizeBytes: 1 << 30, DedupRatio: 1.5, DetailError: "zpool status: exit status 1"},
		},
	}

	var buf bytes.Buffer
	writePools(&buf, state)
	out := buf.String()

	assert.Contains(t, out, "tank")
	assert.Contains(t, out, "ONLINE")
	assert.Contains(t, out, "1.0 TiB")
	assert.Contains(t, out, "12%")
	assert.Contains(t, out, "yes")
	assert.Contains(t, out, "DEGRADED")
	assert.Contains(t, out, "1.50x")
}

func TestWriteStatus(t *testing.T) {
	var buf bytes.Buffer
	writeStatus(&buf, &v1.StatusResponse{
		Up:                  false,
		State:               "idle",
		ConsecutiveFailures: 2,
		Pools:               []string{"backup", "tank"},
		Failure:             &v1.Failure{Kind: zfs.ErrNotAvailable, Message: "zpool list: not found"},
	})
	out := buf.String()

	assert.Contains(t, out, "snapshot:")
	assert.Contains(t, out, "none")
	assert.Contains(t, out, "backup, tank")
	assert.Contains(t, out, "NOT_AVAILABLE: zpool list: not found")
}
