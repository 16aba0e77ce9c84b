package v1

import (
	"time"

	"github.com/erikmagkekse/zfs-exporter/exporter/snapshot"
)

type Failure = snapshot.Failure

type HealthResponse struct {
	Status        string            `json:"status"`
	Version       string            `json:"version"`
	Commit        string            `json:"commit"`
	ZFSVersion    string            `json:"zfs_version,omitempty"`
	UptimeSeconds int               `json:"uptime_seconds"`
	Features      map[string]string `json:"features"`
}

type StatusResponse struct {
	Up                  bool       `json:"up"`
	Stale               bool       `json:"stale"`
	State               string     `json:"state"`
	SnapshotTimestamp   *time.Time `json:"snapshot_timestamp,omitempty"`
	AttemptedAt         *time.Time `json:"attempted_at,omitempty"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
	Pools               []string   `json:"pools"`
	Samples             int        `json:"samples"`
	Failure             *Failure   `json:"failure,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}
