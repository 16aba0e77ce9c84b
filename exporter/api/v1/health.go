package v1

import (
	"net/http"
	"time"

	"github.com/erikmagkekse/zfs-exporter/exporter/snapshot"

	"github.com/labstack/echo/v5"
)

const (
	StatusStarting = "starting"
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// Healthz always answers 200, the status field carries the collection state.
func Healthz(version, commit, zfsVersion string, features map[string]string, cache *snapshot.Cache) echo.HandlerFunc {
	startTime := time.Now()

	return func(c *echo.Context) error {
		return c.JSON(http.StatusOK, HealthResponse{
			Status:        healthStatus(cache.Get()),
			Version:       version,
			Commit:        commit,
			ZFSVersion:    zfsVersion,
			UptimeSeconds: int(time.Since(startTime).Seconds()),
			Features:      features,
		})
	}
}

func healthStatus(r snapshot.CollectionResult) string {
	switch {
	case !r.Attempted():
		return StatusStarting
	case r.Up():
		return StatusOK
	default:
		return StatusDegraded
	}
}
