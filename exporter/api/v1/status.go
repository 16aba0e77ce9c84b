package v1

import (
	"net/http"

	"github.com/erikmagkekse/zfs-exporter/exporter/collector"
	"github.com/erikmagkekse/zfs-exporter/exporter/snapshot"

	"github.com/labstack/echo/v5"
)

type Handler struct {
	Cache     *snapshot.Cache
	Scheduler *collector.Scheduler
}

// Status reports the cached CollectionResult so callers can tell a stale
// snapshot from one that never existed.
func (h *Handler) Status(c *echo.Context) error {
	return c.JSON(http.StatusOK, statusResponseFrom(h.Cache.Get(), h.Scheduler.State()))
}

func statusResponseFrom(r snapshot.CollectionResult, state collector.State) StatusResponse {
	resp := StatusResponse{
		Up:                  r.Up(),
		Stale:               r.Stale(),
		State:               state.String(),
		ConsecutiveFailures: r.ConsecutiveFailures,
		Pools:               []string{},
		Failure:             r.Failure,
	}
	if r.Attempted() {
		at := r.AttemptedAt
		resp.AttemptedAt = &at
	}
	if r.Snapshot != nil {
		ts := r.Snapshot.Timestamp
		resp.SnapshotTimestamp = &ts
		resp.Samples = len(r.Snapshot.Samples)
		if pools := r.Snapshot.PoolNames(); pools != nil {
			resp.Pools = pools
		}
	}
	return resp
}
