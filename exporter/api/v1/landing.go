package v1

import (
	"html"
	"net/http"
	"strings"

	"github.com/erikmagkekse/zfs-exporter/exporter/snapshot"
	"github.com/erikmagkekse/zfs-exporter/model"

	"github.com/labstack/echo/v5"
)

// Landing serves a small index page linking the exporter endpoints.
func Landing(version string, cache *snapshot.Cache) echo.HandlerFunc {
	return func(c *echo.Context) error {
		r := cache.Get()
		status := healthStatus(r)
		pools := "none"
		if r.Snapshot != nil {
			if names := r.Snapshot.PoolNames(); len(names) > 0 {
				pools = strings.Join(names, ", ")
			}
		}
		rep := strings.NewReplacer(
			"{{VERSION}}", html.EscapeString(version),
			"{{STATUS}}", status,
			"{{POOLS}}", html.EscapeString(pools),
			"{{METRICS}}", model.MetricsPath,
			"{{HEALTH}}", model.HealthPath,
			"{{STATUSPATH}}", model.StatusPath,
		)
		return c.HTML(http.StatusOK, rep.Replace(landingHTML))
	}
}
