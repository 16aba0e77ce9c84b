package v1

import (
	"fmt"
	"strconv"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "zfs_exporter",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests by method, path, and status code.",
	}, []string{"method", "path", "code"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "zfs_exporter",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds.",
		Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
	}, []string{"method", "path"})
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpRequestDuration,
	)
}

// Warmer is notified on every scrape so the first one can trigger a collection.
type Warmer interface {
	Warmup()
}

// MetricsHandler serves g in the text exposition format. Gather errors are
// logged and the remaining metrics are still served with 200.
func MetricsHandler(g prometheus.Gatherer, w Warmer) echo.HandlerFunc {
	h := promhttp.InstrumentMetricHandler(prometheus.DefaultRegisterer, promhttp.HandlerFor(g, promhttp.HandlerOpts{
		ErrorLog:      promLogger{},
		ErrorHandling: promhttp.ContinueOnError,
	}))
	return func(c *echo.Context) error {
		if w != nil {
			w.Warmup()
		}
		h.ServeHTTP(c.Response(), c.Request())
		return nil
	}
}

// promLogger adapts zerolog to promhttp.Logger.
type promLogger struct{}

func (promLogger) Println(v ...any) {
	log.Error().Msg(fmt.Sprint(v...))
}

func MetricsMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c *echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start).Seconds()

			method := c.Request().Method
			path := c.RouteInfo().Path
			if path == "" {
				path = "unmatched" // keep scanners from inflating label cardinality
			}
			resp := c.Response().(*echo.Response)
			code := strconv.Itoa(resp.Status)

			httpRequestsTotal.WithLabelValues(method, path, code).Inc()
			httpRequestDuration.WithLabelValues(method, path).Observe(duration)

			log.Debug().
				Str("method", method).
				Str("path", path).
				Str("code", code).
				Str("client", c.RealIP()).
				Dur("duration", time.Since(start)).
				Msg("request")

			return err
		}
	}
}
