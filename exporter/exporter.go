package exporter

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	v1 "github.com/erikmagkekse/zfs-exporter/exporter/api/v1"
	"github.com/erikmagkekse/zfs-exporter/exporter/collector"
	"github.com/erikmagkekse/zfs-exporter/exporter/snapshot"
	"github.com/erikmagkekse/zfs-exporter/exporter/zfs"
	"github.com/erikmagkekse/zfs-exporter/model"

	"github.com/juju/clock"
	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 5 * time.Second

type Exporter struct {
	cfg        *model.ExporterConfig
	version    string
	commit     string
	zfsVersion string
	echo       *echo.Echo
	cache      *snapshot.Cache
	scheduler  *collector.Scheduler
}

// New wires cache, scheduler and HTTP routes around inspector.
func New(cfg *model.ExporterConfig, inspector zfs.PoolInspector, version, commit, zfsVersion string) *Exporter {
	return newExporter(cfg, inspector, version, commit, zfsVersion, clock.WallClock)
}

func newExporter(cfg *model.ExporterConfig, inspector zfs.PoolInspector, version, commit, zfsVersion string, clk clock.Clock) *Exporter {
	cache := snapshot.NewCache()
	x := &Exporter{
		cfg:        cfg,
		version:    version,
		commit:     commit,
		zfsVersion: zfsVersion,
		cache:      cache,
		scheduler:  collector.NewScheduler(inspector, cache, cfg.ScrapeInterval, cfg.InspectTimeout, clk),
	}

	// snapshot metrics get their own registry so each exporter instance is
	// isolated; process and HTTP metrics stay in the default one
	reg := prometheus.NewRegistry()
	reg.MustRegister(collector.NewSnapshotCollector(cache))
	gatherers := prometheus.Gatherers{reg, prometheus.DefaultGatherer}

	e := echo.New()
	e.Use(v1.MetricsMiddleware())

	h := &v1.Handler{Cache: cache, Scheduler: x.scheduler}

	e.GET("/", v1.Landing(version, cache))
	e.GET(model.MetricsPath, v1.MetricsHandler(gatherers, x.scheduler))
	e.GET(model.HealthPath, v1.Healthz(version, commit, zfsVersion, cfg.Features(), cache))
	e.GET(model.StatusPath, h.Status)

	x.echo = e
	return x
}

// Handler exposes the routes, mainly for tests.
func (x *Exporter) Handler() http.Handler {
	return x.echo
}

// Run binds the listen address, starts the scheduler and serves until ctx
// is done. A bind failure is returned immediately; a clean shutdown
// returns nil.
func (x *Exporter) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", x.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", x.cfg.ListenAddr, err)
	}
	return x.Serve(ctx, ln)
}

func (x *Exporter) Serve(ctx context.Context, ln net.Listener) error {
	x.scheduler.Start(ctx)

	srv := &http.Server{
		Handler:           x.echo,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if x.cfg.TLSCert != "" && x.cfg.TLSKey != "" {
			srv.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
			log.Info().Str("addr", ln.Addr().String()).Msg("serving metrics with TLS")
			errCh <- srv.ServeTLS(ln, x.cfg.TLSCert, x.cfg.TLSKey)
			return
		}
		log.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info().Msg("http server stopped")
	return nil
}
