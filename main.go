package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/erikmagkekse/zfs-exporter/exporter"
	"github.com/erikmagkekse/zfs-exporter/exporter/zfs"
	"github.com/erikmagkekse/zfs-exporter/model"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	setupLogging()

	cmd := &cli.Command{
		Name:    model.ExporterName,
		Usage:   "Prometheus exporter for ZFS pool health and capacity",
		Version: version + " (" + commit + ")",
		Action:  runServe,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Collect in the background and serve /metrics (default)",
				Action: runServe,
			},
			{
				Name:  "inspect",
				Usage: "Run one inspection and print the pools",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "print raw pool state as JSON"},
				},
				Action: runInspect,
			},
			{
				Name:  "status",
				Usage: "Query a running exporter",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "url",
						Value:   "http://localhost:9134",
						Usage:   "exporter base URL",
						Sources: cli.EnvVars("ZFS_EXPORTER_URL"),
					},
					&cli.BoolFlag{Name: "json", Usage: "print the status response as JSON"},
				},
				Action: runStatus,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal().Err(err).Msg("zfs-exporter failed")
	}
}

// setupLogging uses the console writer on a terminal and JSON otherwise.
func setupLogging() {
	level := zerolog.InfoLevel
	if l := os.Getenv("LOG_LEVEL"); l != "" {
		if parsed, err := zerolog.ParseLevel(l); err == nil {
			level = parsed
		}
	}
	zerolog.SetGlobalLevel(level)

	if term.IsTerminal(int(os.Stderr.Fd())) {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: time.RFC3339,
		}).With().Timestamp().Logger()
		return
	}
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
}

func loadConfig() (*model.ExporterConfig, error) {
	cfg, err := env.ParseAs[model.ExporterConfig]()
	if err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func runServe(ctx context.Context, _ *cli.Command) error {
	log.Info().Str("version", version).Str("commit", commit).Msg("starting zfs-exporter")

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// startup checks are bounded by the inspect timeout
	inspector := zfs.NewCLIInspector(cfg)
	if err := inspector.Available(ctx); err != nil {
		// keep serving, zfs_up reports the outage until the module shows up
		log.Warn().Err(err).Msg("zfs not available at startup")
	}
	zfsVersion, err := inspector.Version(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("could not determine zfs version")
	}

	x := exporter.New(cfg, inspector, version, commit, zfsVersion)
	if err := x.Run(ctx); err != nil {
		return err
	}
	log.Info().Msg("shutting down")
	return nil
}
