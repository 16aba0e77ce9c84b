package model

import (
	"fmt"
	"net"
	"strings"
	"time"
)

const ExporterName = "zfs-exporter"

const (
	MetricsPath = "/metrics"
	HealthPath  = "/healthz"
	StatusPath  = "/v1/status"
)

type ExporterConfig struct {
	ListenAddr     string        `env:"ZFS_EXPORTER_LISTEN_ADDR" envDefault:":9134"`
	ScrapeInterval time.Duration `env:"ZFS_EXPORTER_SCRAPE_INTERVAL" envDefault:"60s"`
	InspectTimeout time.Duration `env:"ZFS_EXPORTER_INSPECT_TIMEOUT" envDefault:"10s"`
	ZpoolBin       string        `env:"ZFS_EXPORTER_ZPOOL_BIN" envDefault:"zpool"`
	ZFSBin         string        `env:"ZFS_EXPORTER_ZFS_BIN" envDefault:"zfs"`
	Datasets       bool          `env:"ZFS_EXPORTER_DATASETS" envDefault:"false"`
	Pools          []string      `env:"ZFS_EXPORTER_POOLS" envSeparator:","`
	MaxConcurrency int           `env:"ZFS_EXPORTER_MAX_CONCURRENCY" envDefault:"4"`
	TLSCert        string        `env:"ZFS_EXPORTER_TLS_CERT"`
	TLSKey         string        `env:"ZFS_EXPORTER_TLS_KEY"`
}

// Validate checks the settings env parsing cannot express.
func (c *ExporterConfig) Validate() error {
	if c.ScrapeInterval <= 0 {
		return fmt.Errorf("scrape interval must be positive, got %s", c.ScrapeInterval)
	}
	if c.InspectTimeout <= 0 {
		return fmt.Errorf("inspect timeout must be positive, got %s", c.InspectTimeout)
	}
	if c.InspectTimeout > c.ScrapeInterval {
		return fmt.Errorf("inspect timeout (%s) must not exceed scrape interval (%s)", c.InspectTimeout, c.ScrapeInterval)
	}
	if c.MaxConcurrency < 1 {
		return fmt.Errorf("max concurrency must be at least 1, got %d", c.MaxConcurrency)
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("ZFS_EXPORTER_TLS_CERT and ZFS_EXPORTER_TLS_KEY must be set together")
	}
	if _, port, err := net.SplitHostPort(c.ListenAddr); err != nil || port == "" {
		return fmt.Errorf("listen address %q must be host:port", c.ListenAddr)
	}
	return nil
}

// Features summarizes the enabled options for /healthz.
func (c *ExporterConfig) Features() map[string]string {
	f := map[string]string{
		"scrape_interval": c.ScrapeInterval.String(),
		"inspect_timeout": c.InspectTimeout.String(),
	}
	if c.Datasets {
		f["datasets"] = "enabled"
	}
	if len(c.Pools) > 0 {
		f["pools"] = strings.Join(c.Pools, ",")
	}
	if c.TLSCert != "" {
		f["tls"] = "enabled"
	}
	return f
}
