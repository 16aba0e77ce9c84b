package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	v1 "github.com/erikmagkekse/zfs-exporter/exporter/api/v1"
	"github.com/erikmagkekse/zfs-exporter/exporter/zfs"

	"github.com/dustin/go-humanize"
	"github.com/gosuri/uitable"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func runInspect(ctx context.Context, c *cli.Command) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	state, err := zfs.NewCLIInspector(cfg).Inspect(ctx)
	if err != nil && !zfs.IsPartial(err) {
		return err
	}
	if err != nil {
		log.Warn().Err(err).Strs("failed_pools", state.FailedPools()).Msg("inspection partially failed")
	}

	if c.Bool("json") {
		return writeJSON(os.Stdout, state)
	}
	writePools(os.Stdout, state)
	if len(state.Datasets) > 0 {
		fmt.Fprintln(os.Stdout)
		writeDatasets(os.Stdout, state.Datasets)
	}
	return nil
}

func runStatus(ctx context.Context, c *cli.Command) error {
	client := v1.NewClient(c.String("url"))
	status, err := client.Status(ctx)
	if err != nil {
		return err
	}

	if c.Bool("json") {
		if err := writeJSON(os.Stdout, status); err != nil {
			return err
		}
	} else {
		writeStatus(os.Stdout, status)
	}
	if !status.Up {
		return fmt.Errorf("exporter at %s reports zfs_up 0", c.String("url"))
	}
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writePools(w io.Writer, state *zfs.RawPoolState) {
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("NAME", "HEALTH", "SIZE", "ALLOC", "FREE", "FRAG", "DEDUP", "ERRORS", "SCRUB")
	for _, p := range state.Pools {
		frag := "-"
		if p.Fragmentation != nil {
			frag = fmt.Sprintf("%.0f%%", *p.Fragmentation*100)
		}
		errs := fmt.Sprintf("%d/%d/%d", p.ReadErrors, p.WriteErrors, p.ChecksumErrors)
		scrub := "no"
		if p.ScrubActive {
			scrub = "yes"
		}
		if p.DetailError != "" {
			errs, scrub = "?", "?"
		}
		table.AddRow(p.Name, p.Health, humanize.IBytes(p.SizeBytes), humanize.IBytes(p.AllocatedBytes),
			humanize.IBytes(p.FreeBytes), frag, fmt.Sprintf("%.2fx", p.DedupRatio), errs, scrub)
	}
	fmt.Fprintln(w, table)
}

func writeDatasets(w io.Writer, datasets []zfs.Dataset) {
	table := uitable.New()
	table.MaxColWidth = 60
	table.AddRow("DATASET", "TYPE", "USED", "AVAIL", "REFER", "RATIO")
	for _, d := range datasets {
		table.AddRow(d.Name, d.Type, humanize.IBytes(d.UsedBytes), humanize.IBytes(d.AvailableBytes),
			humanize.IBytes(d.ReferencedBytes), fmt.Sprintf("%.2fx", d.CompressionRatio))
	}
	fmt.Fprintln(w, table)
}

func writeStatus(w io.Writer, s *v1.StatusResponse) {
	table := uitable.New()
	table.AddRow("up:", s.Up)
	table.AddRow("state:", s.State)
	table.AddRow("stale:", s.Stale)
	if s.SnapshotTimestamp != nil {
		table.AddRow("snapshot:", humanize.Time(*s.SnapshotTimestamp))
	} else {
		table.AddRow("snapshot:", "none")
	}
	table.AddRow("consecutive failures:", s.ConsecutiveFailures)
	table.AddRow("pools:", strings.Join(s.Pools, ", "))
	table.AddRow("samples:", s.Samples)
	if s.Failure != nil {
		table.AddRow("last failure:", s.Failure.Kind+": "+s.Failure.Message)
	}
	fmt.Fprintln(w, table)
}
