package zfs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/erikmagkekse/zfs-exporter/model"
	"github.com/erikmagkekse/zfs-exporter/utils"

	"github.com/juju/clock"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sys/unix"
)

// devZFS is the control device of the zfs kernel module.
const devZFS = "/dev/zfs"

// PoolInspector reads pool state from the storage subsystem. Implementations
// must not modify storage state.
type PoolInspector interface {
	Inspect(ctx context.Context) (*RawPoolState, error)
}

// CLIInspector implements PoolInspector on top of the zpool and zfs binaries.
type CLIInspector struct {
	zpoolBin    string
	zfsBin      string
	timeout     time.Duration
	datasets    bool
	pools       map[string]bool
	concurrency int
	cmd         utils.Runner
	clock       clock.Clock
}

func NewCLIInspector(cfg *model.ExporterConfig) *CLIInspector {
	return newCLIInspector(cfg, &utils.ShellRunner{}, clock.WallClock)
}

func newCLIInspector(cfg *model.ExporterConfig, r utils.Runner, clk clock.Clock) *CLIInspector {
	var pools map[string]bool
	if len(cfg.Pools) > 0 {
		pools = make(map[string]bool, len(cfg.Pools))
		for _, p := range cfg.Pools {
			pools[strings.TrimSpace(p)] = true
		}
	}
	concurrency := cfg.MaxConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &CLIInspector{
		zpoolBin:    cfg.ZpoolBin,
		zfsBin:      cfg.ZFSBin,
		timeout:     cfg.InspectTimeout,
		datasets:    cfg.Datasets,
		pools:       pools,
		concurrency: concurrency,
		cmd:         r,
		clock:       clk,
	}
}

// Inspect lists pools, reads per-pool error counters in parallel and, if
// enabled, lists datasets. A pool whose detail cannot be read is still
// reported with its list data and a PARTIAL_POOL_FAILURE error.
func (i *CLIInspector) Inspect(ctx context.Context) (*RawPoolState, error) {
	ctx, cancel := i.withTimeout(ctx)
	defer cancel()

	out, err := i.cmd.Run(ctx, i.zpoolBin, "list", "-H", "-p", "-o", poolColumns)
	if err != nil {
		return nil, classify(ctx, "zpool list", err)
	}
	pools, err := parsePoolList(out)
	if err != nil {
		return nil, err
	}
	pools = i.filter(pools)

	// pool details share half of the remaining budget; a pool that hangs in
	// zpool status is marked failed and the list data of the others is kept
	detailCtx := ctx
	if deadline, ok := ctx.Deadline(); ok {
		var detailCancel context.CancelFunc
		detailCtx, detailCancel = context.WithTimeout(ctx, time.Until(deadline)/2)
		defer detailCancel()
	}

	// errors are recorded per pool and never returned to the group, so one
	// broken pool does not cancel the others
	g := new(errgroup.Group)
	g.SetLimit(i.concurrency)
	for idx := range pools {
		p := &pools[idx]
		g.Go(func() error {
			i.inspectPool(detailCtx, p)
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() != nil {
		return nil, classify(ctx, "zpool status", ctx.Err())
	}

	state := &RawPoolState{CollectedAt: i.clock.Now().UTC(), Pools: pools}
	var partial []string

	if i.datasets {
		datasets, err := i.listDatasets(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("inspector: dataset listing failed")
			partial = append(partial, "datasets: "+err.Error())
		} else {
			state.Datasets = datasets
		}
	}

	failed := state.FailedPools()
	if len(failed) > 0 {
		partial = append(partial, fmt.Sprintf("%d of %d pools could not be inspected", len(failed), len(pools)))
	}
	if len(partial) > 0 {
		return state, &InspectionError{Kind: ErrPartialPoolFailure, Message: strings.Join(partial, "; "), Pools: failed}
	}
	return state, nil
}

func (i *CLIInspector) inspectPool(ctx context.Context, p *Pool) {
	out, err := i.cmd.Run(ctx, i.zpoolBin, "status", "-p", p.Name)
	if err != nil {
		err = classify(ctx, "zpool status "+p.Name, err)
		p.DetailError = err.Error()
		log.Warn().Err(err).Str("pool", p.Name).Msg("inspector: zpool status failed")
		return
	}
	st, err := parsePoolStatus(p.Name, out)
	if err != nil {
		p.DetailError = err.Error()
		log.Warn().Err(err).Str("pool", p.Name).Msg("inspector: unparsable zpool status")
		return
	}
	p.ReadErrors = st.readErrors
	p.WriteErrors = st.writeErrors
	p.ChecksumErrors = st.checksumErrors
	p.ScrubActive = st.scrubActive
}

func (i *CLIInspector) listDatasets(ctx context.Context) ([]Dataset, error) {
	out, err := i.cmd.Run(ctx, i.zfsBin, "list", "-H", "-p", "-o", datasetColumns, "-t", "filesystem,volume")
	if err != nil {
		return nil, classify(ctx, "zfs list", err)
	}
	datasets, err := parseDatasetList(out)
	if err != nil {
		return nil, err
	}
	if i.pools == nil {
		return datasets, nil
	}
	kept := datasets[:0]
	for _, d := range datasets {
		if i.pools[d.Pool] {
			kept = append(kept, d)
		}
	}
	return kept, nil
}

func (i *CLIInspector) filter(pools []Pool) []Pool {
	if i.pools == nil {
		return pools
	}
	kept := pools[:0]
	for _, p := range pools {
		if i.pools[p.Name] {
			kept = append(kept, p)
		}
	}
	return kept
}

// Available checks for the zfs control device and a working zpool binary.
func (i *CLIInspector) Available(ctx context.Context) error {
	ctx, cancel := i.withTimeout(ctx)
	defer cancel()

	var st unix.Stat_t
	if err := unix.Stat(devZFS, &st); err != nil {
		return &InspectionError{Kind: ErrNotAvailable, Message: devZFS + " not present, is the zfs module loaded?", Err: err}
	}
	if _, err := i.cmd.Run(ctx, i.zpoolBin, "version"); err != nil {
		return classify(ctx, "zpool version", err)
	}
	return nil
}

// Version returns the userland version reported by `zfs version`,
// e.g. "zfs-2.2.2-0ubuntu9".
func (i *CLIInspector) Version(ctx context.Context) (string, error) {
	ctx, cancel := i.withTimeout(ctx)
	defer cancel()

	out, err := i.cmd.Run(ctx, i.zfsBin, "version")
	if err != nil {
		return "", classify(ctx, "zfs version", err)
	}
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "zfs-") && !strings.HasPrefix(line, "zfs-kmod") {
			return line, nil
		}
	}
	return "", errors.New("zfs version: no userland version in output")
}

// withTimeout bounds every zfs command issued from one call.
func (i *CLIInspector) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if i.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, i.timeout)
}
