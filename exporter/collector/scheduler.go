package collector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/erikmagkekse/zfs-exporter/exporter/snapshot"
	"github.com/erikmagkekse/zfs-exporter/exporter/zfs"

	"github.com/juju/clock"
	"github.com/rs/zerolog/log"
)

type State int32

const (
	Idle State = iota
	Collecting
)

func (s State) String() string {
	if s == Collecting {
		return "collecting"
	}
	return "idle"
}

// Scheduler runs inspections on a fixed interval and on the first scrape,
// and publishes the outcome to the cache. At most one inspection runs at
// a time.
type Scheduler struct {
	inspector zfs.PoolInspector
	cache     *snapshot.Cache
	interval  time.Duration
	timeout   time.Duration
	clock     clock.Clock

	ctx       context.Context
	inflight  atomic.Bool
	attempted atomic.Bool
	warmup    sync.Once
}

func NewScheduler(inspector zfs.PoolInspector, cache *snapshot.Cache, interval, timeout time.Duration, clk clock.Clock) *Scheduler {
	if clk == nil {
		clk = clock.WallClock
	}
	return &Scheduler{
		inspector: inspector,
		cache:     cache,
		interval:  interval,
		timeout:   timeout,
		clock:     clk,
		ctx:       context.Background(),
	}
}

// Start launches the interval loop. It must be called before the HTTP
// server starts so that warm-up collections inherit ctx.
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	go s.Run(ctx)
}

// Run blocks until ctx is done, collecting every interval.
func (s *Scheduler) Run(ctx context.Context) {
	log.Info().Dur("interval", s.interval).Dur("timeout", s.timeout).Msg("scheduler: started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("scheduler: stopped")
			return
		case <-s.clock.After(s.interval):
			s.Collect(ctx)
		}
	}
}

func (s *Scheduler) State() State {
	if s.inflight.Load() {
		return Collecting
	}
	return Idle
}

// Warmup starts a background collection if none was ever attempted.
// It never blocks the caller.
func (s *Scheduler) Warmup() {
	if s.attempted.Load() {
		return
	}
	s.warmup.Do(func() {
		log.Debug().Msg("scheduler: first scrape before any collection, warming up")
		go s.Collect(s.ctx)
	})
}

type outcome struct {
	state *zfs.RawPoolState
	err   error
}

// Collect runs one inspection and commits the result. It returns false
// without doing anything if an inspection is already in flight. An
// inspection that outlives the timeout is abandoned and reported as
// TIMEOUT; the in-flight guard stays held until it actually returns.
// Cancelling ctx (shutdown) abandons the attempt without recording it.
func (s *Scheduler) Collect(ctx context.Context) bool {
	if !s.inflight.CompareAndSwap(false, true) {
		collectionsTotal.WithLabelValues("skipped").Inc()
		log.Debug().Msg("scheduler: inspection still in flight, skipping")
		return false
	}
	s.attempted.Store(true)

	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	done := make(chan outcome, 1)
	go func() {
		state, err := s.inspector.Inspect(ctx)
		done <- outcome{state: state, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil && errors.Is(ctx.Err(), context.Canceled) {
			log.Debug().Err(res.err).Msg("scheduler: collection cancelled")
		} else {
			s.commit(res, start)
		}
		s.inflight.Store(false)

	case <-ctx.Done():
		// the guard is released once the abandoned inspection returns
		go func() {
			<-done
			s.inflight.Store(false)
		}()
		if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Debug().Msg("scheduler: collection cancelled")
			return true
		}
		s.commit(outcome{err: &zfs.InspectionError{
			Kind:    zfs.ErrTimeout,
			Message: "inspection abandoned after " + s.timeout.String(),
			Err:     ctx.Err(),
		}}, start)
	}
	return true
}

func (s *Scheduler) commit(res outcome, start time.Time) {
	now := s.clock.Now()
	duration := now.Sub(start)
	collectionDuration.Observe(duration.Seconds())
	attemptedAt := now.UTC()

	switch {
	case res.err == nil && res.state != nil:
		snap := snapshot.Normalize(res.state)
		s.cache.Set(snapshot.CollectionResult{Snapshot: snap, AttemptedAt: attemptedAt})
		collectionsTotal.WithLabelValues("success").Inc()
		log.Debug().Int("pools", len(res.state.Pools)).Int("samples", len(snap.Samples)).Dur("duration", duration).Msg("scheduler: collection complete")

	case zfs.IsPartial(res.err) && res.state != nil:
		snap := snapshot.Normalize(res.state)
		s.cache.Set(snapshot.CollectionResult{Snapshot: snap, Failure: snapshot.FailureFrom(res.err), AttemptedAt: attemptedAt})
		collectionsTotal.WithLabelValues("partial").Inc()
		log.Warn().Err(res.err).Strs("failed_pools", res.state.FailedPools()).Dur("duration", duration).Msg("scheduler: collection partially failed")

	default:
		err := res.err
		if err == nil {
			err = errors.New("inspector returned no pool state")
		}
		r := s.cache.Set(snapshot.CollectionResult{Failure: snapshot.FailureFrom(err), AttemptedAt: attemptedAt})
		collectionsTotal.WithLabelValues("failure").Inc()
		log.Error().Err(err).Str("kind", r.Failure.Kind).Int("consecutive_failures", r.ConsecutiveFailures).Bool("stale", r.Stale()).Msg("scheduler: collection failed")
	}
}
