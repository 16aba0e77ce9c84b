package zfs

import (
	"context"
	"sync"
)

// FakeResult is one scripted FakeInspector outcome.
type FakeResult struct {
	State *RawPoolState
	Err   error
}

// FakeInspector is a PoolInspector for tests. Results are returned in
// order, the last one repeats. If Gate is set, Inspect blocks until the
// gate yields or the context ends.
type FakeInspector struct {
	mu      sync.Mutex
	Results []FakeResult
	Gate    chan struct{}
	calls   int
}

func (f *FakeInspector) Inspect(ctx context.Context) (*RawPoolState, error) {
	f.mu.Lock()
	idx := f.calls
	f.calls++
	gate := f.Gate
	var res FakeResult
	if n := len(f.Results); n > 0 {
		res = f.Results[min(idx, n-1)]
	}
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, classify(ctx, "fake inspect", ctx.Err())
		}
	}
	return res.State, res.Err
}

// Calls returns how many times Inspect has been entered.
func (f *FakeInspector) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
