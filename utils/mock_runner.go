package utils

import (
	"context"
	"sync"
)

// MockRunner records calls and returns preconfigured responses.
// Use this in tests to avoid real shell execution.
// Set RunFn for dynamic per-call responses, otherwise Out/Err are returned.
// Safe for concurrent use, the inspector queries pools in parallel.
type MockRunner struct {
	mu    sync.Mutex
	Calls [][]string
	Out   string
	Err   error
	RunFn func(ctx context.Context, bin string, args []string) (string, error)
}

func (m *MockRunner) Run(ctx context.Context, bin string, args ...string) (string, error) {
	m.mu.Lock()
	m.Calls = append(m.Calls, append([]string{bin}, args...))
	fn := m.RunFn
	m.mu.Unlock()
	if fn != nil {
		return fn(ctx, bin, args)
	}
	return m.Out, m.Err
}

// CallCount returns the number of recorded calls.
func (m *MockRunner) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
