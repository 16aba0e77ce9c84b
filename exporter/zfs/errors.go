package zfs

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

const (
	ErrTimeout            = "TIMEOUT"
	ErrNotAvailable       = "NOT_AVAILABLE"
	ErrParseFailure       = "PARSE_FAILURE"
	ErrPartialPoolFailure = "PARTIAL_POOL_FAILURE"
)

// InspectionError is returned by PoolInspector implementations. A
// PARTIAL_POOL_FAILURE is returned alongside a usable RawPoolState.
type InspectionError struct {
	Kind    string
	Message string
	Pools   []string
	Err     error
}

func (e *InspectionError) Error() string {
	if len(e.Pools) > 0 {
		return fmt.Sprintf("%s: %s (pools: %s)", e.Kind, e.Message, strings.Join(e.Pools, ","))
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *InspectionError) Unwrap() error { return e.Err }

// IsPartial reports whether err is a PARTIAL_POOL_FAILURE.
func IsPartial(err error) bool {
	var ie *InspectionError
	return errors.As(err, &ie) && ie.Kind == ErrPartialPoolFailure
}

// KindOf returns the InspectionError kind of err, or "UNKNOWN".
func KindOf(err error) string {
	var ie *InspectionError
	if errors.As(err, &ie) {
		return ie.Kind
	}
	return "UNKNOWN"
}

func parseError(format string, args ...any) error {
	return &InspectionError{Kind: ErrParseFailure, Message: fmt.Sprintf(format, args...)}
}

// classify turns a command failure into an InspectionError. The deadline
// check comes first because a killed command also reports an exit error.
func classify(ctx context.Context, what string, err error) error {
	switch {
	case ctx.Err() != nil, errors.Is(err, context.DeadlineExceeded):
		return &InspectionError{Kind: ErrTimeout, Message: what + " exceeded the inspection deadline", Err: err}
	case errors.Is(err, exec.ErrNotFound), errors.Is(err, os.ErrNotExist):
		return &InspectionError{Kind: ErrNotAvailable, Message: what + ": zfs tools not found", Err: err}
	default:
		return &InspectionError{Kind: ErrNotAvailable, Message: what + ": " + err.Error(), Err: err}
	}
}
