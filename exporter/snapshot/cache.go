package snapshot

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/erikmagkekse/zfs-exporter/exporter/zfs"
)

// Failure records why the most recent collection attempt did not fully succeed.
type Failure struct {
	Kind    string   `json:"kind"`
	Message string   `json:"message"`
	Pools   []string `json:"pools,omitempty"`
}

// Partial reports whether the attempt still produced a snapshot.
func (f *Failure) Partial() bool {
	return f != nil && f.Kind == zfs.ErrPartialPoolFailure
}

// FailureFrom converts an inspection error into a Failure.
func FailureFrom(err error) *Failure {
	if err == nil {
		return nil
	}
	var ie *zfs.InspectionError
	if errors.As(err, &ie) {
		return &Failure{Kind: ie.Kind, Message: ie.Message, Pools: ie.Pools}
	}
	return &Failure{Kind: zfs.KindOf(err), Message: err.Error()}
}

// CollectionResult is what a scrape sees: the latest committed snapshot, if
// any, and the outcome of the most recent attempt.
type CollectionResult struct {
	Snapshot            *MetricSnapshot `json:"-"`
	Failure             *Failure        `json:"failure,omitempty"`
	AttemptedAt         time.Time       `json:"attempted_at"`
	ConsecutiveFailures int             `json:"consecutive_failures"`
}

// Attempted reports whether any collection has finished yet.
func (r CollectionResult) Attempted() bool {
	return !r.AttemptedAt.IsZero()
}

// Up is true when the most recent attempt produced the committed snapshot.
func (r CollectionResult) Up() bool {
	return r.Snapshot != nil && (r.Failure == nil || r.Failure.Partial())
}

// Stale is true when a snapshot exists but the last attempt failed.
func (r CollectionResult) Stale() bool {
	return r.Snapshot != nil && !r.Up()
}

// Cache holds exactly one CollectionResult. Get and Set never block each
// other; a reader sees either the old or the new result, never a mix.
type Cache struct {
	slot atomic.Pointer[CollectionResult]
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) Get() CollectionResult {
	if r := c.slot.Load(); r != nil {
		return *r
	}
	return CollectionResult{}
}

// Set commits r and returns what was stored. A result without a snapshot
// keeps the previous snapshot, and a snapshot older than the committed
// one is ignored so timestamps seen by readers never go backwards.
func (c *Cache) Set(r CollectionResult) CollectionResult {
	for {
		cur := c.slot.Load()
		next := r
		next.ConsecutiveFailures = 0
		if next.Failure != nil && !next.Failure.Partial() {
			next.ConsecutiveFailures = 1
		}
		if cur != nil {
			if next.Snapshot == nil || (cur.Snapshot != nil && next.Snapshot.Timestamp.Before(cur.Snapshot.Timestamp)) {
				next.Snapshot = cur.Snapshot
			}
			if next.ConsecutiveFailures > 0 {
				next.ConsecutiveFailures += cur.ConsecutiveFailures
			}
			if next.AttemptedAt.Before(cur.AttemptedAt) {
				next.AttemptedAt = cur.AttemptedAt
			}
		}
		if c.slot.CompareAndSwap(cur, &next) {
			return next
		}
	}
}
