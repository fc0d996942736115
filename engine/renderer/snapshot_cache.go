package renderer

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/zap"
)

// snapshotCache holds the renderer's latest complete view of some remote
// state and refreshes it off-thread. Reads never block: Latest returns the
// stored snapshot immediately, and Refresh hands the fetch to a worker pool
// instead of running it inline. At most one fetch per cache is in flight;
// further Refresh calls while one is pending are dropped. A failed fetch
// keeps the previous snapshot so the renderer draws stale state rather
// than nothing.
type snapshotCache[T any] struct {
	snapshot atomic.Pointer[T]
	fetching atomic.Bool

	pool    worker.DynamicWorkerPool
	fetch   func(ctx context.Context) (*T, error)
	timeout time.Duration
	logger  *zap.Logger
	taskID  atomic.Int64
}

// newSnapshotCache builds a cache around fetch. The pool is shared between
// caches; fetch runs on one of its workers.
func newSnapshotCache[T any](pool worker.DynamicWorkerPool, timeout time.Duration, logger *zap.Logger, fetch func(ctx context.Context) (*T, error)) *snapshotCache[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &snapshotCache[T]{
		pool:    pool,
		fetch:   fetch,
		timeout: timeout,
		logger:  logger,
	}
}

// Latest returns the most recent complete snapshot, or nil when no fetch
// has succeeded yet.
func (c *snapshotCache[T]) Latest() *T {
	return c.snapshot.Load()
}

// Refresh schedules a fetch unless one is already pending. Returns true
// when a fetch was actually scheduled.
func (c *snapshotCache[T]) Refresh() bool {
	if !c.fetching.CompareAndSwap(false, true) {
		return false
	}
	c.pool.SubmitTask(worker.Task{
		ID: int(c.taskID.Add(1)),
		Do: func() (any, error) {
			defer c.fetching.Store(false)

			ctx := context.Background()
			if c.timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, c.timeout)
				defer cancel()
			}

			next, err := c.fetch(ctx)
			if err != nil {
				c.logger.Warn("snapshot fetch failed, keeping previous", zap.Error(err))
				return nil, nil
			}
			c.snapshot.Store(next)
			return nil, nil
		},
	})
	return true
}
