package renderer

import (
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"go.uber.org/zap"

	"github.com/ckiee/automancy/engine/profiler"
)

// RendererBuilderOption is a functional option applied to a renderer during construction via NewRenderer.
type RendererBuilderOption func(*renderer)

// WithLogger routes the renderer's logging through the given logger.
//
// Parameters:
//   - logger: *zap.Logger to log through. A nil logger is ignored.
//
// Returns:
//   - RendererBuilderOption: a function that applies the logger option to a renderer
func WithLogger(logger *zap.Logger) RendererBuilderOption {
	return func(r *renderer) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithProfiler attaches a profiler that receives per-stage frame timings.
//
// Parameters:
//   - prof: the profiler to report to
//
// Returns:
//   - RendererBuilderOption: a function that applies the profiler option to a renderer
func WithProfiler(prof *profiler.Profiler) RendererBuilderOption {
	return func(r *renderer) {
		r.prof = prof
	}
}

// WithUpdateRate sets how many times per second the game batch is
// recomputed from the latest snapshot. Frames between recomputes reuse the
// previous batch.
//
// Parameters:
//   - perSecond: recomputes per second, ignored unless positive
//
// Returns:
//   - RendererBuilderOption: a function that applies the update rate option to a renderer
func WithUpdateRate(perSecond uint) RendererBuilderOption {
	return func(r *renderer) {
		if perSecond > 0 {
			r.updateInterval = time.Second / time.Duration(perSecond)
		}
	}
}

// WithCullingPadding widens snapshot fetches beyond the camera's visible
// bound by a fixed number of hexes.
//
// Parameters:
//   - hexes: the padding in hexes
//
// Returns:
//   - RendererBuilderOption: a function that applies the culling padding option to a renderer
func WithCullingPadding(hexes uint) RendererBuilderOption {
	return func(r *renderer) {
		r.cullingPadding = int32(hexes)
	}
}

// WithScreenshotSink sets where captured frames are written.
//
// Parameters:
//   - sink: the sink receiving captured frames
//
// Returns:
//   - RendererBuilderOption: a function that applies the sink option to a renderer
func WithScreenshotSink(sink ScreenshotSink) RendererBuilderOption {
	return func(r *renderer) {
		r.sink = sink
	}
}

// WithWorkerPool shares an existing worker pool for snapshot fetches and
// screenshot writes instead of the renderer creating its own.
//
// Parameters:
//   - pool: the pool to submit tasks to
//
// Returns:
//   - RendererBuilderOption: a function that applies the pool option to a renderer
func WithWorkerPool(pool worker.DynamicWorkerPool) RendererBuilderOption {
	return func(r *renderer) {
		r.pool = pool
	}
}

// WithFetchTimeout bounds how long one snapshot fetch may run before its
// context is cancelled.
//
// Parameters:
//   - timeout: the per-fetch timeout, ignored unless positive
//
// Returns:
//   - RendererBuilderOption: a function that applies the timeout option to a renderer
func WithFetchTimeout(timeout time.Duration) RendererBuilderOption {
	return func(r *renderer) {
		if timeout > 0 {
			r.fetchTimeout = timeout
		}
	}
}

// WithClock replaces the wall clock the renderer schedules recomputes and
// transaction interpolation with. Tests use this for determinism.
//
// Parameters:
//   - now: func() time.Time returning the current time
//
// Returns:
//   - RendererBuilderOption: a function that applies the clock option to a renderer
func WithClock(now func() time.Time) RendererBuilderOption {
	return func(r *renderer) {
		if now != nil {
			r.now = now
		}
	}
}
