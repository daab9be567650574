package observability

import (
	"context"
	"log/slog"
	"sync"

	"github.com/aretw0/espalier/pkg/domain"
)

// Combine fans lifecycle events out to every given hook set, in order. Nil
// callbacks are skipped, so sparse hook sets compose without padding.
func Combine(hooks ...domain.LifecycleHooks) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEvaluate: func(ctx context.Context, ev *domain.NodeEvent) {
			for _, h := range hooks {
				if h.OnEvaluate != nil {
					h.OnEvaluate(ctx, ev)
				}
			}
		},
		OnAllocate: func(ctx context.Context, ev *domain.NodeEvent) {
			for _, h := range hooks {
				if h.OnAllocate != nil {
					h.OnAllocate(ctx, ev)
				}
			}
		},
		OnPrune: func(ctx context.Context, ev *domain.PruneEvent) {
			for _, h := range hooks {
				if h.OnPrune != nil {
					h.OnPrune(ctx, ev)
				}
			}
		},
		OnRender: func(ctx context.Context, ev *domain.RenderEvent) {
			for _, h := range hooks {
				if h.OnRender != nil {
					h.OnRender(ctx, ev)
				}
			}
		},
	}
}

// LoggingHooks audits every engine event through the given logger. Node and
// prune events log at debug, completed renders at info.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnEvaluate: func(ctx context.Context, ev *domain.NodeEvent) {
			logger.DebugContext(ctx, "node evaluated",
				"path", ev.Path,
				"kind", ev.Kind,
				"budget", ev.Budget,
				"cost", ev.Cost,
				"round", ev.Round,
			)
		},
		OnAllocate: func(ctx context.Context, ev *domain.NodeEvent) {
			logger.DebugContext(ctx, "tokens allocated",
				"path", ev.Path,
				"granted", ev.Budget,
				"used", ev.Cost,
				"round", ev.Round,
			)
		},
		OnPrune: func(ctx context.Context, ev *domain.PruneEvent) {
			logger.DebugContext(ctx, "prune decision",
				"path", ev.Path,
				"priority", ev.Priority,
				"cost", ev.Cost,
				"kept", ev.Kept,
			)
		},
		OnRender: func(ctx context.Context, ev *domain.RenderEvent) {
			logger.InfoContext(ctx, "render complete",
				"messages", ev.Messages,
				"tokens", ev.TokenCount,
				"budget", ev.Budget,
				"duration", ev.Duration,
			)
		},
	}
}

// PruneRecorder captures prune decisions so a caller can reconstruct which
// units of the tree survived a render. It is safe for concurrent renders,
// though the recorded paths then interleave.
type PruneRecorder struct {
	mu      sync.Mutex
	kept    []string
	dropped []string
}

// Hooks returns a hook set that records into the receiver. Combine it with
// other hooks to observe and record in one pass.
func (r *PruneRecorder) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnPrune: func(_ context.Context, ev *domain.PruneEvent) {
			r.mu.Lock()
			defer r.mu.Unlock()
			if ev.Kept {
				r.kept = append(r.kept, ev.Path)
			} else {
				r.dropped = append(r.dropped, ev.Path)
			}
		},
	}
}

// Kept returns the paths of units that survived, in decision order.
func (r *PruneRecorder) Kept() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.kept...)
}

// Dropped returns the paths of units the budget forced out.
func (r *PruneRecorder) Dropped() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.dropped...)
}

// Reset clears recorded decisions between renders.
func (r *PruneRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.kept = nil
	r.dropped = nil
}
