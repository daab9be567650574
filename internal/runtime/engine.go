package runtime

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// Engine is the core rendering pipeline. It owns the four phases of a render
// pass (evaluate, allocate, prune, flatten) and the tokenizer they suspend on.
type Engine struct {
	tokenizer ports.Tokenizer
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
}

// EngineOption configures the core engine.
type EngineOption func(*Engine)

// WithLogger sets a structured logger. The default discards everything.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// NewEngine creates the core engine around a tokenizer.
func NewEngine(tokenizer ports.Tokenizer, opts ...EngineOption) *Engine {
	e := &Engine{
		tokenizer: tokenizer,
		logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render runs one full pass over the element tree and returns the flattened
// messages. It fails without partial results when the budget is invalid, the
// tree is malformed, a component fails, a flexible component overdraws its
// grant, or ctx is cancelled.
func (e *Engine) Render(ctx context.Context, root *domain.Element, endpoint domain.Endpoint) (*domain.RenderResult, error) {
	started := time.Now()

	if endpoint.MaxPromptTokens < 0 {
		return nil, fmt.Errorf("%w: got %d", domain.ErrInvalidBudget, endpoint.MaxPromptTokens)
	}
	if err := ValidateTree(root); err != nil {
		return nil, err
	}

	top, err := e.evaluateGroup(ctx, topLevel(root), "root", endpoint.MaxPromptTokens)
	if err != nil {
		return nil, err
	}
	for i, piece := range top {
		if piece.Role == "" {
			return nil, fmt.Errorf("%w: top-level content outside a message (position %d)", domain.ErrMalformedTree, i)
		}
	}

	kept, total := e.prune(ctx, top, endpoint.MaxPromptTokens)
	result := flatten(kept, total)

	e.logger.Debug("render complete",
		"messages", len(result.Messages),
		"tokens", result.TokenCount,
		"budget", endpoint.MaxPromptTokens,
		"duration", time.Since(started),
	)
	e.emitRender(ctx, result, endpoint.MaxPromptTokens, time.Since(started))

	return result, nil
}

// topLevel returns the root's sibling group: a fragment root is already a
// group, anything else forms a group of one.
func topLevel(root *domain.Element) []*domain.Element {
	if root.Kind == domain.KindFragment {
		return root.Children
	}
	return []*domain.Element{root}
}

// sizing binds a budget to the engine's tokenizer.
func (e *Engine) sizing(budget int) domain.Sizing {
	return domain.NewSizing(budget, e.tokenizer.CountText, e.tokenizer.CountMessage)
}

func totalCost(pieces []*domain.Piece) int {
	total := 0
	for _, p := range pieces {
		total += p.TokenCost
	}
	return total
}

func childPath(parent string, index int) string {
	return fmt.Sprintf("%s/%d", parent, index)
}

func (e *Engine) emitEvaluate(ctx context.Context, path string, el *domain.Element, budget, cost, round int) {
	if e.hooks.OnEvaluate == nil {
		return
	}
	e.hooks.OnEvaluate(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventEvaluate},
		Path:      path,
		Kind:      el.Kind,
		Role:      el.Role,
		Budget:    budget,
		Cost:      cost,
		Round:     round,
	})
}

func (e *Engine) emitAllocate(ctx context.Context, path string, el *domain.Element, granted, used, round int) {
	if e.hooks.OnAllocate == nil {
		return
	}
	e.hooks.OnAllocate(ctx, &domain.NodeEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventAllocate},
		Path:      path,
		Kind:      el.Kind,
		Role:      el.Role,
		Budget:    granted,
		Cost:      used,
		Round:     round,
	})
}

func (e *Engine) emitPrune(ctx context.Context, path string, priority, cost int, kept bool) {
	if e.hooks.OnPrune == nil {
		return
	}
	e.hooks.OnPrune(ctx, &domain.PruneEvent{
		EventBase: domain.EventBase{Timestamp: time.Now(), Type: domain.EventPrune},
		Path:      path,
		Priority:  priority,
		Cost:      cost,
		Kept:      kept,
	})
}

func (e *Engine) emitRender(ctx context.Context, result *domain.RenderResult, budget int, elapsed time.Duration) {
	if e.hooks.OnRender == nil {
		return
	}
	e.hooks.OnRender(ctx, &domain.RenderEvent{
		EventBase:  domain.EventBase{Timestamp: time.Now(), Type: domain.EventRender},
		Messages:   len(result.Messages),
		TokenCount: result.TokenCount,
		Budget:     budget,
		Duration:   elapsed,
	})
}
