package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventEvaluate EventType = "evaluate"
	EventAllocate EventType = "allocate"
	EventPrune    EventType = "prune"
	EventRender   EventType = "render"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
}

// NodeEvent describes one node evaluation: where it sits, what it was
// granted and what it ended up costing.
type NodeEvent struct {
	EventBase
	Path   string `json:"path"`
	Kind   string `json:"kind"`
	Role   Role   `json:"role,omitempty"`
	Budget int    `json:"budget"`
	Cost   int    `json:"cost"`

	// Round is the allocator round that produced this evaluation. 0 is the
	// first pass; higher rounds are cooperative-growth re-invocations.
	Round int `json:"round,omitempty"`
}

// PruneEvent describes the fate of one prunable unit.
type PruneEvent struct {
	EventBase
	Path     string `json:"path"`
	Priority int    `json:"priority"`
	Cost     int    `json:"cost"`
	Kept     bool   `json:"kept"`
}

// RenderEvent describes a completed render pass.
type RenderEvent struct {
	EventBase
	Messages   int           `json:"messages"`
	TokenCount int           `json:"token_count"`
	Budget     int           `json:"budget"`
	Duration   time.Duration `json:"duration"`
}

// LifecycleHooks defines callbacks for engine observability. Nil callbacks
// are skipped. Hooks run synchronously on the render path, so they should be
// fast; anything slow belongs behind a channel owned by the hook.
type LifecycleHooks struct {
	OnEvaluate func(context.Context, *NodeEvent)
	OnAllocate func(context.Context, *NodeEvent)
	OnPrune    func(context.Context, *PruneEvent)
	OnRender   func(context.Context, *RenderEvent)
}
