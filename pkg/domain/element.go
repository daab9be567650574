package domain

import "context"

// Kind constants define how the evaluator treats a node.
const (
	// KindMessage wraps its children under a chat role (soft container).
	KindMessage = "message"
	// KindText holds a literal string and nothing else (leaf).
	KindText = "text"
	// KindFragment splices its children into the parent group. A fragment has
	// no role and no cost of its own, and its priority is ignored.
	KindFragment = "fragment"
	// KindComponent defers to a caller-supplied render step that produces a
	// subtree once it knows how many tokens it has been granted.
	KindComponent = "component"
)

// RenderFunc is the render step of a component element. It receives the
// component's props and the Sizing granted to it and returns a subtree to be
// evaluated in its place. The step may suspend on the Sizing's bound counters
// and must never return content that costs more than sizing.Budget; see
// BudgetViolationError for what happens when it does.
//
// For a fixed tree, fixed props and a deterministic tokenizer the step must
// be deterministic, or the engine's repeatability guarantee is void.
type RenderFunc func(ctx context.Context, props map[string]any, sizing Sizing) (*Element, error)

// Element represents a node in the declarative prompt tree before evaluation.
//
// Priority and flex attributes are set at construction time and must not be
// mutated afterwards; a render pass treats the whole tree as read-only and
// never retains a reference to it after returning.
type Element struct {
	Kind string `json:"kind" yaml:"kind"`

	// Role is the chat role for KindMessage nodes. Empty for every other kind.
	Role Role `json:"role,omitempty" yaml:"role,omitempty"`

	// Priority ranks this node when the budget forces pruning. Higher
	// survives longer. The zero value means DefaultPriority.
	Priority int `json:"priority,omitempty" yaml:"priority,omitempty"`

	// Grow is the flex weight. Zero means the node is fixed-size: it claims
	// whatever it costs and is pruned whole if that does not fit. A positive
	// weight opts the node into cooperative sizing against its siblings.
	Grow float64 `json:"grow,omitempty" yaml:"grow,omitempty"`

	// Basis is the token reservation granted to a flex node before
	// proportional growth is computed.
	Basis int `json:"basis,omitempty" yaml:"basis,omitempty"`

	// Prunable marks a nested node as an independently prunable unit. The
	// pruner may then drop it without dropping its enclosing message.
	// Top-level messages are always prunable, marker or not.
	Prunable bool `json:"prunable,omitempty" yaml:"prunable,omitempty"`

	// Name optionally tags a message with a speaker name. It is threaded
	// through to the output untouched.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Text is the literal content of a KindText leaf.
	Text string `json:"text,omitempty" yaml:"text,omitempty"`

	// Children holds the ordered child elements. Order is declaration order
	// and is independent of priority.
	Children []*Element `json:"children,omitempty" yaml:"children,omitempty"`

	// Render is the render step of a KindComponent node.
	Render RenderFunc `json:"-" yaml:"-"`

	// Props is the property bag handed to Render.
	Props map[string]any `json:"props,omitempty" yaml:"props,omitempty"`

	// References is opaque caller metadata. References of surviving nodes are
	// collected into the RenderResult in declaration order.
	References []any `json:"-" yaml:"-"`
}

// Flexible reports whether the element opted into cooperative sizing.
func (e *Element) Flexible() bool {
	return e.Grow > 0
}
