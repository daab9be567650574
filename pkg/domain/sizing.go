package domain

import "context"

// CountTextFunc measures the token cost of a literal string.
type CountTextFunc func(ctx context.Context, text string) (int, error)

// CountMessageFunc measures the token cost of a fully-formed message,
// including whatever per-message overhead the target tokenizer charges.
type CountMessageFunc func(ctx context.Context, msg Message) (int, error)

// Sizing carries the token budget granted to a single node evaluation plus
// bound token counters. The allocator constructs one immediately before
// invoking a node's render step and discards it when the step returns; a
// Sizing is never shared between two concurrently evaluating nodes.
//
// Nodes only ever see the budget granted to them. The running remainder a
// parent is working through is not visible here.
type Sizing struct {
	// Budget is the number of tokens this node and everything beneath it may
	// consume.
	Budget int

	countText    CountTextFunc
	countMessage CountMessageFunc
}

// NewSizing binds a budget to a pair of token counters. The runtime is the
// usual caller; component tests may bind fakes directly.
func NewSizing(budget int, text CountTextFunc, msg CountMessageFunc) Sizing {
	return Sizing{Budget: budget, countText: text, countMessage: msg}
}

// CountText measures a literal string. It observes ctx before delegating, so
// a cancelled render stops initiating tokenizer calls at the next suspension
// point.
func (s Sizing) CountText(ctx context.Context, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.countText(ctx, text)
}

// CountMessage measures a fully-formed message. Observes ctx like CountText.
func (s Sizing) CountMessage(ctx context.Context, msg Message) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.countMessage(ctx, msg)
}

// WithBudget returns a copy of the Sizing rebound to a different budget. The
// counters stay shared; budgets are per-node values.
func (s Sizing) WithBudget(budget int) Sizing {
	s.Budget = budget
	return s
}
