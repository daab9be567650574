package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidBudget is returned when a render is requested with a negative
// token budget. A zero budget is legal and yields an empty prompt.
var ErrInvalidBudget = errors.New("token budget must not be negative")

// ErrMalformedTree is returned when the declarative tree cannot be rendered
// as declared: a nil root, a component without a render step, an unknown kind
// or role, or a negative flex weight or basis.
var ErrMalformedTree = errors.New("malformed element tree")

// ErrSessionNotFound is returned when a session ID cannot be found in a
// transcript store.
var ErrSessionNotFound = errors.New("session not found")

// EvaluationError reports a component render step that failed. The failure
// fails the whole render; there is no per-node fallback.
type EvaluationError struct {
	// Path locates the failing node in the tree, e.g. "root/2/history".
	Path string
	Err  error
}

func (e *EvaluationError) Error() string {
	return fmt.Sprintf("evaluate %s: %v", e.Path, e.Err)
}

func (e *EvaluationError) Unwrap() error {
	return e.Err
}

// BudgetViolationError reports a flexible node whose measured cost exceeds
// the budget it was granted. The engine aborts the render; it never clamps a
// reported cost to fit.
type BudgetViolationError struct {
	Path     string
	Granted  int
	Reported int
}

func (e *BudgetViolationError) Error() string {
	return fmt.Sprintf("node %s reported %d tokens against a grant of %d", e.Path, e.Reported, e.Granted)
}
