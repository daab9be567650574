package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// Tokenizer measures token costs. The engine depends only on this contract,
// never on a tokenizer's internals; the bundled estimator is a convenience,
// not the design target.
//
// Both operations must be pure and deterministic for a given input, or the
// engine's repeatability guarantee does not hold. Implementations that call
// out of process must honor ctx cancellation.
type Tokenizer interface {
	// CountText returns the token cost of a literal string.
	CountText(ctx context.Context, text string) (int, error)

	// CountMessage returns the token cost of a fully-formed role-tagged
	// message. It exists because whole-message overhead (role markers,
	// separators) can differ from the summed cost of the message's text.
	CountMessage(ctx context.Context, msg domain.Message) (int, error)
}
