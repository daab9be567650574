// Package estimator provides a heuristic ports.Tokenizer.
//
// It approximates token counts from rune counts (~4 characters per token for
// English text) and charges a small fixed overhead per message for role
// markers and separators. It is a convenience for tests, previews and rough
// budgeting; production callers should plug in a real tokenizer behind the
// same port.
package estimator

import (
	"context"
	"unicode/utf8"

	"github.com/aretw0/espalier/pkg/domain"
)

// DefaultCharsPerToken is the default character-to-token ratio.
// Approximately 4 characters equals 1 token for English text.
const DefaultCharsPerToken = 4.0

// DefaultMessageOverhead is the flat token surcharge applied to a whole
// message, covering role markers and separators most chat formats add.
const DefaultMessageOverhead = 4

// Tokenizer estimates token costs from character counts.
type Tokenizer struct {
	charsPerToken   float64
	messageOverhead int
}

// Option configures the estimator.
type Option func(*Tokenizer)

// WithCharsPerToken overrides the character-to-token ratio. Ratios <= 0 fall
// back to the default.
func WithCharsPerToken(ratio float64) Option {
	return func(t *Tokenizer) {
		if ratio > 0 {
			t.charsPerToken = ratio
		}
	}
}

// WithMessageOverhead overrides the per-message token surcharge. Negative
// values are ignored.
func WithMessageOverhead(tokens int) Option {
	return func(t *Tokenizer) {
		if tokens >= 0 {
			t.messageOverhead = tokens
		}
	}
}

// New creates an estimating tokenizer.
func New(opts ...Option) *Tokenizer {
	t := &Tokenizer{
		charsPerToken:   DefaultCharsPerToken,
		messageOverhead: DefaultMessageOverhead,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CountText estimates the number of tokens in the given text. Runes are
// counted rather than bytes so multi-byte characters do not inflate the
// estimate.
func (t *Tokenizer) CountText(ctx context.Context, text string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	runeCount := utf8.RuneCountInString(text)
	tokens := float64(runeCount) / t.charsPerToken

	// Round to nearest integer.
	return int(tokens + 0.5), nil
}

// CountMessage estimates a whole message: its content plus the name tag plus
// the flat per-message overhead.
func (t *Tokenizer) CountMessage(ctx context.Context, msg domain.Message) (int, error) {
	content, err := t.CountText(ctx, msg.Content)
	if err != nil {
		return 0, err
	}
	name := 0
	if msg.Name != "" {
		if name, err = t.CountText(ctx, msg.Name); err != nil {
			return 0, err
		}
	}
	return content + name + t.messageOverhead, nil
}
