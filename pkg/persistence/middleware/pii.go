package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// Mask replaces every pattern match in redacted content.
const Mask = "***"

type piiMiddleware struct {
	next     ports.TranscriptStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks pattern matches in
// message content and speaker names before they are persisted. Redaction
// happens at rest and is irreversible; Load returns what was stored.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.TranscriptStore) ports.TranscriptStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Append(ctx context.Context, sessionID string, msgs ...domain.Message) error {
	// Copy before masking so the caller's messages stay untouched.
	redacted := make([]domain.Message, len(msgs))
	for i, msg := range msgs {
		msg.Content = m.mask(msg.Content)
		msg.Name = m.mask(msg.Name)
		redacted[i] = msg
	}

	return m.next.Append(ctx, sessionID, redacted...)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) ([]domain.Message, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Trim(ctx context.Context, sessionID string, keep int) error {
	return m.next.Trim(ctx, sessionID, keep)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) mask(text string) string {
	for _, p := range m.patterns {
		text = p.ReplaceAllString(text, Mask)
	}
	return text
}
