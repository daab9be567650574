package dsl

import (
	"context"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// Lines returns a flexible component that emits one message packing as many
// of the given items as its token grant fits. Items are joined by newlines
// and kept in order; the first item that does not fit ends the expansion.
// The component renders nothing when not even the first item fits.
func Lines(role domain.Role, items []string) *ElementBuilder {
	fn := func(ctx context.Context, props map[string]any, sizing domain.Sizing) (*domain.Element, error) {
		content := ""
		for _, item := range items {
			next := content
			if next != "" {
				next += "\n"
			}
			next += item
			cost, err := sizing.CountMessage(ctx, domain.Message{Role: role, Content: next})
			if err != nil {
				return nil, err
			}
			if cost > sizing.Budget {
				break
			}
			content = next
		}
		if content == "" {
			return nil, nil
		}
		return textMessage(role, content), nil
	}
	return Component("lines", fn).Grow(1)
}

// TailLines is Lines anchored at the end: it backfills from the newest item
// until the grant is exhausted, then emits the survivors in original order.
// Useful for logs and transcripts where the most recent entries matter most.
func TailLines(role domain.Role, items []string) *ElementBuilder {
	fn := func(ctx context.Context, props map[string]any, sizing domain.Sizing) (*domain.Element, error) {
		start := len(items)
		for start > 0 {
			candidate := strings.Join(items[start-1:], "\n")
			cost, err := sizing.CountMessage(ctx, domain.Message{Role: role, Content: candidate})
			if err != nil {
				return nil, err
			}
			if cost > sizing.Budget {
				break
			}
			start--
		}
		if start == len(items) {
			return nil, nil
		}
		return textMessage(role, strings.Join(items[start:], "\n")), nil
	}
	return Component("tail", fn).Grow(1)
}

func textMessage(role domain.Role, content string) *domain.Element {
	return &domain.Element{
		Kind:     domain.KindMessage,
		Role:     role,
		Children: []*domain.Element{{Kind: domain.KindText, Text: content}},
	}
}
