package dsl

import (
	"context"
	"errors"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// History returns a flexible component that renders a session's transcript.
// It backfills newest turns first until its grant is exhausted, then emits
// the survivors in chronological order, each as its own message.
//
// The emitted turns carry the default priority, so if the finished prompt
// still overflows they are the first units shed. A missing session renders
// nothing. History produces whole messages and must sit at the top level of
// the tree, not inside another message.
func History(store ports.TranscriptStore, sessionID string) *ElementBuilder {
	fn := func(ctx context.Context, props map[string]any, sizing domain.Sizing) (*domain.Element, error) {
		msgs, err := store.Load(ctx, sessionID)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				return nil, nil
			}
			return nil, err
		}

		total := 0
		start := len(msgs)
		for start > 0 {
			cost, err := sizing.CountMessage(ctx, msgs[start-1])
			if err != nil {
				return nil, err
			}
			if total+cost > sizing.Budget {
				break
			}
			total += cost
			start--
		}
		if start == len(msgs) {
			return nil, nil
		}

		frag := &domain.Element{Kind: domain.KindFragment}
		for _, m := range msgs[start:] {
			frag.Children = append(frag.Children, &domain.Element{
				Kind:     domain.KindMessage,
				Role:     m.Role,
				Name:     m.Name,
				Children: []*domain.Element{{Kind: domain.KindText, Text: m.Content}},
			})
		}
		return frag, nil
	}
	return Component("history", fn).Grow(1)
}
