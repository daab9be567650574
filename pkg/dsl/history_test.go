package dsl

import (
	"context"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
)

type stubStore struct {
	sessions map[string][]domain.Message
}

func (s *stubStore) Append(ctx context.Context, sessionID string, msgs ...domain.Message) error {
	if s.sessions == nil {
		s.sessions = make(map[string][]domain.Message)
	}
	s.sessions[sessionID] = append(s.sessions[sessionID], msgs...)
	return nil
}

func (s *stubStore) Load(ctx context.Context, sessionID string) ([]domain.Message, error) {
	msgs, ok := s.sessions[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return msgs, nil
}

func (s *stubStore) Trim(ctx context.Context, sessionID string, keep int) error {
	msgs := s.sessions[sessionID]
	if len(msgs) > keep {
		s.sessions[sessionID] = msgs[len(msgs)-keep:]
	}
	return nil
}

func (s *stubStore) Delete(ctx context.Context, sessionID string) error {
	delete(s.sessions, sessionID)
	return nil
}

func (s *stubStore) List(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestHistory_BackfillsNewestFirst(t *testing.T) {
	store := &stubStore{}
	_ = store.Append(context.Background(), "s1",
		domain.Message{Role: domain.RoleUser, Content: "one"},
		domain.Message{Role: domain.RoleAssistant, Content: "two"},
		domain.Message{Role: domain.RoleUser, Content: "three"},
	)
	el := History(store, "s1").Build()

	// Each turn costs 2; a grant of 4 keeps only the two newest.
	subtree, err := el.Render(context.Background(), nil, wordSizing(4))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if subtree == nil {
		t.Fatal("Expected transcript content, got nothing")
	}
	if len(subtree.Children) != 2 {
		t.Fatalf("Expected 2 surviving turns, got %d", len(subtree.Children))
	}
	if subtree.Children[0].Children[0].Text != "two" || subtree.Children[1].Children[0].Text != "three" {
		t.Errorf("Expected the newest turns in chronological order, got %+v", subtree.Children)
	}
	if subtree.Children[1].Role != domain.RoleUser {
		t.Errorf("Expected roles preserved, got %q", subtree.Children[1].Role)
	}
}

func TestHistory_MissingSessionRendersNothing(t *testing.T) {
	el := History(&stubStore{}, "nope").Build()

	subtree, err := el.Render(context.Background(), nil, wordSizing(100))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if subtree != nil {
		t.Errorf("Expected nothing for a missing session, got %+v", subtree)
	}
}

func TestHistory_NothingFitsRendersNothing(t *testing.T) {
	store := &stubStore{}
	_ = store.Append(context.Background(), "s1",
		domain.Message{Role: domain.RoleUser, Content: "a rather long opening turn"},
	)
	el := History(store, "s1").Build()

	subtree, err := el.Render(context.Background(), nil, wordSizing(1))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if subtree != nil {
		t.Errorf("Expected nothing to fit, got %+v", subtree)
	}
}
