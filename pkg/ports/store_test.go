package ports_test

import (
	"context"
	"testing"

	"github.com/aretw0/espalier/pkg/domain"
)

// MockStore is an in-memory implementation of TranscriptStore for testing purposes.
type MockStore struct {
	data map[string][]domain.Message
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string][]domain.Message),
	}
}

func (m *MockStore) Append(ctx context.Context, sessionID string, msgs ...domain.Message) error {
	m.data[sessionID] = append(m.data[sessionID], msgs...)
	return nil
}

func (m *MockStore) Load(ctx context.Context, sessionID string) ([]domain.Message, error) {
	msgs, ok := m.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	// Copy to simulate serialization.
	out := make([]domain.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (m *MockStore) Trim(ctx context.Context, sessionID string, keep int) error {
	msgs, ok := m.data[sessionID]
	if !ok {
		return nil
	}
	if keep < len(msgs) {
		m.data[sessionID] = msgs[len(msgs)-keep:]
	}
	return nil
}

func (m *MockStore) Delete(ctx context.Context, sessionID string) error {
	delete(m.data, sessionID)
	return nil
}

func (m *MockStore) List(ctx context.Context) ([]string, error) {
	ids := make([]string, 0, len(m.data))
	for id := range m.data {
		ids = append(ids, id)
	}
	return ids, nil
}

func TestTranscriptStore_Contract(t *testing.T) {
	// This test verifies that the MockStore complies with the TranscriptStore
	// logic. It serves as a contract test for future implementations (Adapters).

	ctx := context.Background()
	store := NewMockStore()
	sessionID := "test-session"

	// 1. Load non-existent session
	_, err := store.Load(ctx, sessionID)
	if err != domain.ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound, got %v", err)
	}

	// 2. Append turns
	err = store.Append(ctx, sessionID,
		domain.Message{Role: domain.RoleUser, Content: "first"},
		domain.Message{Role: domain.RoleAssistant, Content: "second"},
	)
	if err != nil {
		t.Fatalf("Failed to append: %v", err)
	}

	// 3. Load back in order
	loaded, err := store.Load(ctx, sessionID)
	if err != nil {
		t.Fatalf("Failed to load transcript: %v", err)
	}
	if len(loaded) != 2 || loaded[0].Content != "first" || loaded[1].Content != "second" {
		t.Errorf("Unexpected transcript: %+v", loaded)
	}

	// 4. Trim keeps the newest turns
	if err := store.Trim(ctx, sessionID, 1); err != nil {
		t.Fatalf("Failed to trim: %v", err)
	}
	loaded, _ = store.Load(ctx, sessionID)
	if len(loaded) != 1 || loaded[0].Content != "second" {
		t.Errorf("Trim should keep the newest turn, got %+v", loaded)
	}

	// 5. Delete
	if err := store.Delete(ctx, sessionID); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := store.Load(ctx, sessionID); err != domain.ErrSessionNotFound {
		t.Errorf("Expected ErrSessionNotFound after delete, got %v", err)
	}
}
