package memory

import (
	"context"
	"sync"

	"github.com/aretw0/espalier/pkg/domain"
)

// Store implements ports.TranscriptStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string][]domain.Message
	mu   sync.RWMutex
}

// NewStore creates a new in-memory transcript store.
func NewStore() *Store {
	return &Store{
		data: make(map[string][]domain.Message),
	}
}

// Append adds messages to the end of a session's transcript.
func (s *Store) Append(ctx context.Context, sessionID string, msgs ...domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = append(s.data[sessionID], msgs...)
	return nil
}

// Load retrieves a session's transcript in chronological order.
func (s *Store) Load(ctx context.Context, sessionID string) ([]domain.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgs, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}

	// Copy on read so the caller cannot mutate stored turns by reference.
	ret := make([]domain.Message, len(msgs))
	copy(ret, msgs)
	return ret, nil
}

// Trim keeps only the newest messages of a session.
func (s *Store) Trim(ctx context.Context, sessionID string, keep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, ok := s.data[sessionID]
	if !ok || len(msgs) <= keep {
		return nil
	}
	if keep <= 0 {
		s.data[sessionID] = nil
		return nil
	}
	trimmed := make([]domain.Message, keep)
	copy(trimmed, msgs[len(msgs)-keep:])
	s.data[sessionID] = trimmed
	return nil
}

// Delete removes a session's transcript.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns the known session IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}
