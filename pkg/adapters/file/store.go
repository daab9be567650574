// Package file persists transcripts as JSON files on the local filesystem,
// one file per session. It backs local CLI sessions; deployments sharing
// state across replicas use the redis adapter instead.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/aretw0/espalier/pkg/domain"
)

// DefaultBasePath is where the CLI keeps local sessions.
const DefaultBasePath = ".espalier/sessions"

// Store implements ports.TranscriptStore on the local filesystem. Each
// session lives in one JSON file under BasePath.
type Store struct {
	BasePath string

	// Append and Trim cycle through read-modify-write; the lock keeps
	// concurrent in-process writers from losing turns.
	mu sync.Mutex
}

// New creates a Store rooted at basePath. An empty basePath falls back to
// DefaultBasePath.
func New(basePath string) *Store {
	if basePath == "" {
		basePath = filepath.FromSlash(DefaultBasePath)
	}
	return &Store{BasePath: basePath}
}

// Append adds messages to the end of a session's transcript, creating the
// session file if it does not exist yet.
func (s *Store) Append(ctx context.Context, sessionID string, msgs ...domain.Message) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	transcript, err := s.read(sessionID)
	if err != nil && !errors.Is(err, domain.ErrSessionNotFound) {
		return err
	}
	return s.write(sessionID, append(transcript, msgs...))
}

// Load retrieves a session's transcript in chronological order.
func (s *Store) Load(ctx context.Context, sessionID string) ([]domain.Message, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("sessionID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(sessionID)
}

// Trim keeps only the newest messages of a session.
func (s *Store) Trim(ctx context.Context, sessionID string, keep int) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	msgs, err := s.read(sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil
		}
		return err
	}
	if len(msgs) <= keep {
		return nil
	}
	if keep <= 0 {
		return s.write(sessionID, []domain.Message{})
	}
	return s.write(sessionID, msgs[len(msgs)-keep:])
}

// Delete removes the session file.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("sessionID cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path(sessionID))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete session file: %w", err)
	}
	return nil
}

// List returns the IDs of all known sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.BasePath)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	var sessions []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		sessions = append(sessions, strings.TrimSuffix(entry.Name(), ".json"))
	}
	return sessions, nil
}

// Close exists for symmetry with backends that hold connections. The file
// store has nothing to release.
func (s *Store) Close() error {
	return nil
}

func (s *Store) path(sessionID string) string {
	return filepath.Join(s.BasePath, sessionID+".json")
}

func (s *Store) read(sessionID string) ([]domain.Message, error) {
	data, err := os.ReadFile(s.path(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var msgs []domain.Message
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transcript: %w", err)
	}
	return msgs, nil
}

// write persists the transcript atomically: it writes a temp file in the
// same directory, fsyncs, and renames it over the destination so readers
// never observe a partial file.
func (s *Store) write(sessionID string, msgs []domain.Message) error {
	if err := os.MkdirAll(s.BasePath, 0755); err != nil {
		return fmt.Errorf("failed to ensure session directory: %w", err)
	}

	data, err := json.MarshalIndent(msgs, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal transcript: %w", err)
	}

	// The temp file must share the destination's filesystem for the rename
	// to be atomic.
	tmpFile, err := os.CreateTemp(s.BasePath, "tmp-"+sessionID+"-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath) // No-op once renamed.
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("failed to fsync temp file: %w", err)
	}
	// Windows cannot rename an open file.
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	destPath := s.path(sessionID)
	// Windows also refuses to rename over an existing file; removing it
	// first narrows atomicity to the gap between the two calls, which beats
	// readers seeing a half-written transcript.
	if _, err := os.Stat(destPath); err == nil {
		if err := os.Remove(destPath); err != nil {
			return fmt.Errorf("failed to replace session file: %w", err)
		}
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to move transcript into place: %w", err)
	}
	return nil
}
