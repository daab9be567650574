package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// TranscriptStore defines the interface for persisting conversation turns.
// History components read from it to backfill prompts with as much recent
// conversation as the budget allows; serving adapters append to it after
// each exchange.
type TranscriptStore interface {
	// Append adds messages to the end of a session's transcript, creating
	// the session if it does not exist yet.
	Append(ctx context.Context, sessionID string, msgs ...domain.Message) error

	// Load retrieves a session's transcript in chronological order.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) ([]domain.Message, error)

	// Trim discards the oldest turns so that at most keep messages remain.
	Trim(ctx context.Context, sessionID string, keep int) error

	// Delete removes a session's transcript.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all known sessions.
	List(ctx context.Context) ([]string, error)
}
