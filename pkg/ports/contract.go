package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunTranscriptStoreContract runs a suite of tests to verify that a
// TranscriptStore implementation adheres to the defined interface contract.
func RunTranscriptStoreContract(t *testing.T, store TranscriptStore) {
	ctx := context.Background()
	sessionID := "contract-test-session-" + time.Now().Format("20060102150405")

	turns := []domain.Message{
		{Role: domain.RoleUser, Content: "hello"},
		{Role: domain.RoleAssistant, Content: "hi, how can I help?"},
		{Role: domain.RoleUser, Content: "what is an espalier?"},
	}

	t.Run("Append and Load", func(t *testing.T) {
		err := store.Append(ctx, sessionID, turns...)
		require.NoError(t, err, "Append should not return error")

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded, len(turns))

		// Chronological order must survive the round trip.
		for i, msg := range loaded {
			assert.Equal(t, turns[i].Role, msg.Role)
			assert.Equal(t, turns[i].Content, msg.Content)
		}
	})

	t.Run("Append Extends", func(t *testing.T) {
		extra := domain.Message{Role: domain.RoleAssistant, Content: "a tree trained flat against a frame"}
		err := store.Append(ctx, sessionID, extra)
		require.NoError(t, err)

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, loaded, len(turns)+1)
		assert.Equal(t, extra.Content, loaded[len(loaded)-1].Content)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Trim Keeps Newest", func(t *testing.T) {
		err := store.Trim(ctx, sessionID, 2)
		require.NoError(t, err)

		loaded, err := store.Load(ctx, sessionID)
		require.NoError(t, err)
		require.Len(t, loaded, 2)
		assert.Equal(t, "what is an espalier?", loaded[0].Content)
		assert.Equal(t, "a tree trained flat against a frame", loaded[1].Content)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Delete(ctx, sessionID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, sessionID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := sessionID + "-1"
		id2 := sessionID + "-2"
		_ = store.Append(ctx, id1, turns[0])
		_ = store.Append(ctx, id2, turns[0])

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		sessions, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, sessions, id1)
		assert.Contains(t, sessions, id2)
	})
}
