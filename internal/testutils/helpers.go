// Package testutils provides shared helpers for tests that need a real
// prompt pack on disk.
package testutils

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo creates a temporary directory and initializes a Loam
// repository in it. It returns the absolute path to the temp dir and the
// initialized repository, failing the test immediately on error.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	tmpDir := t.TempDir()

	// Loam prefers absolute paths.
	absPath, err := filepath.Abs(tmpDir)
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// SaveSection writes one section document into the repository.
func SaveSection(t *testing.T, repo core.Repository, id, content string) {
	t.Helper()

	err := repo.Save(context.Background(), core.Document{
		ID:      id,
		Content: content,
	})
	require.NoError(t, err, "Failed to save section %s", id)
}
