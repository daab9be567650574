package ports

import "context"

// PackLoader defines how the compiler retrieves declarative prompt sections.
// This allows the storage layer (Loam, FS, Memory) to be decoupled.
type PackLoader interface {
	// GetSection retrieves the raw definition of a section by ID.
	// It returns the raw bytes (which the compiler will parse) or an error.
	GetSection(id string) ([]byte, error)

	// ListSections returns the IDs of all sections available in the pack.
	// This is used for introspection and visualization tools (e.g.
	// 'espalier graph').
	ListSections() ([]string, error)
}

// Watchable defines an interface for loaders that can notify about backend
// changes. This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that receives the ID of each changed section.
	Watch(ctx context.Context) (<-chan string, error)
}
