// Package loam adapts the Loam document library to the espalier PackLoader
// interface. A prompt pack is a directory of Markdown files with YAML
// frontmatter: the frontmatter carries layout attributes (role, priority,
// flex sizing, children) and the body carries the section's text.
package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/loam"
)

// Loader adapts a Loam repository to the espalier PackLoader interface.
type Loader struct {
	Repo *loam.TypedRepository[SectionMetadata]
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[SectionMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// GetSection retrieves a section from the Loam repository and normalizes it
// to the canonical JSON form the compiler consumes. Loam resolves naked IDs
// to files, so asking for "welcome" finds welcome.md.
func (l *Loader) GetSection(id string) ([]byte, error) {
	ctx := context.Background()

	doc, err := l.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loam get failed for %s: %w", id, err)
	}

	data := buildSectionData(doc.ID, doc.Data, doc.Content)
	bytes, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal section data: %w", err)
	}

	return bytes, nil
}

// buildSectionData flattens metadata and body into one JSON object, keeping
// only the keys the section actually sets.
func buildSectionData(docID string, meta SectionMetadata, content string) map[string]any {
	data := make(map[string]any)

	rawID := meta.ID
	if rawID == "" {
		rawID = docID
	}
	data["id"] = trimExtension(rawID)

	body := strings.TrimSpace(content)

	kind := meta.Kind
	if kind == "" {
		// Infer the kind from what the frontmatter sets: a component name
		// makes it a component, a role makes it a message, a bare body is a
		// text leaf and anything else splices into the parent.
		switch {
		case meta.Component != "":
			kind = domain.KindComponent
		case meta.Role != "":
			kind = domain.KindMessage
		case body != "" && len(meta.Children) == 0:
			kind = domain.KindText
		default:
			kind = domain.KindFragment
		}
	}
	data["kind"] = kind

	if meta.Role != "" {
		data["role"] = meta.Role
	}
	if meta.Priority != 0 {
		data["priority"] = meta.Priority
	}
	if meta.Grow != 0 {
		data["grow"] = meta.Grow
	}
	if meta.Basis != 0 {
		data["basis"] = meta.Basis
	}
	if meta.Prunable {
		data["prunable"] = true
	}
	if meta.Speaker != "" {
		data["speaker"] = meta.Speaker
	}
	if meta.Component != "" {
		data["component"] = meta.Component
	}
	if len(meta.Props) > 0 {
		data["props"] = meta.Props
	}
	if len(meta.PropsSchema) > 0 {
		data["props_schema"] = meta.PropsSchema
	}
	if len(meta.Refs) > 0 {
		data["refs"] = meta.Refs
	}
	if len(meta.Children) > 0 {
		data["children"] = meta.Children
	}

	if body != "" {
		data["text"] = body
	}

	return data
}

// ListSections lists all sections in the repository.
func (l *Loader) ListSections() ([]string, error) {
	ctx := context.Background()
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	ids := make([]string, 0, len(docs))

	for _, doc := range docs {
		// Use the ID from metadata if available, otherwise the filename ID.
		rawID := doc.Data.ID
		if rawID == "" {
			rawID = doc.ID
		}
		id := trimExtension(rawID)

		// Collision Detection
		if existingPath, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: section '%s' is defined in both '%s' and '%s'", id, existingPath, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	return ids, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan string, error) {
	// Watch every file format a pack may contain; Loam handles the
	// doublestar pattern and debounces file events itself.
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan string, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case evt, ok := <-events:
				if !ok {
					return
				}
				// Pass the changed ID up the chain, respecting context
				// cancellation.
				select {
				case ch <- evt.ID:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}
