package memory

import (
	"fmt"
	"sort"
)

// Loader implements ports.PackLoader using an in-memory map.
type Loader struct {
	sections map[string][]byte
}

// NewLoader creates a new in-memory pack from raw section definitions.
func NewLoader(sections map[string]string) *Loader {
	data := make(map[string][]byte)
	for id, body := range sections {
		data[id] = []byte(body)
	}
	return &Loader{sections: data}
}

// GetSection retrieves the raw definition of a section by ID.
func (l *Loader) GetSection(id string) ([]byte, error) {
	content, ok := l.sections[id]
	if !ok {
		return nil, fmt.Errorf("section not found: %s", id)
	}
	return content, nil
}

// ListSections returns all available section IDs.
func (l *Loader) ListSections() ([]string, error) {
	ids := make([]string, 0, len(l.sections))
	for id := range l.sections {
		ids = append(ids, id)
	}
	sort.Strings(ids) // Deterministic order
	return ids, nil
}
