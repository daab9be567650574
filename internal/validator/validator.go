package validator

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/aretw0/espalier/internal/compiler"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
)

// ValidatePack compiles every section of a pack and aggregates what fails.
// Components resolve permissively, since a pack may name components the
// embedding program only registers at runtime; what gets reported are the
// structural problems (malformed definitions, unknown kinds, broken or
// cyclic section references).
func ValidatePack(loader ports.PackLoader) error {
	ids, err := loader.ListSections()
	if err != nil {
		return fmt.Errorf("listing sections: %w", err)
	}
	// Loader order is not guaranteed; sort so reports are stable.
	sort.Strings(ids)

	comp := compiler.New(
		compiler.WithLoader(loader),
		compiler.WithRegistry(registry.NewPermissive()),
	)

	var errors []string
	for _, id := range ids {
		if _, err := comp.CompileSection(id); err != nil {
			errors = append(errors, fmt.Sprintf("section '%s': %v", id, err))
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("found %d errors:\n- %s", len(errors), strings.Join(errors, "\n- "))
	}

	return nil
}

// ValidateFile compiles a single tree definition file. Section references
// inside it resolve against the given loader; a nil loader makes any
// reference an error, which is the right answer for a standalone file.
func ValidateFile(path string, loader ports.PackLoader) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading tree file: %w", err)
	}

	comp := compiler.New(
		compiler.WithLoader(loader),
		compiler.WithRegistry(registry.NewPermissive()),
	)
	if _, err := comp.Compile(data); err != nil {
		return fmt.Errorf("%s: %v", path, err)
	}
	return nil
}
