package cli

import (
	"context"
	"fmt"

	"github.com/aretw0/espalier/internal/presentation/graph"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/observability"
)

// GraphOptions configures the 'graph' command. A non-negative budget renders
// the tree first and overlays what survived.
type GraphOptions struct {
	RunOptions
	File    string
	Section string
	Props   string
	Budget  int
}

// Graph prints a Mermaid diagram of a compiled tree to stdout.
func Graph(opts GraphOptions) error {
	logger := createLogger(opts.Debug)

	store, closeStore := OpenStore(opts.RedisURL)
	defer closeStore()

	recorder := &observability.PruneRecorder{}
	engine, err := createEngine(opts.RunOptions, store, logger, recorder.Hooks())
	if err != nil {
		return err
	}

	props, err := parseProps(opts.Props)
	if err != nil {
		return err
	}
	root, err := resolveTree(engine, opts.File, opts.Section, props)
	if err != nil {
		return err
	}

	var overlay *graph.RenderOverlay
	if opts.Budget >= 0 {
		if _, err := engine.Render(context.Background(), root, domain.Endpoint{MaxPromptTokens: opts.Budget}); err != nil {
			return fmt.Errorf("rendering for overlay: %w", err)
		}
		overlay = &graph.RenderOverlay{
			Kept:    recorder.Kept(),
			Dropped: recorder.Dropped(),
		}
	}

	fmt.Print(graph.GenerateMermaid(root, overlay))
	return nil
}
