package cli

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/observability"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
)

// RunOptions carries the flags every command shares.
type RunOptions struct {
	PackPath string
	Debug    bool
	RedisURL string
}

// createEngine initializes an Espalier engine with standard CLI conventions.
func createEngine(opts RunOptions, store ports.TranscriptStore, logger *slog.Logger, extra ...domain.LifecycleHooks) (*espalier.Engine, error) {
	engineOpts := []espalier.Option{espalier.WithLogger(logger)}

	// 1. Hooks
	// Debug mode audits every engine event; callers may chain their own
	// hook sets (the graph overlay records prune decisions this way).
	hooks := extra
	if opts.Debug {
		hooks = append([]domain.LifecycleHooks{observability.LoggingHooks(logger)}, hooks...)
	}
	if len(hooks) > 0 {
		engineOpts = append(engineOpts, espalier.WithLifecycleHooks(observability.Combine(hooks...)))
	}

	// 2. Pack
	if opts.PackPath != "" {
		engineOpts = append(engineOpts, espalier.WithPack(opts.PackPath))
	}

	// 3. Transcript store, plus the builtin component that reads it
	if store != nil {
		reg := registry.New()
		reg.Register("history", historyComponent(store))
		engineOpts = append(engineOpts,
			espalier.WithStore(store),
			espalier.WithRegistry(reg),
		)
	}

	// 4. Initialize
	engine, err := espalier.New(engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}

	return engine, nil
}
