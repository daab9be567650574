package cli

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/presentation/tui"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// PreviewOptions configures the 'preview' command.
type PreviewOptions struct {
	RunOptions
	File    string
	Section string
	Props   string
	Budget  int
	Watch   bool
}

// Preview renders a tree and pretty-prints the transcript. In watch mode it
// keeps re-rendering whenever the pack changes on disk.
func Preview(opts PreviewOptions) error {
	logger := createLogger(opts.Debug)

	if opts.Watch {
		runPreviewWatch(opts, logger)
		return nil
	}

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	store, closeStore := OpenStore(opts.RedisURL)
	defer closeStore()

	engine, err := createEngine(opts.RunOptions, store, logger)
	if err != nil {
		return err
	}
	return handleExecutionError(previewRender(sigCtx, engine, opts))
}

// runPreviewWatch executes preview in development mode, reloading on file
// changes until a signal stops it.
func runPreviewWatch(opts PreviewOptions, logger *slog.Logger) {
	tui.PrintBanner(espalier.Version)
	logger.Info("Starting Watcher", "path", opts.PackPath)

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	store, closeStore := OpenStore(opts.RedisURL)
	defer closeStore()

	for {
		if !previewWatchIteration(sigCtx, opts, store, logger) {
			break
		}
		logger.Info("Watcher restarting")
	}
}

func previewWatchIteration(parentCtx *SignalContext, opts PreviewOptions, store ports.TranscriptStore, logger *slog.Logger) bool {
	// A child context scopes the watcher to this iteration without
	// cancelling the parent signal context.
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	// 1. Initialize Engine
	engine, err := createEngine(opts.RunOptions, store, logger)
	if err != nil {
		logger.Error("Engine initialization failed", "err", err)
		select {
		case <-parentCtx.Done():
			return false
		case <-time.After(2 * time.Second):
			return true
		}
	}

	// 2. Setup Watcher
	watchCh, err := engine.Watch(ctx)
	if err != nil {
		logger.Error("Watch unavailable", "err", err)
		printSystemMessage("Watch unavailable: %v", err)
		return false
	}

	// 3. Render
	// A broken pack is not fatal in watch mode; the next edit may fix it.
	if err := previewRender(ctx, engine, opts); err != nil {
		logger.Error("Render failed", "err", err)
		printSystemMessage("Render failed: %v", err)
	}
	printSystemMessage("Waiting for changes...")

	select {
	case <-parentCtx.Done():
		logger.Info("Stopping watcher (signal received)", "signal", parentCtx.Signal())
		return false
	case event, ok := <-watchCh:
		if !ok {
			return false
		}
		logger.Info("Change detected, triggering reload", "event", event)
		printSystemMessage("Change detected in '%s'.", event)
		// Delay slightly to ensure file system is stable
		time.Sleep(100 * time.Millisecond)
		return true
	}
}

func previewRender(ctx context.Context, engine *espalier.Engine, opts PreviewOptions) error {
	props, err := parseProps(opts.Props)
	if err != nil {
		return err
	}
	root, err := resolveTree(engine, opts.File, opts.Section, props)
	if err != nil {
		return err
	}
	result, err := engine.Render(ctx, root, domain.Endpoint{MaxPromptTokens: opts.Budget})
	if err != nil {
		return err
	}

	fmt.Print(tui.RenderTranscript(result.Messages))
	printSystemMessage("%d message(s), %d/%d tokens.", len(result.Messages), result.TokenCount, opts.Budget)
	return nil
}
