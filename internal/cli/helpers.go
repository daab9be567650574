package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/adapters/file"
	"github.com/aretw0/espalier/pkg/adapters/redis"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/dsl"
	"github.com/aretw0/espalier/pkg/ports"
)

// SignalContext wraps a context and captures the signal that cancelled it.
type SignalContext struct {
	context.Context
	Cancel func()
	start  sync.Once
	stop   sync.Once
	sigCh  chan os.Signal
	sigVal os.Signal
	mu     sync.Mutex
}

// NewSignalContext creates a context that is cancelled on SIGINT or SIGTERM.
// It acts as a drop-in replacement for signal.NotifyContext but allows retrieving the signal.
func NewSignalContext(parent context.Context) *SignalContext {
	ctx, cancel := context.WithCancel(parent)
	sc := &SignalContext{
		Context: ctx,
		Cancel:  cancel,
		sigCh:   make(chan os.Signal, 1),
	}

	sc.start.Do(func() {
		signal.Notify(sc.sigCh, os.Interrupt, syscall.SIGTERM)
		go func() {
			select {
			case sig := <-sc.sigCh:
				sc.mu.Lock()
				sc.sigVal = sig
				sc.mu.Unlock()
				sc.Cancel()
			case <-sc.Context.Done():
				// Context cancelled elsewhere
			}
			sc.stop.Do(func() {
				signal.Stop(sc.sigCh)
			})
		}()
	})

	return sc
}

// Signal returns the signal that caused the context to be cancelled, or nil.
func (sc *SignalContext) Signal() os.Signal {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.sigVal
}

// createLogger configures the application logger.
// In debug mode, it writes to Stderr (to separate from Stdout output).
func createLogger(debug bool) *slog.Logger {
	if debug {
		return logging.New(slog.LevelDebug)
	}
	return logging.NewNop()
}

// printSystemMessage prints a standardized system message to stdout.
func printSystemMessage(format string, args ...any) {
	fmt.Printf(">>> %s\n", fmt.Sprintf(format, args...))
}

// parseProps decodes the --props flag into the variable map handed to the
// compiler.
func parseProps(raw string) (map[string]any, error) {
	if raw == "" {
		return nil, nil
	}
	var props map[string]any
	if err := json.Unmarshal([]byte(raw), &props); err != nil {
		return nil, fmt.Errorf("error parsing --props JSON: %w", err)
	}
	return props, nil
}

// resolveTree loads the element tree a command operates on, either from a
// definition file or from a pack section.
func resolveTree(engine *espalier.Engine, file, section string, props map[string]any) (*domain.Element, error) {
	switch {
	case file != "" && section != "":
		return nil, errors.New("choose either a tree file or a section, not both")
	case file != "":
		return engine.CompileFile(file, props)
	case section != "":
		return engine.CompileSection(section, props)
	default:
		return nil, errors.New("a tree file (-f) or a section name is required")
	}
}

// OpenStore connects the transcript store the CLI commands share: Redis when
// an address is configured, otherwise JSON files under .espalier/sessions so
// sessions work with no infrastructure at all. The returned closer releases
// whatever the backend holds open. Embedding programs may hand the engine
// any ports.TranscriptStore implementation instead.
func OpenStore(redisURL string) (ports.TranscriptStore, func() error) {
	if redisURL == "" {
		fs := file.New("")
		return fs, fs.Close
	}
	addr := strings.TrimPrefix(redisURL, "redis://")
	rs := redis.New(addr, "", 0)
	return rs, rs.Close
}

// historyComponent exposes the transcript store to packs: a section that
// names the "history" component backfills as much recent conversation as its
// grant allows. The serving layer threads the session ID in through props.
func historyComponent(store ports.TranscriptStore) domain.RenderFunc {
	return func(ctx context.Context, props map[string]any, sizing domain.Sizing) (*domain.Element, error) {
		id, _ := props[domain.KeySession].(string)
		if id == "" {
			return nil, nil
		}
		el := dsl.History(store, id).Build()
		return el.Render(ctx, el.Props, sizing)
	}
}

func isInterrupted(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, context.Canceled) ||
		err.Error() == "interrupted" ||
		errors.Is(err, io.EOF) ||
		(errors.Unwrap(err) != nil && isInterrupted(errors.Unwrap(err)))
}

func handleExecutionError(err error) error {
	if err == nil {
		return nil
	}
	if isInterrupted(err) {
		return nil // Exit 0 for interruptions
	}
	return err
}
