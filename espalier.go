package espalier

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/loam"

	"github.com/aretw0/espalier/internal/compiler"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/internal/runtime"
	"github.com/aretw0/espalier/pkg/adapters/estimator"
	loamAdapter "github.com/aretw0/espalier/pkg/adapters/loam"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
)

// Engine is the high-level entry point for the Espalier library.
// It wraps the internal runtime and compiler and provides a simplified API
// for consumers.
type Engine struct {
	runtime   *runtime.Engine
	tokenizer ports.Tokenizer
	loader    ports.PackLoader
	registry  *registry.Registry
	store     ports.TranscriptStore
	packPath  string
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	Name      string
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithTokenizer sets the tokenizer every render measures costs with.
// The default is the bundled character-ratio estimator.
func WithTokenizer(tok ports.Tokenizer) Option {
	return func(e *Engine) {
		e.tokenizer = tok
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithPack loads a prompt pack from a Loam repository at the given path.
// Sections referenced by compiled trees resolve against it.
func WithPack(path string) Option {
	return func(e *Engine) {
		e.packPath = path
	}
}

// WithPackLoader injects a custom PackLoader, bypassing the default Loam
// initialization.
func WithPackLoader(l ports.PackLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithRegistry sets the component registry compiled trees resolve named
// components against.
func WithRegistry(reg *registry.Registry) Option {
	return func(e *Engine) {
		e.registry = reg
	}
}

// WithStore attaches a transcript store. The engine itself never touches
// it; it is plumbing for history components and serving adapters, exposed
// again through Store.
func WithStore(store ports.TranscriptStore) Option {
	return func(e *Engine) {
		e.store = store
	}
}

// New initializes a new Espalier Engine. Without options it renders
// programmatic trees with the bundled estimator; WithPack mounts a Loam
// repository for declarative sections.
func New(opts ...Option) (*Engine, error) {
	eng := &Engine{}

	for _, opt := range opts {
		opt(eng)
	}

	// A pack path without an injected loader initializes the default Loam
	// adapter.
	if eng.loader == nil && eng.packPath != "" {
		absPath, err := filepath.Abs(eng.packPath)
		if err != nil {
			return nil, fmt.Errorf("invalid pack path: %w", err)
		}

		eng.Name = filepath.Base(absPath)

		// Strict mode keeps numeric frontmatter types consistent across
		// Loam's JSON and Markdown adapters; read-only mode because the
		// engine only ever reads sections.
		repo, err := loam.Init(absPath,
			loam.WithStrict(true),
			loam.WithReadOnly(true),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize loam: %w", err)
		}

		typedRepo := loam.NewTypedRepository[loamAdapter.SectionMetadata](repo)
		eng.loader = loamAdapter.New(typedRepo)
	} else if eng.packPath != "" {
		eng.Name = filepath.Base(eng.packPath)
	}

	if eng.tokenizer == nil {
		eng.tokenizer = estimator.New()
	}

	// Ensure logger is initialized (so we don't pass nil to the runtime,
	// which would overwrite its default).
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("pack", eng.Name)
	}

	eng.runtime = runtime.NewEngine(
		eng.tokenizer,
		runtime.WithLogger(eng.logger),
		runtime.WithLifecycleHooks(eng.hooks),
	)

	return eng, nil
}

// Render runs one full render pass over an element tree: evaluate,
// allocate, prune, flatten. The returned messages always fit the
// endpoint's token budget.
func (e *Engine) Render(ctx context.Context, root *domain.Element, endpoint domain.Endpoint) (*domain.RenderResult, error) {
	return e.runtime.Render(ctx, root, endpoint)
}

// RenderWith renders with a one-off tokenizer, leaving the engine's
// default untouched. Useful when one engine serves endpoints with
// different tokenization rules.
func (e *Engine) RenderWith(ctx context.Context, tok ports.Tokenizer, root *domain.Element, endpoint domain.Endpoint) (*domain.RenderResult, error) {
	rt := runtime.NewEngine(tok,
		runtime.WithLogger(e.logger),
		runtime.WithLifecycleHooks(e.hooks),
	)
	return rt.Render(ctx, root, endpoint)
}

// RenderFile compiles a declarative tree file and renders it. The props
// bag feeds ${var} interpolation inside the file.
func (e *Engine) RenderFile(ctx context.Context, path string, props map[string]any, endpoint domain.Endpoint) (*domain.RenderResult, error) {
	root, err := e.CompileFile(path, props)
	if err != nil {
		return nil, err
	}
	return e.runtime.Render(ctx, root, endpoint)
}

// RenderSection compiles a pack section by ID and renders it.
func (e *Engine) RenderSection(ctx context.Context, id string, props map[string]any, endpoint domain.Endpoint) (*domain.RenderResult, error) {
	root, err := e.compiler(props).CompileSection(id)
	if err != nil {
		return nil, err
	}
	return e.runtime.Render(ctx, root, endpoint)
}

// Compile compiles a raw declarative definition (YAML or JSON) into an
// element tree without rendering it.
func (e *Engine) Compile(data []byte, props map[string]any) (*domain.Element, error) {
	return e.compiler(props).Compile(data)
}

// CompileFile compiles a declarative tree file into an element tree
// without rendering it. Introspection tools build on this.
func (e *Engine) CompileFile(path string, props map[string]any) (*domain.Element, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read tree file: %w", err)
	}
	root, err := e.compiler(props).Compile(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return root, nil
}

// CompileSection compiles a pack section by ID into an element tree
// without rendering it.
func (e *Engine) CompileSection(id string, props map[string]any) (*domain.Element, error) {
	return e.compiler(props).CompileSection(id)
}

func (e *Engine) compiler(props map[string]any) *compiler.Compiler {
	return compiler.New(
		compiler.WithLoader(e.loader),
		compiler.WithRegistry(e.registry),
		compiler.WithVars(props),
	)
}

// Watch returns a channel that signals when the underlying pack changes.
// Returns an error if the loader does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan string, error) {
	if w, ok := e.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current loader does not support watching")
}

// Loader returns the underlying PackLoader used by the engine, or nil when
// no pack is mounted.
func (e *Engine) Loader() ports.PackLoader {
	return e.loader
}

// Registry returns the component registry, or nil when none is configured.
func (e *Engine) Registry() *registry.Registry {
	return e.registry
}

// Store returns the attached transcript store, or nil when none is
// configured.
func (e *Engine) Store() ports.TranscriptStore {
	return e.store
}

// Tokenizer returns the tokenizer renders measure costs with.
func (e *Engine) Tokenizer() ports.Tokenizer {
	return e.tokenizer
}
