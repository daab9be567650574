package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	anthropicAdapter "github.com/aretw0/espalier/pkg/adapters/anthropic"
	openaiAdapter "github.com/aretw0/espalier/pkg/adapters/openai"
	"github.com/aretw0/espalier/pkg/domain"
)

// RenderOptions configures the 'render' command.
type RenderOptions struct {
	RunOptions
	File      string // tree definition file (-f)
	Section   string // pack section ID
	Props     string // raw JSON
	Budget    int
	Model     string
	MaxTokens int    // completion allowance for vendor request formats
	Format    string // text, json, openai or anthropic
	SessionID string
}

// Render executes the 'render' command: compile a tree, fit it to the
// budget and write the result to stdout in the requested format.
func Render(opts RenderOptions) error {
	logger := createLogger(opts.Debug)

	sigCtx := NewSignalContext(context.Background())
	defer sigCtx.Cancel()

	store, closeStore := OpenStore(opts.RedisURL)
	defer closeStore()

	engine, err := createEngine(opts.RunOptions, store, logger)
	if err != nil {
		return err
	}

	props, err := parseProps(opts.Props)
	if err != nil {
		return err
	}
	if opts.SessionID != "" {
		if props == nil {
			props = map[string]any{}
		}
		props[domain.KeySession] = opts.SessionID
	}

	root, err := resolveTree(engine, opts.File, opts.Section, props)
	if err != nil {
		return err
	}

	result, err := engine.Render(sigCtx, root, domain.Endpoint{
		Model:           opts.Model,
		MaxPromptTokens: opts.Budget,
	})
	if err != nil {
		return handleExecutionError(err)
	}

	out, err := formatResult(result, opts)
	if err != nil {
		return err
	}
	if !strings.HasSuffix(out, "\n") {
		out += "\n"
	}
	fmt.Print(out)
	return nil
}

// formatResult serializes a render result. The vendor formats emit the
// request body the respective client library would send, which makes the
// command composable with curl and friends.
func formatResult(result *domain.RenderResult, opts RenderOptions) (string, error) {
	switch opts.Format {
	case "", "json":
		out, err := json.MarshalIndent(result, "", "  ")
		return string(out), err

	case "text":
		var sb strings.Builder
		for _, m := range result.Messages {
			speaker := string(m.Role)
			if m.Name != "" {
				speaker = fmt.Sprintf("%s (%s)", m.Role, m.Name)
			}
			fmt.Fprintf(&sb, "[%s] %s\n", speaker, m.Content)
		}
		return sb.String(), nil

	case "openai":
		req, err := openaiAdapter.Request(opts.Model, opts.MaxTokens, result.Messages)
		if err != nil {
			return "", err
		}
		out, err := json.MarshalIndent(req, "", "  ")
		return string(out), err

	case "anthropic":
		req, err := anthropicAdapter.Request(opts.Model, opts.MaxTokens, result.Messages)
		if err != nil {
			return "", err
		}
		out, err := json.MarshalIndent(req, "", "  ")
		return string(out), err

	default:
		return "", fmt.Errorf("unknown format %q (supported: text, json, openai, anthropic)", opts.Format)
	}
}
