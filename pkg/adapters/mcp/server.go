// Package mcp exposes the rendering engine as a Model Context Protocol
// server, so agent hosts can render budget-fitted prompts as a tool.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// RenderResponse is the structured output of the render_prompt tool.
type RenderResponse struct {
	Messages   []domain.Message `json:"messages" jsonschema_description:"The rendered prompt as role-tagged messages"`
	TokenCount int              `json:"token_count" jsonschema_description:"Total token cost of the rendered prompt"`
}

// Engine defines the slice of the espalier facade the MCP server consumes.
type Engine interface {
	Render(ctx context.Context, root *domain.Element, endpoint domain.Endpoint) (*domain.RenderResult, error)
	Compile(data []byte, props map[string]any) (*domain.Element, error)
	CompileSection(id string, props map[string]any) (*domain.Element, error)
}

// Server wraps the espalier Engine and exposes it as an MCP Server.
type Server struct {
	engine    Engine
	loader    ports.PackLoader
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance. The loader is optional; with
// one, the pack's sections are listed as a resource and renderable by ID.
func NewServer(engine Engine, loader ports.PackLoader) *Server {
	s := &Server{
		engine:    engine,
		loader:    loader,
		mcpServer: server.NewMCPServer("espalier-mcp", espalier.Version),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)

	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		fmt.Println("\nShutdown signal received, shutting down server...")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Baggage, Sentry-Trace")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: render_prompt
	renderTool := mcp.NewTool("render_prompt",
		mcp.WithDescription("Render a prompt tree into role-tagged messages that fit a token budget. Provide either a pack section ID or an inline tree definition (YAML or JSON)."),
		mcp.WithString("section", mcp.Description("Pack section ID to render (optional if tree is provided)")),
		mcp.WithString("tree", mcp.Description("Inline tree definition as YAML or JSON (optional if section is provided)")),
		mcp.WithString("props", mcp.Description("JSON object of props for ${var} interpolation (optional)")),
		mcp.WithNumber("budget", mcp.Required(), mcp.Description("Maximum prompt tokens; must not be negative")),
		mcp.WithString("model", mcp.Description("Advisory model name (optional)")),
		mcp.WithOutputSchema[RenderResponse](),
	)
	s.mcpServer.AddTool(renderTool, mcp.NewStructuredToolHandler(s.handleRenderPrompt))

	// TOOL: list_sections
	s.mcpServer.AddTool(mcp.NewTool("list_sections",
		mcp.WithDescription("List the section IDs available in the mounted prompt pack."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if s.loader == nil {
			return mcp.NewToolResultError("no prompt pack mounted"), nil
		}
		ids, err := s.loader.ListSections()
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("list failed: %v", err)), nil
		}
		jsonBytes, _ := json.Marshal(ids)
		return mcp.NewToolResultText(string(jsonBytes)), nil
	})
}

func (s *Server) handleRenderPrompt(ctx context.Context, request mcp.CallToolRequest, args map[string]interface{}) (RenderResponse, error) {
	budgetRaw, ok := args["budget"].(float64)
	if !ok {
		return RenderResponse{}, fmt.Errorf("budget is required")
	}
	budget := int(budgetRaw)
	model, _ := args["model"].(string)

	var props map[string]any
	if propsStr, ok := args["props"].(string); ok && propsStr != "" {
		if err := json.Unmarshal([]byte(propsStr), &props); err != nil {
			return RenderResponse{}, fmt.Errorf("props must be a JSON object: %w", err)
		}
	}

	var (
		root *domain.Element
		err  error
	)
	section, _ := args["section"].(string)
	tree, _ := args["tree"].(string)
	switch {
	case section != "":
		root, err = s.engine.CompileSection(section, props)
	case tree != "":
		root, err = s.engine.Compile([]byte(tree), props)
	default:
		return RenderResponse{}, fmt.Errorf("either section or tree is required")
	}
	if err != nil {
		return RenderResponse{}, fmt.Errorf("compile failed: %w", err)
	}

	result, err := s.engine.Render(ctx, root, domain.Endpoint{
		MaxPromptTokens: budget,
		Model:           model,
	})
	if err != nil {
		return RenderResponse{}, fmt.Errorf("render failed: %w", err)
	}

	return RenderResponse{
		Messages:   result.Messages,
		TokenCount: result.TokenCount,
	}, nil
}

func (s *Server) registerResources() {
	// EXPOSE: espalier://sections
	s.mcpServer.AddResource(mcp.NewResource("espalier://sections", "Prompt Pack Sections",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		if s.loader == nil {
			return nil, fmt.Errorf("no prompt pack mounted")
		}
		ids, err := s.loader.ListSections()
		if err != nil {
			return nil, fmt.Errorf("failed to list sections: %w", err)
		}

		// Section sources may be markdown, so they travel as JSON strings.
		sections := make(map[string]string, len(ids))
		for _, id := range ids {
			raw, err := s.loader.GetSection(id)
			if err != nil {
				return nil, fmt.Errorf("failed to load section %q: %w", id, err)
			}
			sections[id] = string(raw)
		}
		jsonBytes, _ := json.Marshal(sections)

		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      "espalier://sections",
				MIMEType: "application/json",
				Text:     string(jsonBytes),
			},
		}, nil
	})
}
