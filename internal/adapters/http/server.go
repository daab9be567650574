// Package http exposes the rendering engine as a JSON service: a render
// endpoint, session transcript routes, Prometheus metrics and an SSE feed
// of pack changes.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/schema"
	"github.com/aretw0/espalier/pkg/session"
)

// Engine defines the slice of the espalier facade the server consumes.
type Engine interface {
	Render(ctx context.Context, root *domain.Element, endpoint domain.Endpoint) (*domain.RenderResult, error)
	Compile(data []byte, props map[string]any) (*domain.Element, error)
	CompileSection(id string, props map[string]any) (*domain.Element, error)
	Watch(ctx context.Context) (<-chan string, error)
}

// Server holds the handlers' shared dependencies.
type Server struct {
	engine   Engine
	sessions *session.Manager
	logger   *slog.Logger
	metrics  *metrics
}

// Option configures the Server.
type Option func(*Server)

// WithSessions enables the transcript routes. Without a manager they
// answer 503.
func WithSessions(mgr *session.Manager) Option {
	return func(s *Server) {
		s.sessions = mgr
	}
}

// WithLogger sets a structured logger for request handling.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithMetricsRegistry mounts the server's metrics on a shared registry
// instead of a private one.
func WithMetricsRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		s.metrics = newMetrics(reg)
	}
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, opts ...Option) http.Handler {
	s := &Server{
		engine: engine,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = newMetrics(prometheus.NewRegistry())
	}

	r := chi.NewRouter()
	r.Use(requestID)

	r.Get("/healthz", s.getHealth)
	r.Get("/info", s.getInfo)
	r.Method(http.MethodGet, "/metrics", s.metrics.handler)

	r.Post("/render", s.render)
	r.Get("/events", s.subscribeEvents)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Get("/", s.listSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.getTranscript)
			r.Delete("/", s.deleteSession)
			r.Post("/messages", s.appendMessages)
			r.Post("/exchange", s.exchange)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Custom-Header")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requestID tags every response with an X-Request-ID, minting one when the
// client did not send its own.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r)
	})
}

func (s *Server) getHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) getInfo(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "espalier-http",
		"version":     espalier.Version,
		"api_version": "0.1.0",
	})
}

// RenderRequest is the body of POST /render. Exactly one of Section or
// Tree selects what to render.
type RenderRequest struct {
	Section string          `json:"section,omitempty"`
	Tree    json.RawMessage `json:"tree,omitempty"`
	Props   map[string]any  `json:"props,omitempty"`
	Budget  int             `json:"budget"`
	Model   string          `json:"model,omitempty"`
}

// RenderResponse carries the rendered prompt back to the caller.
type RenderResponse struct {
	Messages   []domain.Message `json:"messages"`
	TokenCount int              `json:"token_count"`
}

// render handles the POST /render request.
func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	var body RenderRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var (
		root *domain.Element
		err  error
	)
	switch {
	case body.Section != "":
		root, err = s.engine.CompileSection(body.Section, body.Props)
	case len(body.Tree) > 0:
		root, err = s.engine.Compile(body.Tree, body.Props)
	default:
		http.Error(w, "Either section or tree is required", http.StatusBadRequest)
		return
	}
	if err != nil {
		http.Error(w, fmt.Sprintf("Compile error: %v", err), http.StatusBadRequest)
		return
	}

	result, err := s.renderTree(r.Context(), root, body.Budget, body.Model)
	if err != nil {
		s.writeRenderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RenderResponse{
		Messages:   result.Messages,
		TokenCount: result.TokenCount,
	})
}

// renderTree runs the engine and records the request metrics.
func (s *Server) renderTree(ctx context.Context, root *domain.Element, budget int, model string) (*domain.RenderResult, error) {
	started := time.Now()
	result, err := s.engine.Render(ctx, root, domain.Endpoint{
		MaxPromptTokens: budget,
		Model:           model,
	})
	s.metrics.duration.Observe(time.Since(started).Seconds())
	if err != nil {
		s.metrics.renders.WithLabelValues("error").Inc()
		return nil, err
	}
	s.metrics.renders.WithLabelValues("ok").Inc()
	s.metrics.tokens.Observe(float64(result.TokenCount))
	return result, nil
}

func (s *Server) writeRenderError(w http.ResponseWriter, err error) {
	var violation *domain.BudgetViolationError
	switch {
	case errors.Is(err, domain.ErrInvalidBudget), errors.Is(err, domain.ErrMalformedTree):
		http.Error(w, fmt.Sprintf("Render error: %v", err), http.StatusBadRequest)
	case errors.As(err, &violation):
		http.Error(w, fmt.Sprintf("Render error: %v", err), http.StatusUnprocessableEntity)
	default:
		s.logger.Error("Render failed", "err", err)
		http.Error(w, fmt.Sprintf("Render error: %v", err), http.StatusInternalServerError)
	}
}

// subscribeEvents handles the GET /events request (SSE). Each event is the
// ID of a pack section that changed on disk.
func (s *Server) subscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	events, err := s.engine.Watch(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("Watch error: %v", err), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", event)
			flusher.Flush()
		}
	}
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		http.Error(w, "Transcript store not configured", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"session_id": session.NewID()})
}

func (s *Server) listSessions(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		http.Error(w, "Transcript store not configured", http.StatusServiceUnavailable)
		return
	}
	ids, err := s.sessions.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"sessions": ids})
}

func (s *Server) getTranscript(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		http.Error(w, "Transcript store not configured", http.StatusServiceUnavailable)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	msgs, err := s.sessions.Load(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"session_id": sessionID,
		"messages":   msgs,
	})
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		http.Error(w, "Transcript store not configured", http.StatusServiceUnavailable)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	if err := s.sessions.Delete(r.Context(), sessionID); err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			http.Error(w, "Session not found", http.StatusNotFound)
			return
		}
		http.Error(w, fmt.Sprintf("Delete error: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AppendRequest is the body of POST /sessions/{id}/messages.
type AppendRequest struct {
	Messages []domain.Message `json:"messages"`
}

func (s *Server) appendMessages(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		http.Error(w, "Transcript store not configured", http.StatusServiceUnavailable)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	var body AppendRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if len(body.Messages) == 0 {
		http.Error(w, "At least one message is required", http.StatusBadRequest)
		return
	}
	for i, msg := range body.Messages {
		if _, err := schema.ParseRole(string(msg.Role)); err != nil {
			http.Error(w, fmt.Sprintf("Message %d: %v", i, err), http.StatusBadRequest)
			return
		}
	}

	if err := s.sessions.Append(r.Context(), sessionID, body.Messages...); err != nil {
		http.Error(w, fmt.Sprintf("Append error: %v", err), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExchangeRequest is the body of POST /sessions/{id}/exchange: append one
// message and render a section in a single locked step.
type ExchangeRequest struct {
	Message domain.Message `json:"message"`
	Section string         `json:"section"`
	Props   map[string]any `json:"props,omitempty"`
	Budget  int            `json:"budget"`
	Model   string         `json:"model,omitempty"`
}

// exchange appends the incoming message and renders the session's prompt
// under the session lock, so concurrent exchanges cannot interleave
// between the append and the render.
func (s *Server) exchange(w http.ResponseWriter, r *http.Request) {
	if s.sessions == nil {
		http.Error(w, "Transcript store not configured", http.StatusServiceUnavailable)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")

	var body ExchangeRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if body.Section == "" {
		http.Error(w, "Section is required", http.StatusBadRequest)
		return
	}
	if _, err := schema.ParseRole(string(body.Message.Role)); err != nil {
		http.Error(w, fmt.Sprintf("Message: %v", err), http.StatusBadRequest)
		return
	}

	// Sections can address the transcript through the session prop.
	props := make(map[string]any, len(body.Props)+1)
	for k, v := range body.Props {
		props[k] = v
	}
	props[domain.KeySession] = sessionID

	// Compiling needs no transcript state, so it stays outside the lock.
	root, err := s.engine.CompileSection(body.Section, props)
	if err != nil {
		http.Error(w, fmt.Sprintf("Compile error: %v", err), http.StatusBadRequest)
		return
	}

	var result *domain.RenderResult
	err = s.sessions.WithLock(r.Context(), sessionID, func(ctx context.Context) error {
		if err := s.sessions.Store().Append(ctx, sessionID, body.Message); err != nil {
			return fmt.Errorf("append failed: %w", err)
		}
		var renderErr error
		result, renderErr = s.renderTree(ctx, root, body.Budget, body.Model)
		return renderErr
	})
	if err != nil {
		s.writeRenderError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, RenderResponse{
		Messages:   result.Messages,
		TokenCount: result.TokenCount,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Debug("Response encode failed", "err", err)
	}
}
