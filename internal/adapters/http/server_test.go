package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/session"
)

func newTestEngine(t *testing.T) *espalier.Engine {
	t.Helper()
	loader := memory.NewLoader(map[string]string{
		"pinned": `{"id":"pinned","kind":"message","role":"system","text":"Stay on topic.","priority":100}`,
	})
	eng, err := espalier.New(espalier.WithPackLoader(loader))
	require.NoError(t, err)
	return eng
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestGetHealth(t *testing.T) {
	// The engine is never touched by the health probe.
	handler := NewHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestGetInfo(t *testing.T) {
	handler := NewHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/info", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "espalier-http", resp["app"])
	assert.NotEmpty(t, resp["version"])
	assert.Equal(t, "0.1.0", resp["api_version"])
}

func TestRender_InlineTree(t *testing.T) {
	handler := NewHandler(newTestEngine(t))

	rr := postJSON(t, handler, "/render", map[string]any{
		"tree": map[string]any{
			"kind": "fragment",
			"children": []any{
				map[string]any{"role": "system", "text": "You are ${persona}.", "priority": 100},
				map[string]any{"role": "user", "text": "Hello!", "priority": 50},
			},
		},
		"props":  map[string]any{"persona": "terse"},
		"budget": 200,
	})

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp RenderResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "You are terse.", resp.Messages[0].Content)
	assert.LessOrEqual(t, resp.TokenCount, 200)
	assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
}

func TestRender_Section(t *testing.T) {
	handler := NewHandler(newTestEngine(t))

	rr := postJSON(t, handler, "/render", map[string]any{
		"section": "pinned",
		"budget":  100,
	})

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp RenderResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, domain.RoleSystem, resp.Messages[0].Role)
	assert.Equal(t, "Stay on topic.", resp.Messages[0].Content)
}

func TestRender_RequiresSectionOrTree(t *testing.T) {
	handler := NewHandler(newTestEngine(t))

	rr := postJSON(t, handler, "/render", map[string]any{"budget": 10})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "section or tree")
}

func TestRender_NegativeBudget(t *testing.T) {
	handler := NewHandler(newTestEngine(t))

	rr := postJSON(t, handler, "/render", map[string]any{
		"section": "pinned",
		"budget":  -1,
	})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "token budget")
}

func TestRender_UnknownSection(t *testing.T) {
	handler := NewHandler(newTestEngine(t))

	rr := postJSON(t, handler, "/render", map[string]any{
		"section": "ghost",
		"budget":  100,
	})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "Compile error")
}

func TestSessionRoutes_Lifecycle(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	handler := NewHandler(newTestEngine(t), WithSessions(mgr))

	// 1. Create a session
	rr := postJSON(t, handler, "/sessions", map[string]any{})
	require.Equal(t, http.StatusCreated, rr.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	sessionID := created["session_id"]
	require.NotEmpty(t, sessionID)

	// 2. Append a message
	rr = postJSON(t, handler, "/sessions/"+sessionID+"/messages", map[string]any{
		"messages": []map[string]string{
			{"role": "user", "content": "First question."},
		},
	})
	require.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())

	// 3. Read the transcript back
	req := httptest.NewRequest(http.MethodGet, "/sessions/"+sessionID, nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var transcript struct {
		SessionID string           `json:"session_id"`
		Messages  []domain.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &transcript))
	require.Len(t, transcript.Messages, 1)
	assert.Equal(t, "First question.", transcript.Messages[0].Content)

	// 4. The session shows up in the listing
	req = httptest.NewRequest(http.MethodGet, "/sessions", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var listing map[string][]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &listing))
	assert.Contains(t, listing["sessions"], sessionID)

	// 5. Delete it; the transcript is gone
	req = httptest.NewRequest(http.MethodDelete, "/sessions/"+sessionID, nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNoContent, rr.Code)

	req = httptest.NewRequest(http.MethodGet, "/sessions/"+sessionID, nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAppendMessages_RejectsUnknownRole(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	handler := NewHandler(newTestEngine(t), WithSessions(mgr))

	rr := postJSON(t, handler, "/sessions/s1/messages", map[string]any{
		"messages": []map[string]string{
			{"role": "narrator", "content": "Meanwhile..."},
		},
	})

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), "narrator")
}

func TestExchange_AppendsAndRenders(t *testing.T) {
	store := memory.NewStore()
	mgr := session.NewManager(store)
	handler := NewHandler(newTestEngine(t), WithSessions(mgr))

	rr := postJSON(t, handler, "/sessions/chat-1/exchange", map[string]any{
		"message": map[string]string{"role": "user", "content": "What about flex?"},
		"section": "pinned",
		"budget":  100,
	})

	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp RenderResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "Stay on topic.", resp.Messages[0].Content)

	// The incoming message landed in the transcript.
	req := httptest.NewRequest(http.MethodGet, "/sessions/chat-1", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	require.Equal(t, http.StatusOK, rr.Code)
	var transcript struct {
		Messages []domain.Message `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &transcript))
	require.Len(t, transcript.Messages, 1)
	assert.Equal(t, "What about flex?", transcript.Messages[0].Content)
}

func TestSessionRoutes_WithoutStore(t *testing.T) {
	handler := NewHandler(newTestEngine(t))

	rr := postJSON(t, handler, "/sessions", map[string]any{})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/sessions", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	handler := NewHandler(newTestEngine(t))

	// One successful render to move the counters.
	rr := postJSON(t, handler, "/render", map[string]any{
		"section": "pinned",
		"budget":  100,
	})
	require.Equal(t, http.StatusOK, rr.Code)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "espalier_renders_total")
	assert.Contains(t, rr.Body.String(), "espalier_prompt_tokens")
}
