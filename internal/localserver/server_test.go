package localserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oalmeida/mcpgate/internal/gateway"
	"github.com/oalmeida/mcpgate/internal/session"
)

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewServer(cfg).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func decodeJSON(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Config{})

	for _, path := range []string{"/health", "/api/mcp/health"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		body := decodeJSON(t, resp)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "ok", body["status"], path)
	}
}

func TestListTools_RequiresSession(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Get(srv.URL + "/api/mcp/tools")
	require.NoError(t, err)
	body := decodeJSON(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "missing session_id", body["error"])
}

func TestListTools_ReturnsBuiltins(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Get(srv.URL + "/api/mcp/tools?session_id=s1")
	require.NoError(t, err)
	body := decodeJSON(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	toolList, ok := body["tools"].([]any)
	require.True(t, ok)
	require.Len(t, toolList, 4)
	first := toolList[0].(map[string]any)
	assert.Equal(t, "chat_completion", first["name"])
}

func TestExecute_HealthCheck(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Post(srv.URL+"/api/mcp/execute?session_id=s1", "application/json",
		strings.NewReader(`{"tool": "health_check", "params": {}}`))
	require.NoError(t, err)
	body := decodeJSON(t, resp)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Result travels in the body envelope as a JSON string.
	inner, ok := body["body"].(string)
	require.True(t, ok)
	var result map[string]any
	require.NoError(t, json.Unmarshal([]byte(inner), &result))
	assert.Equal(t, "ok", result["status"])
}

func TestExecute_UnknownTool(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Post(srv.URL+"/api/mcp/execute?session_id=s1", "application/json",
		strings.NewReader(`{"tool": "nope", "params": {}}`))
	require.NoError(t, err)
	body := decodeJSON(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "tool not found: nope", body["error"])
}

func TestExecute_InvalidBody(t *testing.T) {
	srv := newTestServer(t, Config{})

	resp, err := http.Post(srv.URL+"/api/mcp/execute?session_id=s1", "application/json",
		strings.NewReader(`{not json`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExecute_ToolFailure(t *testing.T) {
	srv := newTestServer(t, Config{})

	// search_info without its required query fails inside the tool.
	resp, err := http.Post(srv.URL+"/api/mcp/execute?session_id=s1", "application/json",
		strings.NewReader(`{"tool": "search_info", "params": {}}`))
	require.NoError(t, err)
	body := decodeJSON(t, resp)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.NotEmpty(t, body["error"])
}

func TestExecute_AuthRequired(t *testing.T) {
	srv := newTestServer(t, Config{APIKey: "secret"})

	payload := `{"tool": "health_check", "params": {}}`
	resp, err := http.Post(srv.URL+"/api/mcp/execute?session_id=s1", "application/json",
		strings.NewReader(payload))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/mcp/execute?session_id=s1",
		bytes.NewReader([]byte(payload)))
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer secret")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// The gateway client and the local server speak the same wire contract.
func TestGatewayClient_AgainstLocalServer(t *testing.T) {
	srv := newTestServer(t, Config{})

	store := fixedSessions{id: "sess-1"}
	client := gateway.NewClient(gateway.BackendLocal, srv.URL+"/api/mcp", "", time.Second, store)

	toolList, err := client.ListTools(context.Background())
	require.NoError(t, err)
	assert.Len(t, toolList, 4)

	res, err := client.Invoke(context.Background(), "search_info", map[string]any{"query": "clima"})
	require.NoError(t, err)
	assert.Equal(t, gateway.BackendLocal, res.Backend)

	raw, ok := res.Raw.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "clima", raw["query"])

	_, err = client.Invoke(context.Background(), "nope", nil)
	var nf *gateway.ToolNotFoundError
	require.ErrorAs(t, err, &nf)
}

type fixedSessions struct{ id string }

func (f fixedSessions) Get() (session.Session, error) {
	return session.Session{ID: f.id, Source: session.SourceEnv}, nil
}

func TestWS_ReceivesExecutionEvents(t *testing.T) {
	server := NewServer(Config{})
	srv := httptest.NewServer(server.Handler())
	t.Cleanup(srv.Close)

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Wait for the server to register the observer.
	require.Eventually(t, func() bool {
		return server.WSConnectionCount() == 1
	}, time.Second, 10*time.Millisecond)

	resp, err := http.Post(srv.URL+"/api/mcp/execute?session_id=s1", "application/json",
		strings.NewReader(`{"tool": "health_check", "params": {}}`))
	require.NoError(t, err)
	resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var event map[string]any
	require.NoError(t, conn.ReadJSON(&event))
	assert.Equal(t, "tool_executed", event["type"])
	assert.Equal(t, "health_check", event["tool"])
	assert.Equal(t, true, event["ok"])
}
