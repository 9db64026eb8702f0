package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/oalmeida/mcpgate/internal/session"
)

// SessionSource yields the credential attached to every backend call.
// *session.Store satisfies it.
type SessionSource interface {
	Get() (session.Session, error)
}

// Client talks to one tool-providing backend over HTTP. Stateless
// beyond its base URL and credentials; safe for concurrent use.
type Client struct {
	id       BackendID
	baseURL  string
	apiKey   string
	timeout  time.Duration
	sessions SessionSource

	httpClient *http.Client
}

// NewClient creates a backend client. baseURL is the prefix of the
// /tools and /execute endpoints, e.g. http://localhost:8770/api/mcp.
func NewClient(id BackendID, baseURL, apiKey string, timeout time.Duration, sessions SessionSource) *Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		id:       id,
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		timeout:  timeout,
		sessions: sessions,
		// Per-call deadlines come from the request context, so the
		// in-flight request is aborted at the transport level.
		httpClient: &http.Client{},
	}
}

// ID returns the backend identifier.
func (c *Client) ID() BackendID { return c.id }

// ListTools issues one discovery request and decodes the full tool
// list. A non-200 status or malformed body fails with DiscoveryError;
// partial lists are never returned silently.
func (c *Client) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	sess, err := c.sessions.Get()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := c.newRequest(ctx, http.MethodGet, "/tools", sess.ID, nil)
	if err != nil {
		return nil, &DiscoveryError{Backend: c.id, Cause: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &DiscoveryError{Backend: c.id, Cause: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &DiscoveryError{Backend: c.id, Status: resp.StatusCode}
	}

	var body struct {
		Tools []ToolDescriptor `json:"tools"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &DiscoveryError{Backend: c.id, Cause: fmt.Errorf("decode tool list: %w", err)}
	}
	return body.Tools, nil
}

// Invoke executes one tool call. The response is normalized so both
// bare-JSON and {"body": ...}-wrapped backend replies produce the same
// Result.Raw shape. No retry happens at this layer.
func (c *Client) Invoke(ctx context.Context, tool string, params map[string]any) (*Result, error) {
	sess, err := c.sessions.Get()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if params == nil {
		params = map[string]any{}
	}
	payload, err := json.Marshal(map[string]any{"tool": tool, "params": params})
	if err != nil {
		return nil, &TransportError{Backend: c.id, Cause: err}
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/execute", sess.ID, bytes.NewReader(payload))
	if err != nil {
		return nil, &TransportError{Backend: c.id, Cause: err}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &TimeoutError{Backend: c.id, Tool: tool}
		}
		return nil, &TransportError{Backend: c.id, Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, &TimeoutError{Backend: c.id, Tool: tool}
		}
		return nil, &TransportError{Backend: c.id, Cause: err}
	}

	switch resp.StatusCode {
	case http.StatusOK:
		// fall through to decode
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &AuthError{Backend: c.id}
	case http.StatusNotFound:
		return nil, &ToolNotFoundError{Backend: c.id, Tool: tool}
	default:
		return nil, &TransportError{Backend: c.id, Cause: httpError(resp.StatusCode, raw)}
	}

	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, &TransportError{Backend: c.id, Cause: fmt.Errorf("decode result: %w", err)}
	}

	return &Result{
		Raw:     unwrapEnvelope(decoded),
		Backend: c.id,
		Elapsed: time.Since(start),
	}, nil
}

// Health probes the backend's liveness endpoint. Diagnostics only;
// routing decisions never consult it.
func (c *Client) Health(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: HTTP %d", resp.StatusCode)
	}
	return nil
}

// newRequest builds a request for path with the session_id query
// parameter and Bearer auth attached.
func (c *Client) newRequest(ctx context.Context, method, path, sessionID string, body io.Reader) (*http.Request, error) {
	endpoint := c.baseURL + path + "?" + url.Values{"session_id": {sessionID}}.Encode()
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

// unwrapEnvelope normalizes a decoded response. Some backends wrap the
// result in {"body": <JSON string or object>}; the body string, when
// itself valid JSON, is decoded one level further.
func unwrapEnvelope(decoded any) any {
	obj, ok := decoded.(map[string]any)
	if !ok {
		return decoded
	}
	body, ok := obj["body"]
	if !ok {
		return decoded
	}
	if s, ok := body.(string); ok {
		var inner any
		if err := json.Unmarshal([]byte(s), &inner); err == nil {
			return inner
		}
		return s
	}
	return body
}

// httpError extracts the backend's {"error": string} message, falling
// back to the status code alone.
func httpError(status int, raw []byte) error {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		return fmt.Errorf("HTTP %d: %s", status, body.Error)
	}
	return fmt.Errorf("HTTP %d", status)
}
