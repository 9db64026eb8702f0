// Package localserver implements the local tool backend: the same
// REST surface the remote tool provider exposes (GET /tools,
// POST /execute, GET /health), backed by the builtin tool registry.
// A WebSocket endpoint streams tool-execution events to observers.
package localserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/oalmeida/mcpgate/internal/tools"
)

// Server is the local tool backend HTTP server.
type Server struct {
	host     string
	port     int
	apiKey   string
	registry *tools.Registry

	totalExecutions atomic.Int64
	startTime       time.Time

	wsConns map[*wsConn]bool
	wsMu    sync.Mutex

	mux *http.ServeMux
	srv *http.Server
}

// Config configures the local server.
type Config struct {
	Host     string
	Port     int
	APIKey   string // if set, tool execution requires Bearer auth
	Registry *tools.Registry
}

// NewServer creates a local tool backend server.
func NewServer(cfg Config) *Server {
	registry := cfg.Registry
	if registry == nil {
		registry = tools.DefaultRegistry()
	}
	host := cfg.Host
	if host == "" {
		host = "0.0.0.0"
	}

	s := &Server{
		host:      host,
		port:      cfg.Port,
		apiKey:    cfg.APIKey,
		registry:  registry,
		startTime: time.Now(),
		wsConns:   make(map[*wsConn]bool),
		mux:       http.NewServeMux(),
	}

	// The health probe lives at both roots so clients configured with
	// the /api/mcp prefix and bare liveness checks both work.
	s.mux.HandleFunc("/health", s.handleHealth)
	s.mux.HandleFunc("/api/mcp/health", s.handleHealth)
	s.mux.HandleFunc("/api/mcp/tools", s.withSession(s.handleListTools))
	s.mux.HandleFunc("/api/mcp/execute", s.withSession(s.withAuth(s.handleExecute)))
	s.mux.HandleFunc("/ws", s.handleWS)

	return s
}

// Handler returns the server's HTTP handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.mux }

// Start runs the server until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	s.srv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.host, s.port),
		Handler: s.mux,
	}

	log.Printf("[LocalServer] tool backend → http://%s:%d/api/mcp", s.host, s.port)
	log.Printf("[LocalServer] events → ws://%s:%d/ws", s.host, s.port)

	go func() {
		<-ctx.Done()
		s.closeAllWS()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.srv.Shutdown(shutdownCtx)
	}()

	if err := s.srv.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

// --- Middleware ---

// withSession rejects requests without a session_id query parameter.
func (s *Server) withSession(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("session_id") == "" {
			writeJSONError(w, "missing session_id", http.StatusBadRequest)
			return
		}
		handler(w, r)
	}
}

func (s *Server) withAuth(handler http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+s.apiKey {
				writeJSONError(w, "unauthorized", http.StatusUnauthorized)
				return
			}
		}
		handler(w, r)
	}
}

// --- Handlers ---

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{
		"status":          "ok",
		"uptime":          int(time.Since(s.startTime).Seconds()),
		"totalExecutions": s.totalExecutions.Load(),
	})
}

func (s *Server) handleListTools(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]any{"tools": s.registry.Descriptors()})
}

// executeRequest is the JSON body for /api/mcp/execute.
type executeRequest struct {
	Tool   string         `json:"tool"`
	Params map[string]any `json:"params"`
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Tool == "" {
		writeJSONError(w, "tool is required", http.StatusBadRequest)
		return
	}

	tool := s.registry.Get(req.Tool)
	if tool == nil {
		writeJSONError(w, fmt.Sprintf("tool not found: %s", req.Tool), http.StatusNotFound)
		return
	}

	start := time.Now()
	result, err := tool.Execute(r.Context(), req.Params)
	elapsed := time.Since(start)
	s.totalExecutions.Add(1)

	s.broadcastEvent(map[string]any{
		"type":      "tool_executed",
		"tool":      req.Tool,
		"elapsedMs": elapsed.Milliseconds(),
		"ok":        err == nil,
	})

	if err != nil {
		log.Printf("[LocalServer] tool %s failed: %v", req.Tool, err)
		writeJSONError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Results travel in the {"body": ...} envelope the clients unwrap.
	writeJSON(w, map[string]any{"body": result})
}

// --- WebSocket ---

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsConn wraps a websocket.Conn with a write mutex for thread safety.
// gorilla/websocket does NOT support concurrent writes.
type wsConn struct {
	*websocket.Conn
	mu sync.Mutex
}

func (c *wsConn) WriteJSONSafe(v any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteJSON(v)
}

func (c *wsConn) WriteCloseSafe(code int, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(code, text))
}

// handleWS upgrades an observer connection. Observers only receive
// events; anything they send just keeps the connection alive.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	raw, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[LocalServer] ws upgrade failed: %v", err)
		return
	}

	conn := &wsConn{Conn: raw}
	s.wsMu.Lock()
	s.wsConns[conn] = true
	s.wsMu.Unlock()
	log.Printf("[LocalServer] ws observer connected: %s", r.RemoteAddr)

	defer func() {
		raw.Close()
		s.wsMu.Lock()
		delete(s.wsConns, conn)
		s.wsMu.Unlock()
		log.Printf("[LocalServer] ws observer disconnected: %s", r.RemoteAddr)
	}()

	for {
		if _, _, err := raw.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[LocalServer] ws error: %v", err)
			}
			return
		}
	}
}

// broadcastEvent sends an event to every connected observer.
func (s *Server) broadcastEvent(event map[string]any) {
	s.wsMu.Lock()
	conns := make([]*wsConn, 0, len(s.wsConns))
	for c := range s.wsConns {
		conns = append(conns, c)
	}
	s.wsMu.Unlock()

	for _, c := range conns {
		if err := c.WriteJSONSafe(event); err != nil {
			log.Printf("[LocalServer] ws write failed: %v", err)
		}
	}
}

func (s *Server) closeAllWS() {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	for c := range s.wsConns {
		c.WriteCloseSafe(websocket.CloseGoingAway, "server shutdown")
		c.Close()
	}
	s.wsConns = make(map[*wsConn]bool)
}

// WSConnectionCount returns the number of connected observers.
func (s *Server) WSConnectionCount() int {
	s.wsMu.Lock()
	defer s.wsMu.Unlock()
	return len(s.wsConns)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
