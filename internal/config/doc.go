// Package config handles configuration loading, saving, and schema definition.
package config

import "time"

// Config is the top-level mcpgate configuration.
// Uses json tags in camelCase to match the JSON config file format.
type Config struct {
	// SessionID is the persisted tool-backend session credential.
	// The environment variable MCPGATE_SESSION_ID takes precedence.
	SessionID string `json:"sessionId,omitempty"`

	// APIKey authenticates against the remote tool backend.
	APIKey string `json:"apiKey,omitempty"`

	Gateway GatewayConfig `json:"gateway"`
	Chat    ChatConfig    `json:"chat"`
	Cache   CacheConfig   `json:"cache"`
	Serve   ServeConfig   `json:"serve"`
}

// BackendConfig describes one tool-providing backend.
type BackendConfig struct {
	ID  string `json:"id"`  // "local" or "remote"
	URL string `json:"url"` // base URL up to the tools/execute endpoints
}

// GatewayConfig holds tool gateway settings: the configured backends,
// their fallback priority order, and the per-call timeout.
type GatewayConfig struct {
	Backends  []BackendConfig `json:"backends,omitempty"`
	Priority  []string        `json:"priority,omitempty"`
	TimeoutMs int             `json:"timeoutMs,omitempty"`
}

// Timeout returns the per-call timeout as a duration.
func (g GatewayConfig) Timeout() time.Duration {
	if g.TimeoutMs <= 0 {
		return 5 * time.Second
	}
	return time.Duration(g.TimeoutMs) * time.Millisecond
}

// Backend returns the backend config with the given id, or nil.
func (g GatewayConfig) Backend(id string) *BackendConfig {
	for i := range g.Backends {
		if g.Backends[i].ID == id {
			return &g.Backends[i]
		}
	}
	return nil
}

// ChatConfig holds LLM chat settings for the conversational front door.
type ChatConfig struct {
	Model       string  `json:"model,omitempty"`
	APIBase     string  `json:"apiBase,omitempty"`
	APIKey      string  `json:"apiKey,omitempty"`
	MaxTokens   int     `json:"maxTokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
}

// CacheConfig holds optional Redis cache settings for tool discovery.
type CacheConfig struct {
	RedisURL   string `json:"redisUrl,omitempty"`
	Password   string `json:"password,omitempty"`
	DB         int    `json:"db,omitempty"`
	TTLSeconds int    `json:"ttlSeconds,omitempty"`
}

// TTL returns the cache TTL as a duration.
func (c CacheConfig) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

// ServeConfig holds settings for the built-in local backend server.
type ServeConfig struct {
	Port   int    `json:"port,omitempty"`
	Host   string `json:"host,omitempty"`
	APIKey string `json:"apiKey,omitempty"` // if set, tool execution requires Bearer auth
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Gateway: GatewayConfig{
			Backends: []BackendConfig{
				{ID: "remote", URL: "https://tess.pareto.io/api/mcp"},
				{ID: "local", URL: "http://localhost:8770/api/mcp"},
			},
			Priority:  []string{"remote", "local"},
			TimeoutMs: 5000,
		},
		Chat: ChatConfig{
			Model:       "gpt-4o-mini",
			MaxTokens:   4096,
			Temperature: 0.7,
		},
		Cache: CacheConfig{
			TTLSeconds: 300,
		},
		Serve: ServeConfig{
			Port: 8770,
			Host: "0.0.0.0",
		},
	}
}
