package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// GetConfigPath returns the default config file path (~/.mcpgate/config.json).
func GetConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".mcpgate", "config.json")
}

// Load reads configuration from a JSON file and applies environment
// overrides. If path is empty, uses the default config path.
// If the file doesn't exist, returns DefaultConfig().
func Load(path string) (Config, error) {
	if path == "" {
		path = GetConfigPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return applyEnv(cfg), nil
		}
		return DefaultConfig(), err
	}

	// Start with defaults so zero-value fields get filled.
	if err := json.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), err
	}
	return applyEnv(cfg), nil
}

// Save writes configuration to a JSON file.
// If path is empty, uses the default config path.
func Save(cfg Config, path string) error {
	if path == "" {
		path = GetConfigPath()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// applyEnv overlays environment variables onto a loaded config.
// MCPGATE_LOCAL_FIRST flips the backend priority so the local server
// is preferred whenever it is configured.
func applyEnv(cfg Config) Config {
	if v := os.Getenv("MCPGATE_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := os.Getenv("MCPGATE_REMOTE_URL"); v != "" {
		if b := cfg.Gateway.Backend("remote"); b != nil {
			b.URL = v
		}
	}
	if v := os.Getenv("MCPGATE_LOCAL_URL"); v != "" {
		if b := cfg.Gateway.Backend("local"); b != nil {
			b.URL = v
		}
	}
	if v := os.Getenv("MCPGATE_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Gateway.TimeoutMs = ms
		}
	}
	if v := os.Getenv("MCPGATE_LOCAL_FIRST"); strings.EqualFold(v, "true") {
		cfg.Gateway.Priority = promote(cfg.Gateway.Priority, "local")
	}
	if v := os.Getenv("MCPGATE_REDIS_URL"); v != "" {
		cfg.Cache.RedisURL = v
	}
	return cfg
}

// promote moves id to the front of the priority list, preserving the
// relative order of the rest.
func promote(priority []string, id string) []string {
	out := []string{id}
	for _, p := range priority {
		if p != id {
			out = append(out, p)
		}
	}
	return out
}
