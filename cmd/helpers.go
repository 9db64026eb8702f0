package cmd

import (
	"os"

	"github.com/oalmeida/mcpgate/internal/cache"
	"github.com/oalmeida/mcpgate/internal/config"
	"github.com/oalmeida/mcpgate/internal/gateway"
	"github.com/oalmeida/mcpgate/internal/providers"
	"github.com/oalmeida/mcpgate/internal/session"
)

// buildGateway wires a Gateway from the loaded config: one HTTP client
// per backend in priority order, all sharing the session store.
func buildGateway(cfg config.Config) *gateway.Gateway {
	store := session.NewStore(config.GetConfigPath())

	var backends []gateway.Backend
	for _, id := range cfg.Gateway.Priority {
		bc := cfg.Gateway.Backend(id)
		if bc == nil || bc.URL == "" {
			continue
		}
		backends = append(backends, gateway.NewClient(
			gateway.BackendID(bc.ID), bc.URL, cfg.APIKey, cfg.Gateway.Timeout(), store))
	}

	return gateway.New(gateway.NewRouter(backends...), nil)
}

// buildCache creates the discovery cache. Returns a no-op cache when
// Redis is not configured or unreachable.
func buildCache(cfg config.Config) *cache.Cache {
	return cache.New(cache.Config{
		URL:      cfg.Cache.RedisURL,
		Password: cfg.Cache.Password,
		DB:       cfg.Cache.DB,
		TTL:      cfg.Cache.TTL(),
	})
}

// makeChatProvider creates the LLM provider for the chat front door.
// The API key comes from config or common environment variables.
func makeChatProvider(cfg config.Config) *providers.OpenAIProvider {
	apiKey := cfg.Chat.APIKey
	if apiKey == "" {
		for _, envKey := range []string{"MCPGATE_CHAT_API_KEY", "OPENAI_API_KEY"} {
			if v := os.Getenv(envKey); v != "" {
				apiKey = v
				break
			}
		}
	}
	return providers.NewOpenAIProvider(apiKey, cfg.Chat.APIBase, cfg.Chat.Model)
}
