package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/oalmeida/mcpgate/internal/gateway"
)

// DefaultRegistry returns a registry with all builtin tools registered.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	r.Register(&HealthCheckTool{})
	r.Register(&SearchInfoTool{})
	r.Register(&ProcessImageTool{})
	r.Register(&ChatCompletionTool{})
	return r
}

// HealthCheckTool reports server liveness.
type HealthCheckTool struct{}

func (t *HealthCheckTool) Name() string        { return "health_check" }
func (t *HealthCheckTool) Description() string { return "Check the server's health status." }
func (t *HealthCheckTool) Parameters() map[string]gateway.ParamSpec {
	return map[string]gateway.ParamSpec{}
}

func (t *HealthCheckTool) Execute(_ context.Context, _ map[string]any) (string, error) {
	return jsonResult(map[string]any{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// SearchInfoTool simulates an information search over a knowledge base.
type SearchInfoTool struct{}

func (t *SearchInfoTool) Name() string        { return "search_info" }
func (t *SearchInfoTool) Description() string { return "Search for information about a topic." }
func (t *SearchInfoTool) Parameters() map[string]gateway.ParamSpec {
	return map[string]gateway.ParamSpec{
		"query": {Type: "string", Description: "Search term", Required: true},
	}
}

func (t *SearchInfoTool) Execute(_ context.Context, args map[string]any) (string, error) {
	query, _ := args["query"].(string)
	if strings.TrimSpace(query) == "" {
		return "", fmt.Errorf("query is required")
	}
	return jsonResult(map[string]any{
		"query":   query,
		"results": fmt.Sprintf("Resultados para '%s': encontradas 5 referências relevantes.", query),
		"count":   5,
	})
}

// ProcessImageTool simulates image analysis for a given URL.
type ProcessImageTool struct{}

func (t *ProcessImageTool) Name() string        { return "process_image" }
func (t *ProcessImageTool) Description() string { return "Process an image and return its metadata." }
func (t *ProcessImageTool) Parameters() map[string]gateway.ParamSpec {
	return map[string]gateway.ParamSpec{
		"url": {Type: "string", Description: "URL of the image to process", Required: true},
	}
}

func (t *ProcessImageTool) Execute(_ context.Context, args map[string]any) (string, error) {
	url, _ := args["url"].(string)
	if strings.TrimSpace(url) == "" {
		return "", fmt.Errorf("url is required")
	}
	return jsonResult(map[string]any{
		"url":      url,
		"format":   "png",
		"width":    1024,
		"height":   768,
		"analysis": "imagem processada com sucesso",
	})
}

// ChatCompletionTool generates a canned completion for a prompt.
type ChatCompletionTool struct{}

func (t *ChatCompletionTool) Name() string        { return "chat_completion" }
func (t *ChatCompletionTool) Description() string { return "Generate a response for a prompt." }
func (t *ChatCompletionTool) Parameters() map[string]gateway.ParamSpec {
	return map[string]gateway.ParamSpec{
		"prompt":  {Type: "string", Description: "Prompt text", Required: true},
		"history": {Type: "array", Description: "Conversation history (optional)"},
	}
}

func (t *ChatCompletionTool) Execute(_ context.Context, args map[string]any) (string, error) {
	prompt, _ := args["prompt"].(string)
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("prompt is required")
	}
	return jsonResult(map[string]any{
		"prompt":     prompt,
		"completion": fmt.Sprintf("Resposta simulada para: %s", prompt),
	})
}

func jsonResult(v map[string]any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
