// Package providers defines the LLM chat provider used by the
// conversational front door. Tool routing never depends on it.
package providers

import "context"

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest holds all parameters for a chat completion call.
type ChatRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens"`
	Temperature float64   `json:"temperature"`
}

// ChatResponse is the standardized response from the chat backend.
type ChatResponse struct {
	Content      string         `json:"content"`
	FinishReason string         `json:"finish_reason"`
	Usage        map[string]int `json:"usage,omitempty"`
}

// ChatProvider is the interface for LLM chat backends.
type ChatProvider interface {
	// Chat sends a chat completion request.
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// DefaultModel returns the default model identifier.
	DefaultModel() string
}
