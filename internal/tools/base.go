// Package tools defines the Tool interface implemented by the local
// backend server's builtin tools, plus the registry that holds them.
package tools

import (
	"context"

	"github.com/oalmeida/mcpgate/internal/gateway"
)

// Tool is a named operation the local backend can execute.
type Tool interface {
	// Name returns the tool name used in discovery and execution.
	Name() string

	// Description returns what the tool does.
	Description() string

	// Parameters returns the parameter schema reported by discovery.
	Parameters() map[string]gateway.ParamSpec

	// Execute runs the tool. The result is a JSON document or plain
	// text; the server wraps it in the {"body": ...} envelope.
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Describe converts a tool to its discovery descriptor.
func Describe(t Tool) gateway.ToolDescriptor {
	params := t.Parameters()
	if params == nil {
		params = map[string]gateway.ParamSpec{}
	}
	return gateway.ToolDescriptor{
		Name:        t.Name(),
		Description: t.Description(),
		Parameters:  params,
	}
}
