// Package gateway routes tool invocations across one or more
// tool-providing backends with ordered fallback and per-call timeout.
//
// A Backend lists and executes named tools over the REST surface
// GET <base>/tools and POST <base>/execute, both authenticated with a
// session_id query parameter. The Router owns the configured backends
// in priority order; the Gateway facade adds parameter validation and
// the natural-language front door on top.
package gateway

import (
	"context"
	"time"
)

// BackendID identifies a configured backend ("local", "remote").
type BackendID string

const (
	BackendLocal  BackendID = "local"
	BackendRemote BackendID = "remote"
)

// ParamSpec describes one tool parameter.
type ParamSpec struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// ToolDescriptor describes a callable tool as reported by discovery.
// Tool names are unique within a backend, not globally; Backend records
// the origin and is filled in by the Router.
type ToolDescriptor struct {
	Name        string               `json:"name"`
	Description string               `json:"description,omitempty"`
	Parameters  map[string]ParamSpec `json:"parameters,omitempty"`
	Backend     BackendID            `json:"backend,omitempty"`
}

// RequiredParams returns the names of parameters marked required.
func (d ToolDescriptor) RequiredParams() []string {
	var names []string
	for name, p := range d.Parameters {
		if p.Required {
			names = append(names, name)
		}
	}
	return names
}

// Invocation is one tool call request. Ephemeral: constructed per
// call, never persisted.
type Invocation struct {
	Tool      string
	Params    map[string]any
	Preferred BackendID // optional hint; tried first when configured
}

// Result is a successful tool execution. Backend always names the
// backend that actually produced Raw.
type Result struct {
	Raw     any
	Backend BackendID
	Elapsed time.Duration
}

// Backend is the polymorphic capability every tool provider implements.
type Backend interface {
	ID() BackendID
	ListTools(ctx context.Context) ([]ToolDescriptor, error)
	Invoke(ctx context.Context, tool string, params map[string]any) (*Result, error)
}

// DiscoveryReport is one backend's slice of a ListTools call. Err is
// set when that backend's discovery failed; the other backends' slices
// are still usable, so callers can render "N of M backends reachable".
type DiscoveryReport struct {
	Backend BackendID
	Tools   []ToolDescriptor
	Err     error
}
