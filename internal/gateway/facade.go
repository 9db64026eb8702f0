package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/oalmeida/mcpgate/internal/intent"
)

// intentTools maps executable intent kinds to concrete tool names.
// Command-level intents (list_tools, tool_details, ...) are handled by
// the chat loop, not here.
var intentTools = map[string]string{
	intent.KindSearchInfo:   "search_info",
	intent.KindProcessImage: "process_image",
	intent.KindCheckHealth:  "health_check",
}

// Gateway is the public entry point combining the Router and the
// intent Parser. This is the entire surface the CLI and chat loop use.
type Gateway struct {
	router *Router
	parser *intent.Parser

	// Descriptors remembered from the last Tools call, used to fail
	// fast on missing required parameters. Keyed by tool name; on
	// cross-backend name collisions the higher-priority backend wins.
	mu    sync.RWMutex
	known map[string]ToolDescriptor
}

// New creates a gateway facade over a router.
func New(router *Router, parser *intent.Parser) *Gateway {
	if parser == nil {
		parser = intent.NewParser()
	}
	return &Gateway{
		router: router,
		parser: parser,
		known:  map[string]ToolDescriptor{},
	}
}

// Router exposes the underlying router for diagnostics (per-backend
// discovery reports, health rendering).
func (g *Gateway) Router() *Router { return g.router }

// Parser exposes the intent parser so the chat loop can handle
// command-level intents itself.
func (g *Gateway) Parser() *intent.Parser { return g.parser }

// Tools returns the union of every reachable backend's tool list.
// It fails only when no backend could be discovered. Safe to call
// repeatedly; callers wanting caching layer it on top.
func (g *Gateway) Tools(ctx context.Context) ([]ToolDescriptor, error) {
	reports := g.router.ListTools(ctx)

	var union []ToolDescriptor
	failed := 0
	for _, rep := range reports {
		if rep.Err != nil {
			failed++
			continue
		}
		union = append(union, rep.Tools...)
	}
	if len(reports) > 0 && failed == len(reports) {
		return nil, fmt.Errorf("tool discovery failed on all %d backends: %w", failed, reports[0].Err)
	}

	g.remember(union)
	return union, nil
}

// Run validates and dispatches one tool invocation. Missing required
// parameters (against a descriptor known from a prior Tools call) fail
// with InvalidParametersError before any network call.
func (g *Gateway) Run(ctx context.Context, inv Invocation) (*Result, error) {
	if err := g.validate(inv); err != nil {
		return nil, err
	}
	return g.router.Invoke(ctx, inv)
}

// RunFromText is the natural-language front door. The utterance is
// classified by the intent parser; executable intents are mapped to a
// tool and dispatched via Run. The boolean is false when the utterance
// carries no executable intent; the caller then treats it as plain
// conversational text.
func (g *Gateway) RunFromText(ctx context.Context, utterance string) (*Result, bool, error) {
	m, ok := g.parser.Parse(utterance)
	if !ok {
		return nil, false, nil
	}

	inv, ok, err := g.invocationFor(m)
	if err != nil {
		return nil, true, err
	}
	if !ok {
		return nil, false, nil
	}

	res, err := g.Run(ctx, inv)
	return res, true, err
}

// invocationFor maps a parsed intent to a concrete invocation.
func (g *Gateway) invocationFor(m intent.Match) (Invocation, bool, error) {
	if m.Intent == intent.KindExecuteTool {
		tool := m.Params["tool"]
		params := map[string]any{}
		if blob, ok := m.Params["params_json"]; ok {
			if err := json.Unmarshal([]byte(blob), &params); err != nil {
				return Invocation{}, false, fmt.Errorf("invalid params JSON for tool %q: %w", tool, err)
			}
		}
		return Invocation{Tool: tool, Params: params}, true, nil
	}

	tool, ok := intentTools[m.Intent]
	if !ok {
		return Invocation{}, false, nil
	}
	params := make(map[string]any, len(m.Params))
	for k, v := range m.Params {
		params[k] = v
	}
	return Invocation{Tool: tool, Params: params}, true, nil
}

// Describe returns the remembered descriptor for a tool, if any.
func (g *Gateway) Describe(tool string) (ToolDescriptor, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	d, ok := g.known[tool]
	return d, ok
}

func (g *Gateway) validate(inv Invocation) error {
	desc, ok := g.Describe(inv.Tool)
	if !ok {
		return nil
	}

	var missing []string
	for _, name := range desc.RequiredParams() {
		if _, present := inv.Params[name]; !present {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &InvalidParametersError{Tool: inv.Tool, Missing: missing}
	}
	return nil
}

// remember replaces the known-descriptor table wholesale. union is in
// priority order, so the first occurrence of a name wins.
func (g *Gateway) remember(union []ToolDescriptor) {
	known := make(map[string]ToolDescriptor, len(union))
	for _, d := range union {
		if _, exists := known[d.Name]; !exists {
			known[d.Name] = d
		}
	}
	g.mu.Lock()
	g.known = known
	g.mu.Unlock()
}
