package gateway

import (
	"context"
	"errors"
	"log"
)

// Router owns the configured backends in a fixed priority order, set at
// construction and never inferred at runtime. It holds no long-lived
// connections; every call is independent and safe to issue concurrently.
type Router struct {
	backends []Backend
}

// NewRouter creates a router. The argument order is the fallback
// priority order.
func NewRouter(backends ...Backend) *Router {
	return &Router{backends: backends}
}

// Backends returns the configured backends in priority order.
func (r *Router) Backends() []Backend {
	return r.backends
}

// Invoke tries each candidate backend strictly in sequence. A Timeout
// or TransportError falls through to the next backend; AuthError and
// ToolNotFoundError surface immediately since switching backends
// cannot fix a credential or naming problem. When every backend is
// exhausted the full attempt list is returned in AllBackendsFailedError.
func (r *Router) Invoke(ctx context.Context, inv Invocation) (*Result, error) {
	candidates := r.order(inv.Preferred)
	if len(candidates) == 0 {
		return nil, &AllBackendsFailedError{Tool: inv.Tool}
	}

	var attempts []Attempt
	for _, b := range candidates {
		res, err := b.Invoke(ctx, inv.Tool, inv.Params)
		if err == nil {
			return res, nil
		}
		if !recoverable(err) {
			return nil, err
		}
		log.Printf("[Gateway] backend %s failed (%v), trying next", b.ID(), err)
		attempts = append(attempts, Attempt{Backend: b.ID(), Err: err})
	}

	return nil, &AllBackendsFailedError{Tool: inv.Tool, Attempts: attempts}
}

// ListTools queries every configured backend and reports each slice
// separately. A discovery failure on one backend is recorded in its
// report instead of aborting the whole call; descriptors are tagged
// with their origin backend.
func (r *Router) ListTools(ctx context.Context) []DiscoveryReport {
	reports := make([]DiscoveryReport, 0, len(r.backends))
	for _, b := range r.backends {
		tools, err := b.ListTools(ctx)
		if err != nil {
			reports = append(reports, DiscoveryReport{Backend: b.ID(), Err: err})
			continue
		}
		for i := range tools {
			tools[i].Backend = b.ID()
		}
		reports = append(reports, DiscoveryReport{Backend: b.ID(), Tools: tools})
	}
	return reports
}

// order returns the candidate sequence: the preferred backend first
// when it is configured, then the remaining priority order.
func (r *Router) order(preferred BackendID) []Backend {
	if preferred == "" {
		return r.backends
	}
	var pref Backend
	for _, b := range r.backends {
		if b.ID() == preferred {
			pref = b
			break
		}
	}
	if pref == nil {
		return r.backends
	}
	out := []Backend{pref}
	for _, b := range r.backends {
		if b.ID() != preferred {
			out = append(out, b)
		}
	}
	return out
}

// recoverable reports whether an invocation error may be fixed by
// trying another backend.
func recoverable(err error) bool {
	var timeout *TimeoutError
	var transport *TransportError
	return errors.As(err, &timeout) || errors.As(err, &transport)
}
