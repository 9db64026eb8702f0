package gateway

import (
	"fmt"
	"strings"
)

// DiscoveryError means a backend's tool listing failed. A non-zero
// Status carries the HTTP status; Cause carries transport or decode
// failures.
type DiscoveryError struct {
	Backend BackendID
	Status  int
	Cause   error
}

func (e *DiscoveryError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("tool discovery failed on backend %q: %v", e.Backend, e.Cause)
	}
	return fmt.Sprintf("tool discovery failed on backend %q: HTTP %d", e.Backend, e.Status)
}

func (e *DiscoveryError) Unwrap() error { return e.Cause }

// TimeoutError means a backend attempt exceeded the per-call timeout.
// The Router recovers by falling through to the next backend.
type TimeoutError struct {
	Backend BackendID
	Tool    string
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("backend %q timed out executing %q", e.Backend, e.Tool)
}

// TransportError means the request never got a usable response
// (connection refused, DNS failure, malformed body). Recovered via
// fallback like TimeoutError.
type TransportError struct {
	Backend BackendID
	Cause   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("backend %q transport error: %v", e.Backend, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// AuthError means the backend rejected the session credential.
// Never retried against another backend: a credential problem is not
// fixed by switching hosts.
type AuthError struct {
	Backend BackendID
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("backend %q rejected the session credential", e.Backend)
}

// ToolNotFoundError means the backend does not know the requested tool.
// Surfaced immediately, without fallback.
type ToolNotFoundError struct {
	Backend BackendID
	Tool    string
}

func (e *ToolNotFoundError) Error() string {
	return fmt.Sprintf("tool %q not found on backend %q", e.Tool, e.Backend)
}

// InvalidParametersError is raised before any network call when a
// required parameter is missing.
type InvalidParametersError struct {
	Tool    string
	Missing []string
}

func (e *InvalidParametersError) Error() string {
	return fmt.Sprintf("invalid parameters for tool %q: missing %s",
		e.Tool, strings.Join(e.Missing, ", "))
}

// Attempt records one failed backend try inside a fallback sequence.
type Attempt struct {
	Backend BackendID
	Err     error
}

// AllBackendsFailedError means every configured backend was exhausted.
// Attempts preserves each intermediate cause in try order so the
// caller can distinguish "everything is down" from "one backend is
// misconfigured".
type AllBackendsFailedError struct {
	Tool     string
	Attempts []Attempt
}

func (e *AllBackendsFailedError) Error() string {
	parts := make([]string, len(e.Attempts))
	for i, a := range e.Attempts {
		parts[i] = fmt.Sprintf("%s: %v", a.Backend, a.Err)
	}
	return fmt.Sprintf("all backends failed executing %q [%s]",
		e.Tool, strings.Join(parts, "; "))
}
