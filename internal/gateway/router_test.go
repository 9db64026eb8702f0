package gateway

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackend scripts ListTools/Invoke outcomes and counts calls.
type fakeBackend struct {
	id        BackendID
	tools     []ToolDescriptor
	listErr   error
	result    *Result
	invokeErr error

	listCalls   atomic.Int32
	invokeCalls atomic.Int32
	lastTool    string
	lastParams  map[string]any
}

func (f *fakeBackend) ID() BackendID { return f.id }

func (f *fakeBackend) ListTools(ctx context.Context) ([]ToolDescriptor, error) {
	f.listCalls.Add(1)
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]ToolDescriptor, len(f.tools))
	copy(out, f.tools)
	return out, nil
}

func (f *fakeBackend) Invoke(ctx context.Context, tool string, params map[string]any) (*Result, error) {
	f.invokeCalls.Add(1)
	f.lastTool = tool
	f.lastParams = params
	if f.invokeErr != nil {
		return nil, f.invokeErr
	}
	res := *f.result
	return &res, nil
}

func okBackend(id BackendID, raw any) *fakeBackend {
	return &fakeBackend{id: id, result: &Result{Raw: raw, Backend: id}}
}

func TestInvoke_FirstBackendWins(t *testing.T) {
	primary := okBackend(BackendRemote, "from-remote")
	secondary := okBackend(BackendLocal, "from-local")
	r := NewRouter(primary, secondary)

	res, err := r.Invoke(context.Background(), Invocation{Tool: "search_info"})
	require.NoError(t, err)
	assert.Equal(t, BackendRemote, res.Backend)
	assert.Equal(t, "from-remote", res.Raw)
	assert.Equal(t, int32(0), secondary.invokeCalls.Load())
}

func TestInvoke_FallsThroughOnTransportError(t *testing.T) {
	primary := &fakeBackend{id: BackendRemote,
		invokeErr: &TransportError{Backend: BackendRemote, Cause: errors.New("connection refused")}}
	secondary := okBackend(BackendLocal, "from-local")
	r := NewRouter(primary, secondary)

	res, err := r.Invoke(context.Background(), Invocation{Tool: "search_info"})
	require.NoError(t, err)
	// Backend is reported by the backend that actually produced the
	// result, never fabricated by the router.
	assert.Equal(t, BackendLocal, res.Backend)
	assert.Equal(t, int32(1), primary.invokeCalls.Load())
	assert.Equal(t, int32(1), secondary.invokeCalls.Load())
}

func TestInvoke_FallsThroughOnTimeout(t *testing.T) {
	primary := &fakeBackend{id: BackendRemote,
		invokeErr: &TimeoutError{Backend: BackendRemote, Tool: "search_info"}}
	secondary := okBackend(BackendLocal, "from-local")
	r := NewRouter(primary, secondary)

	res, err := r.Invoke(context.Background(), Invocation{Tool: "search_info"})
	require.NoError(t, err)
	assert.Equal(t, BackendLocal, res.Backend)
}

func TestInvoke_NoFallbackOnAuthRejected(t *testing.T) {
	primary := &fakeBackend{id: BackendRemote, invokeErr: &AuthError{Backend: BackendRemote}}
	secondary := okBackend(BackendLocal, "from-local")
	r := NewRouter(primary, secondary)

	_, err := r.Invoke(context.Background(), Invocation{Tool: "search_info"})
	var ae *AuthError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, int32(0), secondary.invokeCalls.Load())
}

func TestInvoke_NoFallbackOnToolNotFound(t *testing.T) {
	primary := &fakeBackend{id: BackendRemote,
		invokeErr: &ToolNotFoundError{Backend: BackendRemote, Tool: "nope"}}
	secondary := okBackend(BackendLocal, "anything")
	r := NewRouter(primary, secondary)

	_, err := r.Invoke(context.Background(), Invocation{Tool: "nope"})
	var nf *ToolNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, int32(0), secondary.invokeCalls.Load())
}

func TestInvoke_AllBackendsFailed_PreservesAttempts(t *testing.T) {
	first := &fakeBackend{id: BackendRemote,
		invokeErr: &TimeoutError{Backend: BackendRemote, Tool: "search_info"}}
	second := &fakeBackend{id: BackendLocal,
		invokeErr: &TransportError{Backend: BackendLocal, Cause: errors.New("dns failure")}}
	r := NewRouter(first, second)

	_, err := r.Invoke(context.Background(), Invocation{Tool: "search_info"})
	var all *AllBackendsFailedError
	require.ErrorAs(t, err, &all)
	require.Len(t, all.Attempts, 2)
	assert.Equal(t, BackendRemote, all.Attempts[0].Backend)
	assert.Equal(t, BackendLocal, all.Attempts[1].Backend)

	var to *TimeoutError
	assert.ErrorAs(t, all.Attempts[0].Err, &to)
	var te *TransportError
	assert.ErrorAs(t, all.Attempts[1].Err, &te)
}

func TestInvoke_PreferredBackendTriedFirst(t *testing.T) {
	primary := okBackend(BackendRemote, "from-remote")
	secondary := okBackend(BackendLocal, "from-local")
	r := NewRouter(primary, secondary)

	res, err := r.Invoke(context.Background(),
		Invocation{Tool: "search_info", Preferred: BackendLocal})
	require.NoError(t, err)
	assert.Equal(t, BackendLocal, res.Backend)
	assert.Equal(t, int32(0), primary.invokeCalls.Load())
}

func TestInvoke_UnknownPreferredFallsBackToPriorityOrder(t *testing.T) {
	primary := okBackend(BackendRemote, "from-remote")
	r := NewRouter(primary)

	res, err := r.Invoke(context.Background(),
		Invocation{Tool: "search_info", Preferred: BackendID("missing")})
	require.NoError(t, err)
	assert.Equal(t, BackendRemote, res.Backend)
}

func TestInvoke_NoBackends(t *testing.T) {
	r := NewRouter()
	_, err := r.Invoke(context.Background(), Invocation{Tool: "x"})
	var all *AllBackendsFailedError
	require.ErrorAs(t, err, &all)
	assert.Empty(t, all.Attempts)
}

func TestListTools_TagsOrigin(t *testing.T) {
	r := NewRouter(
		&fakeBackend{id: BackendRemote, tools: []ToolDescriptor{{Name: "search_info"}}},
		&fakeBackend{id: BackendLocal, tools: []ToolDescriptor{{Name: "health_check"}}},
	)

	reports := r.ListTools(context.Background())
	require.Len(t, reports, 2)
	assert.Equal(t, BackendRemote, reports[0].Tools[0].Backend)
	assert.Equal(t, BackendLocal, reports[1].Tools[0].Backend)
}

func TestListTools_PartialFailure(t *testing.T) {
	r := NewRouter(
		&fakeBackend{id: BackendRemote,
			listErr: &DiscoveryError{Backend: BackendRemote, Status: 500}},
		&fakeBackend{id: BackendLocal, tools: []ToolDescriptor{{Name: "health_check"}}},
	)

	reports := r.ListTools(context.Background())
	require.Len(t, reports, 2)
	assert.Error(t, reports[0].Err)
	assert.NoError(t, reports[1].Err)
	require.Len(t, reports[1].Tools, 1)
}

// Descriptor sets from repeated discovery calls are equal when backend
// state has not changed.
func TestListTools_Idempotent(t *testing.T) {
	r := NewRouter(
		&fakeBackend{id: BackendRemote, tools: []ToolDescriptor{{Name: "a"}, {Name: "b"}}},
	)

	first := r.ListTools(context.Background())
	second := r.ListTools(context.Background())
	assert.Equal(t, first, second)
}
