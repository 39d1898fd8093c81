package bridge

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	studio "github.com/ownablekit/studio"
	"github.com/ownablekit/studio/errors"
)

// Poster receives widget-state notifications for a rendered UI surface.
// It is the cross-context post-message counterpart: a notification
// sink, not a data-returning call.
type Poster interface {
	Post(moduleID string, payload []byte)
}

// PosterFunc adapts a function to the Poster interface.
type PosterFunc func(moduleID string, payload []byte)

func (f PosterFunc) Post(moduleID string, payload []byte) { f(moduleID, payload) }

// Bridge hosts one compiled contract module inside a dedicated worker
// and exposes the module call protocol to a parent context. Exactly one
// worker is live per bridge; Init creates it and every later call
// reuses it. Calls are strictly serialized: the worker correlates
// responses by arrival order, so a second request is never issued
// before the first response arrives.
type Bridge struct {
	factory studio.VMFactory
	log     *zap.Logger
	timeout time.Duration
	poster  Poster

	mu       sync.Mutex
	worker   *worker
	moduleID string
}

// Option configures a Bridge.
type Option func(*Bridge)

// WithLogger attaches a zap logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *Bridge) { b.log = log }
}

// WithTimeout bounds each worker call. Zero (the default) waits
// forever, matching the original protocol; set a positive duration as a
// hardening measure.
func WithTimeout(d time.Duration) Option {
	return func(b *Bridge) { b.timeout = d }
}

// WithPoster registers the UI surface that Refresh notifies.
func WithPoster(p Poster) Option {
	return func(b *Bridge) { b.poster = p }
}

// New creates a Bridge that builds workers with the given VM factory.
func New(factory studio.VMFactory, opts ...Option) *Bridge {
	b := &Bridge{
		factory: factory,
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Init constructs the worker from the bindings module and binary
// module and captures the module id supplied implicitly on every later
// call. Calling Init again replaces the live worker; the prior worker
// is shut down best-effort.
func (b *Bridge) Init(ctx context.Context, id string, bindings, binary []byte) error {
	vm, err := b.factory(ctx, bindings, binary)
	if err != nil {
		return errors.Wrap(errors.PhaseBridge, errors.KindInvalidInput, err, "init worker for "+id)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.worker != nil {
		b.worker.close()
	}
	b.worker = newWorker(vm)
	b.moduleID = id
	b.log.Info("module worker initialized", zap.String("module_id", id))
	return nil
}

// ModuleID returns the id captured at Init time, or "".
func (b *Bridge) ModuleID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.moduleID
}

// Close shuts down the live worker, if any.
func (b *Bridge) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.worker != nil {
		b.worker.close()
		b.worker = nil
	}
	return nil
}

// Instantiate sends the instantiate request and returns the result
// attributes plus the module's initial state snapshot.
func (b *Bridge) Instantiate(ctx context.Context, msg, info json.RawMessage) (*InstantiateResult, error) {
	resp, err := b.call(ctx, "instantiate", studio.WorkerRequest{
		Type: studio.RequestInstantiate,
		Msg:  msg,
		Info: info,
	})
	if err != nil {
		return nil, err
	}
	body, state, err := decodeResult("instantiate", resp, nil)
	if err != nil {
		return nil, err
	}
	return &InstantiateResult{Attributes: body.Attributes, State: state}, nil
}

// Execute sends an execute message with the caller's current state and
// returns attributes, emitted events, the opaque data payload, and the
// next state. The bridge retains nothing between calls; persist the
// returned state and pass it verbatim next time.
func (b *Bridge) Execute(ctx context.Context, msg, info json.RawMessage, state studio.OwnableState) (*ExecuteResult, error) {
	return b.executeAs(ctx, "execute", studio.RequestExecute, msg, info, state)
}

func (b *Bridge) executeAs(ctx context.Context, op, reqType string, msg, info json.RawMessage, state studio.OwnableState) (*ExecuteResult, error) {
	resp, err := b.call(ctx, op, studio.WorkerRequest{
		Type: reqType,
		Msg:  msg,
		Info: info,
		Mem:  studio.Mem{StateDump: state},
	})
	if err != nil {
		return nil, err
	}
	body, next, err := decodeResult(op, resp, state)
	if err != nil {
		return nil, err
	}
	return &ExecuteResult{
		Attributes: body.Attributes,
		Events:     body.Events,
		Data:       body.Data,
		State:      next,
	}, nil
}

// ExternalEvent is Execute with the caller info nested under an "info"
// envelope before dispatch. The asymmetry is required by the wire
// format; both forms are supported verbatim.
func (b *Bridge) ExternalEvent(ctx context.Context, msg, callerInfo json.RawMessage, state studio.OwnableState) (*ExecuteResult, error) {
	wrapped, err := json.Marshal(map[string]json.RawMessage{"info": callerInfo})
	if err != nil {
		return nil, errors.Wrap(errors.PhaseBridge, errors.KindInvalidInput, err, "external_event: wrap caller info")
	}
	return b.executeAs(ctx, "external_event", studio.RequestExternalEvent, msg, wrapped, state)
}

// Query sends a read-only query and returns the decoded result. The
// module's raw result is a base64-encoded JSON document; Query decodes
// both layers. The double encoding is preserved from the wire format as
// observed; see QueryRaw for the untouched payload.
func (b *Bridge) Query(ctx context.Context, msg json.RawMessage, state studio.OwnableState) (json.RawMessage, error) {
	encoded, err := b.QueryRaw(ctx, msg, state)
	if err != nil {
		return nil, err
	}
	decoded, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseBridge, errors.KindInvalidInput, err, "query: base64-decode result")
	}
	if !json.Valid(decoded) {
		return nil, errors.InvalidInput(errors.PhaseBridge, "query: decoded result is not JSON")
	}
	return json.RawMessage(decoded), nil
}

// QueryRaw sends a read-only query and returns the module's base64
// payload untouched. Queries never mutate or return a new state.
func (b *Bridge) QueryRaw(ctx context.Context, msg json.RawMessage, state studio.OwnableState) (string, error) {
	resp, err := b.call(ctx, "query", studio.WorkerRequest{
		Type: studio.RequestQuery,
		Msg:  msg,
		Mem:  studio.Mem{StateDump: state},
	})
	if err != nil {
		return "", err
	}
	return rawQueryResult("query", resp)
}

// widgetStateQuery is the fixed query shape Refresh issues.
var widgetStateQuery = json.RawMessage(`{"get_widget_state":{}}`)

// Refresh queries the module's widget state and forwards the result,
// tagged with the module id, to the registered UI surface. It is a
// notification, not a data-returning call.
func (b *Bridge) Refresh(ctx context.Context, state studio.OwnableState) error {
	result, err := b.Query(ctx, widgetStateQuery, state)
	if err != nil {
		return err
	}
	payload, err := json.Marshal(map[string]any{
		"ownable_id": b.ModuleID(),
		"state":      result,
	})
	if err != nil {
		return errors.Wrap(errors.PhaseBridge, errors.KindInvalidInput, err, "refresh: encode notification")
	}
	if b.poster == nil {
		b.log.Debug("refresh dropped, no ui surface registered", zap.String("module_id", b.ModuleID()))
		return nil
	}
	b.poster.Post(b.ModuleID(), payload)
	return nil
}

// call serializes one request/response exchange with the worker. The
// lock spans the whole exchange: no pipelining is permitted because the
// worker has no call-id multiplexing.
func (b *Bridge) call(ctx context.Context, op string, req studio.WorkerRequest) (studio.WorkerResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.worker == nil {
		return nil, errors.NotInitialized(op)
	}
	req.OwnableID = b.moduleID

	b.log.Debug("worker call", zap.String("op", op), zap.String("module_id", b.moduleID))
	resp, err := b.worker.post(ctx, op, req, b.timeout)
	if err != nil {
		b.log.Warn("worker call failed", zap.String("op", op), zap.Error(err))
		return nil, err
	}
	return resp, nil
}
