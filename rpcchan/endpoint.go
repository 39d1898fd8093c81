package rpcchan

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ownablekit/studio/errors"
)

// Handler serves one named procedure.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// Endpoint is one side of the RPC channel. The bridge side registers
// procedures; the parent side issues calls; either side may do both.
type Endpoint struct {
	conn Conn
	log  *zap.Logger

	handlers map[string]Handler
	forward  func(Message)

	mu      sync.Mutex
	pending map[string]chan *Envelope
}

// EndpointOption configures an Endpoint.
type EndpointOption func(*Endpoint)

// WithLogger attaches a zap logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) EndpointOption {
	return func(e *Endpoint) { e.log = log }
}

// NewEndpoint wraps a connection.
func NewEndpoint(conn Conn, opts ...EndpointOption) *Endpoint {
	e := &Endpoint{
		conn:     conn,
		log:      zap.NewNop(),
		handlers: map[string]Handler{},
		pending:  map[string]chan *Envelope{},
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Register binds a procedure name to a handler, replacing any previous
// binding.
func (e *Endpoint) Register(method string, h Handler) {
	e.handlers[method] = h
}

// OnForward sets the raw pass-through sink for non-envelope messages,
// replacing any previous one. Messages from a null origin are dropped,
// never forwarded.
func (e *Endpoint) OnForward(fn func(Message)) {
	e.forward = fn
}

// Serve pumps the connection until ctx is done or the channel closes.
func (e *Endpoint) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-e.conn.Recv():
			if !ok {
				return nil
			}
			e.handleMessage(ctx, msg)
		}
	}
}

func (e *Endpoint) handleMessage(ctx context.Context, msg Message) {
	env, ok := parseEnvelope(msg.Data)
	if !ok {
		if msg.Origin == "null" {
			e.log.Debug("dropped message from null origin")
			return
		}
		if e.forward != nil {
			e.forward(msg)
		}
		return
	}

	if env.request() {
		reply := e.dispatch(ctx, env)
		if reply == nil {
			return // notification, no id to answer
		}
		data, err := json.Marshal(reply)
		if err != nil {
			e.log.Error("encode reply", zap.Error(err))
			return
		}
		if err := e.conn.Send(Message{Data: data}); err != nil {
			e.log.Warn("send reply", zap.Error(err))
		}
		return
	}

	// response: route to the waiting call
	e.mu.Lock()
	ch, waiting := e.pending[env.ID]
	delete(e.pending, env.ID)
	e.mu.Unlock()
	if !waiting {
		e.log.Debug("response for unknown call", zap.String("id", env.ID))
		return
	}
	ch <- env
}

// dispatch runs the handler for a request envelope and builds the
// reply, or nil for notifications.
func (e *Endpoint) dispatch(ctx context.Context, env *Envelope) *Envelope {
	h, found := e.handlers[env.Method]

	var reply *Envelope
	if env.ID != "" {
		reply = &Envelope{Proto: protoVersion, ID: env.ID}
	}

	if !found {
		e.log.Warn("unknown method", zap.String("method", env.Method))
		if reply != nil {
			reply.Error = &Error{Code: ErrMethodNotFound, Message: "method not found: " + env.Method}
		}
		return reply
	}

	result, err := h(ctx, env.Params)
	if err != nil {
		e.log.Warn("handler failed", zap.String("method", env.Method), zap.Error(err))
		if reply != nil {
			reply.Error = toRPCError(err)
		}
		return reply
	}
	if reply != nil {
		data, err := json.Marshal(result)
		if err != nil {
			reply.Error = &Error{Code: ErrInternal, Message: "encode result: " + err.Error()}
			return reply
		}
		reply.Result = data
	}
	return reply
}

// Dispatch serves a single request payload outside the channel pump,
// for transports (like HTTP) that carry one envelope per exchange.
func (e *Endpoint) Dispatch(ctx context.Context, data []byte) ([]byte, error) {
	env, ok := parseEnvelope(data)
	if !ok || !env.request() {
		return nil, errors.InvalidInput(errors.PhaseTransport, "payload is not a request envelope")
	}
	reply := e.dispatch(ctx, env)
	if reply == nil {
		return nil, nil
	}
	return json.Marshal(reply)
}

// Call invokes a named procedure on the remote side and decodes its
// result into result (which may be nil to discard).
func (e *Endpoint) Call(ctx context.Context, method string, params, result any) error {
	data, err := json.Marshal(params)
	if err != nil {
		return errors.Wrap(errors.PhaseTransport, errors.KindInvalidInput, err, "encode params")
	}

	id := uuid.NewString()
	env := Envelope{Proto: protoVersion, ID: id, Method: method, Params: data}
	payload, err := json.Marshal(env)
	if err != nil {
		return errors.Wrap(errors.PhaseTransport, errors.KindInvalidInput, err, "encode request")
	}

	ch := make(chan *Envelope, 1)
	e.mu.Lock()
	e.pending[id] = ch
	e.mu.Unlock()

	if err := e.conn.Send(Message{Data: payload}); err != nil {
		e.mu.Lock()
		delete(e.pending, id)
		e.mu.Unlock()
		return err
	}

	select {
	case <-ctx.Done():
		e.mu.Lock()
		delete(e.pending, id)
		e.mu.Unlock()
		return errors.Wrap(errors.PhaseTransport, errors.KindIO, ctx.Err(), "call "+method)
	case reply := <-ch:
		if reply.Error != nil {
			return reply.Error
		}
		if result == nil {
			return nil
		}
		if err := json.Unmarshal(reply.Result, result); err != nil {
			return errors.Wrap(errors.PhaseTransport, errors.KindInvalidInput, err, "decode result of "+method)
		}
		return nil
	}
}

// toRPCError maps pipeline errors onto wire error objects, carrying the
// phase/kind pair as structured data.
func toRPCError(err error) *Error {
	var structured *errors.Error
	if stderrors.As(err, &structured) {
		code := ErrInternal
		switch structured.Kind {
		case errors.KindInvalidInput:
			code = ErrInvalidParams
		case errors.KindNotFound:
			code = ErrMethodNotFound
		}
		return &Error{
			Code:    code,
			Message: structured.Error(),
			Data: map[string]string{
				"phase": string(structured.Phase),
				"kind":  string(structured.Kind),
			},
		}
	}
	return &Error{Code: ErrInternal, Message: err.Error()}
}
