// Package rpcchan implements the outer transport between a parent
// context and a module host bridge: a fixed set of named remote
// procedures carried in a JSON-RPC 2.0 envelope over a message-based
// connection, with exactly-one-response correlation by request id.
// Messages that are not part of the RPC envelope are forwarded raw to a
// registered sink, unless they originate from a null/opaque origin;
// this supports unrelated embedded-UI messaging without interfering
// with the RPC channel. Calls are accepted from any origin by default;
// the isolation boundary is the sandbox, not origin checking.
package rpcchan

import (
	"encoding/json"
	"fmt"
)

// JSON-RPC 2.0 error codes.
const (
	ErrParseCode      = -32700
	ErrInvalidReq     = -32600
	ErrMethodNotFound = -32601
	ErrInvalidParams  = -32602
	ErrInternal       = -32603
)

const protoVersion = "2.0"

// Envelope is a JSON-RPC 2.0 request or response.
type Envelope struct {
	Proto  string          `json:"jsonrpc"`
	ID     string          `json:"id,omitempty"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *Error          `json:"error,omitempty"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// request reports whether the envelope is a call rather than a reply.
func (e *Envelope) request() bool {
	return e.Method != ""
}

// parseEnvelope decodes and validates an envelope. A payload that is
// not a well-formed envelope is not an error at the transport level; it
// is simply not ours.
func parseEnvelope(data []byte) (*Envelope, bool) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, false
	}
	if env.Proto != protoVersion {
		return nil, false
	}
	if !env.request() && env.ID == "" {
		return nil, false
	}
	return &env, true
}
