package studio

import (
	"context"
	"encoding/json"
)

// OwnableState is the opaque state blob a hosted module round-trips
// between calls. The module controls its shape; callers must store the
// state returned by one call and supply it verbatim on the next.
type OwnableState map[string]any

// Request types understood by a hosted module's worker.
const (
	RequestInstantiate   = "instantiate"
	RequestExecute       = "execute"
	RequestExternalEvent = "external_event"
	RequestQuery         = "query"
)

// WorkerRequest is the message posted to a worker. Exactly one request
// is outstanding per worker at any time; responses are correlated by
// arrival order, not by an explicit call identifier.
type WorkerRequest struct {
	Type      string          `json:"type"`
	OwnableID string          `json:"ownable_id"`
	Msg       json.RawMessage `json:"msg"`
	Info      json.RawMessage `json:"info,omitempty"`
	Mem       Mem             `json:"mem"`
}

// Mem carries the state dump into and out of a worker call.
type Mem struct {
	StateDump OwnableState `json:"state_dump"`
}

// WorkerResponse is the map-like reply from a worker. A response is an
// error if it carries the "err" marker field; otherwise it exposes a
// "result" field and optionally a "mem" field holding the next state.
type WorkerResponse map[string]json.RawMessage

// Err returns the worker-reported error text, if any.
func (r WorkerResponse) Err() (string, bool) {
	raw, ok := r["err"]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return string(raw), true
	}
	return s, true
}

// Result returns the raw result payload.
func (r WorkerResponse) Result() (json.RawMessage, bool) {
	raw, ok := r["result"]
	return raw, ok
}

// HasMem reports whether the response carries a state dump.
func (r WorkerResponse) HasMem() bool {
	_, ok := r["mem"]
	return ok
}

// StateDump extracts the state dump from the "mem" field. The field is
// JSON-encoded and may itself be a JSON string wrapping the document,
// which some bindings produce; both forms are accepted.
func (r WorkerResponse) StateDump() (OwnableState, error) {
	raw, ok := r["mem"]
	if !ok {
		return nil, nil
	}
	var inner string
	if err := json.Unmarshal(raw, &inner); err == nil {
		raw = json.RawMessage(inner)
	}
	var mem Mem
	if err := json.Unmarshal(raw, &mem); err != nil {
		return nil, err
	}
	return mem.StateDump, nil
}

// VM executes worker requests against a loaded contract module. A VM is
// exclusively owned by one bridge worker; implementations need not be
// safe for concurrent use.
type VM interface {
	Handle(ctx context.Context, req WorkerRequest) (WorkerResponse, error)
	Close(ctx context.Context) error
}

// VMFactory constructs a VM from a package's bindings module and binary
// module, as produced by the package builder.
type VMFactory func(ctx context.Context, bindings, binary []byte) (VM, error)
