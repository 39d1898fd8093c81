package bridge

import (
	"encoding/json"

	studio "github.com/ownablekit/studio"
	"github.com/ownablekit/studio/errors"
)

// Attribute is one key/value pair attached to a call result or event.
type Attribute struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Event is one event emitted by an execute or external-event call.
type Event struct {
	Type       string      `json:"type"`
	Attributes []Attribute `json:"attributes"`
}

// InstantiateResult is the outcome of an instantiate call: the result
// envelope's attributes plus the module's full state snapshot. The
// caller must persist State and supply it on the next call.
type InstantiateResult struct {
	Attributes []Attribute         `json:"attributes"`
	State      studio.OwnableState `json:"state"`
}

// ExecuteResult is the outcome of an execute or external-event call.
type ExecuteResult struct {
	Attributes []Attribute         `json:"attributes"`
	Events     []Event             `json:"events"`
	Data       string              `json:"data,omitempty"`
	State      studio.OwnableState `json:"state"`
}

// resultBody is the contract's result envelope inside a worker
// response.
type resultBody struct {
	Attributes []Attribute `json:"attributes"`
	Events     []Event     `json:"events"`
	Data       string      `json:"data"`
}

// decodeResult validates the error marker, parses the result envelope,
// and resolves the next state: the response's state dump when present,
// otherwise the state the caller passed in, unchanged.
func decodeResult(op string, resp studio.WorkerResponse, prior studio.OwnableState) (resultBody, studio.OwnableState, error) {
	if msg, isErr := resp.Err(); isErr {
		return resultBody{}, nil, errors.Module(op, msg)
	}

	raw, ok := resp.Result()
	if !ok {
		return resultBody{}, nil, errors.InvalidInput(errors.PhaseBridge, op+": response has no result field")
	}
	var body resultBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return resultBody{}, nil, errors.Wrap(errors.PhaseBridge, errors.KindInvalidInput, err, op+": decode result envelope")
	}

	state := prior
	if resp.HasMem() {
		dump, err := resp.StateDump()
		if err != nil {
			return resultBody{}, nil, errors.Wrap(errors.PhaseBridge, errors.KindInvalidInput, err, op+": decode state dump")
		}
		state = dump
	}
	return body, state, nil
}

// rawQueryResult extracts the base64 payload a query response carries.
func rawQueryResult(op string, resp studio.WorkerResponse) (string, error) {
	if msg, isErr := resp.Err(); isErr {
		return "", errors.Module(op, msg)
	}
	raw, ok := resp.Result()
	if !ok {
		return "", errors.InvalidInput(errors.PhaseBridge, op+": response has no result field")
	}
	var encoded string
	if err := json.Unmarshal(raw, &encoded); err != nil {
		return "", errors.Wrap(errors.PhaseBridge, errors.KindInvalidInput, err, op+": query result is not a string payload")
	}
	return encoded, nil
}
