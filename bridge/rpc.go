package bridge

import (
	"context"
	"encoding/json"

	studio "github.com/ownablekit/studio"
	"github.com/ownablekit/studio/rpcchan"
)

// Remote procedure names exposed on the RPC channel.
const (
	ProcInit          = "init"
	ProcInstantiate   = "instantiate"
	ProcExecute       = "execute"
	ProcExternalEvent = "externalEvent"
	ProcQuery         = "query"
	ProcQueryRaw      = "queryRaw"
	ProcRefresh       = "refresh"
)

type initParams struct {
	ID       string `json:"id"`
	Bindings []byte `json:"bindings"`
	Module   []byte `json:"module"`
}

type callParams struct {
	Msg   json.RawMessage     `json:"msg"`
	Info  json.RawMessage     `json:"info,omitempty"`
	State studio.OwnableState `json:"state,omitempty"`
}

// RegisterProcedures binds the bridge's operations onto an RPC
// endpoint under their fixed names.
func (b *Bridge) RegisterProcedures(ep *rpcchan.Endpoint) {
	ep.Register(ProcInit, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p initParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		if err := b.Init(ctx, p.ID, p.Bindings, p.Module); err != nil {
			return nil, err
		}
		return map[string]string{"module_id": p.ID}, nil
	})

	ep.Register(ProcInstantiate, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p callParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return b.Instantiate(ctx, p.Msg, p.Info)
	})

	ep.Register(ProcExecute, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p callParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return b.Execute(ctx, p.Msg, p.Info, p.State)
	})

	ep.Register(ProcExternalEvent, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p callParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return b.ExternalEvent(ctx, p.Msg, p.Info, p.State)
	})

	ep.Register(ProcQuery, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p callParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return b.Query(ctx, p.Msg, p.State)
	})

	ep.Register(ProcQueryRaw, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p callParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return b.QueryRaw(ctx, p.Msg, p.State)
	})

	ep.Register(ProcRefresh, func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p callParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, err
		}
		return nil, b.Refresh(ctx, p.State)
	})
}
