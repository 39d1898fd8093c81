package wasmvm

import (
	"context"
	"encoding/json"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	studio "github.com/ownablekit/studio"
	"github.com/ownablekit/studio/errors"
)

// VM hosts one instantiated contract module. It is owned by a single
// bridge worker and is not safe for concurrent use.
type VM struct {
	runtime  wazero.Runtime
	module   api.Module
	manifest Manifest
	alloc    api.Function
	dealloc  api.Function
	log      *zap.Logger
}

// Option configures a VM.
type Option func(*options)

type options struct {
	log              *zap.Logger
	memoryLimitPages uint32
}

// WithLogger attaches a zap logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMemoryLimitPages caps guest linear memory in 64KB pages.
// Zero keeps the runtime default.
func WithMemoryLimitPages(pages uint32) Option {
	return func(o *options) { o.memoryLimitPages = pages }
}

// New compiles and instantiates a contract binary. The bindings module
// is consulted for an entry-point manifest; generated glue without one
// gets the conventional export layout.
func New(ctx context.Context, bindings, binary []byte, opts ...Option) (*VM, error) {
	o := options{log: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}

	cfg := wazero.NewRuntimeConfig()
	if o.memoryLimitPages > 0 {
		cfg = cfg.WithMemoryLimitPages(o.memoryLimitPages)
	}
	runtime := wazero.NewRuntimeWithConfig(ctx, cfg)

	compiled, err := runtime.CompileModule(ctx, binary)
	if err != nil {
		runtime.Close(ctx)
		return nil, errors.Wrap(errors.PhaseBridge, errors.KindModule, err, "compile contract binary")
	}

	// Anonymous instance: one runtime per VM, so names carry nothing.
	module, err := runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		runtime.Close(ctx)
		return nil, errors.Wrap(errors.PhaseBridge, errors.KindModule, err, "instantiate contract binary")
	}

	manifest := ParseManifest(bindings)
	vm := &VM{
		runtime:  runtime,
		module:   module,
		manifest: manifest,
		alloc:    module.ExportedFunction(manifest.Allocate),
		dealloc:  module.ExportedFunction(manifest.Deallocate),
		log:      o.log,
	}
	return vm, nil
}

// Factory adapts New to the studio.VMFactory shape the bridge expects.
func Factory(opts ...Option) studio.VMFactory {
	return func(ctx context.Context, bindings, binary []byte) (studio.VM, error) {
		return New(ctx, bindings, binary, opts...)
	}
}

// Handle serializes the request into guest memory, invokes the entry
// point for its type, and decodes the guest's JSON reply. The entry
// point returns a packed u64: response pointer in the high 32 bits,
// byte length in the low 32.
func (vm *VM) Handle(ctx context.Context, req studio.WorkerRequest) (studio.WorkerResponse, error) {
	export, mapped := vm.manifest.Entries[req.Type]
	if !mapped {
		return nil, errors.NotFound(errors.PhaseBridge, "entry point for request type", req.Type)
	}
	fn := vm.module.ExportedFunction(export)
	if fn == nil {
		return nil, errors.NotFound(errors.PhaseBridge, "exported function", export)
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseBridge, errors.KindInvalidInput, err, "encode worker request")
	}

	ptr, err := vm.allocate(ctx, uint32(len(payload)))
	if err != nil {
		return nil, err
	}
	defer vm.deallocate(ctx, ptr, uint32(len(payload)))

	if !vm.module.Memory().Write(ptr, payload) {
		return nil, errors.Wrap(errors.PhaseBridge, errors.KindModule, nil, "request does not fit guest memory")
	}

	vm.log.Debug("guest call",
		zap.String("type", req.Type),
		zap.String("export", export),
		zap.Int("request_bytes", len(payload)))

	results, err := fn.Call(ctx, uint64(ptr), uint64(len(payload)))
	if err != nil {
		return nil, errors.Wrap(errors.PhaseBridge, errors.KindModule, err, "call "+export)
	}
	if len(results) != 1 {
		return nil, errors.Wrap(errors.PhaseBridge, errors.KindModule, nil, export+" returned no response handle")
	}

	outPtr := uint32(results[0] >> 32)
	outLen := uint32(results[0])
	reply, ok := vm.module.Memory().Read(outPtr, outLen)
	if !ok {
		return nil, errors.Wrap(errors.PhaseBridge, errors.KindModule, nil, "response handle out of bounds")
	}
	// Copy before the deallocation below can reclaim the region.
	replyCopy := make([]byte, len(reply))
	copy(replyCopy, reply)
	vm.deallocate(ctx, outPtr, outLen)

	var resp studio.WorkerResponse
	if err := json.Unmarshal(replyCopy, &resp); err != nil {
		return nil, errors.Wrap(errors.PhaseBridge, errors.KindModule, err, "decode worker response")
	}
	return resp, nil
}

// Close tears down the instance and its runtime.
func (vm *VM) Close(ctx context.Context) error {
	var firstErr error
	if vm.module != nil {
		if err := vm.module.Close(ctx); err != nil {
			firstErr = err
		}
		vm.module = nil
	}
	if vm.runtime != nil {
		if err := vm.runtime.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
		vm.runtime = nil
	}
	return firstErr
}

func (vm *VM) allocate(ctx context.Context, size uint32) (uint32, error) {
	if vm.alloc == nil {
		return 0, errors.NotFound(errors.PhaseBridge, "allocator export", vm.manifest.Allocate)
	}
	results, err := vm.alloc.Call(ctx, uint64(size))
	if err != nil {
		return 0, errors.Wrap(errors.PhaseBridge, errors.KindModule, err, "guest allocation failed")
	}
	if len(results) != 1 {
		return 0, errors.Wrap(errors.PhaseBridge, errors.KindModule, nil, "allocator returned no pointer")
	}
	return uint32(results[0]), nil
}

// deallocate is best effort: a guest without a free export just leaks
// into its own linear memory, which dies with the instance.
func (vm *VM) deallocate(ctx context.Context, ptr, size uint32) {
	if vm.dealloc == nil || ptr == 0 {
		return
	}
	if _, err := vm.dealloc.Call(ctx, uint64(ptr), uint64(size)); err != nil {
		vm.log.Warn("guest deallocation failed",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size),
			zap.Error(err))
	}
}

var _ studio.VM = (*VM)(nil)
