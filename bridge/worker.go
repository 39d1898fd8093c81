package bridge

import (
	"context"
	"time"

	studio "github.com/ownablekit/studio"
	"github.com/ownablekit/studio/errors"
)

// worker owns one VM instance on a dedicated goroutine. Requests are
// posted one at a time; responses are correlated purely by arrival
// order, so the owning bridge must never have two calls in flight.
type worker struct {
	vm    studio.VM
	calls chan workerCall
	done  chan struct{}
}

type workerCall struct {
	ctx   context.Context
	req   studio.WorkerRequest
	reply chan workerResult
}

type workerResult struct {
	resp studio.WorkerResponse
	err  error
}

func newWorker(vm studio.VM) *worker {
	w := &worker{
		vm:    vm,
		calls: make(chan workerCall),
		done:  make(chan struct{}),
	}
	go w.loop()
	return w
}

func (w *worker) loop() {
	defer close(w.done)
	for call := range w.calls {
		resp, err := w.vm.Handle(call.ctx, call.req)
		call.reply <- workerResult{resp: resp, err: err}
	}
	_ = w.vm.Close(context.Background())
}

// post sends one request and awaits its response. With a zero timeout
// the wait is unbounded, preserving the protocol's observed behavior; a
// positive timeout is the recommended hardening.
func (w *worker) post(ctx context.Context, op string, req studio.WorkerRequest, timeout time.Duration) (studio.WorkerResponse, error) {
	reply := make(chan workerResult, 1)

	select {
	case w.calls <- workerCall{ctx: ctx, req: req, reply: reply}:
	case <-w.done:
		return nil, errors.InvalidInput(errors.PhaseBridge, op+": worker is closed")
	case <-ctx.Done():
		return nil, errors.Wrap(errors.PhaseBridge, errors.KindIO, ctx.Err(), op)
	}

	var deadline <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		deadline = timer.C
	}

	select {
	case res := <-reply:
		return res.resp, res.err
	case <-deadline:
		return nil, errors.Timeout(op)
	case <-ctx.Done():
		return nil, errors.Wrap(errors.PhaseBridge, errors.KindIO, ctx.Err(), op)
	}
}

// close stops the loop. The in-flight call, if any, completes first.
func (w *worker) close() {
	close(w.calls)
	<-w.done
}
