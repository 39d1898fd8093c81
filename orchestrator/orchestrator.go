// Package orchestrator drives the build pipeline end to end: it
// validates the project, runs the builder, archives the artifact, and
// derives its content identifier. Observers receive full snapshots of
// step and log state rather than deltas, so a late subscriber always
// sees a coherent picture.
package orchestrator

import (
	"context"
	"os"
	"sync"

	"go.uber.org/zap"

	"github.com/ownablekit/studio/builder"
	"github.com/ownablekit/studio/cid"
	"github.com/ownablekit/studio/compiler"
	"github.com/ownablekit/studio/errors"
	"github.com/ownablekit/studio/project"
)

// Result is the output of a successful build.
type Result struct {
	Artifact *builder.Artifact
	Archive  []byte
	CID      string
	Filename string
}

// Orchestrator owns one builder and the build configuration. It is not
// safe for concurrent Build calls.
type Orchestrator struct {
	builder *builder.Builder
	cfg     builder.Config
	log     *zap.Logger

	scratchBase string

	mu      sync.Mutex
	steps   []builder.Step
	logs    []builder.LogEntry
	onSteps func([]builder.Step)
	onLogs  func([]builder.LogEntry)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger attaches a zap logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// WithScratchBase sets the parent directory for per-build scratch
// space. Defaults to the system temp directory.
func WithScratchBase(dir string) Option {
	return func(o *Orchestrator) { o.scratchBase = dir }
}

// New creates an Orchestrator around a compiler and a build config.
// Steps start out pending so observers can render the pipeline before
// the first build.
func New(c compiler.Compiler, cfg builder.Config, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:   cfg,
		log:   zap.NewNop(),
		steps: builder.NewSteps(),
	}
	for _, opt := range opts {
		opt(o)
	}

	o.builder = builder.New(c, builder.WithLogger(o.log))
	o.builder.OnStep(o.absorbStep)
	o.builder.OnLog(o.absorbLog)
	return o
}

// OnSteps sets the step-snapshot callback, replacing any previous one.
// The callback receives a copy of the full ordered step list on every
// step change.
func (o *Orchestrator) OnSteps(fn func([]builder.Step)) {
	o.mu.Lock()
	o.onSteps = fn
	o.mu.Unlock()
}

// OnLogs sets the log-snapshot callback, replacing any previous one.
func (o *Orchestrator) OnLogs(fn func([]builder.LogEntry)) {
	o.mu.Lock()
	o.onLogs = fn
	o.mu.Unlock()
}

// Steps returns a copy of the current step list.
func (o *Orchestrator) Steps() []builder.Step {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]builder.Step(nil), o.steps...)
}

// Logs returns a copy of the accumulated build log.
func (o *Orchestrator) Logs() []builder.LogEntry {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]builder.LogEntry(nil), o.logs...)
}

// State returns the underlying build state.
func (o *Orchestrator) State() builder.State {
	return o.builder.State()
}

// Build runs the pipeline against a project and, on success, archives
// the artifact and computes its content identifier. Scratch space is
// created before the build and removed on every path out; a cleanup
// failure is logged but never masks the build outcome.
func (o *Orchestrator) Build(ctx context.Context, p *project.Project) (*Result, error) {
	o.reset()

	scratch, err := os.MkdirTemp(o.scratchBase, "ownable-build-")
	if err != nil {
		return nil, errors.IO(errors.PhasePackage, err, "create scratch directory")
	}
	defer func() {
		if rmErr := os.RemoveAll(scratch); rmErr != nil {
			o.log.Warn("scratch cleanup failed",
				zap.String("dir", scratch),
				zap.Error(rmErr))
		}
	}()

	// rejected up front so no step ever reports running on bad input
	if err := builder.ValidateStructure(p); err != nil {
		return nil, err
	}

	art, err := o.builder.Build(ctx, p, o.cfg)
	if err != nil {
		return nil, err
	}

	archive, err := art.Archive()
	if err != nil {
		return nil, err
	}
	id, err := cid.Compute(archive)
	if err != nil {
		return nil, err
	}

	o.log.Info("build complete",
		zap.String("package", o.cfg.PackageName),
		zap.String("cid", id),
		zap.Int("archive_bytes", len(archive)))

	return &Result{
		Artifact: art,
		Archive:  archive,
		CID:      id,
		Filename: art.Filename,
	}, nil
}

// reset clears accumulated state for a fresh build.
func (o *Orchestrator) reset() {
	o.mu.Lock()
	o.steps = builder.NewSteps()
	o.logs = nil
	o.mu.Unlock()
}

// absorbStep folds a step update into the ordered snapshot and emits a
// copy to the observer.
func (o *Orchestrator) absorbStep(step builder.Step) {
	o.mu.Lock()
	for i := range o.steps {
		if o.steps[i].ID == step.ID {
			o.steps[i] = step
			break
		}
	}
	snapshot := append([]builder.Step(nil), o.steps...)
	fn := o.onSteps
	o.mu.Unlock()

	if fn != nil {
		fn(snapshot)
	}
}

func (o *Orchestrator) absorbLog(entry builder.LogEntry) {
	o.mu.Lock()
	o.logs = append(o.logs, entry)
	snapshot := append([]builder.LogEntry(nil), o.logs...)
	fn := o.onLogs
	o.mu.Unlock()

	if fn != nil {
		fn(snapshot)
	}
}
