package builder

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ownablekit/studio/compiler"
	"github.com/ownablekit/studio/errors"
	"github.com/ownablekit/studio/project"
	"github.com/ownablekit/studio/schema"
)

// Config is the per-build input. It has no identity; supply a fresh one
// per build.
type Config struct {
	PackageName string `json:"packageName" yaml:"package_name"`
	Version     string `json:"version" yaml:"version"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// Builder transforms a project tree into a flat, loadable package
// through five strictly ordered steps, reporting progress through
// replace-on-set step and log callbacks. Builds run sequentially; a
// Builder is not safe for concurrent Build calls. Everything happens in
// memory; no working directories are created.
type Builder struct {
	compiler compiler.Compiler
	log      *zap.Logger

	onStep func(Step)
	onLog  func(LogEntry)

	steps map[StepID]*Step
	state State
}

// Option configures a Builder.
type Option func(*Builder)

// WithLogger attaches a zap logger. Defaults to a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(b *Builder) { b.log = log }
}

// New creates a Builder around the given compilation collaborator.
func New(c compiler.Compiler, opts ...Option) *Builder {
	b := &Builder{
		compiler: c,
		log:      zap.NewNop(),
		state:    StateIdle,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// OnStep sets the step-update callback, replacing any previous one.
func (b *Builder) OnStep(fn func(Step)) { b.onStep = fn }

// OnLog sets the log callback, replacing any previous one.
func (b *Builder) OnLog(fn func(LogEntry)) { b.onLog = fn }

// State returns the current build state.
func (b *Builder) State() State { return b.state }

// Build runs the full pipeline: collect, compile, schema,
// finalize-bindings, package. A step failure stops the pipeline; steps
// already completed keep their success status for diagnostics. A failed
// build is not retried; call Build again to restart from idle.
func (b *Builder) Build(ctx context.Context, p *project.Project, cfg Config) (*Artifact, error) {
	b.state = StateIdle
	b.steps = map[StepID]*Step{}
	for _, s := range NewSteps() {
		step := s
		b.steps[s.ID] = &step
	}

	// Structure precondition: rejected before any step reports running.
	if err := ValidateStructure(p); err != nil {
		b.state = StateError
		b.logf(LevelError, "%v", err)
		return nil, err
	}

	// collect
	b.state = StateCollecting
	b.start(StepCollect)
	bk := collect(p)
	b.logf(LevelInfo, "collected %d source, %d config, %d asset file(s)",
		len(bk.Sources), len(bk.Configs), len(bk.Assets))
	b.finish(StepCollect, fmt.Sprintf("%d files", p.Folder.FileCount()))

	// compile
	b.state = StateCompiling
	b.start(StepCompile)
	entry, ok := compiler.SelectEntry(bk.Sources)
	if !ok {
		return nil, b.fail(StepCompile, errors.Compilation(nil, "project has no contract sources"))
	}
	b.logf(LevelInfo, "compiling with entry point %s", entry.Path)
	out, err := b.compiler.Compile(ctx, compiler.Job{
		Entry:   entry,
		Sources: bk.Sources,
		OnProgress: func(pct int) {
			b.progress(StepCompile, pct)
		},
	})
	if err != nil {
		return nil, b.fail(StepCompile, err)
	}
	for _, d := range out.Diagnostics {
		b.logf(LevelInfo, "%s", d)
	}
	b.finish(StepCompile, fmt.Sprintf("%d byte module", len(out.Binary)))

	// schema
	b.state = StateSchemas
	b.start(StepSchema)
	docs := schema.Documents()
	done := 0
	for range docs {
		done++
		b.progress(StepSchema, done*100/len(docs))
	}
	b.finish(StepSchema, fmt.Sprintf("%d documents", len(docs)))

	// finalize-bindings: reporting checkpoint only
	b.state = StateFinalizing
	b.start(StepBindings)
	b.finish(StepBindings, "bindings finalized")

	// package
	b.state = StatePackaging
	b.start(StepPackage)
	art, err := b.assemble(p, cfg, bk, out, docs)
	if err != nil {
		return nil, b.fail(StepPackage, err)
	}
	b.finish(StepPackage, fmt.Sprintf("%d entries", art.Len()))

	b.state = StateSuccess
	b.logf(LevelInfo, "package %s assembled", art.Filename)
	return art, nil
}

// ValidateStructure checks the build precondition: a project must carry
// a folder with a files mapping.
func ValidateStructure(p *project.Project) error {
	switch {
	case p == nil:
		return errors.Structure("no project")
	case p.Folder == nil:
		return errors.Structure("project has no folder")
	case p.Folder.Files == nil:
		return errors.Structure("project folder has no files mapping")
	}
	return nil
}

func (b *Builder) assemble(p *project.Project, cfg Config, bk *buckets, out compiler.Output, docs map[string][]byte) (*Artifact, error) {
	art := NewArtifact()
	art.Filename = fmt.Sprintf("%s-%s.zip", cfg.PackageName, cfg.Version)

	art.Put("ownable_bg.wasm", out.Binary)
	art.Put("ownable.js", out.Bindings)
	for name, doc := range docs {
		art.Put(name, doc)
	}

	// index.html: project-supplied anywhere in the tree wins, then the
	// first HTML-suffixed asset, then a generated shell.
	shell := p.Folder.Find(func(f *project.File) bool { return f.Name == "index.html" })
	if shell == nil {
		for _, f := range bk.Assets {
			if strings.HasSuffix(f.Name, ".html") {
				shell = f
				break
			}
		}
	}
	if shell != nil {
		art.Put("index.html", []byte(shell.Content))
	} else {
		art.Put("index.html", generatedShell(cfg))
	}

	// config.json: project-supplied wins over the generated default.
	if f := bk.findConfig("config.json"); f != nil {
		art.Put("config.json", []byte(f.Content))
	} else {
		art.Put("config.json", schema.DefaultConfig(cfg.PackageName, cfg.Description))
	}

	// asset payloads ride along, flattened to their base names
	for _, f := range bk.Assets {
		if f.Name == "index.html" || (shell != nil && f.Path == shell.Path) {
			continue
		}
		art.Put(f.Path, assetBytes(f))
	}

	// package metadata: name, version, license, manifest, entry module
	manifest := art.Names()
	pkg, err := json.MarshalIndent(map[string]any{
		"name":        "ownable-" + cfg.PackageName,
		"version":     cfg.Version,
		"description": cfg.Description,
		"license":     "MIT",
		"files":       manifest,
		"module":      "ownable.js",
		"sideEffects": false,
	}, "", "  ")
	if err != nil {
		return nil, errors.Packaging(err, "render package.json")
	}
	art.Put("package.json", pkg)

	lock, err := json.MarshalIndent(map[string]any{
		"name":            "ownable-" + cfg.PackageName,
		"version":         cfg.Version,
		"lockfileVersion": 2,
		"requires":        true,
		"packages":        map[string]any{},
	}, "", "  ")
	if err != nil {
		return nil, errors.Packaging(err, "render package-lock.json")
	}
	art.Put("package-lock.json", lock)

	// verification-and-repair: collection may have produced nested
	// names; none may reach the final artifact
	if repaired := art.VerifyFlat(); len(repaired) > 0 {
		b.logf(LevelWarning, "flattened nested entries: %s", strings.Join(repaired, ", "))
	}
	return art, nil
}

// assetBytes decodes a file's content per its declared encoding: plain
// text, base64, or a data-URL.
func assetBytes(f *project.File) []byte {
	if !f.Type.Binary() {
		return []byte(f.Content)
	}
	content := f.Content
	if strings.HasPrefix(content, "data:") {
		if idx := strings.Index(content, "base64,"); idx >= 0 {
			content = content[idx+len("base64,"):]
		}
	}
	data, err := base64.StdEncoding.DecodeString(content)
	if err != nil {
		// not actually encoded; ship the raw bytes
		return []byte(f.Content)
	}
	return data
}

func generatedShell(cfg Config) []byte {
	return fmt.Appendf(nil, `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>%s</title>
</head>
<body>
  <div id="ownable"></div>
  <script type="module">
    import init from "./ownable.js";
    init(fetch("./ownable_bg.wasm"));
  </script>
</body>
</html>
`, cfg.PackageName)
}

// start marks a step running and emits it.
func (b *Builder) start(id StepID) {
	step := b.steps[id]
	if step.Status.terminal() {
		return
	}
	step.Status = StatusRunning
	b.emit(*step)
}

// progress updates a running step's progress and emits it.
func (b *Builder) progress(id StepID, pct int) {
	step := b.steps[id]
	if step.Status != StatusRunning {
		return
	}
	step.Progress = pct
	b.emit(*step)
}

// finish marks a step successful. Terminal statuses never regress.
func (b *Builder) finish(id StepID, msg string) {
	step := b.steps[id]
	if step.Status.terminal() {
		return
	}
	step.Status = StatusSuccess
	step.Message = msg
	step.Progress = 100
	b.emit(*step)
}

// fail marks the step as errored, moves the build to the error state,
// and returns the error for propagation. Later steps stay pending.
func (b *Builder) fail(id StepID, err error) error {
	step := b.steps[id]
	if !step.Status.terminal() {
		step.Status = StatusError
		step.Message = err.Error()
		b.emit(*step)
	}
	b.state = StateError
	b.logf(LevelError, "%v", err)
	return err
}

func (b *Builder) emit(step Step) {
	b.log.Debug("step update",
		zap.String("step", string(step.ID)),
		zap.String("status", string(step.Status)),
		zap.Int("progress", step.Progress))
	if b.onStep != nil {
		b.onStep(step)
	}
}

func (b *Builder) logf(level LogLevel, format string, args ...any) {
	entry := LogEntry{
		Time:    time.Now(),
		Level:   level,
		Message: fmt.Sprintf(format, args...),
	}
	switch level {
	case LevelError:
		b.log.Error(entry.Message)
	case LevelWarning:
		b.log.Warn(entry.Message)
	default:
		b.log.Info(entry.Message)
	}
	if b.onLog != nil {
		b.onLog(entry)
	}
}
