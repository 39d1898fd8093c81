package compiler

import (
	"context"
	"fmt"
	"strings"

	"github.com/ownablekit/studio/errors"
)

// Simulated is a stand-in toolchain. It performs no real compilation
// but emits a decodable core-wasm module and a glue module, so every
// downstream consumer (packaging, content addressing, module loading)
// operates on structurally honest bytes. Output is a pure function of
// the job's sources.
type Simulated struct{}

// NewSimulated returns the simulated toolchain.
func NewSimulated() *Simulated {
	return &Simulated{}
}

// Compile validates the job, emits the module, and renders the glue
// bindings. Sub-phases report progress at 25/60/100.
func (s *Simulated) Compile(ctx context.Context, job Job) (Output, error) {
	if len(job.Sources) == 0 {
		return Output{}, errors.Compilation(nil, "no contract sources")
	}
	progress := job.OnProgress
	if progress == nil {
		progress = func(int) {}
	}

	// parse phase: reject sources that are plainly not source text
	for _, src := range job.Sources {
		if err := ctx.Err(); err != nil {
			return Output{}, errors.Compilation(err, "compilation cancelled")
		}
		if strings.TrimSpace(src.Content) == "" {
			return Output{}, errors.Compilation(nil, fmt.Sprintf("empty source file %s", src.Path))
		}
	}
	progress(25)

	binary := emitModule(job.Entry.Path)
	progress(60)

	bindings := renderGlue(job.Entry.Name)
	progress(100)

	return Output{
		Binary:   binary,
		Bindings: bindings,
		Diagnostics: []string{
			fmt.Sprintf("simulated build of %d source file(s), entry %s", len(job.Sources), job.Entry.Path),
		},
	}, nil
}

// renderGlue produces the bindings module: an ES module whose default
// export is an async initializer, matching what a real wasm-bindgen
// style toolchain emits for the package layout.
func renderGlue(entryName string) []byte {
	return fmt.Appendf(nil, `// Generated glue for %s. Do not edit.
let wasm;

export function instantiate(req) { return wasm.instantiate(req); }
export function execute(req) { return wasm.execute(req); }
export function external_event(req) { return wasm.external_event(req); }
export function query(req) { return wasm.query(req); }

export default async function init(module) {
  const instantiated = await WebAssembly.instantiate(module, {});
  wasm = instantiated.instance ? instantiated.instance.exports : instantiated.exports;
  return wasm;
}
`, entryName)
}
