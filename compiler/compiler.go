// Package compiler defines the compilation collaborator boundary of the
// build pipeline. The pipeline itself never fabricates module bytes; it
// hands contract sources to a Compiler and packages whatever comes
// back. Simulated provides a stand-in toolchain for development and
// tests.
package compiler

import (
	"context"
	"strings"
)

// Source is one contract source file handed to the compiler.
type Source struct {
	Name    string
	Path    string
	Content string
}

// Output is the result of a successful compilation: the binary module,
// the glue/bindings module that exposes its exports, and any
// non-fatal diagnostics.
type Output struct {
	Binary      []byte
	Bindings    []byte
	Diagnostics []string
}

// Job is a single compilation request. OnProgress, when set, receives
// fractional progress (0-100) as sub-phases complete.
type Job struct {
	Entry      Source
	Sources    []Source
	OnProgress func(percent int)
}

// Compiler turns contract sources into a loadable module. A failure is
// fatal to the enclosing build; no partial output is used.
type Compiler interface {
	Compile(ctx context.Context, job Job) (Output, error)
}

// SelectEntry picks the source file to treat as the program entry
// point: a file whose name carries the conventional library or main
// marker wins, otherwise the first source encountered.
func SelectEntry(sources []Source) (Source, bool) {
	if len(sources) == 0 {
		return Source{}, false
	}
	for _, marker := range []string{"lib.rs", "main.rs"} {
		for _, s := range sources {
			if strings.HasSuffix(s.Name, marker) {
				return s, true
			}
		}
	}
	return sources[0], true
}
