package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the pipeline the error occurred
type Phase string

const (
	PhaseCollect   Phase = "collect"   // project tree collection
	PhaseCompile   Phase = "compile"   // contract compilation
	PhaseSchema    Phase = "schema"    // schema generation
	PhasePackage   Phase = "package"   // artifact assembly
	PhaseAddress   Phase = "address"   // content addressing
	PhaseBridge    Phase = "bridge"    // module host bridge
	PhaseTransport Phase = "transport" // RPC channel
	PhaseStore     Phase = "store"     // persistence
)

// Kind categorizes the error
type Kind string

const (
	KindStructure      Kind = "structure"       // malformed or incomplete project input
	KindCompilation    Kind = "compilation"     // compiler rejected the sources
	KindNotInitialized Kind = "not_initialized" // bridge call before init
	KindModule         Kind = "module"          // hosted module rejected a call
	KindPackaging      Kind = "packaging"       // flatten or archive assembly failure
	KindIO             Kind = "io"              // read/write failure
	KindTimeout        Kind = "timeout"         // worker call deadline exceeded
	KindInvalidInput   Kind = "invalid_input"
	KindNotFound       Kind = "not_found"
)

// Error is the structured error type used throughout the module
type Error struct {
	Cause  error
	Phase  Phase
	Kind   Kind
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "/"))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. Two Errors match when
// their Phase and Kind agree; a zero Phase in target matches any phase.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && e.Phase != t.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Sentinels for errors.Is checks against a kind regardless of phase.
var (
	ErrStructure      = &Error{Kind: KindStructure}
	ErrCompilation    = &Error{Kind: KindCompilation}
	ErrNotInitialized = &Error{Kind: KindNotInitialized}
	ErrModule         = &Error{Kind: KindModule}
	ErrPackaging      = &Error{Kind: KindPackaging}
	ErrIO             = &Error{Kind: KindIO}
	ErrTimeout        = &Error{Kind: KindTimeout}
	ErrNotFound       = &Error{Kind: KindNotFound}
)

// Convenience constructors for common error patterns

// Structure creates a malformed-project error
func Structure(detail string, args ...any) *Error {
	return &Error{
		Phase:  PhaseCollect,
		Kind:   KindStructure,
		Detail: sprintf(detail, args...),
	}
}

// Compilation creates a fatal compilation error
func Compilation(cause error, detail string) *Error {
	return &Error{
		Phase:  PhaseCompile,
		Kind:   KindCompilation,
		Detail: detail,
		Cause:  cause,
	}
}

// NotInitialized creates an error for a bridge call made before init
func NotInitialized(op string) *Error {
	return &Error{
		Phase:  PhaseBridge,
		Kind:   KindNotInitialized,
		Detail: fmt.Sprintf("%s called before init", op),
	}
}

// Module wraps an error string reported by the hosted module itself
func Module(op, moduleErr string) *Error {
	return &Error{
		Phase:  PhaseBridge,
		Kind:   KindModule,
		Detail: fmt.Sprintf("%s rejected by module: %s", op, moduleErr),
	}
}

// Packaging creates an artifact-assembly error
func Packaging(cause error, detail string) *Error {
	return &Error{
		Phase:  PhasePackage,
		Kind:   KindPackaging,
		Detail: detail,
		Cause:  cause,
	}
}

// IO creates a read/write error
func IO(phase Phase, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindIO,
		Detail: detail,
		Cause:  cause,
	}
}

// Timeout creates a worker-call deadline error
func Timeout(op string) *Error {
	return &Error{
		Phase:  PhaseBridge,
		Kind:   KindTimeout,
		Detail: fmt.Sprintf("%s: no response from worker before deadline", op),
	}
}

// NotFound creates a not-found error
func NotFound(phase Phase, what, name string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindNotFound,
		Detail: fmt.Sprintf("%s %q not found", what, name),
	}
}

// InvalidInput creates an invalid input error
func InvalidInput(phase Phase, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidInput,
		Detail: detail,
	}
}

// Wrap wraps an existing error with phase and kind context
func Wrap(phase Phase, kind Kind, cause error, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   kind,
		Detail: detail,
		Cause:  cause,
	}
}

// At returns a copy of the error annotated with a path
func (e *Error) At(path ...string) *Error {
	dup := *e
	dup.Path = path
	return &dup
}

func sprintf(format string, args ...any) string {
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
