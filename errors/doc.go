// Package errors provides structured error types for the studio pipeline.
//
// Errors are categorized by Phase (where the error occurred) and Kind
// (error category). Use the convenience constructors for common patterns:
//
//	err := errors.Structure("project has no folder")
//	err := errors.Module("execute", "insufficient funds")
//
// Kind sentinels support matching regardless of phase:
//
//	if errors.Is(err, errors.ErrNotInitialized) { ... }
//
// All errors implement the standard error interface and support
// errors.Is/As.
package errors
