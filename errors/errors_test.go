package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhasePackage,
				Kind:   KindPackaging,
				Path:   []string{"assets", "icon.png"},
				Detail: "nested entry name",
			},
			contains: []string{"[package]", "packaging", "assets/icon.png", "nested entry name"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhaseBridge,
				Kind:  KindNotInitialized,
			},
			contains: []string{"[bridge]", "not_initialized"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseCompile,
				Kind:   KindCompilation,
				Detail: "entry point",
				Cause:  errors.New("syntax error"),
			},
			contains: []string{"[compile]", "compilation", "entry point", "caused by", "syntax error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Compilation(cause, "compile lib.rs")
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the cause")
	}
	if errors.Unwrap(err) != cause {
		t.Error("Unwrap should return the cause")
	}
}

func TestError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same phase and kind", Structure("no folder"), &Error{Phase: PhaseCollect, Kind: KindStructure}, true},
		{"kind sentinel matches any phase", IO(PhaseAddress, nil, "read"), ErrIO, true},
		{"different kind", Timeout("execute"), ErrModule, false},
		{"different phase", NotFound(PhaseStore, "project", "demo"), &Error{Phase: PhaseBridge, Kind: KindNotFound}, false},
		{"non-structured target", Structure("x"), errors.New("x"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := errors.Is(tt.err, tt.target); got != tt.want {
				t.Errorf("errors.Is() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConstructors(t *testing.T) {
	tests := []struct {
		name  string
		err   *Error
		phase Phase
		kind  Kind
	}{
		{"Structure", Structure("no files mapping"), PhaseCollect, KindStructure},
		{"Compilation", Compilation(nil, "x"), PhaseCompile, KindCompilation},
		{"NotInitialized", NotInitialized("execute"), PhaseBridge, KindNotInitialized},
		{"Module", Module("instantiate", "bad msg"), PhaseBridge, KindModule},
		{"Packaging", Packaging(nil, "zip"), PhasePackage, KindPackaging},
		{"Timeout", Timeout("query"), PhaseBridge, KindTimeout},
		{"NotFound", NotFound(PhaseStore, "blob", "x"), PhaseStore, KindNotFound},
		{"InvalidInput", InvalidInput(PhaseTransport, "no method"), PhaseTransport, KindInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Phase != tt.phase {
				t.Errorf("Phase = %q, want %q", tt.err.Phase, tt.phase)
			}
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %q, want %q", tt.err.Kind, tt.kind)
			}
		})
	}
}

func TestError_At(t *testing.T) {
	base := Packaging(nil, "nested name")
	got := base.At("src", "contract.rs")
	if len(base.Path) != 0 {
		t.Error("At must not mutate the receiver")
	}
	if !strings.Contains(got.Error(), "src/contract.rs") {
		t.Errorf("annotated error %q missing path", got.Error())
	}
}
