package cid

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	studioerr "github.com/ownablekit/studio/errors"
)

func TestCompute_Deterministic(t *testing.T) {
	data := []byte("ownable package bytes")

	a, err := Compute(data)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compute(append([]byte(nil), data...))
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Errorf("same bytes produced different CIDs: %q vs %q", a, b)
	}
}

func TestCompute_ByteSensitive(t *testing.T) {
	a, err := Compute([]byte("package v1"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := Compute([]byte("package v2"))
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("different bytes produced the same CID")
	}
}

func TestCompute_Format(t *testing.T) {
	c, err := Compute([]byte{})
	if err != nil {
		t.Fatal(err)
	}
	// CIDv1 in base32 multibase always starts with "b".
	if !strings.HasPrefix(c, "b") {
		t.Errorf("CID %q is not base32 multibase", c)
	}
	if err := Parse(c); err != nil {
		t.Errorf("Parse rejected own output: %v", err)
	}
	if err := Parse("not-a-cid"); err == nil {
		t.Error("Parse accepted garbage")
	}
}

func TestComputeFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pkg.zip")
	if err := os.WriteFile(path, []byte("archive"), 0o644); err != nil {
		t.Fatal(err)
	}

	fromFile, err := ComputeFile(path)
	if err != nil {
		t.Fatal(err)
	}
	fromBytes, err := Compute([]byte("archive"))
	if err != nil {
		t.Fatal(err)
	}
	if fromFile != fromBytes {
		t.Errorf("file CID %q != bytes CID %q", fromFile, fromBytes)
	}

	_, err = ComputeFile(filepath.Join(t.TempDir(), "missing.zip"))
	if !errors.Is(err, studioerr.ErrIO) {
		t.Errorf("missing file error = %v, want io kind", err)
	}
}
