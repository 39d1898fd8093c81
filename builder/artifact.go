package builder

import (
	"archive/zip"
	"bytes"
	"sort"
	"strings"

	"github.com/ownablekit/studio/errors"
)

// Artifact is the flat set of named byte blobs produced by a build. The
// consuming runtime expects a flat root: entry names must never contain
// a path separator. Put flattens at insertion; VerifyFlat is the
// post-assembly repair pass for anything that slipped through.
type Artifact struct {
	Filename string // suggested archive filename

	entries map[string][]byte
}

// NewArtifact returns an empty artifact.
func NewArtifact() *Artifact {
	return &Artifact{entries: map[string][]byte{}}
}

// Put inserts a blob under the base filename of name, flattening any
// directory prefix. Existing entries with the same base name are
// replaced.
func (a *Artifact) Put(name string, data []byte) {
	a.entries[baseName(name)] = data
}

// Get returns the blob stored under name, or nil.
func (a *Artifact) Get(name string) []byte {
	return a.entries[name]
}

// Has reports whether an entry exists under name.
func (a *Artifact) Has(name string) bool {
	_, ok := a.entries[name]
	return ok
}

// Names returns all entry names, sorted.
func (a *Artifact) Names() []string {
	names := make([]string, 0, len(a.entries))
	for name := range a.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Len returns the entry count.
func (a *Artifact) Len() int {
	return len(a.entries)
}

// VerifyFlat re-inserts any entry whose name still carries a path
// separator under its base filename and removes the nested entry.
// Upstream collection may legitimately produce nested paths; they must
// never reach the final artifact.
func (a *Artifact) VerifyFlat() (repaired []string) {
	for name, data := range a.entries {
		if !strings.Contains(name, "/") {
			continue
		}
		delete(a.entries, name)
		a.entries[baseName(name)] = data
		repaired = append(repaired, name)
	}
	sort.Strings(repaired)
	return repaired
}

// Archive assembles the artifact into a zip blob. Entries are written
// in sorted order with zeroed timestamps so identical contents always
// produce identical archive bytes. Any nested name still present is
// repaired first; flatness is a hard packaging contract.
func (a *Artifact) Archive() ([]byte, error) {
	a.VerifyFlat()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for _, name := range a.Names() {
		hdr := &zip.FileHeader{Name: name, Method: zip.Deflate}
		f, err := w.CreateHeader(hdr)
		if err != nil {
			return nil, errors.Packaging(err, "create archive entry "+name)
		}
		if _, err := f.Write(a.entries[name]); err != nil {
			return nil, errors.Packaging(err, "write archive entry "+name)
		}
	}
	if err := w.Close(); err != nil {
		return nil, errors.Packaging(err, "finalize archive")
	}
	return buf.Bytes(), nil
}

func baseName(name string) string {
	name = strings.TrimSuffix(name, "/")
	if idx := strings.LastIndexByte(name, '/'); idx >= 0 {
		return name[idx+1:]
	}
	return name
}
