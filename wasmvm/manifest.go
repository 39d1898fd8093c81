package wasmvm

import (
	"bytes"
	"encoding/json"

	studio "github.com/ownablekit/studio"
)

// Manifest describes the guest side of the call convention: which
// exported function serves each worker request type and which exports
// manage guest memory for host-written payloads.
type Manifest struct {
	Allocate   string            `json:"allocate"`
	Deallocate string            `json:"deallocate"`
	Entries    map[string]string `json:"entries"`
}

// DefaultManifest returns the conventional export layout used when the
// bindings module carries no manifest of its own.
func DefaultManifest() Manifest {
	return Manifest{
		Allocate:   "allocate",
		Deallocate: "deallocate",
		Entries: map[string]string{
			studio.RequestInstantiate:   "instantiate",
			studio.RequestExecute:       "execute",
			studio.RequestExternalEvent: "external_event",
			studio.RequestQuery:         "query",
		},
	}
}

// ParseManifest reads a manifest out of the package's bindings module.
// Bindings are usually generated JS glue, in which case the defaults
// apply; a JSON object overrides the defaults field by field.
func ParseManifest(bindings []byte) Manifest {
	m := DefaultManifest()

	trimmed := bytes.TrimSpace(bindings)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return m
	}
	var override Manifest
	if err := json.Unmarshal(trimmed, &override); err != nil {
		return m
	}

	if override.Allocate != "" {
		m.Allocate = override.Allocate
	}
	if override.Deallocate != "" {
		m.Deallocate = override.Deallocate
	}
	for typ, export := range override.Entries {
		m.Entries[typ] = export
	}
	return m
}
