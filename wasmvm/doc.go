// Package wasmvm runs compiled contract binaries under wazero and
// exposes them through the studio.VM interface consumed by the bridge
// worker. Requests cross the guest boundary as JSON over a (ptr, len)
// calling convention; the guest's bindings manifest names the entry
// point for each request type along with the allocator pair the host
// uses to place request bytes in linear memory.
package wasmvm
