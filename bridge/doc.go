// Package bridge hosts a compiled contract module behind an isolation
// boundary. One bridge owns one worker goroutine which exclusively owns
// one VM instance; the parent context reaches the bridge through named
// remote procedures (init, instantiate, execute, externalEvent, query,
// queryRaw, refresh) registered on an rpcchan endpoint.
//
// The bridge retains no contract state: instantiate, execute, and
// externalEvent return an opaque state snapshot the caller must persist
// and thread back into the next call. Worker calls are strictly
// serialized; responses are correlated by arrival order only.
package bridge
