// Package builder implements the package build pipeline: it transforms
// a project's folder tree into a flat, content-addressable ownable
// package through five strictly ordered steps (collect, compile,
// schema, finalize-bindings, package), reporting step transitions and
// log lines through registered callbacks as it goes.
package builder
