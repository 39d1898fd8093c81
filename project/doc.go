// Package project defines the in-memory model of an ownable project: a
// named folder tree of typed files plus an asset index. The build
// pipeline reads this model; editing and persistence live elsewhere.
package project
