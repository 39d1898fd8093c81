// Package cid computes content identifiers for finished package
// artifacts: CIDv1 with the raw codec and a sha2-256 multihash, encoded
// as base32 multibase. Identical bytes always yield identical CIDs.
package cid

import (
	"os"

	gocid "github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"

	"github.com/ownablekit/studio/errors"
)

var builder = gocid.V1Builder{Codec: uint64(gocid.Raw), MhType: mh.SHA2_256}

// Compute returns the CID of the exact byte sequence. It is a pure
// function of data; no machine state is mixed in.
func Compute(data []byte) (string, error) {
	c, err := builder.Sum(data)
	if err != nil {
		return "", errors.Wrap(errors.PhaseAddress, errors.KindInvalidInput, err, "compute digest")
	}
	return c.String(), nil
}

// ComputeFile returns the CID of a file's contents.
func ComputeFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.IO(errors.PhaseAddress, err, "read "+path)
	}
	return Compute(data)
}

// Parse validates a CID string.
func Parse(s string) error {
	if _, err := gocid.Decode(s); err != nil {
		return errors.Wrap(errors.PhaseAddress, errors.KindInvalidInput, err, "decode cid")
	}
	return nil
}
