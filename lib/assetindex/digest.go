// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package assetindex

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"hash"

	"github.com/zeebo/blake3"
)

// Algorithm selects the digest recorded in the index.
type Algorithm uint8

const (
	// AlgorithmNone disables digest checks. Sizes are still checked.
	AlgorithmNone Algorithm = iota

	// AlgorithmSHA256 is the digest published by the asset pipeline.
	AlgorithmSHA256

	// AlgorithmBLAKE3 is the unkeyed 32-byte BLAKE3 digest, for
	// indexes generated by tools that hash with BLAKE3.
	AlgorithmBLAKE3
)

// String returns the configuration name of the algorithm.
func (a Algorithm) String() string {
	switch a {
	case AlgorithmNone:
		return "none"
	case AlgorithmSHA256:
		return "sha256"
	case AlgorithmBLAKE3:
		return "blake3"
	default:
		return fmt.Sprintf("unknown(%d)", a)
	}
}

// ParseAlgorithm parses a configuration name. The empty string means
// AlgorithmSHA256.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "", "sha256":
		return AlgorithmSHA256, nil
	case "blake3":
		return AlgorithmBLAKE3, nil
	case "none":
		return AlgorithmNone, nil
	default:
		return 0, fmt.Errorf("unknown digest algorithm %q (want sha256, blake3, or none)", name)
	}
}

// New returns a streaming hash for the algorithm, or nil for
// AlgorithmNone.
func (a Algorithm) New() hash.Hash {
	switch a {
	case AlgorithmSHA256:
		return sha256.New()
	case AlgorithmBLAKE3:
		return blake3.New()
	default:
		return nil
	}
}

// Sum returns the lowercase hex digest of data, or "" for
// AlgorithmNone.
func (a Algorithm) Sum(data []byte) string {
	switch a {
	case AlgorithmSHA256:
		sum := sha256.Sum256(data)
		return hex.EncodeToString(sum[:])
	case AlgorithmBLAKE3:
		sum := blake3.Sum256(data)
		return hex.EncodeToString(sum[:])
	default:
		return ""
	}
}
