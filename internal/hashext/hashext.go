// Copyright 2025 The Wheelwright Authors
// SPDX-License-Identifier: Apache-2.0

// Package hashext provides extensions to the standard crypto/hash package.
package hashext

import (
	"crypto"
	"hash"
	"strings"
)

// TypedHash is a hash.Hash annotated with its algorithm.
type TypedHash struct {
	hash.Hash
	Algorithm crypto.Hash
}

// NewTypedHash constructs a new TypedHash.
func NewTypedHash(algo crypto.Hash) TypedHash {
	return TypedHash{Hash: algo.New(), Algorithm: algo}
}

// Name returns the lowercase, dashless name of the algorithm, the form
// used in wheel RECORD digests and PEP 503 hash fragments ("sha256").
func (h TypedHash) Name() string {
	return strings.ReplaceAll(strings.ToLower(h.Algorithm.String()), "-", "")
}
