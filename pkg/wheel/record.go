// Copyright 2025 The Wheelwright Authors
// SPDX-License-Identifier: Apache-2.0

package wheel

import (
	"bytes"
	"crypto"
	_ "crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/wheelwright/wheelwright/internal/hashext"
)

// RecordEntry is one line of the RECORD integrity manifest.
type RecordEntry struct {
	Path   string
	Digest string
	Size   int64
}

// NewRecordHash returns the hash used for RECORD digests.
func NewRecordHash() hashext.TypedHash {
	return hashext.NewTypedHash(crypto.SHA256)
}

// EncodeDigest serializes a finalized hash in the PEP 376 RECORD form:
// urlsafe base64 with trailing "=" removed, prefixed by the algorithm name.
func EncodeDigest(h hashext.TypedHash) string {
	return h.Name() + "=" + base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// RecordBuilder accumulates one entry per archive member, in insertion
// order, and serializes the RECORD manifest. Ordering reproducibility is
// the caller's concern: entries are emitted exactly as recorded.
type RecordBuilder struct {
	entries []RecordEntry
}

// Add records one archive member.
func (r *RecordBuilder) Add(path, digest string, size int64) {
	r.entries = append(r.entries, RecordEntry{Path: path, Digest: digest, Size: size})
}

// Entries returns the recorded entries.
func (r *RecordBuilder) Entries() []RecordEntry {
	return r.entries
}

// Bytes serializes the manifest, ending with a self-referential line for
// recordPath whose digest and size are blank: the manifest cannot contain
// its own hash.
func (r *RecordBuilder) Bytes(recordPath string) []byte {
	var buf bytes.Buffer
	for _, e := range r.entries {
		fmt.Fprintf(&buf, "%s,%s,%d\n", strings.TrimLeft(e.Path, "/"), e.Digest, e.Size)
	}
	fmt.Fprintf(&buf, "%s,,\n", strings.TrimLeft(recordPath, "/"))
	return buf.Bytes()
}
