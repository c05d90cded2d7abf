// Copyright 2025 The Wheelwright Authors
// SPDX-License-Identifier: Apache-2.0

package wheel

import (
	"os"
	"slices"
	"strings"

	"github.com/pkg/errors"
)

// PackageFile pairs a path inside the archive with its path on disk. The
// source may be a directory, which expands recursively when written.
type PackageFile struct {
	Archive string
	Source  string
}

// Metadata carries the descriptor inputs of a build.
type Metadata struct {
	// Raw is the core-metadata text before the Version line and
	// description are appended.
	Raw string
	// Description is the long-form description, or empty.
	Description string
	// EntryPointsPath is an on-disk entry_points.txt to embed, or empty.
	EntryPointsPath string
	// EntryPointsText is pre-rendered entry_points.txt content to embed,
	// used when the listing is synthesized rather than read from disk.
	// Mutually exclusive with EntryPointsPath.
	EntryPointsText string
	// ExtraFiles are additional dist-info members, named relative to the
	// dist-info directory. Sorted by name before insertion.
	ExtraFiles []PackageFile
}

// Builder sequences one wheel build: open archive, add sorted content
// files, add descriptor members, add RECORD, close.
type Builder struct {
	dist          *Distribution
	outPath       string
	stripPrefixes []string
	opts          HeaderOpts
}

// NewBuilder returns a Builder writing to outPath, or to the canonical
// wheel filename in the working directory when outPath is empty.
func NewBuilder(dist *Distribution, outPath string, stripPrefixes []string, opts HeaderOpts) *Builder {
	return &Builder{dist: dist, outPath: outPath, stripPrefixes: stripPrefixes, opts: opts}
}

// OutputPath returns the path the archive is written to.
func (b *Builder) OutputPath() string {
	if b.outPath != "" {
		return b.outPath
	}
	return b.dist.Filename()
}

// Build writes the complete archive. Nothing is retried: any failure aborts
// the build and removes the partial output, so no consumable archive exists
// unless every member was written and the archive closed.
func (b *Builder) Build(files []PackageFile, meta Metadata) (err error) {
	out := b.OutputPath()
	f, err := os.Create(out)
	if err != nil {
		return errors.Wrapf(err, "creating %s", out)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "closing %s", out)
		}
		if err != nil {
			os.Remove(out)
		}
	}()
	w := NewWriter(f, b.dist.DistinfoDir(), b.stripPrefixes, b.opts)
	if err := b.write(w, files, meta); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

func (b *Builder) write(w *Writer, files []PackageFile, meta Metadata) error {
	// Sort for reproducible member order regardless of discovery order.
	sorted := slices.Clone(files)
	slices.SortStableFunc(sorted, func(a, c PackageFile) int {
		return strings.Compare(a.Archive, c.Archive)
	})
	for _, pf := range sorted {
		if err := w.AddFile(pf.Archive, pf.Source); err != nil {
			return err
		}
	}
	wheelPath := b.dist.DistinfoPath("WHEEL")
	if err := w.AddString(wheelPath, []byte(WheelFileContents(b.dist))); err != nil {
		return err
	}
	metadataPath := b.dist.DistinfoPath("METADATA")
	if err := w.AddString(metadataPath, []byte(MetadataContents(meta.Raw, b.dist, meta.Description))); err != nil {
		return err
	}
	entryPointsPath := b.dist.DistinfoPath("entry_points.txt")
	switch {
	case meta.EntryPointsPath != "" && meta.EntryPointsText != "":
		return errors.New("both entry points path and text provided")
	case meta.EntryPointsPath != "":
		if err := w.AddFile(entryPointsPath, meta.EntryPointsPath); err != nil {
			return err
		}
	case meta.EntryPointsText != "":
		if err := w.AddString(entryPointsPath, []byte(meta.EntryPointsText)); err != nil {
			return err
		}
	}
	extras := slices.Clone(meta.ExtraFiles)
	slices.SortStableFunc(extras, func(a, c PackageFile) int {
		return strings.Compare(a.Archive, c.Archive)
	})
	for _, extra := range extras {
		if err := w.AddFile(b.dist.DistinfoPath(extra.Archive), extra.Source); err != nil {
			return err
		}
	}
	return w.AddRecord(b.dist.DistinfoPath("RECORD"))
}
