// Copyright 2025 The Wheelwright Authors
// SPDX-License-Identifier: Apache-2.0

package wheel

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// copyChunkSize bounds peak memory while streaming member content.
const copyChunkSize = 1 << 20

// ZipEpoch is the earliest date representable in a zip header, used as the
// fixed modification time of every member.
var ZipEpoch = time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC)

// HeaderOpts are the fixed header fields applied to every archive member.
// Two builds with identical logical inputs produce byte-identical headers
// regardless of host filesystem metadata.
type HeaderOpts struct {
	Modified time.Time
	Mode     os.FileMode
}

// DefaultHeaderOpts returns the standard reproducible header fields.
func DefaultHeaderOpts() HeaderOpts {
	return HeaderOpts{Modified: ZipEpoch, Mode: 0o777}
}

// Writer writes the members of a single wheel archive with deterministic
// headers, accumulating a RECORD entry per member. It wraps a zip.Writer by
// composition so the reproducibility rules stay isolated from the zip
// mechanics.
type Writer struct {
	zw            *zip.Writer
	distinfoDir   string // with trailing slash
	stripPrefixes []string
	opts          HeaderOpts
	record        RecordBuilder
	finalized     bool
	closed        bool
}

// NewWriter returns a Writer emitting the archive to w. distinfoDir is the
// dist-info directory name (no trailing slash); stripPrefixes are tried in
// order against each member path and the first match is removed.
func NewWriter(w io.Writer, distinfoDir string, stripPrefixes []string, opts HeaderOpts) *Writer {
	return &Writer{
		zw:            zip.NewWriter(w),
		distinfoDir:   distinfoDir + "/",
		stripPrefixes: stripPrefixes,
		opts:          opts,
	}
}

// arcname normalizes path separators and applies the prefix-strip rule.
// Members of the dist-info directory are synthesized, never caller-named,
// and are exempt from stripping.
func (w *Writer) arcname(path string) string {
	name := strings.ReplaceAll(path, string(os.PathSeparator), "/")
	if strings.HasPrefix(name, w.distinfoDir) {
		return strings.TrimLeft(name, "/")
	}
	for _, prefix := range w.stripPrefixes {
		if strings.HasPrefix(name, prefix) {
			name = name[len(prefix):]
			break
		}
	}
	return strings.TrimLeft(name, "/")
}

func (w *Writer) header(arcname string) *zip.FileHeader {
	hdr := &zip.FileHeader{
		Name:     arcname,
		Method:   zip.Deflate,
		Modified: w.opts.Modified,
	}
	// SetMode also marks the entry as created on a unix-like system.
	hdr.SetMode(w.opts.Mode)
	return hdr
}

func (w *Writer) writable() error {
	if w.closed {
		return errors.New("writer is closed")
	}
	if w.finalized {
		return errors.New("record already written")
	}
	return nil
}

// AddFile adds the file at sourcePath under archivePath. If sourcePath is a
// directory its children are added recursively; the directory itself gets
// no member. Content is streamed in bounded chunks with the digest computed
// during the same pass.
func (w *Writer) AddFile(archivePath, sourcePath string) error {
	if err := w.writable(); err != nil {
		return err
	}
	info, err := os.Stat(sourcePath)
	if err != nil {
		return errors.Wrapf(err, "stating %s", sourcePath)
	}
	if info.IsDir() {
		children, err := os.ReadDir(sourcePath)
		if err != nil {
			return errors.Wrapf(err, "listing %s", sourcePath)
		}
		for _, child := range children {
			err := w.AddFile(archivePath+"/"+child.Name(), filepath.Join(sourcePath, child.Name()))
			if err != nil {
				return err
			}
		}
		return nil
	}
	arcname := w.arcname(archivePath)
	f, err := os.Open(sourcePath)
	if err != nil {
		return errors.Wrapf(err, "opening %s", sourcePath)
	}
	defer f.Close()
	fw, err := w.zw.CreateHeader(w.header(arcname))
	if err != nil {
		return errors.Wrapf(err, "creating member %s", arcname)
	}
	h := NewRecordHash()
	size, err := io.CopyBuffer(io.MultiWriter(fw, h), f, make([]byte, copyChunkSize))
	if err != nil {
		return errors.Wrapf(err, "writing member %s", arcname)
	}
	w.record.Add(arcname, EncodeDigest(h), size)
	return nil
}

// AddString adds in-memory contents as the member at path. Synthesized
// members bypass prefix stripping: path is used as given.
func (w *Writer) AddString(path string, contents []byte) error {
	if err := w.writable(); err != nil {
		return err
	}
	arcname := strings.TrimLeft(path, "/")
	fw, err := w.zw.CreateHeader(w.header(arcname))
	if err != nil {
		return errors.Wrapf(err, "creating member %s", arcname)
	}
	if _, err := fw.Write(contents); err != nil {
		return errors.Wrapf(err, "writing member %s", arcname)
	}
	h := NewRecordHash()
	h.Write(contents)
	w.record.Add(arcname, EncodeDigest(h), int64(len(contents)))
	return nil
}

// AddRecord serializes the accumulated RECORD manifest and adds it as the
// final member at recordPath. No members may be added afterwards.
func (w *Writer) AddRecord(recordPath string) error {
	if err := w.writable(); err != nil {
		return err
	}
	contents := w.record.Bytes(recordPath)
	if err := w.AddString(recordPath, contents); err != nil {
		return err
	}
	w.finalized = true
	return nil
}

// Record returns the entries accumulated so far.
func (w *Writer) Record() []RecordEntry {
	return w.record.Entries()
}

// Close finishes the archive. Closed is terminal: Close is idempotent and
// no further members can be added.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return errors.Wrap(w.zw.Close(), "closing archive")
}
