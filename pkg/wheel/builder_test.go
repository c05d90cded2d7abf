// Copyright 2025 The Wheelwright Authors
// SPDX-License-Identifier: Apache-2.0

package wheel

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func buildWheel(t *testing.T, files []PackageFile, meta Metadata) (string, []byte) {
	t.Helper()
	d := must(NewDistribution("My.Pkg", "1.0-beta", "", "py3", "none", "any", DistributionOpts{}))
	out := filepath.Join(t.TempDir(), d.Filename())
	b := NewBuilder(d, out, []string{"src/"}, DefaultHeaderOpts())
	orDie(b.Build(files, meta))
	return out, must(os.ReadFile(out))
}

func TestBuildEndToEnd(t *testing.T) {
	dir := t.TempDir()
	modA := writeSourceFile(t, dir, "a.py", "a = 1\n")
	modB := writeSourceFile(t, dir, "b.py", "b = 2\n")
	meta := Metadata{
		Raw:         "Metadata-Version: 2.1\nName: placeholder\n",
		Description: "The description.",
	}

	out, content := buildWheel(t, []PackageFile{
		{Archive: "src/my_pkg/b.py", Source: modB},
		{Archive: "src/my_pkg/a.py", Source: modA},
	}, meta)

	if got := filepath.Base(out); got != "my-pkg-1.0b0-py3-none-any.whl" {
		t.Errorf("output filename = %q, expected canonical wheel name", got)
	}

	zr := must(zip.NewReader(bytes.NewReader(content), int64(len(content))))
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	want := []string{
		"my_pkg/a.py",
		"my_pkg/b.py",
		"my_pkg-1.0b0.dist-info/WHEEL",
		"my_pkg-1.0b0.dist-info/METADATA",
		"my_pkg-1.0b0.dist-info/RECORD",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("member names diff (-want +got):\n%s", diff)
	}

	// WHEEL member carries the purelib flag and tag.
	wheelContent := string(must(io.ReadAll(must(zr.File[2].Open()))))
	if !strings.Contains(wheelContent, "Root-Is-Purelib: true") {
		t.Errorf("WHEEL = %q, expected Root-Is-Purelib: true", wheelContent)
	}

	// RECORD lists every member in insertion order, self-reference last
	// with blank digest and size.
	recordContent := string(must(io.ReadAll(must(zr.File[4].Open()))))
	lines := strings.Split(strings.TrimSuffix(recordContent, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("RECORD has %d lines, expected 5:\n%s", len(lines), recordContent)
	}
	if lines[len(lines)-1] != "my_pkg-1.0b0.dist-info/RECORD,," {
		t.Errorf("RECORD self line = %q, expected blank digest and size", lines[len(lines)-1])
	}
	for _, line := range lines[:len(lines)-1] {
		fields := strings.Split(line, ",")
		if len(fields) != 3 || !strings.HasPrefix(fields[1], "sha256=") {
			t.Errorf("RECORD line %q, expected path,sha256=...,size", line)
		}
	}

	// Recorded digests match the exact bytes written per member.
	for i, f := range zr.File[:4] {
		memberContent := must(io.ReadAll(must(f.Open())))
		h := NewRecordHash()
		h.Write(memberContent)
		fields := strings.Split(lines[i], ",")
		if fields[0] != f.Name || fields[1] != EncodeDigest(h) {
			t.Errorf("RECORD line %d = %q, expected digest of %s", i, lines[i], f.Name)
		}
	}
}

func TestBuildDeterministicAcrossInputOrder(t *testing.T) {
	dir := t.TempDir()
	modA := writeSourceFile(t, dir, "a.py", "a = 1\n")
	modB := writeSourceFile(t, dir, "b.py", "b = 2\n")
	meta := Metadata{Raw: "Metadata-Version: 2.1\nName: x\n"}

	_, first := buildWheel(t, []PackageFile{
		{Archive: "src/my_pkg/a.py", Source: modA},
		{Archive: "src/my_pkg/b.py", Source: modB},
	}, meta)
	_, second := buildWheel(t, []PackageFile{
		{Archive: "src/my_pkg/b.py", Source: modB},
		{Archive: "src/my_pkg/a.py", Source: modA},
	}, meta)

	if !bytes.Equal(first, second) {
		t.Errorf("input discovery order changed the archive bytes")
	}
}

func TestBuildEntryPointsAndExtras(t *testing.T) {
	dir := t.TempDir()
	entryPoints := writeSourceFile(t, dir, "entry_points.txt", "[console_scripts]\ncli = my_pkg:main\n")
	license := writeSourceFile(t, dir, "LICENSE", "license text")
	notice := writeSourceFile(t, dir, "NOTICE", "notice text")

	_, content := buildWheel(t, nil, Metadata{
		Raw:             "Metadata-Version: 2.1\nName: x\n",
		EntryPointsPath: entryPoints,
		// Out of order; insertion must sort them.
		ExtraFiles: []PackageFile{
			{Archive: "NOTICE", Source: notice},
			{Archive: "LICENSE", Source: license},
		},
	})
	zr := must(zip.NewReader(bytes.NewReader(content), int64(len(content))))
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	want := []string{
		"my_pkg-1.0b0.dist-info/WHEEL",
		"my_pkg-1.0b0.dist-info/METADATA",
		"my_pkg-1.0b0.dist-info/entry_points.txt",
		"my_pkg-1.0b0.dist-info/LICENSE",
		"my_pkg-1.0b0.dist-info/NOTICE",
		"my_pkg-1.0b0.dist-info/RECORD",
	}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Errorf("member names diff (-want +got):\n%s", diff)
	}
}

func TestBuildDuplicateArchivePathsKept(t *testing.T) {
	dir := t.TempDir()
	modA := writeSourceFile(t, dir, "a.py", "a = 1\n")
	modB := writeSourceFile(t, dir, "b.py", "b = 2\n")

	// Duplicate archive paths are written twice, not deduplicated.
	_, content := buildWheel(t, []PackageFile{
		{Archive: "my_pkg/mod.py", Source: modA},
		{Archive: "my_pkg/mod.py", Source: modB},
	}, Metadata{Raw: "Metadata-Version: 2.1\nName: x\n"})
	zr := must(zip.NewReader(bytes.NewReader(content), int64(len(content))))
	var count int
	for _, f := range zr.File {
		if f.Name == "my_pkg/mod.py" {
			count++
		}
	}
	if count != 2 {
		t.Errorf("got %d members named my_pkg/mod.py, expected 2", count)
	}
}

func TestBuildFailureRemovesOutput(t *testing.T) {
	d := must(NewDistribution("pkg", "1.0", "", "py3", "none", "any", DistributionOpts{}))
	out := filepath.Join(t.TempDir(), d.Filename())
	b := NewBuilder(d, out, nil, DefaultHeaderOpts())

	err := b.Build([]PackageFile{{Archive: "pkg/missing.py", Source: "/does/not/exist"}}, Metadata{})
	if err == nil {
		t.Fatalf("Build() = nil, want error for missing source")
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Errorf("partial archive left behind at %s", out)
	}
}
