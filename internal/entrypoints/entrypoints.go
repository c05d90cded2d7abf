// Copyright 2025 The Wheelwright Authors
// SPDX-License-Identifier: Apache-2.0

// Package entrypoints parses and renders the entry_points.txt format, the
// INI dialect used by setuptools-style entry point listings.
package entrypoints

import (
	"bufio"
	"io"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// Entry is one entry point: a public name bound to an object reference
// such as "pkg.module:func".
type Entry struct {
	Name   string
	Target string
}

// Section is a named group of entry points, e.g. "console_scripts".
type Section struct {
	Name    string
	Entries []Entry
}

// Parse reads entry_points.txt content. The grammar is deliberately
// narrower than full INI: section headers, "name = target" pairs, blank
// lines, and #/; comments. Entries before any section header are an error,
// as are lines that parse as neither.
func Parse(r io.Reader) ([]Section, error) {
	var sections []Section
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' || line[0] == ';' {
			continue
		}
		if line[0] == '[' {
			end := strings.LastIndexByte(line, ']')
			if end <= 1 {
				return nil, errors.Errorf("line %d: malformed section header", lineNum)
			}
			sections = append(sections, Section{Name: strings.TrimSpace(line[1:end])})
			continue
		}
		name, target, ok := strings.Cut(line, "=")
		if !ok {
			return nil, errors.Errorf("line %d: expected name = target", lineNum)
		}
		if len(sections) == 0 {
			return nil, errors.Errorf("line %d: entry before any section", lineNum)
		}
		name = strings.TrimSpace(name)
		target = strings.TrimSpace(target)
		if name == "" || target == "" {
			return nil, errors.Errorf("line %d: empty entry name or target", lineNum)
		}
		last := &sections[len(sections)-1]
		last.Entries = append(last.Entries, Entry{Name: name, Target: target})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, "reading entry points")
	}
	return sections, nil
}

// Validate reports whether the content is well-formed entry_points.txt.
func Validate(r io.Reader) error {
	_, err := Parse(r)
	return err
}

// Render serializes sections deterministically: sections and their entries
// sorted by name, one blank line between sections, trailing newline.
func Render(sections []Section) string {
	ordered := make([]Section, len(sections))
	copy(ordered, sections)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].Name < ordered[j].Name })
	var b strings.Builder
	for i, section := range ordered {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("[" + section.Name + "]\n")
		entries := make([]Entry, len(section.Entries))
		copy(entries, section.Entries)
		sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
		for _, e := range entries {
			b.WriteString(e.Name + " = " + e.Target + "\n")
		}
	}
	return b.String()
}
