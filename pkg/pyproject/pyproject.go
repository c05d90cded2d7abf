// Copyright 2025 The Wheelwright Authors
// SPDX-License-Identifier: Apache-2.0

// Package pyproject reads distribution metadata from pyproject.toml files.
//
// Only the [project] table defined by PEP 621 is consumed; build-backend
// configuration is ignored.
package pyproject

import (
	"io"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/wheelwright/wheelwright/internal/entrypoints"
)

// Project is the subset of the PEP 621 [project] table used for wheel
// builds.
type Project struct {
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	Description string `toml:"description"`
	// Readme is either a path string or a table with "file"/"text" keys.
	Readme      any                          `toml:"readme"`
	Scripts     map[string]string            `toml:"scripts"`
	GUIScripts  map[string]string            `toml:"gui-scripts"`
	EntryPoints map[string]map[string]string `toml:"entry-points"`
}

// File is a parsed pyproject.toml.
type File struct {
	Project Project `toml:"project"`
}

// Parse decodes pyproject.toml content.
func Parse(r io.Reader) (*File, error) {
	var f File
	if err := toml.NewDecoder(r).Decode(&f); err != nil {
		return nil, errors.Wrap(err, "decoding pyproject.toml")
	}
	if f.Project.Name == "" {
		return nil, errors.New("pyproject.toml has no project.name")
	}
	return &f, nil
}

// Load reads and parses the pyproject.toml at path.
func Load(path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", path)
	}
	defer f.Close()
	parsed, err := Parse(f)
	return parsed, errors.Wrapf(err, "parsing %s", path)
}

// ReadmePath returns the on-disk readme path declared by the project, or
// empty when the readme is inline text or absent.
func (f *File) ReadmePath() string {
	switch readme := f.Project.Readme.(type) {
	case string:
		return readme
	case map[string]any:
		if file, ok := readme["file"].(string); ok {
			return file
		}
	}
	return ""
}

// ReadmeText returns inline readme text, or empty.
func (f *File) ReadmeText() string {
	if readme, ok := f.Project.Readme.(map[string]any); ok {
		if text, ok := readme["text"].(string); ok {
			return text
		}
	}
	return ""
}

// EntryPointsText renders an entry_points.txt listing from the project's
// scripts, gui-scripts, and entry-points tables. Returns empty when the
// project declares none.
func (f *File) EntryPointsText() string {
	var sections []entrypoints.Section
	appendSection := func(name string, entries map[string]string) {
		if len(entries) == 0 {
			return
		}
		section := entrypoints.Section{Name: name}
		for entryName, target := range entries {
			section.Entries = append(section.Entries, entrypoints.Entry{Name: entryName, Target: target})
		}
		sections = append(sections, section)
	}
	appendSection("console_scripts", f.Project.Scripts)
	appendSection("gui_scripts", f.Project.GUIScripts)
	for group, entries := range f.Project.EntryPoints {
		appendSection(group, entries)
	}
	if len(sections) == 0 {
		return ""
	}
	return entrypoints.Render(sections)
}
