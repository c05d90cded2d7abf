// Copyright 2025 The Wheelwright Authors
// SPDX-License-Identifier: Apache-2.0

// Package pep440 implements the PEP 440 version specification.
package pep440

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Version is a parsed PEP 440 version.
//
// Post and Dev hold -1 when the corresponding segment is absent; a
// present segment with no explicit number holds 0.
type Version struct {
	Epoch   int
	Release []int
	Pre     string
	PreNum  int
	Post    int
	Dev     int
	Local   string
}

// Adapted from: https://packaging.python.org/en/latest/specifications/version-specifiers/#appendix-parsing-version-strings-with-regular-expressions
var versionRE = regexp.MustCompile(`(?i)^\s*v?` +
	`(?:(?P<Epoch>[0-9]+)!)?` +
	`(?P<Release>[0-9]+(?:\.[0-9]+)*)` +
	`(?:[-_.]?(?P<PreL>alpha|a|beta|b|preview|pre|c|rc)[-_.]?(?P<PreN>[0-9]+)?)?` +
	`(?:(?:-(?P<PostN1>[0-9]+))|(?:[-_.]?(?P<PostL>post|rev|r)[-_.]?(?P<PostN2>[0-9]+)?))?` +
	`(?:[-_.]?(?P<Dev>dev)[-_.]?(?P<DevN>[0-9]+)?)?` +
	`(?:\+(?P<Local>[a-z0-9]+(?:[-_.][a-z0-9]+)*))?\s*$`)

var preAliases = map[string]string{
	"alpha":   "a",
	"a":       "a",
	"beta":    "b",
	"b":       "b",
	"c":       "rc",
	"pre":     "rc",
	"preview": "rc",
	"rc":      "rc",
}

func Parse(s string) (Version, error) {
	matches := versionRE.FindStringSubmatch(s)
	if matches == nil {
		return Version{}, errors.Errorf("invalid version: %q", s)
	}
	v := Version{Post: -1, Dev: -1}
	if epoch := matches[versionRE.SubexpIndex("Epoch")]; epoch != "" {
		v.Epoch, _ = strconv.Atoi(epoch)
	}
	for _, part := range strings.Split(matches[versionRE.SubexpIndex("Release")], ".") {
		n, _ := strconv.Atoi(part)
		v.Release = append(v.Release, n)
	}
	if pre := matches[versionRE.SubexpIndex("PreL")]; pre != "" {
		v.Pre = preAliases[strings.ToLower(pre)]
		v.PreNum, _ = strconv.Atoi(matches[versionRE.SubexpIndex("PreN")])
	}
	if post := matches[versionRE.SubexpIndex("PostN1")]; post != "" {
		// Implicit post release, e.g. "1.0-1".
		v.Post, _ = strconv.Atoi(post)
	} else if matches[versionRE.SubexpIndex("PostL")] != "" {
		v.Post, _ = strconv.Atoi(matches[versionRE.SubexpIndex("PostN2")])
	}
	if matches[versionRE.SubexpIndex("Dev")] != "" {
		v.Dev, _ = strconv.Atoi(matches[versionRE.SubexpIndex("DevN")])
	}
	if local := matches[versionRE.SubexpIndex("Local")]; local != "" {
		v.Local = normalizeLocal(local)
	}
	return v, nil
}

var localSepRE = regexp.MustCompile(`[-_.]`)

// normalizeLocal lowercases the local segment, normalizes separators to
// periods, and strips leading zeros from purely numeric parts.
func normalizeLocal(local string) string {
	parts := localSepRE.Split(strings.ToLower(local), -1)
	for i, part := range parts {
		if n, err := strconv.Atoi(part); err == nil {
			parts[i] = strconv.Itoa(n)
		}
	}
	return strings.Join(parts, ".")
}

// String renders the canonical form of the version.
func (v Version) String() string {
	var b strings.Builder
	if v.Epoch > 0 {
		b.WriteString(strconv.Itoa(v.Epoch))
		b.WriteByte('!')
	}
	for i, n := range v.Release {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteString(strconv.Itoa(n))
	}
	if v.Pre != "" {
		b.WriteString(v.Pre)
		b.WriteString(strconv.Itoa(v.PreNum))
	}
	if v.Post >= 0 {
		b.WriteString(".post")
		b.WriteString(strconv.Itoa(v.Post))
	}
	if v.Dev >= 0 {
		b.WriteString(".dev")
		b.WriteString(strconv.Itoa(v.Dev))
	}
	if v.Local != "" {
		b.WriteByte('+')
		b.WriteString(v.Local)
	}
	return b.String()
}

// Canonicalize parses s and returns its canonical PEP 440 form.
func Canonicalize(s string) (string, error) {
	v, err := Parse(s)
	if err != nil {
		return "", err
	}
	return v.String(), nil
}
