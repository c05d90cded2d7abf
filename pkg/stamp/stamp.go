// Copyright 2025 The Wheelwright Authors
// SPDX-License-Identifier: Apache-2.0

// Package stamp resolves {KEY} build-stamp placeholders from workspace
// status files.
//
// A status file is line-oriented "key value" text, the value being
// everything after the first space. Placeholders with no corresponding key
// are left intact for the version normalizer's placeholder fallback.
package stamp

import (
	"bufio"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var placeholderRE = regexp.MustCompile(`\{(\w+)\}`)

// Statuses maps status keys to their values.
type Statuses map[string]string

// Parse reads "key value" lines. Blank lines are skipped; a key with no
// value maps to the empty string.
func Parse(r io.Reader) (Statuses, error) {
	statuses := make(Statuses)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		key, value, _ := strings.Cut(line, " ")
		// First definition wins across concatenated status sources.
		if _, ok := statuses[key]; !ok {
			statuses[key] = value
		}
	}
	return statuses, errors.Wrap(scanner.Err(), "reading status lines")
}

// ParseFiles parses the given status files in order into one Statuses.
// Earlier files take precedence for duplicate keys.
func ParseFiles(paths ...string) (Statuses, error) {
	merged := make(Statuses)
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, errors.Wrapf(err, "opening status file %s", path)
		}
		statuses, err := Parse(f)
		f.Close()
		if err != nil {
			return nil, errors.Wrapf(err, "parsing status file %s", path)
		}
		for key, value := range statuses {
			if _, ok := merged[key]; !ok {
				merged[key] = value
			}
		}
	}
	return merged, nil
}

// Resolve replaces every {key} token in arg with its status value,
// leaving unknown tokens untouched.
func (s Statuses) Resolve(arg string) string {
	return placeholderRE.ReplaceAllStringFunc(arg, func(token string) string {
		key := token[1 : len(token)-1]
		if value, ok := s[key]; ok {
			return value
		}
		return token
	})
}
