// Copyright 2025 The Wheelwright Authors
// SPDX-License-Identifier: Apache-2.0

package wheel

import (
	"fmt"
	"regexp"
	"strings"
)

const generatorName = "wheelwright 1.0"

var nameLineRE = regexp.MustCompile(`(?m)^Name: .*$`)

// WheelFileContents renders the WHEEL descriptor member.
func WheelFileContents(d *Distribution) string {
	var b strings.Builder
	b.WriteString("Wheel-Version: 1.0\n")
	b.WriteString("Generator: " + generatorName + "\n")
	fmt.Fprintf(&b, "Root-Is-Purelib: %t\n", d.RootIsPurelib())
	for _, tag := range d.Tags() {
		fmt.Fprintf(&b, "Tag: %s\n", tag)
	}
	return b.String()
}

// MetadataContents renders the METADATA member from the caller-supplied
// core-metadata text. The first Name: line is rewritten to the normalized
// name, a Version: line is appended, and the long description follows after
// a blank line. Setuptools records UNKNOWN when no description is given, so
// the same placeholder is used here.
//
// See https://packaging.python.org/specifications/core-metadata/
func MetadataContents(raw string, d *Distribution, description string) string {
	metadata := raw
	if loc := nameLineRE.FindStringIndex(metadata); loc != nil {
		metadata = metadata[:loc[0]] + "Name: " + d.MetadataName() + metadata[loc[1]:]
	}
	metadata += "Version: " + d.Version + "\n\n"
	if description == "" {
		description = "UNKNOWN"
	}
	return metadata + description + "\n"
}
