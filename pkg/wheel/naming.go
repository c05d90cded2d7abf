// Copyright 2025 The Wheelwright Authors
// SPDX-License-Identifier: Apache-2.0

// Package wheel builds reproducible Python wheel archives.
package wheel

import (
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/wheelwright/wheelwright/internal/pep440"
)

var (
	nameSepRE      = regexp.MustCompile(`[-_.]+`)
	legacyEscapeRE = regexp.MustCompile(`[^A-Za-z0-9._]+`)
	sanitizeRE     = regexp.MustCompile(`[^a-z0-9]+`)
	placeholderRE  = regexp.MustCompile(`\{\w+\}`)
)

// NormalizeName normalizes a distribution name.
//
// See https://packaging.python.org/en/latest/specifications/name-normalization/
func NormalizeName(name string) string {
	return strings.ToLower(nameSepRE.ReplaceAllString(name, "-"))
}

// EscapeName escapes the distribution name component of a filename.
//
// See https://packaging.python.org/en/latest/specifications/binary-distribution-format/#escaping-and-unicode
func EscapeName(name string) string {
	return strings.ReplaceAll(NormalizeName(name), "-", "_")
}

// LegacyEscapeSegment escapes a filename segment per the original PEP 427
// rules. Retained for the legacy naming mode where the dist-info directory
// is escaped but the wheel filename is not.
func LegacyEscapeSegment(segment string) string {
	return legacyEscapeRE.ReplaceAllString(segment, "_")
}

// NormalizeVersion canonicalizes version per PEP 440, with fallback for
// placeholders.
//
// If version contains an unresolved stamp placeholder such as
// {BUILD_TIMESTAMP}, it cannot be a valid version, but the build must still
// produce one. Each placeholder is replaced with 0 and the original string,
// sanitized to dot-separated alphanumerics, is carried as a local version
// segment so the unstamped input remains visible. If that still fails, the
// result is 0 plus the sanitized original as a local segment.
func NormalizeVersion(version string) (string, error) {
	if c, err := pep440.Canonicalize(version); err == nil {
		return c, nil
	}
	sanitized := strings.Trim(sanitizeRE.ReplaceAllString(strings.ToLower(version), "."), ".")
	substituted := placeholderRE.ReplaceAllString(version, "0")
	// A version may carry at most one "+"-introduced local segment.
	delimiter := "+"
	if strings.Contains(substituted, "+") {
		delimiter = "."
	}
	if c, err := pep440.Canonicalize(substituted + delimiter + sanitized); err == nil {
		return c, nil
	}
	c, err := pep440.Canonicalize("0+" + sanitized)
	if err != nil {
		// Unreachable when sanitization is correct; never swallowed.
		return "", errors.Wrapf(err, "no valid form for version %q", version)
	}
	return c, nil
}

// Distribution is the identity of the wheel being built. Name and version
// are normalized exactly once, at construction; every derived artifact
// (filename, dist-info directory, metadata) reuses the stored values.
type Distribution struct {
	Name      string
	Version   string
	BuildTag  string
	PythonTag string
	ABI       string
	Platform  string

	fileFragment   string
	distFragment   string
	escapedVersion string
}

// DistributionOpts control the legacy naming behaviors.
type DistributionOpts struct {
	// LegacyName keeps the raw name in the wheel filename while the
	// dist-info directory uses LegacyEscapeSegment. The inconsistency is
	// historical and preserved as-is for back-compat.
	LegacyName bool
	// LegacyVersion skips PEP 440 canonicalization and applies
	// LegacyEscapeSegment to the version in file names.
	LegacyVersion bool
}

// NewDistribution normalizes the given identity once and returns it.
func NewDistribution(name, version, buildTag, pythonTag, abi, platform string, opts DistributionOpts) (*Distribution, error) {
	d := &Distribution{
		Name:      name,
		BuildTag:  buildTag,
		PythonTag: pythonTag,
		ABI:       abi,
		Platform:  platform,
	}
	if opts.LegacyVersion {
		d.Version = version
		d.escapedVersion = LegacyEscapeSegment(version)
	} else {
		normalized, err := NormalizeVersion(version)
		if err != nil {
			return nil, errors.Wrap(err, "normalizing version")
		}
		d.Version = normalized
		d.escapedVersion = normalized
	}
	if opts.LegacyName {
		d.fileFragment = name
		d.distFragment = LegacyEscapeSegment(name)
	} else {
		d.fileFragment = NormalizeName(name)
		d.distFragment = EscapeName(name)
	}
	return d, nil
}

// Filename returns the canonical wheel filename.
func (d *Distribution) Filename() string {
	parts := []string{d.fileFragment, d.Version}
	if d.BuildTag != "" {
		parts = append(parts, d.BuildTag)
	}
	parts = append(parts, d.PythonTag, d.ABI, d.Platform)
	return strings.Join(parts, "-") + ".whl"
}

// DistinfoDir returns the name of the wheel's dist-info directory,
// without a trailing slash.
func (d *Distribution) DistinfoDir() string {
	return d.distFragment + "-" + d.escapedVersion + ".dist-info"
}

// DistinfoPath returns the archive path of a member of the dist-info
// directory.
func (d *Distribution) DistinfoPath(basename string) string {
	return d.DistinfoDir() + "/" + basename
}

// MetadataName returns the name to record in the METADATA member.
func (d *Distribution) MetadataName() string {
	return d.fileFragment
}

// Tags returns the compatibility tags of the distribution.
func (d *Distribution) Tags() []string {
	return []string{strings.Join([]string{d.PythonTag, d.ABI, d.Platform}, "-")}
}

// RootIsPurelib reports whether the wheel installs into purelib.
func (d *Distribution) RootIsPurelib() bool {
	return d.Platform == "any"
}
