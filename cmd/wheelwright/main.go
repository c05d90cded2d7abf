// Copyright 2025 The Wheelwright Authors
// SPDX-License-Identifier: Apache-2.0

// Binary wheelwright builds a reproducible Python wheel from a set of input
// files plus metadata parameters.
package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/wheelwright/wheelwright/internal/entrypoints"
	"github.com/wheelwright/wheelwright/pkg/pyproject"
	"github.com/wheelwright/wheelwright/pkg/stamp"
	"github.com/wheelwright/wheelwright/pkg/wheel"
)

// multiFlag collects the values of a repeatable string flag in order.
type multiFlag []string

func (m *multiFlag) String() string { return strings.Join(*m, ",") }

func (m *multiFlag) Set(value string) error {
	*m = append(*m, value)
	return nil
}

// Config holds all configuration for a wheel build.
type Config struct {
	Name      string
	Version   string
	BuildTag  string
	PythonTag string
	ABI       string
	Platform  string

	Out               string
	NameFile          string
	StripPathPrefixes multiFlag

	MetadataFile    string
	DescriptionFile string
	EntryPointsFile string
	PyprojectFile   string

	InputFiles         multiFlag
	InputFileLists     multiFlag
	ExtraDistinfoFiles multiFlag

	VolatileStatusFile string
	StableStatusFile   string

	NoNormalizeName    bool
	NoNormalizeVersion bool
}

// Validate ensures the configuration is complete.
func (c *Config) Validate() error {
	if c.Name == "" && c.PyprojectFile == "" {
		return errors.New("name is required unless -pyproject_file is given")
	}
	if c.Version == "" && c.PyprojectFile == "" {
		return errors.New("version is required unless -pyproject_file is given")
	}
	if c.MetadataFile == "" && c.PyprojectFile == "" {
		return errors.New("metadata_file is required unless -pyproject_file is given")
	}
	if (c.VolatileStatusFile == "") != (c.StableStatusFile == "") {
		return errors.New("volatile_status_file and stable_status_file must be given together")
	}
	return nil
}

func flagSet(cfg *Config) *flag.FlagSet {
	fs := flag.NewFlagSet("wheelwright", flag.ContinueOnError)
	fs.StringVar(&cfg.Name, "name", "", "Name of the distribution.")
	fs.StringVar(&cfg.Version, "version", "", "Version of the distribution.")
	fs.StringVar(&cfg.BuildTag, "build_tag", "", "Optional build tag for the distribution.")
	fs.StringVar(&cfg.PythonTag, "python_tag", "py3", "Python tag, e.g. 'py2' or 'py3'.")
	fs.StringVar(&cfg.ABI, "abi", "none", "ABI tag.")
	fs.StringVar(&cfg.Platform, "platform", "any", "Target platform tag.")
	fs.StringVar(&cfg.Out, "out", "", "Override the output file location. Defaults to the canonical wheel name.")
	fs.StringVar(&cfg.NameFile, "name_file", "", "A file to which the canonical name of the wheel will be written.")
	fs.Var(&cfg.StripPathPrefixes, "strip_path_prefix", "Path prefix to strip from input files' archive paths. May be repeated; evaluated in order.")
	fs.StringVar(&cfg.MetadataFile, "metadata_file", "", "File with the contents of the METADATA member, before the Version line and description are appended.")
	fs.StringVar(&cfg.DescriptionFile, "description_file", "", "File with the long package description.")
	fs.StringVar(&cfg.EntryPointsFile, "entry_points_file", "", "A correctly-formatted entry_points.txt file to embed.")
	fs.StringVar(&cfg.PyprojectFile, "pyproject_file", "", "A pyproject.toml supplying defaults for name, version, metadata, and entry points.")
	fs.Var(&cfg.InputFiles, "input_file", "'archivepath;sourcepath' pair of a file to include. May be repeated.")
	fs.Var(&cfg.InputFileLists, "input_file_list", "File listing one 'archivepath;sourcepath' pair per line. May be repeated.")
	fs.Var(&cfg.ExtraDistinfoFiles, "extra_distinfo_file", "'filename;sourcepath' pair of an extra file to include in the dist-info directory. May be repeated.")
	fs.StringVar(&cfg.VolatileStatusFile, "volatile_status_file", "", "Volatile workspace status file for stamping.")
	fs.StringVar(&cfg.StableStatusFile, "stable_status_file", "", "Stable workspace status file for stamping.")
	fs.BoolVar(&cfg.NoNormalizeName, "noincompatible_normalize_name", false, "Keep the legacy distribution name escaping.")
	fs.BoolVar(&cfg.NoNormalizeVersion, "noincompatible_normalize_version", false, "Keep the legacy version escaping instead of PEP 440 normalization.")
	return fs
}

// splitPair splits an 'archivepath;sourcepath' argument. Anything other
// than exactly two fields is fatal.
func splitPair(arg string) (wheel.PackageFile, error) {
	parts := strings.Split(arg, ";")
	if len(parts) != 2 {
		return wheel.PackageFile{}, errors.Errorf("malformed input pair %q: expected exactly two ';'-separated fields", arg)
	}
	return wheel.PackageFile{Archive: parts[0], Source: parts[1]}, nil
}

// collectInputs gathers the content file list from repeated pairs and
// line-oriented list files.
func collectInputs(pairs, listFiles []string) ([]wheel.PackageFile, error) {
	var files []wheel.PackageFile
	for _, pair := range pairs {
		pf, err := splitPair(pair)
		if err != nil {
			return nil, err
		}
		files = append(files, pf)
	}
	for _, listFile := range listFiles {
		content, err := os.ReadFile(listFile)
		if err != nil {
			return nil, errors.Wrapf(err, "reading input file list %s", listFile)
		}
		for _, line := range strings.Split(string(content), "\n") {
			if line == "" {
				continue
			}
			pf, err := splitPair(line)
			if err != nil {
				return nil, errors.Wrapf(err, "in input file list %s", listFile)
			}
			files = append(files, pf)
		}
	}
	return files, nil
}

func run(cfg Config) error {
	var proj *pyproject.File
	if cfg.PyprojectFile != "" {
		var err error
		if proj, err = pyproject.Load(cfg.PyprojectFile); err != nil {
			return err
		}
		if cfg.Name == "" {
			cfg.Name = proj.Project.Name
		}
		if cfg.Version == "" {
			cfg.Version = proj.Project.Version
		}
	}

	name, version := cfg.Name, cfg.Version
	if cfg.VolatileStatusFile != "" && cfg.StableStatusFile != "" {
		statuses, err := stamp.ParseFiles(cfg.VolatileStatusFile, cfg.StableStatusFile)
		if err != nil {
			return err
		}
		name = statuses.Resolve(name)
		version = statuses.Resolve(version)
	}

	dist, err := wheel.NewDistribution(name, version, cfg.BuildTag, cfg.PythonTag, cfg.ABI, cfg.Platform, wheel.DistributionOpts{
		LegacyName:    cfg.NoNormalizeName,
		LegacyVersion: cfg.NoNormalizeVersion,
	})
	if err != nil {
		return err
	}

	files, err := collectInputs(cfg.InputFiles, cfg.InputFileLists)
	if err != nil {
		return err
	}

	var meta wheel.Metadata
	if cfg.MetadataFile != "" {
		content, err := os.ReadFile(cfg.MetadataFile)
		if err != nil {
			return errors.Wrap(err, "reading metadata file")
		}
		meta.Raw = string(content)
	} else {
		meta.Raw = "Metadata-Version: 2.1\nName: " + name + "\n"
		if proj.Project.Description != "" {
			meta.Raw += "Summary: " + proj.Project.Description + "\n"
		}
	}

	switch {
	case cfg.DescriptionFile != "":
		content, err := os.ReadFile(cfg.DescriptionFile)
		if err != nil {
			return errors.Wrap(err, "reading description file")
		}
		meta.Description = string(content)
	case proj != nil && proj.ReadmeText() != "":
		meta.Description = proj.ReadmeText()
	case proj != nil && proj.ReadmePath() != "":
		content, err := os.ReadFile(proj.ReadmePath())
		if err != nil {
			return errors.Wrap(err, "reading project readme")
		}
		meta.Description = string(content)
	}

	if cfg.EntryPointsFile != "" {
		f, err := os.Open(cfg.EntryPointsFile)
		if err != nil {
			return errors.Wrap(err, "opening entry points file")
		}
		err = entrypoints.Validate(f)
		f.Close()
		if err != nil {
			return errors.Wrapf(err, "validating %s", cfg.EntryPointsFile)
		}
		meta.EntryPointsPath = cfg.EntryPointsFile
	} else if proj != nil {
		meta.EntryPointsText = proj.EntryPointsText()
	}

	for _, pair := range cfg.ExtraDistinfoFiles {
		pf, err := splitPair(pair)
		if err != nil {
			return err
		}
		meta.ExtraFiles = append(meta.ExtraFiles, pf)
	}

	builder := wheel.NewBuilder(dist, cfg.Out, cfg.StripPathPrefixes, wheel.DefaultHeaderOpts())
	if err := builder.Build(files, meta); err != nil {
		return err
	}
	log.Printf("Wrote %s", builder.OutputPath())

	// The canonical name is only discoverable after stamp resolution, so
	// it is published for downstream consumers, but never before the
	// archive has been fully written and closed.
	if cfg.NameFile != "" {
		if err := os.WriteFile(cfg.NameFile, []byte(dist.Filename()), 0666); err != nil {
			return errors.Wrap(err, "writing name file")
		}
	}
	return nil
}

var cfg Config

var rootCmd = &cobra.Command{
	Use:   "wheelwright",
	Short: "Builds a reproducible Python wheel",
	Args:  cobra.NoArgs,
	// Silence errors because we will print the error ourselves in main.
	SilenceErrors: true,
	// Don't show usage for every error.
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate(); err != nil {
			return err
		}
		return run(cfg)
	},
}

func main() {
	rootCmd.Flags().AddGoFlagSet(flagSet(&cfg))
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
