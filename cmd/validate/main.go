// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0

// validate is a CLI tool to validate mediagate YAML configuration files.
//
// Usage:
//
//	validate -f config.yaml
//	validate --file config.yaml
//
// Exit codes:
//   - 0: Configuration is valid
//   - 1: Configuration is invalid (parse or validation error)
//   - 2: Usage error (missing required flag)
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ManuGH/mediagate/internal/config"
	"github.com/ManuGH/mediagate/internal/version"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var file string
	var showVersion bool
	fs.StringVar(&file, "file", "", "path to YAML configuration file")
	fs.StringVar(&file, "f", "", "path to YAML configuration file (shorthand)")
	fs.BoolVar(&showVersion, "version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	if showVersion {
		_, _ = fmt.Fprintln(stdout, version.String())
		return 0
	}

	if file == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --file is required")
		_, _ = fmt.Fprintln(stderr, "")
		_, _ = fmt.Fprintln(stderr, "Usage:")
		_, _ = fmt.Fprintln(stderr, "  validate -f config.yaml")
		_, _ = fmt.Fprintln(stderr, "  validate --file config.yaml")
		return 2
	}

	// Load runs the strict YAML parse, the env merge and validation.
	if _, err := config.NewLoader(file).Load(); err != nil {
		_, _ = fmt.Fprintf(stderr, "Configuration error in %s:\n", file)
		_, _ = fmt.Fprintf(stderr, "  %v\n", err)
		return 1
	}

	_, _ = fmt.Fprintf(stdout, "✓ %s is valid\n", file)
	return 0
}
