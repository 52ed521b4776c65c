package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/cauldron/internal/external-adapters/toml"
)

func runMetadata(_ context.Context, args []string) {
	fs := flag.NewFlagSet("metadata", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cauldron metadata <vendor.toml | install-prefix>

Parse a vendor metadata record and print its fields.
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fs.Usage()
		os.Exit(1)
	}

	path := fs.Arg(0)
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, toml.MetadataFileName)
	}

	md, err := toml.ReadFile(path)
	if err != nil {
		exit(err)
	}

	fmt.Printf("Library:         %s %s\n", md.Libname, md.Version)
	fmt.Printf("Instrumentation: %s\n", strings.Join(md.Instrumentation.Strings(), ", "))
	fmt.Printf("Known:           %s\n", strings.Join(md.KnownVulnerabilities, ", "))
	fmt.Printf("Fixed:           %s\n", strings.Join(md.FixedVulnerabilities, ", "))
}
