package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/ochairo/cauldron/internal/domain-adapters/gateways"
	"github.com/ochairo/cauldron/internal/domain/entities"
	"github.com/ochairo/cauldron/internal/external-adapters/yaml"
)

func runInstall(_ context.Context, args []string) {
	fs := flag.NewFlagSet("install", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cauldron install <source-dir> <build-dir> <install-prefix>

Copy the static archives of <build-dir>/crypto and <build-dir>/ssl into
<install-prefix>/lib and the header tree <source-dir>/include into
<install-prefix>/include. <install-prefix>/bin is created empty.

Fails if an archive directory is missing or empty, or if the header tree
is missing. Partially copied files are left in place.
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}
	if fs.NArg() != 3 {
		fmt.Fprintf(os.Stderr, "Error: expected 3 arguments, got %d\n\n", fs.NArg())
		fs.Usage()
		os.Exit(1)
	}

	installer := gateways.NewInstaller(newLogger(false))
	result, err := installer.Install(fs.Arg(0), fs.Arg(1), fs.Arg(2), entities.RecipeInstall{
		OutputSubdirs: yaml.DefaultOutputSubdirs,
		HeaderDir:     yaml.DefaultHeaderDir,
	})
	if err != nil {
		exit(err)
	}

	fmt.Printf("Installed %d archives into %s\n", len(result.Archives), result.LibDir)
	fmt.Printf("Headers: %s\n", result.HeaderDir)
}
