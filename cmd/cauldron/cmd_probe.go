package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ochairo/cauldron/internal/domain-adapters/gateways"
	"github.com/ochairo/cauldron/internal/domain/entities"
	"github.com/ochairo/cauldron/internal/external-adapters/toml"
	"github.com/ochairo/cauldron/internal/external-adapters/yaml"
)

func runProbe(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("probe", flag.ExitOnError)
	var (
		profileSpec = fs.String("profile", "", "Requested instrumentation, comma separated (e.g. sancov,asan)")
		nmPath      = fs.String("nm", gateways.DefaultNMPath, "Symbol listing tool")
		marker      = fs.String("marker", "", "Claimer marker symbol (default register_claimer)")
		verbose     = fs.Bool("verbose", false, "Log probe details")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cauldron probe [options] <install-prefix>

Report the instrumentation of an install prefix: the requested tags plus
claimer when any archive in <install-prefix>/lib exports the marker symbol.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  cauldron probe --profile sancov,asan ./dist/libressl-3.8.2-sancov-asan/prefix
  cauldron probe --nm llvm-nm ./prefix
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: install prefix is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	profile, err := entities.ParseProfile(*profileSpec)
	if err != nil {
		exit(err)
	}

	logger := newLogger(*verbose)
	provenance := provenanceFactory(*nmPath, logger)(*marker)
	set := provenance.ResolveInstrumentation(ctx, filepath.Join(fs.Arg(0), "lib"), profile)

	fmt.Printf("Instrumentation: %s\n", set)
	if set.Has(entities.InstrumentationClaimer) {
		fmt.Println("Claimer: detected")
	} else {
		fmt.Println("Claimer: absent")
	}
}

func runEmit(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("emit", flag.ExitOnError)
	var (
		recipeName  = fs.String("recipe", "", "Library recipe providing name, version and vulnerabilities")
		recipesDir  = fs.String("recipes-dir", "recipes", "Path to recipes directory")
		profileSpec = fs.String("profile", "", "Requested instrumentation, comma separated")
		nmPath      = fs.String("nm", gateways.DefaultNMPath, "Symbol listing tool")
		scanOSV     = fs.Bool("scan-osv", false, "Extend known vulnerabilities from the OSV database")
		verbose     = fs.Bool("verbose", false, "Log probe details")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cauldron emit --recipe <name> [options] <install-prefix>

Probe an install prefix and write <install-prefix>/vendor.toml.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}
	if *recipeName == "" || fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: --recipe and an install prefix are required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	profile, err := entities.ParseProfile(*profileSpec)
	if err != nil {
		exit(err)
	}

	logger := newLogger(*verbose)
	recipe, err := yaml.NewRecipeRepository(*recipesDir, logger).GetRecipe(ctx, *recipeName)
	if err != nil {
		exit(err)
	}

	result, err := newProvenanceOrchestrator(*nmPath, logger).RecordProvenance(ctx, recipe, profile, fs.Arg(0), *scanOSV)
	if err != nil {
		exit(err)
	}

	data, err := toml.Marshal(result.Metadata)
	if err != nil {
		exit(err)
	}
	fmt.Printf("Wrote %s\n\n%s", result.MetadataPath, data)
}
