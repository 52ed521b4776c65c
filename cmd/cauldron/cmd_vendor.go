package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ochairo/cauldron/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/cauldron/internal/domain-orchestrators"
	"github.com/ochairo/cauldron/internal/domain/entities"
)

type pipelineFlags struct {
	recipesDir *string
	outputDir  *string
	nmPath     *string
	sourceDir  *string
	bundle     *bool
	scanOSV    *bool
	verbose    *bool
}

func registerPipelineFlags(fs *flag.FlagSet) pipelineFlags {
	return pipelineFlags{
		recipesDir: fs.String("recipes-dir", "recipes", "Path to recipes directory"),
		outputDir:  fs.String("output-dir", "dist", "Output directory for work trees and bundles"),
		nmPath:     fs.String("nm", gateways.DefaultNMPath, "Symbol listing tool"),
		sourceDir:  fs.String("source-dir", "", "Use an unpacked source tree instead of downloading"),
		bundle:     fs.Bool("bundle", false, "Create a tar.gz bundle of each install prefix"),
		scanOSV:    fs.Bool("scan-osv", false, "Extend known vulnerabilities from the OSV database"),
		verbose:    fs.Bool("verbose", false, "Verbose logging"),
	}
}

func (p pipelineFlags) options() pipelineOptions {
	return pipelineOptions{
		recipesDir: *p.recipesDir,
		outputDir:  *p.outputDir,
		nmPath:     *p.nmPath,
		verbose:    *p.verbose,
	}
}

func runVendor(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("vendor", flag.ExitOnError)
	common := registerPipelineFlags(fs)
	profileSpec := fs.String("profile", "", "Instrumentation, comma separated (e.g. sancov,asan)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cauldron vendor [options] <library>

Fetch, verify, extract, compile and install one variant of a library, then
record its vendor.toml.

Options:
`)
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, `
Examples:
  cauldron vendor libressl
  cauldron vendor --profile sancov,claimer --bundle libressl
  cauldron vendor --source-dir ./libressl-3.8.2 --profile asan libressl
`)
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: library name is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	profile, err := entities.ParseProfile(*profileSpec)
	if err != nil {
		exit(err)
	}

	vendorOrch := newVendorOrchestrator(common.options())
	result, err := vendorOrch.Vendor(ctx, orchestrators.VendorRequest{
		Library:   fs.Arg(0),
		Profile:   profile,
		SourceDir: *common.sourceDir,
		Bundle:    *common.bundle,
		ScanOSV:   *common.scanOSV,
	})
	fmt.Println(result.Summary())
	if err != nil {
		os.Exit(1)
	}
}

func runMatrix(ctx context.Context, args []string) {
	fs := flag.NewFlagSet("matrix", flag.ExitOnError)
	common := registerPipelineFlags(fs)
	var (
		profileList = fs.String("profiles", "", "Semicolon separated profiles (e.g. \"plain;sancov;sancov,asan\"); defaults to the recipe's")
		jobs        = fs.Int("jobs", 2, "Maximum variants built concurrently")
	)

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `Usage: cauldron matrix [options] <library>

Build several instrumentation variants of a library in parallel. Sources are
fetched once; each variant gets its own build and install directory.

Options:
`)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error parsing flags: %v\n", err)
		os.Exit(1)
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Error: library name is required\n\n")
		fs.Usage()
		os.Exit(1)
	}

	profiles, err := parseProfileList(*profileList)
	if err != nil {
		exit(err)
	}

	vendorOrch := newVendorOrchestrator(common.options())
	results, err := vendorOrch.BuildMatrix(ctx, orchestrators.MatrixRequest{
		Library:   fs.Arg(0),
		Profiles:  profiles,
		Jobs:      *jobs,
		SourceDir: *common.sourceDir,
		Bundle:    *common.bundle,
		ScanOSV:   *common.scanOSV,
	})

	succeeded := 0
	for _, result := range results {
		status := "ok"
		if !result.Success {
			status = "FAILED"
		} else {
			succeeded++
		}
		fmt.Printf("  %-30s %s\n", result.Variant, status)
	}
	fmt.Printf("\n%d/%d variants built\n", succeeded, len(results))

	if err != nil {
		exit(err)
	}
}

// parseProfileList splits "a;b,c" into profiles; empty input means none requested
func parseProfileList(list string) ([]entities.InstrumentationProfile, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return nil, nil
	}
	var profiles []entities.InstrumentationProfile
	for _, spec := range strings.Split(list, ";") {
		profile, err := entities.ParseProfile(spec)
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, nil
}
