// Package main provides the cauldron CLI for building instrumented vendor
// libraries for protocol fuzzing.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	command := os.Args[1]

	// Dispatch to subcommand
	switch command {
	case "install":
		runInstall(ctx, os.Args[2:])
	case "probe":
		runProbe(ctx, os.Args[2:])
	case "emit":
		runEmit(ctx, os.Args[2:])
	case "vendor":
		runVendor(ctx, os.Args[2:])
	case "matrix":
		runMatrix(ctx, os.Args[2:])
	case "list":
		runList(ctx, os.Args[2:])
	case "metadata":
		runMetadata(ctx, os.Args[2:])
	case "verify":
		runVerify(ctx, os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`cauldron - Instrumented vendor library builder for protocol fuzzing

Usage:
  cauldron <command> [options]

Commands:
  install   Copy build artifacts and headers into an install prefix
  probe     Report the instrumentation carried by an install prefix
  emit      Probe an install prefix and write its vendor.toml
  vendor    Fetch, verify, compile, install and record one variant
  matrix    Build several instrumentation variants in parallel
  list      List available library recipes
  metadata  Print a vendor.toml record
  verify    Check the checksum and signature of an archive or bundle

Use "cauldron <command> --help" for more information about a command.`)
}

// exit reports err on stderr and terminates with status 1
func exit(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}
