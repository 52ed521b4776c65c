package main

import (
	"os"

	"github.com/ochairo/cauldron/internal/domain-adapters/gateways"
	orchestrators "github.com/ochairo/cauldron/internal/domain-orchestrators"
	"github.com/ochairo/cauldron/internal/domain/interfaces"
	"github.com/ochairo/cauldron/internal/domain/interfaces/services"
	domainservices "github.com/ochairo/cauldron/internal/domain/services"
	"github.com/ochairo/cauldron/internal/external-adapters/toml"
	"github.com/ochairo/cauldron/internal/external-adapters/yaml"
)

func newLogger(verbose bool) interfaces.Logger {
	level := interfaces.LevelInfo
	if verbose {
		level = interfaces.LevelDebug
	}
	return interfaces.NewStdoutLogger(os.Stderr, level)
}

// provenanceFactory probes archives with the nm binary at nmPath
func provenanceFactory(nmPath string, logger interfaces.Logger) orchestrators.ProvenanceFactory {
	scanner := gateways.NewNMSymbolScanner(nmPath)
	finder := gateways.NewArtifactFinder()
	return func(marker string) services.ProvenanceService {
		return domainservices.NewProvenanceService(scanner, finder, marker, logger)
	}
}

func newProvenanceOrchestrator(nmPath string, logger interfaces.Logger) *orchestrators.ProvenanceOrchestrator {
	return orchestrators.NewProvenanceOrchestrator(
		provenanceFactory(nmPath, logger),
		gateways.NewOSVGateway(),
		toml.MetadataStore{},
		logger,
	)
}

type pipelineOptions struct {
	recipesDir string
	outputDir  string
	nmPath     string
	verbose    bool
}

func newVendorOrchestrator(opts pipelineOptions) *orchestrators.VendorOrchestrator {
	logger := newLogger(opts.verbose)
	recipes := yaml.NewRecipeRepository(opts.recipesDir, logger)

	return orchestrators.NewVendorOrchestrator(
		recipes,
		gateways.NewDownloader(logger),
		gateways.NewChecksumVerifier(),
		gateways.NewGPGVerifier(),
		gateways.NewScriptExecutor(logger),
		gateways.NewInstaller(logger),
		newProvenanceOrchestrator(opts.nmPath, logger),
		gateways.NewPackager(logger),
		orchestrators.VendorOrchestratorConfig{
			OutputDir: opts.outputDir,
			Logger:    logger,
		},
	)
}
