// Package services implements domain business logic and use cases.
package services

import (
	"context"
	"strings"

	"github.com/ochairo/cauldron/internal/domain/entities"
	"github.com/ochairo/cauldron/internal/domain/interfaces"
	"github.com/ochairo/cauldron/internal/domain/interfaces/gateways"
	"github.com/ochairo/cauldron/internal/domain/interfaces/services"
)

// DefaultClaimerMarker is the linker symbol exported by builds carrying the claimer hook
const DefaultClaimerMarker = "register_claimer"

// ArchiveLister finds the static archives of an install lib directory
type ArchiveLister interface {
	FindArchives(dir string) ([]string, error)
}

// provenanceService implements ProvenanceService
type provenanceService struct {
	scanner  gateways.SymbolScanner
	archives ArchiveLister
	marker   string
	logger   interfaces.Logger
}

// NewProvenanceService creates a provenance service probing with scanner.
// An empty marker selects DefaultClaimerMarker.
func NewProvenanceService(scanner gateways.SymbolScanner, archives ArchiveLister, marker string, logger interfaces.Logger) services.ProvenanceService {
	if marker == "" {
		marker = DefaultClaimerMarker
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &provenanceService{
		scanner:  scanner,
		archives: archives,
		marker:   marker,
		logger:   logger,
	}
}

// ResolveInstrumentation returns the requested set, plus claimer if the marker is found.
// Probe failures of any kind resolve to "marker absent".
func (s *provenanceService) ResolveInstrumentation(ctx context.Context, libDir string, profile entities.InstrumentationProfile) entities.InstrumentationSet {
	set := profile.Set()
	if s.probeMarker(ctx, libDir) {
		set = set.Add(entities.InstrumentationClaimer)
	}
	return set
}

func (s *provenanceService) probeMarker(ctx context.Context, libDir string) bool {
	archives, err := s.archives.FindArchives(libDir)
	if err != nil {
		s.logger.Debug("claimer probe: no archives", interfaces.F("dir", libDir), interfaces.F("error", err))
		return false
	}

	for _, archive := range archives {
		symbols, err := s.scanner.ListSymbols(ctx, archive)
		if err != nil {
			s.logger.Debug("claimer probe: symbol listing failed",
				interfaces.F("archive", archive), interfaces.F("error", err))
			continue
		}
		for _, sym := range symbols {
			if strings.Contains(sym, s.marker) {
				s.logger.Debug("claimer probe: marker found",
					interfaces.F("archive", archive), interfaces.F("marker", s.marker))
				return true
			}
		}
	}
	return false
}

// BuildMetadata assembles the provenance record.
// Known vulnerabilities are the recipe's list followed by extraKnown entries not already listed.
func (s *provenanceService) BuildMetadata(recipe *entities.Recipe, instrumentation entities.InstrumentationSet, extraKnown []string) entities.VendorMetadata {
	known := MergeIdentifiers(recipe.Vulnerabilities.Known, extraKnown)
	return entities.NewVendorMetadata(
		recipe.Name,
		recipe.Version,
		instrumentation,
		known,
		recipe.Vulnerabilities.Fixed,
	)
}
