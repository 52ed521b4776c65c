package orchestrators

import (
	"context"
	"path/filepath"

	"github.com/ochairo/cauldron/internal/domain/entities"
	"github.com/ochairo/cauldron/internal/domain/interfaces"
	"github.com/ochairo/cauldron/internal/domain/interfaces/gateways"
	"github.com/ochairo/cauldron/internal/domain/interfaces/services"
	domainservices "github.com/ochairo/cauldron/internal/domain/services"
)

// MetadataWriter persists a vendor metadata record into an install prefix
type MetadataWriter interface {
	WriteMetadata(dir string, md entities.VendorMetadata) (string, error)
}

// ProvenanceFactory builds a provenance service probing for marker
type ProvenanceFactory func(marker string) services.ProvenanceService

// ProvenanceOrchestrator probes an install prefix and records what it carries
type ProvenanceOrchestrator struct {
	newProvenance ProvenanceFactory
	vulns         gateways.VulnerabilityGateway
	writer        MetadataWriter
	logger        interfaces.Logger
}

// NewProvenanceOrchestrator creates a provenance orchestrator.
// vulns may be nil when vulnerability lookups are never requested.
func NewProvenanceOrchestrator(
	newProvenance ProvenanceFactory,
	vulns gateways.VulnerabilityGateway,
	writer MetadataWriter,
	logger interfaces.Logger,
) *ProvenanceOrchestrator {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &ProvenanceOrchestrator{
		newProvenance: newProvenance,
		vulns:         vulns,
		writer:        writer,
		logger:        logger,
	}
}

// ProvenanceResult contains the record written for one install prefix
type ProvenanceResult struct {
	Requested       entities.InstrumentationSet
	Metadata        entities.VendorMetadata
	MetadataPath    string
	ClaimerDetected bool
	Report          *entities.VulnerabilityReport // nil unless a lookup succeeded
}

// RecordProvenance probes prefix/lib, optionally extends the known
// vulnerabilities from the lookup gateway and writes the record into prefix.
//
// Probe and lookup problems never fail the call; only writing the record can.
func (o *ProvenanceOrchestrator) RecordProvenance(
	ctx context.Context,
	recipe *entities.Recipe,
	profile entities.InstrumentationProfile,
	prefix string,
	scanOSV bool,
) (*ProvenanceResult, error) {
	provenance := o.newProvenance(recipe.ClaimerMarker)
	result := &ProvenanceResult{Requested: profile.Set()}

	set := provenance.ResolveInstrumentation(ctx, filepath.Join(prefix, "lib"), profile)
	result.ClaimerDetected = set.Has(entities.InstrumentationClaimer) && !profile.Claimer
	o.logger.Info("instrumentation resolved",
		interfaces.F("library", recipe.Name),
		interfaces.F("requested", result.Requested),
		interfaces.F("resolved", set))

	var extra []string
	if scanOSV {
		extra = o.lookup(ctx, recipe, result)
	}

	md := provenance.BuildMetadata(recipe, set, extra)
	path, err := o.writer.WriteMetadata(prefix, md)
	if err != nil {
		return result, stageErr(StageEmit, err)
	}
	result.Metadata = md
	result.MetadataPath = path
	return result, nil
}

func (o *ProvenanceOrchestrator) lookup(ctx context.Context, recipe *entities.Recipe, result *ProvenanceResult) []string {
	if o.vulns == nil {
		o.logger.Warn("vulnerability lookup requested but no gateway configured")
		return nil
	}

	report, err := o.vulns.QueryVulnerabilities(ctx, recipe.OSV.Ecosystem, recipe.OSV.Package, recipe.Version)
	if err != nil {
		o.logger.Warn("vulnerability lookup failed, keeping recipe list",
			interfaces.F("library", recipe.Name),
			interfaces.F("error", err))
		return nil
	}
	result.Report = report

	ids := domainservices.ExcludeFixed(domainservices.ReportIdentifiers(report), recipe.Vulnerabilities.Fixed)
	o.logger.Info("vulnerability lookup complete",
		interfaces.F("library", recipe.Name),
		interfaces.F("found", len(ids)))
	return ids
}
