// Package services defines interfaces for domain service contracts.
package services

import (
	"context"

	"github.com/ochairo/cauldron/internal/domain/entities"
)

// ProvenanceService resolves what a build actually carries and records it
type ProvenanceService interface {
	// ResolveInstrumentation probes the installed archives in libDir and returns
	// the requested tags plus claimer when its marker symbol is present.
	ResolveInstrumentation(ctx context.Context, libDir string, profile entities.InstrumentationProfile) entities.InstrumentationSet

	// BuildMetadata assembles the provenance record for a recipe and a resolved set
	BuildMetadata(recipe *entities.Recipe, instrumentation entities.InstrumentationSet, extraKnown []string) entities.VendorMetadata
}
