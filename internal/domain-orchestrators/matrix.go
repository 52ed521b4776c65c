package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/ochairo/cauldron/internal/domain/entities"
	"github.com/ochairo/cauldron/internal/domain/interfaces"
)

// MatrixRequest selects the variants of one library to build
type MatrixRequest struct {
	Library string
	// Profiles to build; the recipe's profiles are used when empty, and a
	// single plain build when the recipe lists none.
	Profiles  []entities.InstrumentationProfile
	Jobs      int // Maximum concurrent variant builds, at least 1
	SourceDir string
	Bundle    bool
	ScanOSV   bool
}

// BuildMatrix builds every requested variant of a library. Sources are
// obtained once and shared read-only; each variant compiles and installs into
// its own work directory. A failing variant does not stop the others; all
// failures are joined into the returned error. Results keep profile order.
func (o *VendorOrchestrator) BuildMatrix(ctx context.Context, req MatrixRequest) ([]*VendorResult, error) {
	recipe, err := o.recipes.GetRecipe(ctx, req.Library)
	if err != nil {
		return nil, stageErr(StageLoad, err)
	}

	profiles, err := matrixProfiles(recipe, req.Profiles)
	if err != nil {
		return nil, stageErr(StageLoad, err)
	}

	sourceDir := req.SourceDir
	if sourceDir == "" {
		workDir := filepath.Join(o.outputDir, fmt.Sprintf("%s-%s-source", recipe.Name, recipe.Version))
		noop := func(_ Stage, fn func() error) error { return fn() }
		dir, stage, err := o.obtainSource(ctx, recipe, workDir, noop)
		if err != nil {
			return nil, stageErr(stage, err)
		}
		sourceDir = dir
	}

	jobs := req.Jobs
	if jobs < 1 {
		jobs = 1
	}
	o.logger.Info("building matrix",
		interfaces.F("library", recipe.Name),
		interfaces.F("variants", len(profiles)),
		interfaces.F("jobs", jobs))

	results := make([]*VendorResult, len(profiles))
	errs := make([]error, len(profiles))

	var g errgroup.Group
	g.SetLimit(jobs)
	for i, profile := range profiles {
		g.Go(func() error {
			result, err := o.vendorRecipe(ctx, recipe, VendorRequest{
				Library:   recipe.Name,
				Profile:   profile,
				SourceDir: sourceDir,
				Bundle:    req.Bundle,
				ScanOSV:   req.ScanOSV,
			})
			results[i] = result
			if err != nil {
				errs[i] = fmt.Errorf("variant %s: %w", profile.Variant(), err)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results, errors.Join(errs...)
}

// matrixProfiles resolves the profiles to build, dropping duplicate variants
func matrixProfiles(recipe *entities.Recipe, requested []entities.InstrumentationProfile) ([]entities.InstrumentationProfile, error) {
	profiles := requested
	if len(profiles) == 0 {
		for _, spec := range recipe.Profiles {
			p, err := entities.ParseProfile(spec)
			if err != nil {
				return nil, fmt.Errorf("recipe %s: %w", recipe.Name, err)
			}
			profiles = append(profiles, p)
		}
	}
	if len(profiles) == 0 {
		profiles = []entities.InstrumentationProfile{{}}
	}

	seen := make(map[string]bool, len(profiles))
	unique := make([]entities.InstrumentationProfile, 0, len(profiles))
	for _, p := range profiles {
		if seen[p.Variant()] {
			continue
		}
		seen[p.Variant()] = true
		unique = append(unique, p)
	}
	return unique, nil
}
