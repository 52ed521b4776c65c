package orchestrators

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ochairo/cauldron/internal/domain/entities"
	"github.com/ochairo/cauldron/internal/domain/interfaces"
	"github.com/ochairo/cauldron/internal/domain/interfaces/gateways"
	"github.com/ochairo/cauldron/internal/domain/interfaces/repositories"
)

// SourceFetcher downloads and unpacks library sources
type SourceFetcher interface {
	DownloadSource(ctx context.Context, recipe *entities.Recipe, outputDir string) (*entities.Artifact, error)
	ExtractSource(archivePath, destDir string) (string, error)
}

// ChecksumVerifier checks a downloaded archive against its expected digest
type ChecksumVerifier interface {
	VerifyChecksum(ctx context.Context, filePath, expectedSum string) error
}

// Compiler runs the instrumented build of a recipe
type Compiler interface {
	Compile(ctx context.Context, req entities.CompileRequest) error
}

// ArtifactInstaller copies build outputs into an install prefix
type ArtifactInstaller interface {
	Install(sourceDir, buildDir, prefix string, layout entities.RecipeInstall) (*entities.InstallResult, error)
}

// Packager bundles an install prefix for distribution
type Packager interface {
	PackageInstall(ctx context.Context, recipe *entities.Recipe, variant, prefix, outputDir string) (*entities.Artifact, error)
}

// VendorOrchestrator coordinates the complete vendoring workflow for one library
type VendorOrchestrator struct {
	recipes    repositories.RecipeRepository
	fetcher    SourceFetcher
	checksums  ChecksumVerifier
	signatures gateways.SignatureVerifier
	compiler   Compiler
	installer  ArtifactInstaller
	provenance *ProvenanceOrchestrator
	packager   Packager
	outputDir  string
	logger     interfaces.Logger
}

// VendorOrchestratorConfig holds configuration for the orchestrator
type VendorOrchestratorConfig struct {
	OutputDir string
	Logger    interfaces.Logger
}

// NewVendorOrchestrator creates a new vendor orchestrator.
// signatures and packager may be nil when no recipe is signed or no bundle is requested.
func NewVendorOrchestrator(
	recipes repositories.RecipeRepository,
	fetcher SourceFetcher,
	checksums ChecksumVerifier,
	signatures gateways.SignatureVerifier,
	compiler Compiler,
	installer ArtifactInstaller,
	provenance *ProvenanceOrchestrator,
	packager Packager,
	config VendorOrchestratorConfig,
) *VendorOrchestrator {
	outputDir := config.OutputDir
	if outputDir == "" {
		outputDir = "dist"
	}
	logger := config.Logger
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	return &VendorOrchestrator{
		recipes:    recipes,
		fetcher:    fetcher,
		checksums:  checksums,
		signatures: signatures,
		compiler:   compiler,
		installer:  installer,
		provenance: provenance,
		packager:   packager,
		outputDir:  outputDir,
		logger:     logger,
	}
}

// VendorRequest selects what to build
type VendorRequest struct {
	Library string
	Profile entities.InstrumentationProfile
	// SourceDir points at an already unpacked source tree; fetch, verify and
	// extract are skipped when set.
	SourceDir string
	Bundle    bool
	ScanOSV   bool
}

// VendorResult contains the result of one pipeline run
type VendorResult struct {
	BuildID        string
	Recipe         *entities.Recipe
	Variant        string
	SourceDir      string
	BuildDir       string
	Install        *entities.InstallResult
	Provenance     *ProvenanceResult
	Bundle         *entities.Artifact
	StageDurations map[Stage]time.Duration
	TotalDuration  time.Duration
	Success        bool
	Error          error
}

// WorkDir returns the isolated directory of one build variant
func WorkDir(outputDir, library, version, variant string) string {
	return filepath.Join(outputDir, fmt.Sprintf("%s-%s-%s", library, version, variant))
}

// Vendor runs fetch, verify, extract, compile, install, probe, emit and the
// optional bundle step for one library and profile. The returned error is a
// *StageError naming the failed stage.
func (o *VendorOrchestrator) Vendor(ctx context.Context, req VendorRequest) (*VendorResult, error) {
	recipe, err := o.recipes.GetRecipe(ctx, req.Library)
	if err != nil {
		result := &VendorResult{BuildID: uuid.NewString(), Error: stageErr(StageLoad, err)}
		return result, result.Error
	}
	return o.vendorRecipe(ctx, recipe, req)
}

func (o *VendorOrchestrator) vendorRecipe(ctx context.Context, recipe *entities.Recipe, req VendorRequest) (*VendorResult, error) {
	startTime := time.Now()
	variant := req.Profile.Variant()
	result := &VendorResult{
		BuildID:        uuid.NewString(),
		Recipe:         recipe,
		Variant:        variant,
		StageDurations: make(map[Stage]time.Duration),
	}
	log := []interfaces.Field{
		interfaces.F("build_id", result.BuildID),
		interfaces.F("library", recipe.Name),
		interfaces.F("variant", variant),
	}

	fail := func(stage Stage, err error) (*VendorResult, error) {
		var se *StageError
		if errors.As(err, &se) {
			result.Error = err
		} else {
			result.Error = stageErr(stage, err)
		}
		result.TotalDuration = time.Since(startTime)
		o.logger.Error("vendoring failed", append(log, interfaces.F("stage", stage), interfaces.F("error", err))...)
		return result, result.Error
	}
	timed := func(stage Stage, fn func() error) error {
		stageStart := time.Now()
		err := fn()
		result.StageDurations[stage] = time.Since(stageStart)
		return err
	}

	workDir := WorkDir(o.outputDir, recipe.Name, recipe.Version, variant)
	if err := os.MkdirAll(workDir, 0750); err != nil {
		return fail(StageLoad, fmt.Errorf("failed to create work directory: %w", err))
	}
	o.logger.Info("vendoring started", append(log, interfaces.F("work_dir", workDir))...)

	// Steps 1-3: Obtain sources
	result.SourceDir = req.SourceDir
	if result.SourceDir == "" {
		sourceDir, stage, err := o.obtainSource(ctx, recipe, workDir, timed)
		if err != nil {
			return fail(stage, err)
		}
		result.SourceDir = sourceDir
	} else {
		o.logger.Info("using existing source tree", append(log, interfaces.F("source_dir", req.SourceDir))...)
	}

	// Step 4: Compile
	result.BuildDir = filepath.Join(workDir, "build")
	prefix := filepath.Join(workDir, "prefix")
	if err := timed(StageCompile, func() error {
		return o.compiler.Compile(ctx, entities.CompileRequest{
			Recipe:    recipe,
			Profile:   req.Profile,
			SourceDir: result.SourceDir,
			BuildDir:  result.BuildDir,
			Prefix:    prefix,
		})
	}); err != nil {
		return fail(StageCompile, err)
	}

	// Step 5: Install
	if err := timed(StageInstall, func() error {
		install, err := o.installer.Install(result.SourceDir, result.BuildDir, prefix, recipe.Install)
		result.Install = install
		return err
	}); err != nil {
		return fail(StageInstall, err)
	}

	// Steps 6-7: Probe and emit
	if err := timed(StageEmit, func() error {
		prov, err := o.provenance.RecordProvenance(ctx, recipe, req.Profile, prefix, req.ScanOSV)
		result.Provenance = prov
		return err
	}); err != nil {
		return fail(StageEmit, err)
	}

	// Step 8: Bundle
	if req.Bundle {
		if o.packager == nil {
			return fail(StageBundle, fmt.Errorf("no packager configured"))
		}
		if err := timed(StageBundle, func() error {
			bundle, err := o.packager.PackageInstall(ctx, recipe, variant, prefix, o.outputDir)
			result.Bundle = bundle
			return err
		}); err != nil {
			return fail(StageBundle, err)
		}
	}

	result.Success = true
	result.TotalDuration = time.Since(startTime)
	o.logger.Info("vendoring complete", append(log,
		interfaces.F("prefix", prefix),
		interfaces.F("duration", result.TotalDuration))...)
	return result, nil
}

// obtainSource runs the fetch, verify and extract stages and returns the source root
func (o *VendorOrchestrator) obtainSource(
	ctx context.Context,
	recipe *entities.Recipe,
	workDir string,
	timed func(Stage, func() error) error,
) (string, Stage, error) {
	var archive *entities.Artifact
	if err := timed(StageFetch, func() error {
		var err error
		archive, err = o.fetcher.DownloadSource(ctx, recipe, filepath.Join(workDir, "download"))
		return err
	}); err != nil {
		return "", StageFetch, err
	}

	if err := timed(StageVerify, func() error {
		return o.verifySource(ctx, recipe, archive.Path)
	}); err != nil {
		return "", StageVerify, err
	}

	var sourceDir string
	if err := timed(StageExtract, func() error {
		var err error
		sourceDir, err = o.fetcher.ExtractSource(archive.Path, filepath.Join(workDir, "src"))
		return err
	}); err != nil {
		return "", StageExtract, err
	}
	return sourceDir, "", nil
}

// verifySource checks the archive digest and detached signature configured by the recipe
func (o *VendorOrchestrator) verifySource(ctx context.Context, recipe *entities.Recipe, archivePath string) error {
	src := recipe.Source
	if src.SHA256 == "" && src.SignatureURL == "" {
		o.logger.Warn("source is not verified: recipe has neither sha256 nor signature_url",
			interfaces.F("library", recipe.Name))
		return nil
	}

	if src.SHA256 != "" {
		if err := o.checksums.VerifyChecksum(ctx, archivePath, src.SHA256); err != nil {
			return err
		}
	}

	if src.SignatureURL != "" {
		if o.signatures == nil {
			return fmt.Errorf("recipe %s is signed but no signature verifier is configured", recipe.Name)
		}
		if src.GPGKeyFile == "" {
			return fmt.Errorf("recipe %s has signature_url but no gpg_key_file", recipe.Name)
		}
		keyPath := src.GPGKeyFile
		if !filepath.IsAbs(keyPath) {
			keyPath = filepath.Join(o.recipes.RecipePath(), keyPath)
		}
		if err := o.signatures.ImportKeyFromFile(keyPath); err != nil {
			return err
		}
		sigURL := entities.ExpandVersion(src.SignatureURL, recipe.Version)
		if err := o.signatures.VerifySignature(ctx, archivePath, sigURL); err != nil {
			return err
		}
	}
	return nil
}

// Summary returns a human-readable summary of the run
func (r *VendorResult) Summary() string {
	if !r.Success {
		return fmt.Sprintf("Vendoring failed (build %s): %v", r.BuildID, r.Error)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Vendoring successful!\n")
	fmt.Fprintf(&b, "Build: %s\n", r.BuildID)
	fmt.Fprintf(&b, "Library: %s %s\n", r.Recipe.Name, r.Recipe.Version)
	fmt.Fprintf(&b, "Variant: %s\n", r.Variant)
	if r.Install != nil {
		fmt.Fprintf(&b, "Prefix: %s\n", r.Install.Prefix)
	}
	if r.Provenance != nil {
		fmt.Fprintf(&b, "Instrumentation: %s\n", r.Provenance.Metadata.Instrumentation)
		fmt.Fprintf(&b, "Metadata: %s\n", r.Provenance.MetadataPath)
	}
	if r.Bundle != nil {
		fmt.Fprintf(&b, "Bundle: %s\n", r.Bundle.Path)
	}
	fmt.Fprintf(&b, "Total: %v", r.TotalDuration.Round(time.Millisecond))
	return b.String()
}
