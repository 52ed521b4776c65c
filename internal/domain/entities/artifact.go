// Package entities defines core domain models and data structures.
package entities

// Artifact kinds produced along the vendoring pipeline
const (
	ArtifactSource  = "source"  // Extracted source tree
	ArtifactBuild   = "build"   // Compiled build-output directory
	ArtifactInstall = "install" // Normalized install prefix
	ArtifactBundle  = "bundle"  // Packaged install prefix (tar.gz)
)

// Artifact represents a directory or file produced for one vendored library build
type Artifact struct {
	Name     string
	Version  string
	Variant  string // Instrumentation variant, see InstrumentationProfile.Variant
	Path     string
	Type     string
	Checksum string // Hex SHA-256, set for bundles
}
