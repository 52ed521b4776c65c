package entities

import "time"

// Recipe describes how to vendor one native library from YAML
type Recipe struct {
	Name            string
	Version         string
	Description     string
	Source          RecipeSource
	OSV             RecipeOSV
	Vulnerabilities RecipeVulnerabilities
	Install         RecipeInstall
	Build           RecipeBuild
	Profiles        []string // Named instrumentation profiles for matrix builds, e.g. "sancov,claimer"
	ClaimerMarker   string   // Overrides the default claimer marker symbol
}

// RecipeSource represents where the library sources come from and how they are verified
type RecipeSource struct {
	URL          string // May contain {version}
	SHA256       string
	SignatureURL string // Detached OpenPGP signature, may contain {version}
	GPGKeyFile   string // Armored public key ring, relative to the recipes directory
}

// RecipeOSV configures the vulnerability lookup for the library
type RecipeOSV struct {
	Ecosystem string
	Package   string
}

// RecipeVulnerabilities lists vulnerability identifiers recorded in the metadata.
// The two lists are independent: Fixed need not be a subset of Known.
type RecipeVulnerabilities struct {
	Known []string
	Fixed []string
}

// RecipeInstall describes the build-output layout consumed by the installer
type RecipeInstall struct {
	OutputSubdirs []string // Build subdirectories holding static archives
	HeaderDir     string   // Public header tree, relative to the source directory
}

// RecipeBuild represents the compile step
type RecipeBuild struct {
	Configure      string
	Build          string
	TimeoutMinutes int
	CC             string
}

// Timeout returns the configured build timeout, or zero when unset
func (b RecipeBuild) Timeout() time.Duration {
	if b.TimeoutMinutes <= 0 {
		return 0
	}
	return time.Duration(b.TimeoutMinutes) * time.Minute
}
