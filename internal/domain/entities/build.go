package entities

import "strings"

// ExpandVersion substitutes {version} in a recipe URL template
func ExpandVersion(template, version string) string {
	return strings.ReplaceAll(template, "{version}", version)
}

// CompileRequest describes one instrumented build of a recipe
type CompileRequest struct {
	Recipe    *Recipe
	Profile   InstrumentationProfile
	SourceDir string
	BuildDir  string
	Prefix    string
}

// InstallResult describes a completed install prefix
type InstallResult struct {
	Prefix    string
	LibDir    string
	BinDir    string
	HeaderDir string
	Archives  []string // Installed archive paths, in copy order
}

// Artifact describes the install prefix as a pipeline artifact
func (r *InstallResult) Artifact(name, version, variant string) *Artifact {
	return &Artifact{
		Name:    name,
		Version: version,
		Variant: variant,
		Path:    r.Prefix,
		Type:    ArtifactInstall,
	}
}
