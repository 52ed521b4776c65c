// Package yaml provides YAML-based recipe parsing and repository implementations.
package yaml

import (
	"fmt"
	"os"

	"github.com/ochairo/cauldron/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// Default build-output subdirectories and header tree (LibreSSL/OpenSSL CMake layout)
var (
	DefaultOutputSubdirs = []string{"crypto", "ssl"}
	DefaultHeaderDir     = "include"
)

// yamlRecipe represents the raw YAML structure
type yamlRecipe struct {
	Name            string              `yaml:"name"`
	Version         string              `yaml:"version"`
	Description     string              `yaml:"description"`
	Source          yamlSource          `yaml:"source"`
	OSV             yamlOSV             `yaml:"osv"`
	Vulnerabilities yamlVulnerabilities `yaml:"vulnerabilities"`
	Install         yamlInstall         `yaml:"install"`
	Build           yamlBuild           `yaml:"build"`
	Profiles        []string            `yaml:"profiles"`
	ClaimerMarker   string              `yaml:"claimer_marker"`
}

type yamlSource struct {
	URL          string `yaml:"url"`
	SHA256       string `yaml:"sha256"`
	SignatureURL string `yaml:"signature_url"`
	GPGKeyFile   string `yaml:"gpg_key_file"`
}

type yamlOSV struct {
	Ecosystem string `yaml:"ecosystem"`
	Package   string `yaml:"package"`
}

type yamlVulnerabilities struct {
	Known []string `yaml:"known"`
	Fixed []string `yaml:"fixed"`
}

type yamlInstall struct {
	OutputSubdirs []string `yaml:"output_subdirs"`
	HeaderDir     string   `yaml:"header_dir"`
}

type yamlBuild struct {
	Configure      string `yaml:"configure"`
	Build          string `yaml:"build"`
	TimeoutMinutes int    `yaml:"timeout_minutes"`
	CC             string `yaml:"cc"`
}

// RecipeParser parses YAML recipe files
type RecipeParser struct{}

// NewRecipeParser creates a new YAML parser
func NewRecipeParser() *RecipeParser {
	return &RecipeParser{}
}

// ParseFile parses a YAML recipe file into a Recipe entity
func (p *RecipeParser) ParseFile(filePath string) (*entities.Recipe, error) {
	//nolint:gosec // G304: filePath is recipe definition path from repository
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses YAML bytes into a Recipe entity
func (p *RecipeParser) Parse(data []byte) (*entities.Recipe, error) {
	var yamlDef yamlRecipe
	if err := yaml.Unmarshal(data, &yamlDef); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Validate required fields
	if yamlDef.Name == "" {
		return nil, fmt.Errorf("recipe must have a name")
	}
	if yamlDef.Version == "" {
		return nil, fmt.Errorf("recipe %s must have a version", yamlDef.Name)
	}
	for _, profile := range yamlDef.Profiles {
		if _, err := entities.ParseProfile(profile); err != nil {
			return nil, fmt.Errorf("recipe %s: invalid profile %q: %w", yamlDef.Name, profile, err)
		}
	}

	// Convert to domain entity
	def := &entities.Recipe{
		Name:        yamlDef.Name,
		Version:     yamlDef.Version,
		Description: yamlDef.Description,
		Source: entities.RecipeSource{
			URL:          yamlDef.Source.URL,
			SHA256:       yamlDef.Source.SHA256,
			SignatureURL: yamlDef.Source.SignatureURL,
			GPGKeyFile:   yamlDef.Source.GPGKeyFile,
		},
		OSV:             convertOSV(yamlDef.Name, yamlDef.OSV),
		Vulnerabilities: convertVulnerabilities(yamlDef.Vulnerabilities),
		Install:         convertInstall(yamlDef.Install),
		Build: entities.RecipeBuild{
			Configure:      yamlDef.Build.Configure,
			Build:          yamlDef.Build.Build,
			TimeoutMinutes: yamlDef.Build.TimeoutMinutes,
			CC:             yamlDef.Build.CC,
		},
		Profiles:      yamlDef.Profiles,
		ClaimerMarker: yamlDef.ClaimerMarker,
	}

	return def, nil
}

func convertOSV(name string, yo yamlOSV) entities.RecipeOSV {
	osv := entities.RecipeOSV{
		Ecosystem: yo.Ecosystem,
		Package:   yo.Package,
	}
	if osv.Ecosystem == "" {
		osv.Ecosystem = "OSS-Fuzz"
	}
	if osv.Package == "" {
		osv.Package = name
	}
	return osv
}

func convertVulnerabilities(yv yamlVulnerabilities) entities.RecipeVulnerabilities {
	v := entities.RecipeVulnerabilities{
		Known: yv.Known,
		Fixed: yv.Fixed,
	}
	if v.Known == nil {
		v.Known = []string{}
	}
	if v.Fixed == nil {
		v.Fixed = []string{}
	}
	return v
}

func convertInstall(yi yamlInstall) entities.RecipeInstall {
	install := entities.RecipeInstall{
		OutputSubdirs: yi.OutputSubdirs,
		HeaderDir:     yi.HeaderDir,
	}
	if len(install.OutputSubdirs) == 0 {
		install.OutputSubdirs = append([]string(nil), DefaultOutputSubdirs...)
	}
	if install.HeaderDir == "" {
		install.HeaderDir = DefaultHeaderDir
	}
	return install
}
