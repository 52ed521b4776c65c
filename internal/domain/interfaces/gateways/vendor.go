// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"

	"github.com/ochairo/cauldron/internal/domain/entities"
)

// SymbolScanner lists the raw symbol table of a static archive
type SymbolScanner interface {
	// ListSymbols returns one entry per listed symbol line.
	// Implementations return an error when the listing tool is missing or fails.
	ListSymbols(ctx context.Context, archivePath string) ([]string, error)
}

// VulnerabilityGateway looks up published vulnerabilities for a library version
type VulnerabilityGateway interface {
	QueryVulnerabilities(ctx context.Context, ecosystem, pkg, version string) (*entities.VulnerabilityReport, error)
}

// SignatureVerifier checks a detached signature over a downloaded file
type SignatureVerifier interface {
	ImportKeyFromFile(keyPath string) error
	VerifySignature(ctx context.Context, filePath, sigURL string) error
}
