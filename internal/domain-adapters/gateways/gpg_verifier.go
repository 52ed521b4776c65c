package gateways

import (
	"context"
	"fmt"

	"github.com/ochairo/cauldron/internal/external-adapters/gpg"
)

// gpgVerifier wraps the external OpenPGP adapter to implement the domain gateway interface
type gpgVerifier struct {
	verifier *gpg.Verifier
}

// NewGPGVerifier creates a new signature verifier gateway
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewGPGVerifier() *gpgVerifier {
	return &gpgVerifier{
		verifier: gpg.NewVerifier(),
	}
}

// ImportKeyFromFile imports a public key ring from a local file
func (g *gpgVerifier) ImportKeyFromFile(keyPath string) error {
	if err := g.verifier.ImportKeyFromFile(keyPath); err != nil {
		return fmt.Errorf("failed to import GPG key from file: %w", err)
	}
	return nil
}

// VerifySignature verifies a detached signature from a URL or local path
func (g *gpgVerifier) VerifySignature(ctx context.Context, filePath, sigLocation string) error {
	if err := g.verifier.VerifySignature(ctx, filePath, sigLocation); err != nil {
		return fmt.Errorf("GPG signature verification failed: %w", err)
	}
	return nil
}
