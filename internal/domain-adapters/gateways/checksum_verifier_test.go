package gateways

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCalculateChecksum(t *testing.T) {
	tests := []struct {
		name         string
		content      []byte
		wantChecksum string
	}{
		{
			name:         "empty archive",
			content:      []byte(""),
			wantChecksum: "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855",
		},
		{
			name:         "simple content",
			content:      []byte("Hello, World!"),
			wantChecksum: "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "libressl-3.9.2.tar.gz")
			if err := os.WriteFile(path, tt.content, 0600); err != nil {
				t.Fatal(err)
			}

			got, err := NewChecksumVerifier().CalculateChecksum(path)
			if err != nil {
				t.Fatalf("CalculateChecksum() error = %v", err)
			}
			if got != tt.wantChecksum {
				t.Errorf("CalculateChecksum() = %v, want %v", got, tt.wantChecksum)
			}
		})
	}
}

func TestVerifyChecksum(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openssl-1.1.1w.tar.gz")
	if err := os.WriteFile(path, []byte("Hello, World!"), 0600); err != nil {
		t.Fatal(err)
	}
	const sum = "dffd6021bb2bd5b0af676290809ec3a53191dd81c7f70a4b28688a362182986f"

	tests := []struct {
		name         string
		path         string
		expected     string
		wantErr      bool
		wantMismatch bool
	}{
		{name: "match", path: path, expected: sum},
		{name: "uppercase digest", path: path, expected: strings.ToUpper(sum)},
		{name: "surrounding whitespace", path: path, expected: " " + sum + "\n"},
		{
			name:         "mismatch",
			path:         path,
			expected:     strings.Repeat("0", 64),
			wantErr:      true,
			wantMismatch: true,
		},
		{name: "missing file", path: filepath.Join(t.TempDir(), "nope.tar.gz"), expected: sum, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewChecksumVerifier().VerifyChecksum(context.Background(), tt.path, tt.expected)
			if (err != nil) != tt.wantErr {
				t.Fatalf("VerifyChecksum() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := errors.Is(err, ErrChecksumMismatch); got != tt.wantMismatch {
				t.Errorf("errors.Is(ErrChecksumMismatch) = %v, want %v", got, tt.wantMismatch)
			}
		})
	}
}

func TestVerifyChecksum_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := NewChecksumVerifier().VerifyChecksum(ctx, "/dev/null", ""); !errors.Is(err, context.Canceled) {
		t.Errorf("VerifyChecksum() error = %v, want context.Canceled", err)
	}
}
