package gateways

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ochairo/cauldron/internal/domain/entities"
)

var defaultLayout = entities.RecipeInstall{
	OutputSubdirs: []string{"crypto", "ssl"},
	HeaderDir:     "include",
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		t.Fatalf("MkdirAll() error = %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
}

// buildTree lays out a source and build directory the way a LibreSSL CMake build does
func buildTree(t *testing.T) (sourceDir, buildDir string) {
	t.Helper()
	root := t.TempDir()
	sourceDir = filepath.Join(root, "src")
	buildDir = filepath.Join(root, "build")

	writeFile(t, filepath.Join(buildDir, "crypto", "libcrypto.a"), "crypto archive")
	writeFile(t, filepath.Join(buildDir, "crypto", "CMakeFiles", "x.o"), "object")
	writeFile(t, filepath.Join(buildDir, "ssl", "libssl.a"), "ssl archive")
	writeFile(t, filepath.Join(sourceDir, "include", "openssl", "ssl.h"), "#define SSL 1\n")
	writeFile(t, filepath.Join(sourceDir, "include", "openssl", "rand.h"), "#define RAND 1\n")
	writeFile(t, filepath.Join(sourceDir, "include", "tls.h"), "#define TLS 1\n")
	return sourceDir, buildDir
}

func TestInstaller_Install(t *testing.T) {
	sourceDir, buildDir := buildTree(t)
	prefix := filepath.Join(t.TempDir(), "prefix")

	result, err := NewInstaller(nil).Install(sourceDir, buildDir, prefix, defaultLayout)
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	wantArchives := []string{
		filepath.Join(prefix, "lib", "libcrypto.a"),
		filepath.Join(prefix, "lib", "libssl.a"),
	}
	if diff := cmp.Diff(wantArchives, result.Archives); diff != "" {
		t.Errorf("Archives mismatch (-want +got):\n%s", diff)
	}

	for _, dir := range []string{"lib", "bin", "include"} {
		info, err := os.Stat(filepath.Join(prefix, dir))
		if err != nil || !info.IsDir() {
			t.Errorf("expected directory %s in prefix", dir)
		}
	}

	contents := map[string]string{
		"lib/libcrypto.a":        "crypto archive",
		"lib/libssl.a":           "ssl archive",
		"include/openssl/ssl.h":  "#define SSL 1\n",
		"include/openssl/rand.h": "#define RAND 1\n",
		"include/tls.h":          "#define TLS 1\n",
	}
	for rel, want := range contents {
		//nolint:gosec // G304: test reads files it just installed
		got, err := os.ReadFile(filepath.Join(prefix, rel))
		if err != nil {
			t.Errorf("ReadFile(%s) error = %v", rel, err)
			continue
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", rel, got, want)
		}
	}

	if _, err := os.Stat(filepath.Join(prefix, "lib", "x.o")); !os.IsNotExist(err) {
		t.Error("object files must not be installed")
	}
}

func TestInstaller_InstallIntoExistingPrefix(t *testing.T) {
	sourceDir, buildDir := buildTree(t)
	prefix := t.TempDir()
	writeFile(t, filepath.Join(prefix, "lib", "libssl.a"), "stale")

	if _, err := NewInstaller(nil).Install(sourceDir, buildDir, prefix, defaultLayout); err != nil {
		t.Fatalf("Install() error = %v", err)
	}

	//nolint:gosec // G304: test reads files it just installed
	got, err := os.ReadFile(filepath.Join(prefix, "lib", "libssl.a"))
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	if string(got) != "ssl archive" {
		t.Errorf("libssl.a = %q, want overwritten archive", got)
	}
}

func TestInstaller_MissingArtifacts(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(t *testing.T, sourceDir, buildDir string)
	}{
		{
			name: "missing ssl subdirectory",
			mutate: func(t *testing.T, _, buildDir string) {
				if err := os.RemoveAll(filepath.Join(buildDir, "ssl")); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "subdirectory without archives",
			mutate: func(t *testing.T, _, buildDir string) {
				if err := os.Remove(filepath.Join(buildDir, "crypto", "libcrypto.a")); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "missing header tree",
			mutate: func(t *testing.T, sourceDir, _ string) {
				if err := os.RemoveAll(filepath.Join(sourceDir, "include")); err != nil {
					t.Fatal(err)
				}
			},
		},
		{
			name: "header path is a file",
			mutate: func(t *testing.T, sourceDir, _ string) {
				if err := os.RemoveAll(filepath.Join(sourceDir, "include")); err != nil {
					t.Fatal(err)
				}
				writeFile(t, filepath.Join(sourceDir, "include"), "not a dir")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sourceDir, buildDir := buildTree(t)
			tt.mutate(t, sourceDir, buildDir)

			_, err := NewInstaller(nil).Install(sourceDir, buildDir, t.TempDir(), defaultLayout)
			if !errors.Is(err, ErrMissingArtifact) {
				t.Errorf("Install() error = %v, want ErrMissingArtifact", err)
			}
		})
	}
}

func TestInstaller_NoRollback(t *testing.T) {
	sourceDir, buildDir := buildTree(t)
	if err := os.RemoveAll(filepath.Join(buildDir, "ssl")); err != nil {
		t.Fatal(err)
	}
	prefix := t.TempDir()

	if _, err := NewInstaller(nil).Install(sourceDir, buildDir, prefix, defaultLayout); err == nil {
		t.Fatal("Install() expected error")
	}

	// Archives copied before the failure stay in place
	if _, err := os.Stat(filepath.Join(prefix, "lib", "libcrypto.a")); err != nil {
		t.Errorf("expected libcrypto.a to remain after failed install: %v", err)
	}
}

func TestInstaller_CustomLayout(t *testing.T) {
	root := t.TempDir()
	sourceDir := filepath.Join(root, "src")
	buildDir := filepath.Join(root, "build")
	writeFile(t, filepath.Join(buildDir, "out", "libwolfssl.a"), "wolf")
	writeFile(t, filepath.Join(sourceDir, "wolfssl", "ssl.h"), "h")

	prefix := filepath.Join(root, "prefix")
	layout := entities.RecipeInstall{OutputSubdirs: []string{"out"}, HeaderDir: "wolfssl"}
	result, err := NewInstaller(nil).Install(sourceDir, buildDir, prefix, layout)
	if err != nil {
		t.Fatalf("Install() error = %v", err)
	}
	if result.HeaderDir != filepath.Join(prefix, "wolfssl") {
		t.Errorf("HeaderDir = %s", result.HeaderDir)
	}
	if _, err := os.Stat(filepath.Join(prefix, "wolfssl", "ssl.h")); err != nil {
		t.Errorf("header not installed: %v", err)
	}
}

func TestInstaller_EmptyLayout(t *testing.T) {
	sourceDir, buildDir := buildTree(t)
	_, err := NewInstaller(nil).Install(sourceDir, buildDir, t.TempDir(), entities.RecipeInstall{})
	if !errors.Is(err, ErrMissingArtifact) {
		t.Errorf("Install() error = %v, want ErrMissingArtifact", err)
	}
}

func TestInstaller_MissingSubdirHint(t *testing.T) {
	sourceDir, buildDir := buildTree(t)
	layout := entities.RecipeInstall{OutputSubdirs: []string{"lib"}, HeaderDir: "include"}

	_, err := NewInstaller(nil).Install(sourceDir, buildDir, t.TempDir(), layout)
	if !errors.Is(err, ErrMissingArtifact) {
		t.Fatalf("Install() error = %v, want ErrMissingArtifact", err)
	}
	for _, want := range []string{"crypto/libcrypto.a", "ssl/libssl.a"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}
