package gateways

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ochairo/cauldron/internal/domain/entities"
	"github.com/ochairo/cauldron/internal/domain/interfaces"
)

// ErrMissingArtifact is returned when an expected archive directory, archive or header tree is absent
var ErrMissingArtifact = errors.New("missing build artifact")

// Installer copies compiled archives and public headers into a normalized prefix
type Installer struct {
	finder *ArtifactFinder
	logger interfaces.Logger
}

// NewInstaller creates a new installer
func NewInstaller(logger interfaces.Logger) *Installer {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &Installer{
		finder: NewArtifactFinder(),
		logger: logger,
	}
}

// Install creates lib/ and bin/ under prefix, copies every archive of each
// output subdirectory of buildDir into lib/, then copies the header tree of
// sourceDir into prefix.
//
// The first missing artifact aborts the install. Nothing already copied is
// removed.
func (i *Installer) Install(sourceDir, buildDir, prefix string, layout entities.RecipeInstall) (*entities.InstallResult, error) {
	if len(layout.OutputSubdirs) == 0 {
		return nil, fmt.Errorf("%w: no build-output subdirectories configured", ErrMissingArtifact)
	}
	if layout.HeaderDir == "" {
		return nil, fmt.Errorf("%w: no header directory configured", ErrMissingArtifact)
	}

	result := &entities.InstallResult{
		Prefix:    prefix,
		LibDir:    filepath.Join(prefix, "lib"),
		BinDir:    filepath.Join(prefix, "bin"),
		HeaderDir: filepath.Join(prefix, filepath.Base(layout.HeaderDir)),
	}

	for _, dir := range []string{result.LibDir, result.BinDir} {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	for _, sub := range layout.OutputSubdirs {
		srcDir := filepath.Join(buildDir, sub)
		archives, err := i.finder.FindArchives(srcDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %v%s", ErrMissingArtifact, err, i.layoutHint(buildDir))
		}
		if len(archives) == 0 {
			return nil, fmt.Errorf("%w: no *%s archives in %s%s", ErrMissingArtifact, ArchiveExt, srcDir, i.layoutHint(buildDir))
		}

		for _, archive := range archives {
			dst := filepath.Join(result.LibDir, filepath.Base(archive))
			if err := copyFile(archive, dst); err != nil {
				return nil, fmt.Errorf("failed to install %s: %w", archive, err)
			}
			result.Archives = append(result.Archives, dst)
			i.logger.Debug("installed archive", interfaces.F("src", archive), interfaces.F("dst", dst))
		}
	}

	headerSrc := filepath.Join(sourceDir, layout.HeaderDir)
	info, err := os.Stat(headerSrc)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: header tree %s", ErrMissingArtifact, headerSrc)
	}
	if err := copyDirRecursively(headerSrc, result.HeaderDir); err != nil {
		return nil, fmt.Errorf("failed to install headers from %s: %w", headerSrc, err)
	}

	i.logger.Info("install complete",
		interfaces.F("prefix", prefix),
		interfaces.F("archives", len(result.Archives)))
	return result, nil
}

// layoutHint lists archives found elsewhere in buildDir, to point at a misconfigured layout
func (i *Installer) layoutHint(buildDir string) string {
	found, err := i.finder.FindRecursive(buildDir, ArchiveExt)
	if err != nil || len(found) == 0 {
		return ""
	}
	const maxHints = 5
	rel := make([]string, 0, maxHints)
	for _, path := range found {
		if len(rel) == maxHints {
			rel = append(rel, "...")
			break
		}
		if r, err := filepath.Rel(buildDir, path); err == nil {
			rel = append(rel, r)
		}
	}
	return fmt.Sprintf(" (archives found at: %s)", strings.Join(rel, ", "))
}

func copyDirRecursively(srcDir, dstDir string) error {
	if err := os.MkdirAll(dstDir, 0750); err != nil {
		return err
	}
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		src := filepath.Join(srcDir, entry.Name())
		dst := filepath.Join(dstDir, entry.Name())

		switch {
		case entry.Type()&os.ModeSymlink != 0:
			target, err := os.Readlink(src)
			if err != nil {
				return err
			}
			_ = os.Remove(dst)
			if err := os.Symlink(target, dst); err != nil {
				return err
			}
		case entry.IsDir():
			if err := copyDirRecursively(src, dst); err != nil {
				return err
			}
		default:
			if err := copyFile(src, dst); err != nil {
				return err
			}
		}
	}
	return nil
}

func copyFile(src, dst string) error {
	//nolint:gosec // G304: src comes from the build tree being installed
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	//nolint:errcheck // Defer close on read-only file
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return err
	}

	//nolint:gosec // G304: dst is inside the install prefix
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
