package gateways

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ochairo/cauldron/internal/domain/entities"
	"github.com/ochairo/cauldron/internal/domain/interfaces"
)

// bundleEpoch is the modification time stamped on every bundle entry
var bundleEpoch = time.Unix(0, 0)

// Packager bundles install prefixes into reproducible tarballs
type Packager struct {
	logger interfaces.Logger
}

// NewPackager creates a new packager
func NewPackager(logger interfaces.Logger) *Packager {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &Packager{logger: logger}
}

// BundleName returns the tarball name for one build variant
func BundleName(name, version, variant string) string {
	return fmt.Sprintf("%s-%s-%s.tar.gz", name, strings.TrimPrefix(version, "v"), variant)
}

// ChecksumSuffix names the sha256sum-style sidecar written next to each bundle
const ChecksumSuffix = ".sha256"

// PackageInstall bundles prefix into outputDir, writes its checksum sidecar
// and returns the bundle artifact
func (p *Packager) PackageInstall(
	ctx context.Context,
	recipe *entities.Recipe,
	variant, prefix, outputDir string,
) (*entities.Artifact, error) {
	info, err := os.Stat(prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to stat install prefix: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("install prefix %s is not a directory", prefix)
	}

	tarballPath := filepath.Join(outputDir, BundleName(recipe.Name, recipe.Version, variant))
	if err := p.CreateBundle(ctx, prefix, tarballPath); err != nil {
		return nil, fmt.Errorf("failed to create bundle: %w", err)
	}

	sum, err := NewChecksumVerifier().CalculateChecksum(tarballPath)
	if err != nil {
		return nil, err
	}
	sidecar := fmt.Sprintf("%s  %s\n", sum, filepath.Base(tarballPath))
	//nolint:gosec // G306: checksum sidecar is public
	if err := os.WriteFile(tarballPath+ChecksumSuffix, []byte(sidecar), 0644); err != nil {
		return nil, fmt.Errorf("failed to write checksum file: %w", err)
	}

	return &entities.Artifact{
		Name:     recipe.Name,
		Version:  recipe.Version,
		Variant:  variant,
		Path:     tarballPath,
		Type:     entities.ArtifactBundle,
		Checksum: sum,
	}, nil
}

// CreateBundle writes a gzipped tar of sourceDir to tarballPath.
// Entries are in lexical order with zeroed timestamps and ownership, so the
// same tree always produces the same bytes.
func (p *Packager) CreateBundle(ctx context.Context, sourceDir, tarballPath string) error {
	if err := os.MkdirAll(filepath.Dir(tarballPath), 0750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	//nolint:gosec // G304: tarballPath is constructed for bundle output
	file, err := os.Create(tarballPath)
	if err != nil {
		return fmt.Errorf("failed to create tarball file: %w", err)
	}

	gzipWriter := gzip.NewWriter(file)
	tarWriter := tar.NewWriter(gzipWriter)

	walkErr := filepath.WalkDir(sourceDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		relPath, err := filepath.Rel(sourceDir, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}
		if relPath == "." {
			return nil
		}

		return p.writeEntry(tarWriter, path, filepath.ToSlash(relPath), d)
	})

	// Close in order even on failure so the file handle is released
	errs := []error{walkErr, tarWriter.Close(), gzipWriter.Close(), file.Close()}
	for _, err := range errs {
		if err != nil {
			_ = os.Remove(tarballPath)
			return err
		}
	}

	p.logger.Info("bundle created", interfaces.F("path", tarballPath))
	return nil
}

func (p *Packager) writeEntry(tw *tar.Writer, path, name string, d fs.DirEntry) error {
	header := &tar.Header{
		Name:    name,
		ModTime: bundleEpoch,
		Format:  tar.FormatPAX,
	}

	info, err := d.Info()
	if err != nil {
		return err
	}

	switch {
	case d.Type()&fs.ModeSymlink != 0:
		target, err := os.Readlink(path)
		if err != nil {
			p.logger.Warn("skipping unreadable symlink", interfaces.F("path", path), interfaces.F("error", err))
			return nil
		}
		header.Typeflag = tar.TypeSymlink
		header.Linkname = target
		header.Mode = 0777
	case d.IsDir():
		header.Typeflag = tar.TypeDir
		header.Name += "/"
		header.Mode = 0755
	case info.Mode().IsRegular():
		header.Typeflag = tar.TypeReg
		header.Size = info.Size()
		header.Mode = 0644
		if info.Mode().Perm()&0111 != 0 {
			header.Mode = 0755
		}
	default:
		p.logger.Warn("skipping special file", interfaces.F("path", path))
		return nil
	}

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header: %w", err)
	}
	if header.Typeflag != tar.TypeReg {
		return nil
	}

	//nolint:gosec // G304: File path from filepath.WalkDir for bundling
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer f.Close()

	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("failed to write file to tar: %w", err)
	}
	return nil
}
