package gateways

import (
	"archive/tar"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/ochairo/cauldron/internal/domain/entities"
	"github.com/ochairo/cauldron/internal/domain/interfaces"
)

// maxExtractedFileSize caps a single extracted file (decompression bomb guard)
const maxExtractedFileSize = 1 << 30

// Downloader fetches and unpacks library source tarballs
type Downloader struct {
	httpClient *http.Client
	logger     interfaces.Logger
}

// NewDownloader creates a new downloader
func NewDownloader(logger interfaces.Logger) *Downloader {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &Downloader{
		httpClient: &http.Client{
			Timeout: 10 * time.Minute, // Source tarballs can be large
		},
		logger: logger,
	}
}

// DownloadSource downloads the recipe's source tarball into outputDir.
// The returned artifact points at the downloaded archive.
func (d *Downloader) DownloadSource(ctx context.Context, recipe *entities.Recipe, outputDir string) (*entities.Artifact, error) {
	if recipe.Source.URL == "" {
		return nil, fmt.Errorf("recipe %s has no source url", recipe.Name)
	}
	url := entities.ExpandVersion(recipe.Source.URL, recipe.Version)

	if err := os.MkdirAll(outputDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	outputPath := filepath.Join(outputDir, filepath.Base(url))
	if err := d.DownloadFile(ctx, url, outputPath); err != nil {
		return nil, fmt.Errorf("download failed: %w", err)
	}

	return &entities.Artifact{
		Name:    recipe.Name,
		Version: recipe.Version,
		Path:    outputPath,
		Type:    entities.ArtifactSource,
	}, nil
}

// DownloadFile downloads url to dest
func (d *Downloader) DownloadFile(ctx context.Context, url, dest string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "cauldron/1.0")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
	}

	//nolint:gosec // G304: dest is constructed from the work directory
	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	//nolint:errcheck // Defer close on file being written
	defer out.Close()

	written, err := io.Copy(out, resp.Body)
	if err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	d.logger.Debug("downloaded", interfaces.F("file", filepath.Base(dest)), interfaces.F("bytes", written))
	return nil
}

// ExtractSource unpacks a .tar.gz, .tgz or .tar.xz archive into destDir and
// returns the source root: the single top-level directory when the archive
// has one, destDir otherwise.
func (d *Downloader) ExtractSource(archivePath, destDir string) (string, error) {
	//nolint:gosec // G304: archivePath is the downloaded source archive
	file, err := os.Open(archivePath)
	if err != nil {
		return "", fmt.Errorf("failed to open archive: %w", err)
	}
	//nolint:errcheck // Defer close on read-only file
	defer file.Close()

	var r io.Reader
	switch name := filepath.Base(archivePath); {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		gzr, err := gzip.NewReader(file)
		if err != nil {
			return "", fmt.Errorf("failed to create gzip reader: %w", err)
		}
		//nolint:errcheck // Defer close on gzip reader
		defer gzr.Close()
		r = gzr
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		xzr, err := xz.NewReader(file)
		if err != nil {
			return "", fmt.Errorf("failed to create xz reader: %w", err)
		}
		r = xzr
	default:
		return "", fmt.Errorf("unsupported archive format: %s", name)
	}

	if err := d.extractTar(r, destDir); err != nil {
		return "", err
	}

	entries, err := os.ReadDir(destDir)
	if err != nil {
		return "", fmt.Errorf("failed to read extracted directory: %w", err)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(destDir, entries[0].Name()), nil
	}
	return destDir, nil
}

// extractTar extracts a tar stream into destDir
func (d *Downloader) extractTar(r io.Reader, destDir string) error {
	tr := tar.NewReader(r)

	if err := os.MkdirAll(destDir, 0750); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}
	cleanDest := filepath.Clean(destDir)

	// Symlinks are created in a second pass once their targets exist
	type symlinkInfo struct {
		target   string
		linkname string
	}
	var symlinks []symlinkInfo

	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("tar read error: %w", err)
		}

		//nolint:gosec // G305: Path traversal validated below
		target := filepath.Join(destDir, header.Name)
		if target != cleanDest && !strings.HasPrefix(target, cleanDest+string(os.PathSeparator)) {
			return fmt.Errorf("invalid file path in archive: %s", header.Name)
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0750); err != nil {
				return fmt.Errorf("failed to create directory: %w", err)
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
				return fmt.Errorf("failed to create parent directory: %w", err)
			}

			//nolint:gosec // G115: tar header mode fits in FileMode
			outFile, err := os.OpenFile(target, os.O_CREATE|os.O_RDWR|os.O_TRUNC, os.FileMode(header.Mode).Perm())
			if err != nil {
				return fmt.Errorf("failed to create file: %w", err)
			}
			if _, err := io.Copy(outFile, io.LimitReader(tr, maxExtractedFileSize)); err != nil {
				_ = outFile.Close()
				return fmt.Errorf("failed to write file: %w", err)
			}
			if err := outFile.Close(); err != nil {
				return fmt.Errorf("failed to close file: %w", err)
			}

		case tar.TypeSymlink:
			symlinks = append(symlinks, symlinkInfo{target: target, linkname: header.Linkname})

		case tar.TypeXGlobalHeader:
			// pax global headers carry no file

		default:
			d.logger.Warn("ignoring unsupported tar entry",
				interfaces.F("type", string(header.Typeflag)),
				interfaces.F("name", header.Name))
		}
	}

	for _, link := range symlinks {
		if err := os.MkdirAll(filepath.Dir(link.target), 0750); err != nil {
			return fmt.Errorf("failed to create directory for symlink: %w", err)
		}
		if err := os.Symlink(link.linkname, link.target); err != nil {
			d.logger.Warn("failed to create symlink",
				interfaces.F("path", link.target),
				interfaces.F("target", link.linkname),
				interfaces.F("error", err))
		}
	}

	d.logger.Debug("extracted", interfaces.F("dir", destDir))
	return nil
}
