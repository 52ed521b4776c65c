package gateways

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ArchiveExt is the extension of static archives produced by the vendored build
const ArchiveExt = ".a"

// ArtifactFinder provides utilities for locating build artifacts
type ArtifactFinder struct{}

// NewArtifactFinder creates a new artifact finder
func NewArtifactFinder() *ArtifactFinder {
	return &ArtifactFinder{}
}

// FindArchives returns the static archives directly inside dir, sorted.
// A missing dir is an error; a dir without archives returns an empty list.
func (f *ArtifactFinder) FindArchives(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("archive directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("archive directory %s is not a directory", dir)
	}

	matches, err := filepath.Glob(filepath.Join(dir, "*"+ArchiveExt))
	if err != nil {
		return nil, fmt.Errorf("failed to glob archives in %s: %w", dir, err)
	}

	archives := make([]string, 0, len(matches))
	for _, path := range matches {
		if fi, err := os.Stat(path); err == nil && fi.Mode().IsRegular() {
			archives = append(archives, path)
		}
	}
	sort.Strings(archives)
	return archives, nil
}

// FindRecursive searches dir recursively for files with the given suffix, sorted
func (f *ArtifactFinder) FindRecursive(dir, suffix string) ([]string, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil, fmt.Errorf("artifacts directory does not exist: %s", dir)
	}

	var found []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() && filepath.Ext(path) == suffix {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(found)
	return found, nil
}
