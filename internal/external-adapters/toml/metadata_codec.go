// Package toml renders and parses vendor metadata records.
// This is in external-adapters to isolate the TOML dependency.
package toml

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ochairo/cauldron/internal/domain/entities"
)

// MetadataFileName is the record written next to installed artifacts
const MetadataFileName = "vendor.toml"

// metadataKeys lists the record keys in their fixed order
var metadataKeys = []string{
	"libname",
	"version",
	"instrumentation",
	"known_vulnerabilities",
	"fixed_vulnerabilities",
}

// tomlMetadata is the on-disk layout. Field order is the key order of the document.
type tomlMetadata struct {
	Libname              string   `toml:"libname"`
	Version              string   `toml:"version"`
	Instrumentation      []string `toml:"instrumentation"`
	KnownVulnerabilities []string `toml:"known_vulnerabilities"`
	FixedVulnerabilities []string `toml:"fixed_vulnerabilities"`
}

// Marshal renders a record. Identical records always produce identical bytes.
//
// Identifiers containing quote or comma characters are not supported and are
// not validated.
func Marshal(md entities.VendorMetadata) ([]byte, error) {
	doc := tomlMetadata{
		Libname:              md.Libname,
		Version:              md.Version,
		Instrumentation:      md.Instrumentation.Strings(),
		KnownVulnerabilities: nonNil(md.KnownVulnerabilities),
		FixedVulnerabilities: nonNil(md.FixedVulnerabilities),
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(doc); err != nil {
		return nil, fmt.Errorf("failed to encode vendor metadata: %w", err)
	}
	return buf.Bytes(), nil
}

// Unmarshal parses a record, requiring exactly the five known keys
func Unmarshal(data []byte) (entities.VendorMetadata, error) {
	var doc tomlMetadata
	meta, err := toml.Decode(string(data), &doc)
	if err != nil {
		return entities.VendorMetadata{}, fmt.Errorf("failed to parse vendor metadata: %w", err)
	}

	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return entities.VendorMetadata{}, fmt.Errorf("unexpected keys in vendor metadata: %s", strings.Join(keys, ", "))
	}
	for _, key := range metadataKeys {
		if !meta.IsDefined(key) {
			return entities.VendorMetadata{}, fmt.Errorf("vendor metadata is missing key %q", key)
		}
	}

	var set entities.InstrumentationSet
	for _, name := range doc.Instrumentation {
		tag, err := entities.ParseInstrumentation(name)
		if err != nil {
			return entities.VendorMetadata{}, fmt.Errorf("invalid vendor metadata: %w", err)
		}
		set = set.Add(tag)
	}

	return entities.NewVendorMetadata(doc.Libname, doc.Version, set,
		doc.KnownVulnerabilities, doc.FixedVulnerabilities), nil
}

// WriteFile writes the record into dir and returns its path
func WriteFile(dir string, md entities.VendorMetadata) (string, error) {
	data, err := Marshal(md)
	if err != nil {
		return "", err
	}

	path := filepath.Join(dir, MetadataFileName)
	if err := os.WriteFile(path, data, 0600); err != nil {
		return "", fmt.Errorf("failed to write vendor metadata: %w", err)
	}
	return path, nil
}

// ReadFile parses the record at path
func ReadFile(path string) (entities.VendorMetadata, error) {
	//nolint:gosec // G304: path is the metadata file of an install prefix
	data, err := os.ReadFile(path)
	if err != nil {
		return entities.VendorMetadata{}, fmt.Errorf("failed to read vendor metadata: %w", err)
	}
	return Unmarshal(data)
}

func nonNil(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

// MetadataStore reads and writes records in install prefixes
type MetadataStore struct{}

// WriteMetadata writes md as vendor.toml into dir
func (MetadataStore) WriteMetadata(dir string, md entities.VendorMetadata) (string, error) {
	return WriteFile(dir, md)
}

// ReadMetadata parses the vendor.toml of dir
func (MetadataStore) ReadMetadata(dir string) (entities.VendorMetadata, error) {
	return ReadFile(filepath.Join(dir, MetadataFileName))
}
