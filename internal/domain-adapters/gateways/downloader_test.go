package gateways

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ulikunitz/xz"

	"github.com/ochairo/cauldron/internal/domain/entities"
)

type tarEntry struct {
	name     string
	body     string
	typeflag byte
	linkname string
}

func makeTar(t *testing.T, entries []tarEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	tw := tar.NewWriter(&buf)
	for _, e := range entries {
		hdr := &tar.Header{Name: e.name, Typeflag: e.typeflag, Linkname: e.linkname, Mode: 0644}
		switch e.typeflag {
		case tar.TypeDir:
			hdr.Mode = 0755
		case tar.TypeReg:
			hdr.Size = int64(len(e.body))
		}
		if err := tw.WriteHeader(hdr); err != nil {
			t.Fatalf("WriteHeader() error = %v", err)
		}
		if e.typeflag == tar.TypeReg {
			if _, err := tw.Write([]byte(e.body)); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
		}
	}
	if err := tw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return buf.Bytes()
}

func gzipBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := gw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func xzBytes(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	xw, err := xz.NewWriter(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := xw.Write(data); err != nil {
		t.Fatal(err)
	}
	if err := xw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

var sourceEntries = []tarEntry{
	{name: "libressl-3.9.2/", typeflag: tar.TypeDir},
	{name: "libressl-3.9.2/include/openssl/ssl.h", body: "#define SSL 1\n", typeflag: tar.TypeReg},
	{name: "libressl-3.9.2/configure", body: "#!/bin/sh\n", typeflag: tar.TypeReg},
	{name: "libressl-3.9.2/include/ssl.h", typeflag: tar.TypeSymlink, linkname: "openssl/ssl.h"},
}

func TestDownloader_DownloadSource(t *testing.T) {
	payload := gzipBytes(t, makeTar(t, sourceEntries))
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/libressl-3.9.2.tar.gz" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write(payload)
	}))
	defer server.Close()

	recipe := &entities.Recipe{
		Name:    "libressl",
		Version: "3.9.2",
		Source:  entities.RecipeSource{URL: server.URL + "/libressl-{version}.tar.gz"},
	}

	outputDir := t.TempDir()
	artifact, err := NewDownloader(nil).DownloadSource(context.Background(), recipe, outputDir)
	if err != nil {
		t.Fatalf("DownloadSource() error = %v", err)
	}
	if artifact.Type != entities.ArtifactSource {
		t.Errorf("Type = %v, want %v", artifact.Type, entities.ArtifactSource)
	}
	if artifact.Path != filepath.Join(outputDir, "libressl-3.9.2.tar.gz") {
		t.Errorf("Path = %v", artifact.Path)
	}

	//nolint:gosec // G304: test reads the file it just downloaded
	got, err := os.ReadFile(artifact.Path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, payload) {
		t.Error("downloaded content differs from served content")
	}
}

func TestDownloader_DownloadSource_Errors(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	tests := []struct {
		name   string
		recipe *entities.Recipe
	}{
		{
			name:   "no source url",
			recipe: &entities.Recipe{Name: "x", Version: "1"},
		},
		{
			name: "http 404",
			recipe: &entities.Recipe{
				Name:    "x",
				Version: "1",
				Source:  entities.RecipeSource{URL: server.URL + "/x-{version}.tar.gz"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDownloader(nil).DownloadSource(context.Background(), tt.recipe, t.TempDir()); err == nil {
				t.Error("DownloadSource() expected error")
			}
		})
	}
}

func TestDownloader_ExtractSource(t *testing.T) {
	raw := makeTar(t, sourceEntries)

	tests := []struct {
		name     string
		filename string
		data     []byte
	}{
		{name: "gzip", filename: "libressl-3.9.2.tar.gz", data: gzipBytes(t, raw)},
		{name: "tgz", filename: "libressl-3.9.2.tgz", data: gzipBytes(t, raw)},
		{name: "xz", filename: "libressl-3.9.2.tar.xz", data: xzBytes(t, raw)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			archive := filepath.Join(dir, tt.filename)
			if err := os.WriteFile(archive, tt.data, 0600); err != nil {
				t.Fatal(err)
			}

			root, err := NewDownloader(nil).ExtractSource(archive, filepath.Join(dir, "src"))
			if err != nil {
				t.Fatalf("ExtractSource() error = %v", err)
			}
			if want := filepath.Join(dir, "src", "libressl-3.9.2"); root != want {
				t.Errorf("ExtractSource() = %v, want %v", root, want)
			}

			//nolint:gosec // G304: test reads extracted file
			header, err := os.ReadFile(filepath.Join(root, "include", "openssl", "ssl.h"))
			if err != nil {
				t.Fatal(err)
			}
			if string(header) != "#define SSL 1\n" {
				t.Errorf("header = %q", header)
			}

			link, err := os.Readlink(filepath.Join(root, "include", "ssl.h"))
			if err != nil {
				t.Fatalf("Readlink() error = %v", err)
			}
			if link != "openssl/ssl.h" {
				t.Errorf("symlink target = %v", link)
			}
		})
	}
}

func TestDownloader_ExtractSource_FlatArchive(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "flat.tar.gz")
	data := gzipBytes(t, makeTar(t, []tarEntry{
		{name: "a.c", body: "int a;", typeflag: tar.TypeReg},
		{name: "b.c", body: "int b;", typeflag: tar.TypeReg},
	}))
	if err := os.WriteFile(archive, data, 0600); err != nil {
		t.Fatal(err)
	}

	dest := filepath.Join(dir, "src")
	root, err := NewDownloader(nil).ExtractSource(archive, dest)
	if err != nil {
		t.Fatalf("ExtractSource() error = %v", err)
	}
	if root != dest {
		t.Errorf("ExtractSource() = %v, want %v", root, dest)
	}
}

func TestDownloader_ExtractSource_RejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.tar.gz")
	data := gzipBytes(t, makeTar(t, []tarEntry{
		{name: "../escape.txt", body: "x", typeflag: tar.TypeReg},
	}))
	if err := os.WriteFile(archive, data, 0600); err != nil {
		t.Fatal(err)
	}

	_, err := NewDownloader(nil).ExtractSource(archive, filepath.Join(dir, "src"))
	if err == nil || !strings.Contains(err.Error(), "invalid file path") {
		t.Errorf("ExtractSource() error = %v, want invalid file path", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.txt")); !os.IsNotExist(err) {
		t.Error("file escaped the destination directory")
	}
}

func TestDownloader_ExtractSource_UnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "source.zip")
	if err := os.WriteFile(archive, []byte("PK"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := NewDownloader(nil).ExtractSource(archive, filepath.Join(dir, "src")); err == nil {
		t.Error("ExtractSource() expected error")
	}
}

