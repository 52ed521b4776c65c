package gpg

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
	"github.com/ProtonMail/go-crypto/openpgp/packet"
)

type signingFixture struct {
	keyPath   string
	dataPath  string
	sigPath   string
	signature []byte
}

// newSigningFixture creates a throwaway key, a signed tarball and its armored detached signature
func newSigningFixture(t *testing.T) signingFixture {
	t.Helper()
	dir := t.TempDir()

	entity, err := openpgp.NewEntity("cauldron test", "", "release@example.com", &packet.Config{Algorithm: packet.PubKeyAlgoEdDSA})
	if err != nil {
		t.Fatalf("NewEntity() error = %v", err)
	}

	var pub bytes.Buffer
	w, err := armor.Encode(&pub, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := entity.Serialize(w); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	data := []byte("libressl-3.9.2 source tarball")
	var sig bytes.Buffer
	if err := openpgp.ArmoredDetachSign(&sig, entity, bytes.NewReader(data), nil); err != nil {
		t.Fatalf("ArmoredDetachSign() error = %v", err)
	}

	f := signingFixture{
		keyPath:   filepath.Join(dir, "libressl.asc"),
		dataPath:  filepath.Join(dir, "libressl-3.9.2.tar.gz"),
		sigPath:   filepath.Join(dir, "libressl-3.9.2.tar.gz.asc"),
		signature: sig.Bytes(),
	}
	for path, content := range map[string][]byte{f.keyPath: pub.Bytes(), f.dataPath: data, f.sigPath: sig.Bytes()} {
		if err := os.WriteFile(path, content, 0600); err != nil {
			t.Fatal(err)
		}
	}
	return f
}

func TestVerifier_VerifySignature_LocalFile(t *testing.T) {
	f := newSigningFixture(t)
	v := NewVerifier()

	if err := v.ImportKeyFromFile(f.keyPath); err != nil {
		t.Fatalf("ImportKeyFromFile() error = %v", err)
	}
	if v.KeyringSize() != 1 {
		t.Errorf("KeyringSize() = %d, want 1", v.KeyringSize())
	}
	if err := v.VerifySignature(context.Background(), f.dataPath, f.sigPath); err != nil {
		t.Errorf("VerifySignature() error = %v", err)
	}
}

func TestVerifier_VerifySignature_URL(t *testing.T) {
	f := newSigningFixture(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(f.signature)
	}))
	defer server.Close()

	v := NewVerifier()
	if err := v.ImportKeyFromFile(f.keyPath); err != nil {
		t.Fatal(err)
	}
	if err := v.VerifySignature(context.Background(), f.dataPath, server.URL+"/libressl-3.9.2.tar.gz.asc"); err != nil {
		t.Errorf("VerifySignature() error = %v", err)
	}
}

func TestVerifier_VerifySignature_Tampered(t *testing.T) {
	f := newSigningFixture(t)
	if err := os.WriteFile(f.dataPath, []byte("tampered"), 0600); err != nil {
		t.Fatal(err)
	}

	v := NewVerifier()
	if err := v.ImportKeyFromFile(f.keyPath); err != nil {
		t.Fatal(err)
	}
	err := v.VerifySignature(context.Background(), f.dataPath, f.sigPath)
	if err == nil || !strings.Contains(err.Error(), "signature verification failed") {
		t.Errorf("VerifySignature() error = %v, want verification failure", err)
	}
}

func TestVerifier_VerifySignature_WrongKey(t *testing.T) {
	signed := newSigningFixture(t)
	other := newSigningFixture(t)

	v := NewVerifier()
	if err := v.ImportKeyFromFile(other.keyPath); err != nil {
		t.Fatal(err)
	}
	if err := v.VerifySignature(context.Background(), signed.dataPath, signed.sigPath); err == nil {
		t.Error("VerifySignature() with unrelated key expected error")
	}
}

func TestVerifier_VerifySignature_NoKeys(t *testing.T) {
	f := newSigningFixture(t)
	err := NewVerifier().VerifySignature(context.Background(), f.dataPath, f.sigPath)
	if !errors.Is(err, ErrNoKeys) {
		t.Errorf("VerifySignature() error = %v, want ErrNoKeys", err)
	}
}

func TestVerifier_VerifySignature_DownloadErrors(t *testing.T) {
	f := newSigningFixture(t)
	v := NewVerifier()
	if err := v.ImportKeyFromFile(f.keyPath); err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	tests := []struct {
		name     string
		location string
		wantErr  string
	}{
		{name: "http 404", location: server.URL + "/missing.asc", wantErr: "status 404"},
		{name: "missing local file", location: filepath.Join(t.TempDir(), "missing.asc"), wantErr: "failed to open signature file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.VerifySignature(context.Background(), f.dataPath, tt.location)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("VerifySignature() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestVerifier_ImportKeyFromFile_Errors(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.asc")
	if err := os.WriteFile(garbage, []byte("-----BEGIN PGP PUBLIC KEY BLOCK-----\n\nnot a key\n"), 0600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		path    string
		wantErr string
	}{
		{name: "missing file", path: filepath.Join(dir, "none.asc"), wantErr: "failed to open key file"},
		{name: "not a key", path: garbage, wantErr: "failed to read key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := NewVerifier()
			err := v.ImportKeyFromFile(tt.path)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ImportKeyFromFile() error = %v, want containing %q", err, tt.wantErr)
			}
			if v.KeyringSize() != 0 {
				t.Errorf("KeyringSize() = %d after failed import", v.KeyringSize())
			}
		})
	}
}
