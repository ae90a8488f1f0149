package signature

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// newTestKeyring generates a signing key, writes its public half into
// keyringDir/<language>/, and returns the entity for signing.
func newTestKeyring(t *testing.T, keyringDir, language string) *openpgp.Entity {
	t.Helper()

	entity, err := openpgp.NewEntity("Release Signer", "", "releases@example.org", nil)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}

	dir := filepath.Join(keyringDir, language)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create keyring dir: %v", err)
	}

	var pub bytes.Buffer
	if err := entity.Serialize(&pub); err != nil {
		t.Fatalf("serialize public key: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "release.gpg"), pub.Bytes(), 0o644); err != nil {
		t.Fatalf("write public key: %v", err)
	}

	return entity
}

func signDetached(t *testing.T, entity *openpgp.Entity, content []byte) []byte {
	t.Helper()

	var sig bytes.Buffer
	if err := openpgp.DetachSign(&sig, entity, bytes.NewReader(content), nil); err != nil {
		t.Fatalf("sign: %v", err)
	}
	return sig.Bytes()
}

func TestVerifyDetached(t *testing.T) {
	keyringDir := t.TempDir()
	entity := newTestKeyring(t, keyringDir, "node")

	workDir := t.TempDir()
	content := []byte("checksums for a release\n")
	artifactPath := filepath.Join(workDir, "SHASUMS256.txt")
	if err := os.WriteFile(artifactPath, content, 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	sigPath := filepath.Join(workDir, "SHASUMS256.txt.sig")
	if err := os.WriteFile(sigPath, signDetached(t, entity, content), 0o644); err != nil {
		t.Fatalf("write signature: %v", err)
	}

	verifier := NewGPGVerifier(keyringDir)

	t.Run("valid signature", func(t *testing.T) {
		if err := verifier.VerifyDetached("node", artifactPath, sigPath); err != nil {
			t.Errorf("expected success, got %v", err)
		}
	})

	t.Run("tampered artifact", func(t *testing.T) {
		tampered := filepath.Join(workDir, "tampered.txt")
		if err := os.WriteFile(tampered, []byte("different content\n"), 0o644); err != nil {
			t.Fatalf("write tampered artifact: %v", err)
		}
		if err := verifier.VerifyDetached("node", tampered, sigPath); err == nil {
			t.Error("expected failure for tampered artifact")
		}
	})

	t.Run("armored signature", func(t *testing.T) {
		var armored bytes.Buffer
		if err := openpgp.ArmoredDetachSign(&armored, entity, bytes.NewReader(content), nil); err != nil {
			t.Fatalf("armored sign: %v", err)
		}
		armoredPath := filepath.Join(workDir, "SHASUMS256.txt.asc")
		if err := os.WriteFile(armoredPath, armored.Bytes(), 0o644); err != nil {
			t.Fatalf("write armored signature: %v", err)
		}
		if err := verifier.VerifyDetached("node", artifactPath, armoredPath); err != nil {
			t.Errorf("expected success for armored signature, got %v", err)
		}
	})

	t.Run("wrong key", func(t *testing.T) {
		otherDir := t.TempDir()
		newTestKeyring(t, otherDir, "node")
		other := NewGPGVerifier(otherDir)
		if err := other.VerifyDetached("node", artifactPath, sigPath); err == nil {
			t.Error("expected failure against unrelated keyring")
		}
	})

	t.Run("missing signature file", func(t *testing.T) {
		if err := verifier.VerifyDetached("node", artifactPath, filepath.Join(workDir, "absent.sig")); err == nil {
			t.Error("expected failure for missing signature")
		}
	})
}

func TestVerifyDetachedKeyringFailures(t *testing.T) {
	workDir := t.TempDir()
	artifactPath := filepath.Join(workDir, "artifact")
	sigPath := filepath.Join(workDir, "artifact.sig")
	for _, p := range []string{artifactPath, sigPath} {
		if err := os.WriteFile(p, []byte("x"), 0o644); err != nil {
			t.Fatalf("write %s: %v", p, err)
		}
	}

	t.Run("missing keyring directory", func(t *testing.T) {
		verifier := NewGPGVerifier(filepath.Join(t.TempDir(), "absent"))
		err := verifier.VerifyDetached("node", artifactPath, sigPath)
		if err == nil {
			t.Fatal("expected hard failure for missing keyring directory")
		}
		if !strings.Contains(err.Error(), "keyring") {
			t.Errorf("error does not mention keyring: %v", err)
		}
	})

	t.Run("empty keyring directory", func(t *testing.T) {
		keyringDir := t.TempDir()
		if err := os.MkdirAll(filepath.Join(keyringDir, "node"), 0o755); err != nil {
			t.Fatalf("create empty keyring dir: %v", err)
		}
		verifier := NewGPGVerifier(keyringDir)
		err := verifier.VerifyDetached("node", artifactPath, sigPath)
		if err == nil {
			t.Fatal("expected hard failure for empty keyring")
		}
		if !strings.Contains(err.Error(), "empty") {
			t.Errorf("error does not mention empty keyring: %v", err)
		}
	})
}
