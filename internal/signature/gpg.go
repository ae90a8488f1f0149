package signature

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ProtonMail/go-crypto/openpgp" //nolint:staticcheck // Using ProtonMail's maintained fork
)

// ErrKeyring reports that a keyring could not be loaded at all: the
// directory is missing, unreadable, or holds no usable keys. Callers
// treat this as a configuration failure rather than a bad signature.
var ErrKeyring = errors.New("gpg keyring unavailable")

// GPGVerifier checks detached GPG signatures against per-language
// keyrings kept under a keyring directory. Each language has a
// subdirectory holding one or more key files, armored or binary.
type GPGVerifier struct {
	keyringDir string
}

// NewGPGVerifier creates a verifier rooted at keyringDir.
func NewGPGVerifier(keyringDir string) *GPGVerifier {
	return &GPGVerifier{keyringDir: keyringDir}
}

// VerifyDetached checks the detached signature at signaturePath over the
// file at artifactPath using the language's keyring. A missing or empty
// keyring is a hard failure: verifying against nothing proves nothing.
func (g *GPGVerifier) VerifyDetached(language, artifactPath, signaturePath string) error {
	keyring, err := g.loadKeyring(language)
	if err != nil {
		return fmt.Errorf("load %s keyring: %w", language, err)
	}

	artifact, err := os.Open(artifactPath)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer artifact.Close()

	sig, err := os.Open(signaturePath)
	if err != nil {
		return fmt.Errorf("open signature: %w", err)
	}
	defer sig.Close()

	// Try armored first, then raw binary.
	_, err = openpgp.CheckArmoredDetachedSignature(keyring, artifact, sig, nil)
	if err != nil {
		artifact.Seek(0, io.SeekStart)
		sig.Seek(0, io.SeekStart)
		_, err = openpgp.CheckDetachedSignature(keyring, artifact, sig, nil)
	}
	if err != nil {
		return fmt.Errorf("gpg verification failed for %s: %w", language, err)
	}
	return nil
}

// loadKeyring reads every key file in the language's keyring directory
// into one entity list.
func (g *GPGVerifier) loadKeyring(language string) (openpgp.EntityList, error) {
	dir := filepath.Join(g.keyringDir, language)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrKeyring, err)
	}

	var keyring openpgp.EntityList
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		keys, err := readKeyFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read key %s: %w", entry.Name(), err)
		}
		keyring = append(keyring, keys...)
	}

	if len(keyring) == 0 {
		return nil, fmt.Errorf("%w: keyring for %s is empty", ErrKeyring, language)
	}
	return keyring, nil
}

func readKeyFile(path string) (openpgp.EntityList, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	keys, err := openpgp.ReadArmoredKeyRing(file)
	if err != nil {
		file.Seek(0, io.SeekStart)
		keys, err = openpgp.ReadKeyRing(file)
	}
	return keys, err
}
