package verify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joshjhall/buildtrust/internal/checksum"
	"github.com/joshjhall/buildtrust/internal/signature"
)

// gpgChecksumFile is the signed checksum manifest some vendors ship next
// to their artifacts instead of signing each artifact directly. Node's
// release layout is the model: SHASUMS256.txt plus a detached signature.
const gpgChecksumFile = "SHASUMS256.txt"

// SigstoreArtifactVerifier matches signature.SigstoreVerifier so tests
// can substitute it.
type SigstoreArtifactVerifier interface {
	VerifyArtifact(artifactPath, bundlePath string, id signature.CertIdentity) error
}

// GPGDetachedVerifier matches signature.GPGVerifier.
type GPGDetachedVerifier interface {
	VerifyDetached(language, artifactPath, signaturePath string) error
}

// ReleaseVerifier is the production tier-1 implementation. It routes
// each language to its signing scheme and translates the outcome into
// the engine's sentinel errors.
type ReleaseVerifier struct {
	sigstore SigstoreArtifactVerifier
	gpg      GPGDetachedVerifier
}

// NewReleaseVerifier wires the two signature backends. Either may be nil,
// which makes the corresponding scheme unavailable rather than failing.
func NewReleaseVerifier(sigstore SigstoreArtifactVerifier, gpg GPGDetachedVerifier) *ReleaseVerifier {
	return &ReleaseVerifier{sigstore: sigstore, gpg: gpg}
}

// VerifyRelease checks the release signature for filePath.
func (r *ReleaseVerifier) VerifyRelease(ctx context.Context, language, version, filePath string) error {
	if signature.SupportsSigstore(language) {
		return r.verifySigstore(language, version, filePath)
	}
	return r.verifyGPG(language, filePath)
}

func (r *ReleaseVerifier) verifySigstore(language, version, filePath string) error {
	bundlePath := filePath + ".sigstore"
	if _, err := os.Stat(bundlePath); err != nil {
		return fmt.Errorf("%w: no bundle at %s", ErrSignatureUnavailable, bundlePath)
	}

	// The artifact is signed by a specific release manager. A valid
	// signature from anyone else must not pass.
	id, err := signature.LookupIdentity(language, version)
	if err != nil {
		if errors.Is(err, signature.ErrUnmappedVersion) {
			return fmt.Errorf("%w: %v", ErrSignatureConfig, err)
		}
		return err
	}

	if r.sigstore == nil {
		return fmt.Errorf("%w: sigstore verifier not configured", ErrSignatureUnavailable)
	}

	if err := r.sigstore.VerifyArtifact(filePath, bundlePath, id); err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	return nil
}

func (r *ReleaseVerifier) verifyGPG(language, filePath string) error {
	if r.gpg == nil {
		return fmt.Errorf("%w: gpg verifier not configured", ErrSignatureUnavailable)
	}

	// Direct detached signature over the artifact.
	for _, ext := range []string{".asc", ".sig"} {
		sigPath := filePath + ext
		if _, err := os.Stat(sigPath); err == nil {
			return r.classifyGPG(r.gpg.VerifyDetached(language, filePath, sigPath))
		}
	}

	// Signed checksum manifest next to the artifact.
	dir := filepath.Dir(filePath)
	manifest := filepath.Join(dir, gpgChecksumFile)
	for _, ext := range []string{".asc", ".sig"} {
		sigPath := manifest + ext
		if _, err := os.Stat(sigPath); err != nil {
			continue
		}
		if err := r.classifyGPG(r.gpg.VerifyDetached(language, manifest, sigPath)); err != nil {
			return err
		}
		return r.matchManifest(manifest, filePath)
	}

	return fmt.Errorf("%w: no detached signature for %s", ErrSignatureUnavailable, filepath.Base(filePath))
}

// matchManifest confirms the artifact's digest appears in the verified
// checksum manifest. The signature covers the manifest, so a match
// extends the trust to the artifact itself.
func (r *ReleaseVerifier) matchManifest(manifestPath, filePath string) error {
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return fmt.Errorf("read checksum manifest: %w", err)
	}

	expected, err := checksum.FindInChecksumFile(data, filepath.Base(filePath))
	if err != nil {
		return fmt.Errorf("%w: artifact not listed in signed manifest", ErrSignatureUnavailable)
	}

	algo, err := checksum.AlgorithmForDigest(expected)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
	}
	actual, err := checksum.ComputeFile(filePath, algo)
	if err != nil {
		return fmt.Errorf("compute artifact digest: %w", err)
	}
	if !checksum.Equal(actual, expected) {
		return fmt.Errorf("%w: artifact digest does not match signed manifest", ErrSignatureInvalid)
	}
	return nil
}

func (r *ReleaseVerifier) classifyGPG(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, signature.ErrKeyring) {
		return fmt.Errorf("%w: %v", ErrSignatureConfig, err)
	}
	return fmt.Errorf("%w: %v", ErrSignatureInvalid, err)
}
