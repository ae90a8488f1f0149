package signature

import (
	"fmt"
	"os"

	"github.com/sigstore/sigstore-go/pkg/bundle"
	"github.com/sigstore/sigstore-go/pkg/root"
	"github.com/sigstore/sigstore-go/pkg/verify"
)

// SigstoreVerifier checks keyless signature bundles against the Sigstore
// public good instance. The trust root is loaded once at construction and
// reused for every verification.
type SigstoreVerifier struct {
	verifier *verify.Verifier
}

// NewSigstoreVerifier builds a verifier. With trustRootPath set, the trust
// root comes from that JSON file and no network access is needed;
// otherwise it is fetched through TUF from the Sigstore CDN.
func NewSigstoreVerifier(trustRootPath string) (*SigstoreVerifier, error) {
	var trustRoot *root.TrustedRoot
	var err error
	if trustRootPath != "" {
		data, readErr := os.ReadFile(trustRootPath)
		if readErr != nil {
			return nil, fmt.Errorf("read trust root: %w", readErr)
		}
		trustRoot, err = root.NewTrustedRootFromJSON(data)
	} else {
		trustRoot, err = root.FetchTrustedRoot()
	}
	if err != nil {
		return nil, fmt.Errorf("load trust root: %w", err)
	}

	// Transparency log entries and their integrated timestamps are both
	// required for short-lived certificates to verify.
	v, err := verify.NewVerifier(trustRoot,
		verify.WithTransparencyLog(1),
		verify.WithIntegratedTimestamps(1),
	)
	if err != nil {
		return nil, fmt.Errorf("create sigstore verifier: %w", err)
	}

	return &SigstoreVerifier{verifier: v}, nil
}

// VerifyArtifact checks that the bundle at bundlePath is a valid keyless
// signature over the artifact, made by the pinned identity.
func (s *SigstoreVerifier) VerifyArtifact(artifactPath, bundlePath string, id CertIdentity) error {
	b, err := bundle.LoadJSONFromPath(bundlePath)
	if err != nil {
		return fmt.Errorf("load signature bundle: %w", err)
	}

	certID, err := verify.NewShortCertificateIdentity(id.Issuer, "", id.SAN, "")
	if err != nil {
		return fmt.Errorf("build certificate identity: %w", err)
	}

	artifact, err := os.Open(artifactPath)
	if err != nil {
		return fmt.Errorf("open artifact: %w", err)
	}
	defer artifact.Close()

	policy := verify.NewPolicy(
		verify.WithArtifact(artifact),
		verify.WithCertificateIdentity(certID),
	)

	if _, err := s.verifier.Verify(b, policy); err != nil {
		return fmt.Errorf("sigstore verification failed for %s: %w", id.SAN, err)
	}
	return nil
}
