// Package signature verifies release artifact signatures. Languages whose
// release managers sign with Sigstore go through keyless verification
// pinned to a per-release-line certificate identity. Everything else
// falls back to detached GPG signatures checked against shipped keyrings.
package signature

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnmappedVersion reports a version whose release line has no pinned
// signer identity. Verification must not proceed against an unknown
// identity, so this is a hard error rather than a skip.
var ErrUnmappedVersion = errors.New("no signer identity mapped for version")

// CertIdentity pins the certificate identity expected on a keyless
// signature: the subject alternative name and the OIDC issuer that
// authenticated it.
type CertIdentity struct {
	SAN    string
	Issuer string
}

// pythonIdentities maps CPython release lines to the release manager who
// signs that line. Release managers rotate per minor version, so the map
// key is "major.minor".
var pythonIdentities = map[string]CertIdentity{
	"3.8":  {SAN: "lukasz@langa.pl", Issuer: "https://github.com/login/oauth"},
	"3.9":  {SAN: "lukasz@langa.pl", Issuer: "https://github.com/login/oauth"},
	"3.10": {SAN: "pablogsal@python.org", Issuer: "https://accounts.google.com"},
	"3.11": {SAN: "pablogsal@python.org", Issuer: "https://accounts.google.com"},
	"3.12": {SAN: "thomas@python.org", Issuer: "https://accounts.google.com"},
	"3.13": {SAN: "thomas@python.org", Issuer: "https://accounts.google.com"},
	"3.14": {SAN: "hugo@python.org", Issuer: "https://github.com/login/oauth"},
}

// LookupIdentity returns the pinned signer identity for a language
// release. ErrUnmappedVersion means the release line is unknown and the
// caller must fail verification rather than guess.
func LookupIdentity(language, version string) (CertIdentity, error) {
	switch language {
	case "python":
		line := releaseLine(version)
		if id, ok := pythonIdentities[line]; ok {
			return id, nil
		}
		return CertIdentity{}, fmt.Errorf("%w: python %s (release line %s)", ErrUnmappedVersion, version, line)
	default:
		return CertIdentity{}, fmt.Errorf("%w: %s %s", ErrUnmappedVersion, language, version)
	}
}

// SupportsSigstore reports whether a language's releases carry keyless
// signatures at all.
func SupportsSigstore(language string) bool {
	return language == "python"
}

// releaseLine reduces a full version to its "major.minor" release line.
func releaseLine(version string) string {
	parts := strings.SplitN(version, ".", 3)
	if len(parts) < 2 {
		return version
	}
	return parts[0] + "." + parts[1]
}
