package verify

import "strings"

// Policy controls whether unverified artifacts may be accepted. It is
// built once at startup and passed into the engine; the engine itself
// never consults the environment.
type Policy struct {
	// RequireVerified disables trust-on-first-use acceptance. Artifacts
	// that no tier can verify become hard failures.
	RequireVerified bool
}

// PolicyFromFlags derives a Policy from the two environment flag values.
// requireVerified comes from REQUIRE_VERIFIED_DOWNLOADS and productionMode
// from PRODUCTION_MODE; either being truthy disables TOFU. Parsing lives
// here so the engine and the CLI agree on what counts as true.
func PolicyFromFlags(requireVerified, productionMode string) Policy {
	return Policy{
		RequireVerified: isTruthy(requireVerified) || isTruthy(productionMode),
	}
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
