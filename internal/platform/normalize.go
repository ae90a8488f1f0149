package platform

import (
	"fmt"
	"strings"
)

// familyMap maps distribution names reported by gopsutil to the
// canonical families that matter for archive compatibility.
var familyMap = map[string]string{
	"debian": FamilyDebian,
	"ubuntu": FamilyDebian,
	"rhel":   FamilyRHEL,
	"centos": FamilyRHEL,
	"rocky":  FamilyRHEL,
	"fedora": FamilyRHEL,
	"alpine": FamilyAlpine,
}

// normalizeArch converts GOARCH values to normalized architecture names.
// Only amd64 and arm64 have prebuilt runtime archives.
func normalizeArch(arch string) (string, error) {
	switch arch {
	case "amd64", "x86_64":
		return "amd64", nil
	case "arm64", "aarch64":
		return "arm64", nil
	default:
		return "", fmt.Errorf("unsupported architecture: %s (amd64 and arm64 only)", arch)
	}
}

// normalizePlatform converts platform IDs to lowercase for consistency.
func normalizePlatform(platform string) string {
	return strings.ToLower(strings.TrimSpace(platform))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	if canonical, ok := familyMap[normalizePlatform(family)]; ok {
		return canonical
	}
	return FamilyUnknown
}
