package version

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// goRelease is one entry of https://go.dev/dl/?mode=json.
type goRelease struct {
	Version string `json:"version"` // "go1.22.1"
	Stable  bool   `json:"stable"`
}

// resolveGo finds the newest matching stable release in the go.dev download
// index. Unstable entries (release candidates) are skipped.
func (r *Resolver) resolveGo(ctx context.Context, spec Spec) (string, error) {
	body, err := r.fetchIndex(ctx, r.goIndexURL)
	if err != nil {
		return "", err
	}

	var releases []goRelease
	if err := json.Unmarshal(body, &releases); err != nil {
		return "", fmt.Errorf("parse go release index: %w", err)
	}

	candidates := make([]string, 0, len(releases))
	for _, rel := range releases {
		if !rel.Stable {
			continue
		}
		candidates = append(candidates, strings.TrimPrefix(rel.Version, "go"))
	}

	return highestMatch(candidates, spec)
}
