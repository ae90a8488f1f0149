package version

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// nodeRelease is one entry of https://nodejs.org/dist/index.json.
type nodeRelease struct {
	Version string `json:"version"` // "v20.11.0"
	LTS     any    `json:"lts"`     // false or codename string
}

// resolveNode finds the newest matching release in the Node.js dist index.
func (r *Resolver) resolveNode(ctx context.Context, spec Spec) (string, error) {
	body, err := r.fetchIndex(ctx, r.nodeIndexURL)
	if err != nil {
		return "", err
	}

	var releases []nodeRelease
	if err := json.Unmarshal(body, &releases); err != nil {
		return "", fmt.Errorf("parse node release index: %w", err)
	}

	candidates := make([]string, 0, len(releases))
	for _, rel := range releases {
		candidates = append(candidates, strings.TrimPrefix(rel.Version, "v"))
	}

	return highestMatch(candidates, spec)
}
