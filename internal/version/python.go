package version

import (
	"context"
	"regexp"
)

// pythonDirRegex extracts version directories from the python.org FTP
// listing, e.g. href="3.12.7/".
var pythonDirRegex = regexp.MustCompile(`href="(\d+\.\d+\.\d+)/"`)

// resolvePython finds the newest matching release in the python.org FTP
// directory index. The index lists every release ever made, including
// pre-2.x history, so prefix matching does the filtering.
func (r *Resolver) resolvePython(ctx context.Context, spec Spec) (string, error) {
	body, err := r.fetchIndex(ctx, r.pythonIndexURL)
	if err != nil {
		return "", err
	}

	matches := pythonDirRegex.FindAllStringSubmatch(string(body), -1)
	candidates := make([]string, 0, len(matches))
	for _, m := range matches {
		candidates = append(candidates, m[1])
	}

	return highestMatch(candidates, spec)
}
