package version

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/joshjhall/buildtrust/internal/retry"
)

const indexTimeout = 30 * time.Second

// ErrUnknownLanguage is returned for languages without a release-index
// resolver. The input version is returned alongside so callers that only
// pass versions through can keep going.
var ErrUnknownLanguage = errors.New("unknown language")

// ErrNoMatch means the release index was reachable but contained no version
// matching the specifier. Distinct from availability errors so callers can
// tell "does not exist" from "could not look".
var ErrNoMatch = errors.New("no matching version")

// aliases maps accepted language names to their canonical resolver name.
var aliases = map[string]string{
	"python":  "python",
	"python3": "python",
	"node":    "node",
	"nodejs":  "node",
	"go":      "go",
	"golang":  "go",
}

// Canonical normalizes a language name, resolving known aliases.
func Canonical(language string) (string, bool) {
	name, ok := aliases[language]
	return name, ok
}

// Resolver turns partial version specifiers into concrete versions using
// each language's official release index.
type Resolver struct {
	client *http.Client
	exec   *retry.Executor

	// Index endpoints, overridable in tests.
	pythonIndexURL string
	nodeIndexURL   string
	goIndexURL     string
}

// NewResolver creates a resolver that retries index fetches under the given
// policy.
func NewResolver(policy retry.Policy) *Resolver {
	return &Resolver{
		client:         &http.Client{Timeout: indexTimeout},
		exec:           retry.New(policy),
		pythonIndexURL: "https://www.python.org/ftp/python/",
		nodeIndexURL:   "https://nodejs.org/dist/index.json",
		goIndexURL:     "https://go.dev/dl/?mode=json",
	}
}

// Resolve returns the newest concrete version matching the specifier.
//
// Full specifiers (X.Y.Z) are returned unchanged without any network access.
// For an unknown language the input is returned unchanged together with
// ErrUnknownLanguage, so callers can decide whether that is fatal.
func (r *Resolver) Resolve(ctx context.Context, language, rawSpec string) (string, error) {
	spec, err := ParseSpec(rawSpec)
	if err != nil {
		return "", err
	}

	// Hard contract: a fully-qualified version never triggers a lookup.
	if spec.Shape == Full {
		return rawSpec, nil
	}

	name, ok := Canonical(language)
	if !ok {
		return rawSpec, fmt.Errorf("%w: %s", ErrUnknownLanguage, language)
	}

	var resolved string
	switch name {
	case "python":
		resolved, err = r.resolvePython(ctx, spec)
	case "node":
		resolved, err = r.resolveNode(ctx, spec)
	case "go":
		resolved, err = r.resolveGo(ctx, spec)
	}
	if err != nil {
		return "", fmt.Errorf("resolve %s %s: %w", name, rawSpec, err)
	}

	return resolved, nil
}

// fetchIndex retrieves a release index under the retry policy and returns
// the response body.
func (r *Resolver) fetchIndex(ctx context.Context, url string) ([]byte, error) {
	var body []byte

	err := r.exec.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return retry.Permanent(err)
		}

		resp, err := r.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
		}

		body, err = io.ReadAll(resp.Body)
		return err
	})
	if err != nil {
		return nil, err
	}

	return body, nil
}

// highestMatch returns the largest candidate matching the specifier.
func highestMatch(candidates []string, spec Spec) (string, error) {
	best := ""
	for _, c := range candidates {
		if !spec.Matches(c) {
			continue
		}
		if best == "" || Compare(c, best) > 0 {
			best = c
		}
	}
	if best == "" {
		return "", fmt.Errorf("%w for specifier %s", ErrNoMatch, spec.Raw)
	}
	return best, nil
}
