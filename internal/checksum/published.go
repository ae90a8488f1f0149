package checksum

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/joshjhall/buildtrust/internal/retry"
)

const (
	defaultNodeDistURL = "https://nodejs.org/dist"
	defaultGoDLURL     = "https://go.dev/dl/?mode=json&include=all"
)

// PublishedFetcher retrieves vendor-published checksums for language
// runtime archives. Each vendor publishes differently: Node ships a
// SHASUMS256.txt per release, Go exposes per-file digests in its download
// JSON, and python.org publishes no standalone checksum files at all, so
// Python relies on the signature and pinned tiers.
type PublishedFetcher struct {
	client *http.Client
	exec   *retry.Executor

	nodeDistURL string
	goDLURL     string
}

// NewPublishedFetcher returns a fetcher using the given retry policy.
func NewPublishedFetcher(policy retry.Policy) *PublishedFetcher {
	return &PublishedFetcher{
		client:      http.DefaultClient,
		exec:        retry.New(policy),
		nodeDistURL: defaultNodeDistURL,
		goDLURL:     defaultGoDLURL,
	}
}

// Fetch returns the published digest for a language release artifact.
// ErrNoChecksum means the vendor has nothing to offer for this artifact;
// other errors mean the source could not be consulted.
func (p *PublishedFetcher) Fetch(ctx context.Context, language, version, filename string) (string, error) {
	switch language {
	case "node":
		return p.fetchNode(ctx, version, filename)
	case "go":
		return p.fetchGo(ctx, version, filename)
	default:
		return "", fmt.Errorf("%w for %s %s", ErrNoChecksum, language, version)
	}
}

func (p *PublishedFetcher) fetchNode(ctx context.Context, version, filename string) (string, error) {
	url := fmt.Sprintf("%s/v%s/SHASUMS256.txt", p.nodeDistURL, version)
	body, err := p.get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetch node checksums: %w", err)
	}

	digest, err := FindInChecksumFile(body, filename)
	if err != nil {
		return "", fmt.Errorf("%w: %s not in SHASUMS256.txt for node %s", ErrNoChecksum, filename, version)
	}
	return digest, nil
}

// goDLFile mirrors one file entry in the go.dev download listing.
type goDLFile struct {
	Filename string `json:"filename"`
	SHA256   string `json:"sha256"`
}

type goDLRelease struct {
	Version string     `json:"version"`
	Files   []goDLFile `json:"files"`
}

func (p *PublishedFetcher) fetchGo(ctx context.Context, version, filename string) (string, error) {
	body, err := p.get(ctx, p.goDLURL)
	if err != nil {
		return "", fmt.Errorf("fetch go download listing: %w", err)
	}

	var releases []goDLRelease
	if err := json.Unmarshal(body, &releases); err != nil {
		return "", fmt.Errorf("parse go download listing: %w", err)
	}

	want := "go" + version
	for _, rel := range releases {
		if rel.Version != want {
			continue
		}
		for _, f := range rel.Files {
			if f.Filename == filename && f.SHA256 != "" {
				return f.SHA256, nil
			}
		}
		return "", fmt.Errorf("%w: %s not listed for go %s", ErrNoChecksum, filename, version)
	}
	return "", fmt.Errorf("%w: go %s not in download listing", ErrNoChecksum, version)
}

func (p *PublishedFetcher) get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := p.exec.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		resp, err := p.client.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			err := fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
			if resp.StatusCode == http.StatusNotFound {
				return retry.Permanent(err)
			}
			return err
		}
		body, err = io.ReadAll(resp.Body)
		return err
	})
	return body, err
}
