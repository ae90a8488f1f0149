// Package fetch downloads release artifacts and their verification
// material into a local cache. Downloads are atomic: content lands in a
// temp file and is renamed into place only when complete, so a cached
// file is never a partial download.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/joshjhall/buildtrust/internal/checksum"
	"github.com/joshjhall/buildtrust/internal/retry"
)

const (
	// DefaultTimeout is the HTTP request timeout for artifact downloads.
	DefaultTimeout = 5 * time.Minute
	// DefaultUserAgent is the User-Agent header sent with requests.
	DefaultUserAgent = "buildtrust/1.0"
)

// Artifact describes one downloadable release artifact and the
// verification material published alongside it. Empty URLs mean the
// vendor does not publish that material.
type Artifact struct {
	Category checksum.Category
	Name     string
	Version  string

	URL          string
	SignatureURL string
	ChecksumURL  string
	BundleURL    string
}

// Filename returns the artifact's file name within the cache.
func (a *Artifact) Filename() string {
	return filepath.Base(a.URL)
}

// Downloader fetches artifacts into a cache directory laid out as
// cache/<category>/<name>/<version>/<filename>.
type Downloader struct {
	client   *http.Client
	exec     *retry.Executor
	cacheDir string
}

// NewDownloader creates a downloader caching under cacheDir.
func NewDownloader(cacheDir string, policy retry.Policy) *Downloader {
	return &Downloader{
		client: &http.Client{
			Timeout: DefaultTimeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 10 {
					return fmt.Errorf("too many redirects")
				}
				return nil
			},
		},
		exec:     retry.New(policy),
		cacheDir: cacheDir,
	}
}

// Fetch downloads the artifact itself and returns its cache path.
func (d *Downloader) Fetch(ctx context.Context, a *Artifact) (string, error) {
	return d.fetchInto(ctx, a, a.URL, "download artifact")
}

// FetchSignature downloads the detached signature, if any.
func (d *Downloader) FetchSignature(ctx context.Context, a *Artifact) (string, error) {
	if a.SignatureURL == "" {
		return "", fmt.Errorf("no signature published for %s %s", a.Name, a.Version)
	}
	return d.fetchInto(ctx, a, a.SignatureURL, "download signature")
}

// FetchChecksums downloads the vendor checksum file, if any.
func (d *Downloader) FetchChecksums(ctx context.Context, a *Artifact) (string, error) {
	if a.ChecksumURL == "" {
		return "", fmt.Errorf("no checksum file published for %s %s", a.Name, a.Version)
	}
	return d.fetchInto(ctx, a, a.ChecksumURL, "download checksums")
}

// FetchBundle downloads the keyless signature bundle, if any.
func (d *Downloader) FetchBundle(ctx context.Context, a *Artifact) (string, error) {
	if a.BundleURL == "" {
		return "", fmt.Errorf("no signature bundle published for %s %s", a.Name, a.Version)
	}
	return d.fetchInto(ctx, a, a.BundleURL, "download bundle")
}

func (d *Downloader) fetchInto(ctx context.Context, a *Artifact, url, what string) (string, error) {
	if a == nil {
		return "", fmt.Errorf("artifact is nil")
	}

	cachePath := filepath.Join(d.cacheDir, string(a.Category), a.Name, a.Version, filepath.Base(url))
	if fileExists(cachePath) {
		return cachePath, nil
	}

	err := d.exec.Do(ctx, func(ctx context.Context) error {
		return d.downloadOnce(ctx, url, cachePath)
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", what, err)
	}
	return cachePath, nil
}

// downloadOnce performs a single download attempt into destPath.
func (d *Downloader) downloadOnce(ctx context.Context, url, destPath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return retry.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", DefaultUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
		if resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden {
			return retry.Permanent(err)
		}
		return err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return retry.Permanent(fmt.Errorf("create cache dir: %w", err))
	}

	tmpPath := destPath + ".tmp"
	tmpFile, err := os.Create(tmpPath)
	if err != nil {
		return retry.Permanent(fmt.Errorf("create temp file: %w", err))
	}

	cleanupNeeded := true
	defer func() {
		tmpFile.Close()
		if cleanupNeeded {
			os.Remove(tmpPath)
		}
	}()

	if _, err := io.Copy(tmpFile, resp.Body); err != nil {
		return fmt.Errorf("copy response body: %w", err)
	}

	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}

	cleanupNeeded = false
	return nil
}

// fileExists checks if a file exists and is not empty.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir() && info.Size() > 0
}
