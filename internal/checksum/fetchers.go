package checksum

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/joshjhall/buildtrust/internal/platform"
	"github.com/joshjhall/buildtrust/internal/retry"
)

const (
	defaultK8sDLURL      = "https://dl.k8s.io"
	defaultHashicorpURL  = "https://releases.hashicorp.com"
	defaultGitHubAPIBase = "https://api.github.com"
)

// Builtins constructs the tool fetchers that ship with the binary. The
// GitHub token is optional; without it the gh fetcher runs against the
// anonymous rate limit.
type Builtins struct {
	client *http.Client
	exec   *retry.Executor
	info   *platform.Info
	token  string

	k8sDLURL     string
	hashicorpURL string
	githubAPIURL string
}

// NewBuiltins returns the built-in fetcher set for the given platform.
func NewBuiltins(policy retry.Policy, info *platform.Info, githubToken string) *Builtins {
	return &Builtins{
		client:       http.DefaultClient,
		exec:         retry.New(policy),
		info:         info,
		token:        githubToken,
		k8sDLURL:     defaultK8sDLURL,
		hashicorpURL: defaultHashicorpURL,
		githubAPIURL: defaultGitHubAPIBase,
	}
}

// RegisterAll installs every built-in fetcher into the registry.
func (b *Builtins) RegisterAll(reg *Registry) {
	reg.Register("kubectl", b.Kubectl)
	reg.Register("terraform", b.Terraform)
	reg.Register("gh", b.GitHubCLI)
}

// Kubectl fetches the bare digest file the Kubernetes project publishes
// next to each kubectl binary.
func (b *Builtins) Kubectl(ctx context.Context, version string) (string, error) {
	url := fmt.Sprintf("%s/release/v%s/bin/%s/%s/kubectl.sha256",
		b.k8sDLURL, version, b.info.OS, b.info.Arch)
	body, err := b.get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetch kubectl checksum: %w", err)
	}

	digest := strings.TrimSpace(string(body))
	if !IsHexDigest(digest, 64) {
		return "", fmt.Errorf("kubectl checksum for %s is not a sha256 digest", version)
	}
	return digest, nil
}

// Terraform fetches HashiCorp's SHA256SUMS file for a release and picks
// the entry matching this platform's zip.
func (b *Builtins) Terraform(ctx context.Context, version string) (string, error) {
	url := fmt.Sprintf("%s/terraform/%s/terraform_%s_SHA256SUMS",
		b.hashicorpURL, version, version)
	body, err := b.get(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetch terraform checksums: %w", err)
	}

	filename := fmt.Sprintf("terraform_%s_%s_%s.zip", version, b.info.OS, b.info.Arch)
	digest, err := FindInChecksumFile(body, filename)
	if err != nil {
		return "", fmt.Errorf("%w: %s not in SHA256SUMS for terraform %s", ErrNoChecksum, filename, version)
	}
	return digest, nil
}

// ghRelease mirrors the fields we need from the GitHub release API.
type ghRelease struct {
	Assets []ghAsset `json:"assets"`
}

type ghAsset struct {
	Name        string `json:"name"`
	DownloadURL string `json:"browser_download_url"`
}

// GitHubCLI fetches the checksums.txt asset attached to a gh release and
// picks the entry for this platform's archive.
func (b *Builtins) GitHubCLI(ctx context.Context, version string) (string, error) {
	url := fmt.Sprintf("%s/repos/cli/cli/releases/tags/v%s", b.githubAPIURL, version)
	body, err := b.getGitHub(ctx, url)
	if err != nil {
		return "", fmt.Errorf("fetch gh release: %w", err)
	}

	var rel ghRelease
	if err := json.Unmarshal(body, &rel); err != nil {
		return "", fmt.Errorf("parse gh release: %w", err)
	}

	checksumsName := fmt.Sprintf("gh_%s_checksums.txt", version)
	var checksumsURL string
	for _, asset := range rel.Assets {
		if asset.Name == checksumsName {
			checksumsURL = asset.DownloadURL
			break
		}
	}
	if checksumsURL == "" {
		return "", fmt.Errorf("%w: %s not attached to gh v%s", ErrNoChecksum, checksumsName, version)
	}

	sums, err := b.get(ctx, checksumsURL)
	if err != nil {
		return "", fmt.Errorf("fetch gh checksums: %w", err)
	}

	digest, err := FindInChecksumFile(sums, b.ghArchiveName(version))
	if err != nil {
		return "", fmt.Errorf("%w: no gh %s entry for %s/%s", ErrNoChecksum, version, b.info.OS, b.info.Arch)
	}
	return digest, nil
}

// ghArchiveName builds the release asset name for this platform. The gh
// project ships zips for macOS and Windows, tarballs elsewhere.
func (b *Builtins) ghArchiveName(version string) string {
	osName := b.info.OS
	ext := "tar.gz"
	if osName == "darwin" {
		osName = "macOS"
		ext = "zip"
	}
	if osName == "windows" {
		ext = "zip"
	}
	return fmt.Sprintf("gh_%s_%s_%s.%s", version, osName, b.info.Arch, ext)
}

func (b *Builtins) get(ctx context.Context, url string) ([]byte, error) {
	var body []byte
	err := b.exec.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return retry.Permanent(err)
		}
		resp, err := b.client.Do(req)
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

func (b *Builtins) getGitHub(ctx context.Context, url string) ([]byte, error) {
	req, err := retry.NewGitHubRequest(ctx, http.MethodGet, url, b.token)
	if err != nil {
		return nil, err
	}
	resp, err := b.exec.DoRequest(b.client, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: status %d", url, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
