package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joshjhall/buildtrust/internal/fetch"
	"github.com/joshjhall/buildtrust/internal/platform"
	"github.com/joshjhall/buildtrust/internal/retry"
	"github.com/joshjhall/buildtrust/internal/version"
)

// runFetch handles the `buildtrust fetch` subcommand: resolve the spec,
// download the release artifact plus whatever verification material the
// vendor publishes, and print the cache path.
func runFetch(args []string) (int, error) {
	var positional []string
	for _, arg := range args {
		switch arg {
		case "--help", "-h":
			fmt.Println("Usage: buildtrust fetch <language> <spec>")
			fmt.Println()
			fmt.Println("Download a language release and its signature or checksum material")
			fmt.Println("into the cache. Pair with `buildtrust verify` before installing.")
			return 0, nil
		default:
			positional = append(positional, arg)
		}
	}

	if len(positional) != 2 {
		return 1, fmt.Errorf("expected <language> <spec>")
	}
	language, spec := positional[0], positional[1]

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	retryPolicy := retry.PolicyFromEnv()

	resolver := version.NewResolver(retryPolicy)
	resolved, err := resolver.Resolve(ctx, language, spec)
	if err != nil {
		return 1, err
	}

	info, err := platform.NewDetector().Detect(ctx)
	if err != nil {
		return 1, err
	}

	canonical, ok := version.Canonical(language)
	if !ok {
		return 1, fmt.Errorf("no artifact layout known for language %q", language)
	}
	artifact, err := fetch.LanguageArtifact(canonical, resolved, info)
	if err != nil {
		return 1, err
	}

	downloader := fetch.NewDownloader(cacheDir(), retryPolicy)
	path, err := downloader.Fetch(ctx, artifact)
	if err != nil {
		return 1, err
	}

	// Verification material is best effort here; the verify subcommand
	// decides what its absence means.
	if artifact.BundleURL != "" {
		if _, err := downloader.FetchBundle(ctx, artifact); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}
	if artifact.ChecksumURL != "" {
		if _, err := downloader.FetchChecksums(ctx, artifact); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}
	if artifact.SignatureURL != "" {
		if _, err := downloader.FetchSignature(ctx, artifact); err != nil {
			fmt.Fprintf(os.Stderr, "warning: %v\n", err)
		}
	}

	fmt.Println(path)
	return 0, nil
}

// cacheDir returns the artifact cache root.
func cacheDir() string {
	if dir := os.Getenv("BUILDTRUST_CACHE_DIR"); dir != "" {
		return dir
	}
	base, err := os.UserCacheDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "buildtrust")
}
