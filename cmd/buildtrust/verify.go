package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/joshjhall/buildtrust/internal/checksum"
	"github.com/joshjhall/buildtrust/internal/platform"
	"github.com/joshjhall/buildtrust/internal/retry"
	"github.com/joshjhall/buildtrust/internal/signature"
	"github.com/joshjhall/buildtrust/internal/verify"
)

// runVerify handles the `buildtrust verify` subcommand. The exit code is
// the verdict: 0 verified, 1 failed, 2 accepted unverified.
func runVerify(args []string) (int, error) {
	trustRootPath := ""
	dbPath := os.Getenv("BUILDTRUST_CHECKSUM_DB")
	var positional []string

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--help", "-h":
			printVerifyHelp()
			return 0, nil
		case "--trust-root":
			i++
			if i >= len(args) {
				return 1, fmt.Errorf("--trust-root requires a path")
			}
			trustRootPath = args[i]
		case "--checksum-db":
			i++
			if i >= len(args) {
				return 1, fmt.Errorf("--checksum-db requires a path")
			}
			dbPath = args[i]
		default:
			positional = append(positional, args[i])
		}
	}

	if len(positional) != 4 {
		printVerifyHelp()
		return 1, fmt.Errorf("expected <category> <name> <version> <file>")
	}

	category := checksum.Category(positional[0])
	if category != checksum.CategoryLanguage && category != checksum.CategoryTool {
		return 1, fmt.Errorf("category must be %q or %q", checksum.CategoryLanguage, checksum.CategoryTool)
	}
	name, ver, filePath := positional[1], positional[2], positional[3]

	logger := newLogger()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	engine, err := buildEngine(ctx, logger, category, name, filePath, trustRootPath, dbPath)
	if err != nil {
		return 1, err
	}

	result, err := engine.Verify(ctx, category, name, ver, filePath)
	switch result.Verdict {
	case verify.Verified:
		fmt.Printf("verified: %s %s via %s tier\n", name, ver, result.Tier)
		return 0, nil
	case verify.Unverified:
		fmt.Printf("UNVERIFIED (trust-on-first-use): %s %s sha256=%s\n", name, ver, result.Digest)
		return 2, nil
	default:
		return 1, err
	}
}

// buildEngine assembles the verification engine from the environment.
// Policy and retry tuning are read here, once, so the engine itself
// stays environment-free.
func buildEngine(ctx context.Context, logger verify.Logger, category checksum.Category, name, filePath, trustRootPath, dbPath string) (*verify.Engine, error) {
	retryPolicy := retry.PolicyFromEnv()
	policy := verify.PolicyFromFlags(
		os.Getenv("REQUIRE_VERIFIED_DOWNLOADS"),
		os.Getenv("PRODUCTION_MODE"),
	)

	var pinned *checksum.PinnedDB
	var err error
	if dbPath != "" {
		pinned, err = checksum.LoadDB(dbPath)
	} else {
		pinned, err = checksum.LoadEmbeddedDB()
	}
	if err != nil {
		return nil, fmt.Errorf("load checksum database: %w", err)
	}

	info, err := platform.NewDetector().Detect(ctx)
	if err != nil {
		return nil, err
	}

	registry := checksum.NewRegistry()
	checksum.NewBuiltins(retryPolicy, info, os.Getenv("GITHUB_TOKEN")).RegisterAll(registry)

	// The sigstore backend fetches a trust root, so only stand it up when
	// this artifact can actually carry a keyless signature.
	var sigstoreVerifier verify.SigstoreArtifactVerifier
	if category == checksum.CategoryLanguage && signature.SupportsSigstore(name) {
		if _, statErr := os.Stat(filePath + ".sigstore"); statErr == nil {
			sv, err := signature.NewSigstoreVerifier(trustRootPath)
			if err != nil {
				logger.Warn("sigstore trust root unavailable", "error", err)
			} else {
				sigstoreVerifier = sv
			}
		}
	}

	gpg := signature.NewGPGVerifier(os.Getenv("GPG_KEYRING_DIR"))

	return verify.NewEngine(verify.Config{
		Policy:    policy,
		Signature: verify.NewReleaseVerifier(sigstoreVerifier, gpg),
		Pinned:    pinned,
		Published: checksum.NewPublishedFetcher(retryPolicy),
		Tools:     registry,
		Logger:    logger,
	}), nil
}

func printVerifyHelp() {
	fmt.Println("Usage: buildtrust verify [options] <category> <name> <version> <file>")
	fmt.Println()
	fmt.Println("Verify a downloaded artifact through the trust tiers:")
	fmt.Println("  1. release signature (sigstore or gpg)")
	fmt.Println("  2. pinned checksum database")
	fmt.Println("  3. vendor-published checksum")
	fmt.Println("  4. trust-on-first-use (unless disabled by policy)")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --trust-root <path>   Sigstore trust root JSON (default: fetch via TUF)")
	fmt.Println("  --checksum-db <path>  Pinned checksum database (default: embedded)")
	fmt.Println()
	fmt.Println("Environment:")
	fmt.Println("  REQUIRE_VERIFIED_DOWNLOADS=true  Disable trust-on-first-use")
	fmt.Println("  PRODUCTION_MODE=true             Same as above")
	fmt.Println("  GPG_KEYRING_DIR                  Per-language GPG keyrings")
	fmt.Println("  GITHUB_TOKEN                     Raises GitHub API rate limits")
	fmt.Println()
	fmt.Println("Exit codes: 0 verified, 1 failed, 2 accepted unverified (TOFU)")
}
