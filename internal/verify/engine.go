// Package verify implements the tiered trust decision for downloaded
// artifacts. Each download walks up to four tiers in strict order,
// short-circuiting on the first success: release signature, pinned
// checksum, vendor-published checksum, and finally trust-on-first-use.
// Checksum disagreement at any tier is terminal; only the absence of
// verification material lets a download fall through to a weaker tier.
package verify

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/joshjhall/buildtrust/internal/checksum"
)

// Verdict is the trust decision for one artifact. The values double as
// process exit codes for the CLI.
type Verdict int

const (
	// Verified means a signature or checksum matched.
	Verified Verdict = 0
	// Failed means a mismatch, an invalid signature, or policy-blocked
	// trust-on-first-use. Terminal for the artifact.
	Failed Verdict = 1
	// Unverified means the artifact was accepted on trust-on-first-use.
	Unverified Verdict = 2
)

// String returns the verdict name.
func (v Verdict) String() string {
	switch v {
	case Verified:
		return "verified"
	case Failed:
		return "failed"
	case Unverified:
		return "unverified"
	default:
		return fmt.Sprintf("verdict(%d)", int(v))
	}
}

// Tier identifies which trust tier produced a verdict.
type Tier string

const (
	TierSignature  Tier = "signature"
	TierPinned     Tier = "pinned"
	TierPublished  Tier = "published"
	TierCalculated Tier = "calculated"
	TierNone       Tier = "none"
)

// Result is the outcome of verifying one artifact. Digest is always the
// file's calculated digest when one was computed, so unverified
// acceptances can be audit-logged.
type Result struct {
	Verdict Verdict
	Tier    Tier
	Digest  string
}

// Sentinel errors the signature tier uses to tell the engine how to
// proceed.
var (
	// ErrSignatureUnavailable means no signature material exists for this
	// artifact. The tier is skipped, not failed.
	ErrSignatureUnavailable = errors.New("signature unavailable")

	// ErrSignatureInvalid means material existed and verification
	// rejected it. Terminal.
	ErrSignatureInvalid = errors.New("signature invalid")

	// ErrSignatureConfig means verification could not even be attempted
	// sanely: unmapped signer identity, missing keyring. Terminal, since
	// retrying or weakening tiers cannot fix a configuration gap.
	ErrSignatureConfig = errors.New("signature configuration error")
)

// SignatureVerifier is the tier-1 collaborator. Implementations classify
// their failures with the sentinel errors above; any other error is
// treated as an availability problem and the tier is skipped.
type SignatureVerifier interface {
	VerifyRelease(ctx context.Context, language, version, filePath string) error
}

// PublishedFetcher is the tier-3 collaborator for language artifacts.
type PublishedFetcher interface {
	Fetch(ctx context.Context, language, version, filename string) (string, error)
}

// Config assembles an Engine. Nil collaborators disable their tier.
type Config struct {
	Policy    Policy
	Signature SignatureVerifier
	Pinned    *checksum.PinnedDB
	Published PublishedFetcher
	Tools     *checksum.Registry
	Logger    Logger
}

// Engine walks the trust tiers for each artifact. It holds no per-call
// state, so one engine serves any number of verifications.
type Engine struct {
	policy    Policy
	signature SignatureVerifier
	pinned    *checksum.PinnedDB
	published PublishedFetcher
	tools     *checksum.Registry
	logger    Logger
}

// NewEngine builds an engine from cfg.
func NewEngine(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = defaultLogger()
	}
	return &Engine{
		policy:    cfg.Policy,
		signature: cfg.Signature,
		pinned:    cfg.Pinned,
		published: cfg.Published,
		tools:     cfg.Tools,
		logger:    logger,
	}
}

// Verify decides whether the file at filePath can be trusted as the named
// artifact. The returned error is non-nil exactly when the verdict is
// Failed and explains which tier rejected the artifact.
func (e *Engine) Verify(ctx context.Context, category checksum.Category, name, version, filePath string) (Result, error) {
	// Tier 1: release signature, languages only.
	if category == checksum.CategoryLanguage && e.signature != nil {
		err := e.signature.VerifyRelease(ctx, name, version, filePath)
		switch {
		case err == nil:
			e.logger.Info("signature verified", "name", name, "version", version)
			return Result{Verdict: Verified, Tier: TierSignature}, nil
		case errors.Is(err, ErrSignatureInvalid), errors.Is(err, ErrSignatureConfig):
			e.logger.Error("signature verification failed",
				"name", name, "version", version, "error", err)
			return Result{Verdict: Failed, Tier: TierSignature}, err
		case errors.Is(err, ErrSignatureUnavailable):
			e.logger.Debug("no signature available", "name", name, "version", version)
		default:
			e.logger.Warn("signature tier unavailable",
				"name", name, "version", version, "error", err)
		}
	}

	// Tier 2: pinned checksum. A mismatch here is the integrity backstop
	// and never falls through.
	if e.pinned != nil {
		if pinnedDigest, ok := e.pinned.Lookup(category, name, version); ok {
			return e.compareDigest(TierPinned, name, version, filePath, pinnedDigest)
		}
		e.logger.Debug("no pinned checksum", "name", name, "version", version)
	}

	// Tier 3: vendor-published checksum.
	if publishedDigest, ok, err := e.fetchPublished(ctx, category, name, version, filePath); err != nil {
		return Result{Verdict: Failed, Tier: TierPublished}, err
	} else if ok {
		return e.compareDigest(TierPublished, name, version, filePath, publishedDigest)
	}

	// Tier 4: trust on first use, unless policy forbids it.
	digest, err := checksum.ComputeFile(filePath, checksum.SHA256)
	if err != nil {
		return Result{Verdict: Failed, Tier: TierCalculated},
			fmt.Errorf("compute digest for %s: %w", name, err)
	}

	if e.policy.RequireVerified {
		err := fmt.Errorf("no tier could verify %s %s and policy requires verified downloads", name, version)
		e.logger.Error("unverified download blocked by policy",
			"name", name, "version", version, "digest", digest)
		return Result{Verdict: Failed, Tier: TierCalculated, Digest: digest}, err
	}

	e.logger.Warn("SECURITY: accepting unverified download on trust-on-first-use basis",
		"name", name, "version", version, "digest", digest,
		"risk", "artifact integrity is not cryptographically verified")
	return Result{Verdict: Unverified, Tier: TierCalculated, Digest: digest}, nil
}

// fetchPublished consults the vendor source for a published digest.
// ok=false with a nil error means the tier is skipped.
func (e *Engine) fetchPublished(ctx context.Context, category checksum.Category, name, version, filePath string) (string, bool, error) {
	var digest string
	var err error

	switch category {
	case checksum.CategoryLanguage:
		if e.published == nil {
			return "", false, nil
		}
		digest, err = e.published.Fetch(ctx, name, version, filepath.Base(filePath))
	case checksum.CategoryTool:
		if e.tools == nil {
			return "", false, nil
		}
		digest, err = e.tools.Fetch(ctx, name, version)
	default:
		return "", false, fmt.Errorf("unknown artifact category %q", category)
	}

	if err != nil {
		// Nothing published and nothing registered both skip the tier.
		if errors.Is(err, checksum.ErrNoChecksum) || errors.Is(err, checksum.ErrNoFetcher) {
			e.logger.Debug("no published checksum", "name", name, "version", version, "reason", err)
			return "", false, nil
		}
		// Availability failures skip the tier too, but loudly. The
		// artifact still has the weaker tiers below.
		e.logger.Warn("published checksum source unavailable",
			"name", name, "version", version, "error", err)
		return "", false, nil
	}
	return digest, true, nil
}

// compareDigest computes the file digest with the algorithm implied by
// the expected value's length and compares. Mismatch is terminal.
func (e *Engine) compareDigest(tier Tier, name, version, filePath, expected string) (Result, error) {
	algo, err := checksum.AlgorithmForDigest(expected)
	if err != nil {
		return Result{Verdict: Failed, Tier: tier},
			fmt.Errorf("%s checksum for %s %s: %w", tier, name, version, err)
	}

	actual, err := checksum.ComputeFile(filePath, algo)
	if err != nil {
		return Result{Verdict: Failed, Tier: tier},
			fmt.Errorf("compute %s digest for %s: %w", algo, name, err)
	}

	if !checksum.Equal(actual, expected) {
		err := fmt.Errorf("%s checksum mismatch for %s %s:\nexpected: %s\nactual:   %s",
			tier, name, version, expected, actual)
		e.logger.Error("checksum mismatch",
			"tier", string(tier), "name", name, "version", version,
			"expected", expected, "actual", actual)
		return Result{Verdict: Failed, Tier: tier, Digest: actual}, err
	}

	e.logger.Info("checksum verified", "tier", string(tier), "name", name, "version", version)
	return Result{Verdict: Verified, Tier: tier, Digest: actual}, nil
}
