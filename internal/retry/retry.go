// Package retry provides the exponential-backoff executor used by every
// network-touching component in buildtrust. Integrity failures are never
// retried; availability failures are retried up to the policy limit.
package retry

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"time"
)

const (
	// DefaultMaxAttempts is the default number of attempts (not retries).
	DefaultMaxAttempts = 3
	// DefaultInitialDelay is the delay before the second attempt.
	DefaultInitialDelay = 2 * time.Second
	// DefaultMaxDelay caps the exponential backoff.
	DefaultMaxDelay = 30 * time.Second
)

// Policy controls attempt count and backoff timing for one retried operation.
// It is immutable for the duration of the operation.
type Policy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultPolicy returns the built-in retry policy (3 attempts, 2s, 30s).
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:  DefaultMaxAttempts,
		InitialDelay: DefaultInitialDelay,
		MaxDelay:     DefaultMaxDelay,
	}
}

// PolicyFromEnv reads RETRY_MAX_ATTEMPTS, RETRY_INITIAL_DELAY and
// RETRY_MAX_DELAY, falling back to defaults for unset or invalid values.
// Delays accept bare integers (seconds) or Go duration strings ("2s").
// Environment parsing happens here, once, at the entry point; components
// receive the resulting Policy and never consult the environment themselves.
func PolicyFromEnv() Policy {
	policy := DefaultPolicy()

	if v := os.Getenv("RETRY_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			policy.MaxAttempts = n
		}
	}
	if d, ok := parseDelay(os.Getenv("RETRY_INITIAL_DELAY")); ok {
		policy.InitialDelay = d
	}
	if d, ok := parseDelay(os.Getenv("RETRY_MAX_DELAY")); ok {
		policy.MaxDelay = d
	}

	return policy
}

// parseDelay accepts "5" (seconds) or "5s"/"500ms" (Go duration).
func parseDelay(v string) (time.Duration, bool) {
	if v == "" {
		return 0, false
	}
	if n, err := strconv.Atoi(v); err == nil && n >= 0 {
		return time.Duration(n) * time.Second, true
	}
	if d, err := time.ParseDuration(v); err == nil && d >= 0 {
		return d, true
	}
	return 0, false
}

// Backoff returns the delay before attempt n+2 (i.e. after failed attempt
// n, counted from 0): InitialDelay doubled per attempt, capped at MaxDelay.
func (p Policy) Backoff(attempt int) time.Duration {
	delay := p.InitialDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= p.MaxDelay {
			return p.MaxDelay
		}
	}
	if delay > p.MaxDelay {
		return p.MaxDelay
	}
	return delay
}

// permanentError marks an error that retrying cannot fix (checksum or
// signature mismatches, configuration gaps).
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so Do stops immediately instead of retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was marked with Permanent.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// Executor runs operations under a Policy. The sleep function is injectable
// so tests can assert that a first-attempt success never sleeps.
type Executor struct {
	policy Policy
	sleep  func(ctx context.Context, d time.Duration) error
}

// New creates an executor with the given policy.
func New(policy Policy) *Executor {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Executor{
		policy: policy,
		sleep:  sleepContext,
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(d):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Do runs op up to MaxAttempts times with exponential backoff between
// attempts. It returns nil on the first success. Errors wrapped with
// Permanent, and context cancellation, stop the loop immediately.
func (e *Executor) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < e.policy.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if attempt > 0 {
			if err := e.sleep(ctx, e.policy.Backoff(attempt-1)); err != nil {
				return err
			}
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		lastErr = err

		if IsPermanent(err) || ctx.Err() != nil {
			return err
		}
	}

	return fmt.Errorf("giving up after %d attempts: %w", e.policy.MaxAttempts, lastErr)
}

// Do is a convenience wrapper around New(policy).Do.
func Do(ctx context.Context, policy Policy, op func(ctx context.Context) error) error {
	return New(policy).Do(ctx, op)
}

// Command runs an external command under the retry policy. On success it
// returns (0, nil) without ever sleeping. When every attempt fails, the exit
// code of the final attempt is returned unchanged so callers can distinguish
// failure classes; it is never collapsed to a generic 1.
func (e *Executor) Command(ctx context.Context, name string, args ...string) (int, error) {
	var exitCode int
	var lastErr error

	for attempt := 0; attempt < e.policy.MaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return -1, ctx.Err()
		}

		if attempt > 0 {
			if err := e.sleep(ctx, e.policy.Backoff(attempt-1)); err != nil {
				return -1, err
			}
		}

		cmd := exec.CommandContext(ctx, name, args...)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		err := cmd.Run()
		if err == nil {
			return 0, nil
		}
		lastErr = err

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		} else {
			// Command did not start (not found, permission). Retrying
			// cannot fix that.
			return -1, fmt.Errorf("run %s: %w", name, err)
		}
	}

	return exitCode, fmt.Errorf("command %s failed after %d attempts: %w", name, e.policy.MaxAttempts, lastErr)
}
