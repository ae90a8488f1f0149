// Package testutil provides utilities for testing buildtrust in isolation.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// SetupTestEnv gives each test an isolated cache and keyring directory
// and clears the policy and retry variables, so tests never see the
// developer's real configuration or each other's state.
//
// Cleanup is handled by t.TempDir and t.Setenv automatically.
func SetupTestEnv(t *testing.T) {
	t.Helper()

	tmpDir := t.TempDir()

	t.Setenv("BUILDTRUST_CACHE_DIR", filepath.Join(tmpDir, "cache"))
	t.Setenv("GPG_KEYRING_DIR", filepath.Join(tmpDir, "keyrings"))

	// Neutralize policy and retry tuning from the host environment.
	t.Setenv("REQUIRE_VERIFIED_DOWNLOADS", "")
	t.Setenv("PRODUCTION_MODE", "")
	t.Setenv("RETRY_MAX_ATTEMPTS", "")
	t.Setenv("RETRY_INITIAL_DELAY", "")
	t.Setenv("RETRY_MAX_DELAY", "")
	t.Setenv("GITHUB_TOKEN", "")

	dirs := []string{
		filepath.Join(tmpDir, "cache"),
		filepath.Join(tmpDir, "keyrings"),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			t.Fatalf("failed to create test directory %s: %v", dir, err)
		}
	}
}
