package testutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/joshjhall/buildtrust/internal/testutil"
)

func TestSetupTestEnv(t *testing.T) {
	testutil.SetupTestEnv(t)

	cacheDir := os.Getenv("BUILDTRUST_CACHE_DIR")
	if cacheDir == "" {
		t.Error("BUILDTRUST_CACHE_DIR not set")
	}
	keyringDir := os.Getenv("GPG_KEYRING_DIR")
	if keyringDir == "" {
		t.Error("GPG_KEYRING_DIR not set")
	}

	for _, v := range []string{
		"REQUIRE_VERIFIED_DOWNLOADS", "PRODUCTION_MODE",
		"RETRY_MAX_ATTEMPTS", "RETRY_INITIAL_DELAY", "RETRY_MAX_DELAY",
		"GITHUB_TOKEN",
	} {
		if got := os.Getenv(v); got != "" {
			t.Errorf("%s = %q, want cleared", v, got)
		}
	}

	for _, dir := range []string{cacheDir, keyringDir} {
		if !filepath.IsAbs(dir) {
			t.Errorf("path %s is not absolute", dir)
		}
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			t.Errorf("directory %s does not exist", dir)
		}
	}
}

func TestSetupTestEnv_Isolation(t *testing.T) {
	testutil.SetupTestEnv(t)
	dir1 := os.Getenv("BUILDTRUST_CACHE_DIR")

	t.Run("subtest", func(t *testing.T) {
		testutil.SetupTestEnv(t)
		dir2 := os.Getenv("BUILDTRUST_CACHE_DIR")

		if dir1 == dir2 {
			t.Error("expected different temp directories for different test contexts")
		}
	})
}
