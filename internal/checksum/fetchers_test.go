package checksum

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joshjhall/buildtrust/internal/platform"
	"github.com/joshjhall/buildtrust/internal/retry"
)

func newTestBuiltins(server *httptest.Server) *Builtins {
	b := NewBuiltins(retry.Policy{MaxAttempts: 1}, &platform.Info{OS: "linux", Arch: "amd64"}, "")
	b.client = server.Client()
	b.k8sDLURL = server.URL
	b.hashicorpURL = server.URL
	b.githubAPIURL = server.URL
	return b
}

func TestKubectlFetcher(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/release/v1.31.2/bin/linux/amd64/kubectl.sha256":
			fmt.Fprint(w, "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa\n")
		case "/release/v0.0.1/bin/linux/amd64/kubectl.sha256":
			fmt.Fprint(w, "<html>not a digest</html>")
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	b := newTestBuiltins(server)

	t.Run("bare digest with trailing newline", func(t *testing.T) {
		digest, err := b.Kubectl(context.Background(), "1.31.2")
		if err != nil {
			t.Fatalf("Kubectl: %v", err)
		}
		if digest != "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" {
			t.Errorf("unexpected digest %s", digest)
		}
	})

	t.Run("non-digest body rejected", func(t *testing.T) {
		if _, err := b.Kubectl(context.Background(), "0.0.1"); err == nil {
			t.Error("expected error for non-digest response")
		}
	})

	t.Run("unknown release", func(t *testing.T) {
		if _, err := b.Kubectl(context.Background(), "9.9.9"); err == nil {
			t.Error("expected error for 404")
		}
	})
}

func TestTerraformFetcher(t *testing.T) {
	const sums = `aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa  terraform_1.9.8_linux_amd64.zip
bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb  terraform_1.9.8_darwin_arm64.zip
`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/terraform/1.9.8/terraform_1.9.8_SHA256SUMS" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, sums)
	}))
	defer server.Close()

	b := newTestBuiltins(server)

	digest, err := b.Terraform(context.Background(), "1.9.8")
	if err != nil {
		t.Fatalf("Terraform: %v", err)
	}
	if digest != "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" {
		t.Errorf("unexpected digest %s", digest)
	}
}

func TestGitHubCLIFetcher(t *testing.T) {
	const sums = `aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa  gh_2.60.0_linux_amd64.tar.gz
bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb  gh_2.60.0_macOS_arm64.zip
`
	var sawAuth string
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/cli/cli/releases/tags/v2.60.0":
			sawAuth = r.Header.Get("Authorization")
			fmt.Fprintf(w, `{"assets": [
				{"name": "gh_2.60.0_checksums.txt", "browser_download_url": %q},
				{"name": "gh_2.60.0_linux_amd64.tar.gz", "browser_download_url": %q}
			]}`, server.URL+"/download/checksums.txt", server.URL+"/download/gh.tar.gz")
		case "/download/checksums.txt":
			fmt.Fprint(w, sums)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	b := newTestBuiltins(server)
	b.token = "ghp_testtoken"

	digest, err := b.GitHubCLI(context.Background(), "2.60.0")
	if err != nil {
		t.Fatalf("GitHubCLI: %v", err)
	}
	if digest != "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" {
		t.Errorf("unexpected digest %s", digest)
	}
	if sawAuth != "Bearer ghp_testtoken" {
		t.Errorf("API request carried Authorization %q", sawAuth)
	}

	t.Run("checksums asset missing", func(t *testing.T) {
		missing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `{"assets": []}`)
		}))
		defer missing.Close()

		mb := newTestBuiltins(missing)
		if _, err := mb.GitHubCLI(context.Background(), "2.60.0"); !errors.Is(err, ErrNoChecksum) {
			t.Errorf("expected ErrNoChecksum, got %v", err)
		}
	})
}

func TestGHArchiveName(t *testing.T) {
	tests := []struct {
		os, arch string
		want     string
	}{
		{"linux", "amd64", "gh_2.60.0_linux_amd64.tar.gz"},
		{"darwin", "arm64", "gh_2.60.0_macOS_arm64.zip"},
		{"windows", "amd64", "gh_2.60.0_windows_amd64.zip"},
	}

	for _, tt := range tests {
		t.Run(tt.os+"/"+tt.arch, func(t *testing.T) {
			b := &Builtins{info: &platform.Info{OS: tt.os, Arch: tt.arch}}
			if got := b.ghArchiveName("2.60.0"); got != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestRegisterAll(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	reg := NewRegistry()
	newTestBuiltins(server).RegisterAll(reg)

	want := []string{"gh", "kubectl", "terraform"}
	got := reg.Names()
	if len(got) != len(want) {
		t.Fatalf("Names() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Names()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
