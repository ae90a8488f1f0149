package checksum

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/joshjhall/buildtrust/internal/retry"
)

func newTestPublishedFetcher(server *httptest.Server) *PublishedFetcher {
	p := NewPublishedFetcher(retry.Policy{MaxAttempts: 1})
	if server != nil {
		p.client = server.Client()
		p.nodeDistURL = server.URL + "/dist"
		p.goDLURL = server.URL + "/dl"
	}
	return p
}

func TestPublishedFetchNode(t *testing.T) {
	const shasums = `aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa  node-v20.11.0-linux-x64.tar.gz
bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb  node-v20.11.0-darwin-arm64.tar.gz
`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/dist/v20.11.0/SHASUMS256.txt" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, shasums)
	}))
	defer server.Close()

	p := newTestPublishedFetcher(server)

	t.Run("file listed", func(t *testing.T) {
		digest, err := p.Fetch(context.Background(), "node", "20.11.0", "node-v20.11.0-linux-x64.tar.gz")
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if digest != "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" {
			t.Errorf("unexpected digest %s", digest)
		}
	})

	t.Run("file not listed", func(t *testing.T) {
		_, err := p.Fetch(context.Background(), "node", "20.11.0", "node-v20.11.0-aix-ppc64.tar.gz")
		if !errors.Is(err, ErrNoChecksum) {
			t.Errorf("expected ErrNoChecksum, got %v", err)
		}
	})

	t.Run("release not published", func(t *testing.T) {
		_, err := p.Fetch(context.Background(), "node", "99.0.0", "node-v99.0.0-linux-x64.tar.gz")
		if err == nil {
			t.Fatal("expected error for missing release")
		}
	})
}

func TestPublishedFetchGo(t *testing.T) {
	const listing = `[
  {
    "version": "go1.22.1",
    "stable": true,
    "files": [
      {"filename": "go1.22.1.linux-amd64.tar.gz", "sha256": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"},
      {"filename": "go1.22.1.darwin-arm64.tar.gz", "sha256": "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"}
    ]
  }
]`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, listing)
	}))
	defer server.Close()

	p := newTestPublishedFetcher(server)

	t.Run("file listed", func(t *testing.T) {
		digest, err := p.Fetch(context.Background(), "go", "1.22.1", "go1.22.1.linux-amd64.tar.gz")
		if err != nil {
			t.Fatalf("Fetch: %v", err)
		}
		if digest != "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" {
			t.Errorf("unexpected digest %s", digest)
		}
	})

	t.Run("file not listed", func(t *testing.T) {
		_, err := p.Fetch(context.Background(), "go", "1.22.1", "go1.22.1.windows-amd64.zip")
		if !errors.Is(err, ErrNoChecksum) {
			t.Errorf("expected ErrNoChecksum, got %v", err)
		}
	})

	t.Run("version not listed", func(t *testing.T) {
		_, err := p.Fetch(context.Background(), "go", "1.99.0", "go1.99.0.linux-amd64.tar.gz")
		if !errors.Is(err, ErrNoChecksum) {
			t.Errorf("expected ErrNoChecksum, got %v", err)
		}
	})
}

func TestPublishedFetchPython(t *testing.T) {
	// python.org publishes no standalone checksum files. No request may be
	// issued at all.
	p := newTestPublishedFetcher(nil)
	p.client = &http.Client{Transport: failingTransport{}}

	_, err := p.Fetch(context.Background(), "python", "3.13.0", "Python-3.13.0.tgz")
	if !errors.Is(err, ErrNoChecksum) {
		t.Errorf("expected ErrNoChecksum, got %v", err)
	}
}

// failingTransport fails every request, proving a code path performs no
// network I/O.
type failingTransport struct{}

func (failingTransport) RoundTrip(*http.Request) (*http.Response, error) {
	return nil, errors.New("network use not expected")
}
