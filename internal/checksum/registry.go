package checksum

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNoFetcher reports that no fetcher is registered for a tool. The
// verification engine treats this the same as ErrNoChecksum: the published
// tier is skipped, not failed.
var ErrNoFetcher = errors.New("no checksum fetcher registered")

// ErrNoChecksum reports that a fetcher ran but the vendor publishes no
// checksum for the requested version.
var ErrNoChecksum = errors.New("no published checksum available")

// Fetcher retrieves the vendor-published digest for one version of a tool.
// Implementations return ErrNoChecksum when the vendor has nothing for the
// version, and a plain error for availability problems.
type Fetcher func(ctx context.Context, version string) (string, error)

// Registry maps tool names to their published-checksum fetchers.
// Registration happens once at startup; Fetch may then be called from any
// goroutine.
type Registry struct {
	mu       sync.RWMutex
	fetchers map[string]Fetcher
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{fetchers: make(map[string]Fetcher)}
}

// Register installs a fetcher for a tool. Later registrations for the same
// name replace earlier ones.
func (r *Registry) Register(name string, f Fetcher) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fetchers[name] = f
}

// Fetch runs the registered fetcher for name. It returns ErrNoFetcher when
// the tool is unknown to the registry.
func (r *Registry) Fetch(ctx context.Context, name, version string) (string, error) {
	r.mu.RLock()
	f, ok := r.fetchers[name]
	r.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w for tool %s", ErrNoFetcher, name)
	}
	return f(ctx, version)
}

// Names returns the registered tool names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.fetchers))
	for name := range r.fetchers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
