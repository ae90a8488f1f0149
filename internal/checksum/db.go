package checksum

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Category distinguishes the two namespaces of the pinned database.
type Category string

const (
	// CategoryLanguage covers language runtime archives.
	CategoryLanguage Category = "language"
	// CategoryTool covers CLI tool binaries.
	CategoryTool Category = "tool"
)

// The default database ships inside the binary the same way GPG keyrings
// do: embedded at compile time, overridable with an on-disk file.
//
//go:embed checksums.json
var embeddedDB []byte

// pinnedEntry holds the digest for one pinned version. Exactly one of the
// fields is set.
type pinnedEntry struct {
	SHA256 string `json:"sha256,omitempty"`
	SHA512 string `json:"sha512,omitempty"`
}

type pinnedName struct {
	Versions map[string]pinnedEntry `json:"versions"`
}

type dbFile struct {
	Languages map[string]pinnedName `json:"languages"`
	Tools     map[string]pinnedName `json:"tools"`
}

// PinnedDB is the read-only pinned-checksum database. It is loaded once and
// never mutated, so it is safe to share across verifications.
type PinnedDB struct {
	data dbFile
}

// LoadEmbeddedDB parses the database compiled into the binary.
func LoadEmbeddedDB() (*PinnedDB, error) {
	return ParseDB(embeddedDB)
}

// LoadDB parses a database from an on-disk JSON file.
func LoadDB(path string) (*PinnedDB, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read checksum database: %w", err)
	}
	return ParseDB(data)
}

// ParseDB parses database JSON.
func ParseDB(data []byte) (*PinnedDB, error) {
	var parsed dbFile
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("parse checksum database: %w", err)
	}
	return &PinnedDB{data: parsed}, nil
}

// Lookup returns the pinned digest for (category, name, version). Entries
// whose value is a placeholder awaiting a real digest are reported as
// absent, never as a candidate for comparison.
func (db *PinnedDB) Lookup(category Category, name, version string) (string, bool) {
	var names map[string]pinnedName
	switch category {
	case CategoryLanguage:
		names = db.data.Languages
	case CategoryTool:
		names = db.data.Tools
	default:
		return "", false
	}

	entry, ok := names[name].Versions[version]
	if !ok {
		return "", false
	}

	digest := entry.SHA256
	if digest == "" {
		digest = entry.SHA512
	}
	if digest == "" || isPlaceholder(digest) {
		return "", false
	}
	return digest, true
}

// isPlaceholder detects unpinned entries. The database template uses values
// like "placeholder-sha256-pending-release" until a release is pinned.
func isPlaceholder(digest string) bool {
	return strings.HasPrefix(strings.ToLower(digest), "placeholder")
}
