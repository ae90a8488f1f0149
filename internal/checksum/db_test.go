package checksum

import (
	"os"
	"path/filepath"
	"testing"
)

const testDBJSON = `{
  "languages": {
    "python": {
      "versions": {
        "3.13.0": { "sha256": "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" },
        "3.12.7": { "sha256": "placeholder-sha256-pending-release" },
        "3.11.9": { "sha512": "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb" }
      }
    }
  },
  "tools": {
    "kubectl": {
      "versions": {
        "1.31.2": { "sha256": "cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc" }
      }
    }
  }
}`

func TestPinnedDBLookup(t *testing.T) {
	db, err := ParseDB([]byte(testDBJSON))
	if err != nil {
		t.Fatalf("ParseDB: %v", err)
	}

	tests := []struct {
		name     string
		category Category
		tool     string
		version  string
		want     string
		wantOK   bool
	}{
		{"pinned language sha256", CategoryLanguage, "python", "3.13.0", "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", true},
		{"sha512 entry", CategoryLanguage, "python", "3.11.9", "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", true},
		{"placeholder reported absent", CategoryLanguage, "python", "3.12.7", "", false},
		{"unknown version", CategoryLanguage, "python", "3.99.0", "", false},
		{"unknown name", CategoryLanguage, "ruby", "3.3.0", "", false},
		{"pinned tool", CategoryTool, "kubectl", "1.31.2", "cccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccccc", true},
		{"language name not in tools", CategoryTool, "python", "3.13.0", "", false},
		{"unknown category", Category("plugin"), "kubectl", "1.31.2", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := db.Lookup(tt.category, tt.tool, tt.version)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("digest = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadDB(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checksums.json")
	if err := os.WriteFile(path, []byte(testDBJSON), 0o644); err != nil {
		t.Fatalf("write db: %v", err)
	}

	db, err := LoadDB(path)
	if err != nil {
		t.Fatalf("LoadDB: %v", err)
	}
	if _, ok := db.Lookup(CategoryTool, "kubectl", "1.31.2"); !ok {
		t.Error("expected kubectl pin in on-disk database")
	}

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadDB(filepath.Join(t.TempDir(), "absent.json")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("malformed json", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.json")
		if err := os.WriteFile(bad, []byte("{"), 0o644); err != nil {
			t.Fatalf("write bad db: %v", err)
		}
		if _, err := LoadDB(bad); err == nil {
			t.Error("expected parse error")
		}
	})
}

func TestLoadEmbeddedDB(t *testing.T) {
	db, err := LoadEmbeddedDB()
	if err != nil {
		t.Fatalf("LoadEmbeddedDB: %v", err)
	}
	// The shipped template carries placeholder values only. None of them
	// may ever surface as a comparable digest.
	if digest, ok := db.Lookup(CategoryLanguage, "python", "3.13.0"); ok {
		t.Errorf("placeholder entry surfaced as pinned digest %q", digest)
	}
}
