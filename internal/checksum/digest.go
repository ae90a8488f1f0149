// Package checksum provides digest computation, the pinned-checksum
// database, and vendor published-checksum fetchers for the verification
// tiers.
package checksum

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Algorithm identifies a supported digest algorithm.
type Algorithm string

const (
	// SHA256 produces 64 hex characters.
	SHA256 Algorithm = "sha256"
	// SHA512 produces 128 hex characters.
	SHA512 Algorithm = "sha512"
)

// AlgorithmForDigest infers the algorithm from a hex digest's length.
func AlgorithmForDigest(digest string) (Algorithm, error) {
	switch len(digest) {
	case 64:
		return SHA256, nil
	case 128:
		return SHA512, nil
	default:
		return "", fmt.Errorf("cannot infer algorithm from %d-character digest", len(digest))
	}
}

// ComputeFile calculates the hex digest of a file.
func ComputeFile(path string, algo Algorithm) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	var h hash.Hash
	switch algo {
	case SHA256:
		h = sha256.New()
	case SHA512:
		h = sha512.New()
	default:
		return "", fmt.Errorf("unsupported algorithm %q", algo)
	}

	if _, err := io.Copy(h, file); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// Equal compares two hex digests case-insensitively.
func Equal(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}

// FindInChecksumFile locates the digest for filename in coreutils-style
// checksum data ("<hex>  <filename>" per line). Exact name matches win over
// basename matches for entries that carry paths.
func FindInChecksumFile(data []byte, filename string) (string, error) {
	scanner := bufio.NewScanner(bytes.NewReader(data))

	basenameMatch := ""
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}

		digest := parts[0]
		// "*filename" marks binary mode in some vendors' files
		name := strings.TrimPrefix(parts[1], "*")

		if name == filename {
			return digest, nil
		}
		if basenameMatch == "" && filepath.Base(name) == filename {
			basenameMatch = digest
		}
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("scan checksum data: %w", err)
	}

	if basenameMatch != "" {
		return basenameMatch, nil
	}
	return "", fmt.Errorf("checksum not found for %s", filename)
}

// IsHexDigest reports whether value is entirely hexadecimal with the given
// length (0 means any even length).
func IsHexDigest(value string, expectedLen int) bool {
	if expectedLen > 0 && len(value) != expectedLen {
		return false
	}
	if len(value) == 0 || len(value)%2 != 0 {
		return false
	}
	for _, ch := range value {
		if (ch < '0' || ch > '9') && (ch < 'a' || ch > 'f') && (ch < 'A' || ch > 'F') {
			return false
		}
	}
	return true
}
