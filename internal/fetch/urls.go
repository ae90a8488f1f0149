package fetch

import (
	"fmt"

	"github.com/joshjhall/buildtrust/internal/checksum"
	"github.com/joshjhall/buildtrust/internal/platform"
)

const (
	pythonFTPURL = "https://www.python.org/ftp/python"
	nodeDistURL  = "https://nodejs.org/dist"
	goDLURL      = "https://go.dev/dl"
)

// LanguageArtifact builds the download locations for a language runtime
// release on the given platform. The version must already be concrete.
func LanguageArtifact(language, version string, info *platform.Info) (*Artifact, error) {
	switch language {
	case "python":
		return pythonArtifact(version), nil
	case "node":
		return nodeArtifact(version, info), nil
	case "go":
		return goArtifact(version, info), nil
	default:
		return nil, fmt.Errorf("no artifact layout known for language %q", language)
	}
}

// pythonArtifact points at the source tarball. CPython releases carry a
// Sigstore bundle next to each file.
func pythonArtifact(version string) *Artifact {
	base := fmt.Sprintf("%s/%s/Python-%s.tgz", pythonFTPURL, version, version)
	return &Artifact{
		Category:  checksum.CategoryLanguage,
		Name:      "python",
		Version:   version,
		URL:       base,
		BundleURL: base + ".sigstore",
	}
}

// nodeArtifact points at the prebuilt tarball for this platform. Node
// signs one SHASUMS256.txt per release rather than individual files.
func nodeArtifact(version string, info *platform.Info) *Artifact {
	arch := info.Arch
	if arch == "amd64" {
		arch = "x64"
	}
	release := fmt.Sprintf("%s/v%s", nodeDistURL, version)
	return &Artifact{
		Category:     checksum.CategoryLanguage,
		Name:         "node",
		Version:      version,
		URL:          fmt.Sprintf("%s/node-v%s-%s-%s.tar.gz", release, version, info.OS, arch),
		ChecksumURL:  release + "/SHASUMS256.txt",
		SignatureURL: release + "/SHASUMS256.txt.asc",
	}
}

// goArtifact points at the prebuilt tarball. Go publishes digests in its
// download listing, so the artifact carries no separate checksum URL.
func goArtifact(version string, info *platform.Info) *Artifact {
	ext := "tar.gz"
	if info.OS == "windows" {
		ext = "zip"
	}
	return &Artifact{
		Category: checksum.CategoryLanguage,
		Name:     "go",
		Version:  version,
		URL:      fmt.Sprintf("%s/go%s.%s-%s.%s", goDLURL, version, info.OS, info.Arch, ext),
	}
}
