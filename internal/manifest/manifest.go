// Package manifest loads declarative build manifests written in Lua.
// A manifest names the language runtimes and CLI tools a build image
// needs, each with a version spec that the resolver later turns into a
// concrete version. Manifests run in a sandboxed VM with a read-only
// platform table, so they can branch on OS, architecture, and libc but
// cannot touch the system.
package manifest

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/joshjhall/buildtrust/internal/version"
)

// Meta describes the manifest itself.
type Meta struct {
	Name        string
	Description string
}

// Requirement is one requested artifact: a name plus a version spec
// ("3.12", "20.11.0", "1").
type Requirement struct {
	Name string
	Spec string
}

// Manifest is the parsed, validated result of running a manifest file.
type Manifest struct {
	Meta      Meta
	Languages []Requirement
	Tools     []Requirement
}

var namePattern = regexp.MustCompile(`^[a-z][a-z0-9-]*$`)

// Validate checks every requirement. Names must be lowercase
// identifiers; version specs must parse to a known shape.
func (m *Manifest) Validate() error {
	seen := make(map[string]bool)
	for _, group := range []struct {
		kind string
		reqs []Requirement
	}{
		{"language", m.Languages},
		{"tool", m.Tools},
	} {
		for _, req := range group.reqs {
			if !namePattern.MatchString(req.Name) {
				return fmt.Errorf("invalid %s name %q", group.kind, req.Name)
			}
			key := group.kind + "/" + req.Name
			if seen[key] {
				return fmt.Errorf("duplicate %s %q", group.kind, req.Name)
			}
			seen[key] = true

			if _, err := version.ParseSpec(req.Spec); err != nil {
				return fmt.Errorf("%s %s: %w", group.kind, req.Name, err)
			}
		}
	}
	return nil
}

// sortRequirements orders requirements by name so manifest iteration is
// deterministic regardless of Lua table order.
func sortRequirements(reqs []Requirement) {
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].Name < reqs[j].Name })
}
