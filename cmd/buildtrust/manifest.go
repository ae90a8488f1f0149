package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joshjhall/buildtrust/internal/manifest"
	"github.com/joshjhall/buildtrust/internal/platform"
	"github.com/joshjhall/buildtrust/internal/retry"
	"github.com/joshjhall/buildtrust/internal/version"
)

// runManifest handles the `buildtrust manifest` subcommand: parse a
// build manifest and resolve every requirement to a concrete version.
func runManifest(args []string) (int, error) {
	var positional []string
	for _, arg := range args {
		switch arg {
		case "--help", "-h":
			fmt.Println("Usage: buildtrust manifest <file>")
			fmt.Println()
			fmt.Println("Parse a Lua build manifest and resolve each language and tool")
			fmt.Println("requirement to the newest matching concrete version.")
			return 0, nil
		default:
			positional = append(positional, arg)
		}
	}

	if len(positional) != 1 {
		return 1, fmt.Errorf("expected <file>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	parser := manifest.NewParser(platform.NewDetector())
	m, err := parser.ParseFile(ctx, positional[0])
	if err != nil {
		return 1, err
	}

	if m.Meta.Name != "" {
		fmt.Printf("manifest: %s\n", m.Meta.Name)
	}

	resolver := version.NewResolver(retry.PolicyFromEnv())
	failures := 0

	for _, req := range m.Languages {
		resolved, err := resolver.Resolve(ctx, req.Name, req.Spec)
		switch {
		case err == nil:
			fmt.Printf("language  %-12s %-10s -> %s\n", req.Name, req.Spec, resolved)
		case errors.Is(err, version.ErrUnknownLanguage):
			fmt.Printf("language  %-12s %-10s -> %s (no resolver, spec passed through)\n", req.Name, req.Spec, resolved)
		default:
			fmt.Printf("language  %-12s %-10s -> ERROR: %v\n", req.Name, req.Spec, err)
			failures++
		}
	}

	// Tools have no release-index resolvers; their specs must already be
	// concrete to be verifiable.
	for _, req := range m.Tools {
		spec, err := version.ParseSpec(req.Spec)
		if err != nil {
			fmt.Printf("tool      %-12s %-10s -> ERROR: %v\n", req.Name, req.Spec, err)
			failures++
			continue
		}
		if spec.Shape != version.Full {
			fmt.Printf("tool      %-12s %-10s -> ERROR: tool versions must be fully specified\n", req.Name, req.Spec)
			failures++
			continue
		}
		fmt.Printf("tool      %-12s %-10s -> %s\n", req.Name, req.Spec, req.Spec)
	}

	if failures > 0 {
		return 1, fmt.Errorf("%d requirement(s) could not be resolved", failures)
	}
	return 0, nil
}
