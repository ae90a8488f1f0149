package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joshjhall/buildtrust/internal/retry"
	"github.com/joshjhall/buildtrust/internal/version"
)

// runResolve handles the `buildtrust resolve` subcommand.
func runResolve(args []string) (int, error) {
	var positional []string
	for _, arg := range args {
		switch arg {
		case "--help", "-h":
			fmt.Println("Usage: buildtrust resolve <language> <spec>")
			fmt.Println()
			fmt.Println("Resolve a version spec (\"3.12\", \"20\", \"1.22.1\") to the newest")
			fmt.Println("matching concrete version. Full versions resolve without network access.")
			return 0, nil
		default:
			positional = append(positional, arg)
		}
	}

	if len(positional) != 2 {
		return 1, fmt.Errorf("expected <language> <spec>")
	}
	language, spec := positional[0], positional[1]

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	resolver := version.NewResolver(retry.PolicyFromEnv())
	resolved, err := resolver.Resolve(ctx, language, spec)
	if err != nil {
		if errors.Is(err, version.ErrUnknownLanguage) {
			// Documented behavior: the spec passes through unchanged.
			fmt.Println(resolved)
			fmt.Fprintf(os.Stderr, "warning: unknown language %q, spec returned unchanged\n", language)
			return 0, nil
		}
		return 1, err
	}

	fmt.Println(resolved)
	return 0, nil
}
