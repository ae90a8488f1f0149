package main

import (
	"fmt"
	"os"
)

// Version will be set at build time via -ldflags
var Version = "v0.1.0"

func main() {
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version":
			fmt.Printf("buildtrust %s\n", Version)
			fmt.Println("Download integrity and provenance verification for build images")
			return
		case "verify":
			code, err := runVerify(os.Args[2:])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(code)
		case "resolve":
			code, err := runResolve(os.Args[2:])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(code)
		case "fetch":
			code, err := runFetch(os.Args[2:])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(code)
		case "manifest":
			code, err := runManifest(os.Args[2:])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(code)
		case "retry":
			code, err := runRetry(os.Args[2:])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			}
			os.Exit(code)
		}
	}

	fmt.Println("buildtrust - download integrity and provenance verification")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  buildtrust --version                                  Show version information")
	fmt.Println("  buildtrust resolve <language> <spec>                  Resolve a version spec to a concrete version")
	fmt.Println("  buildtrust fetch <language> <spec>                    Download a release and its verification material")
	fmt.Println("  buildtrust verify <category> <name> <version> <file>  Verify a downloaded artifact")
	fmt.Println("  buildtrust manifest <file>                            Resolve every requirement in a build manifest")
	fmt.Println("  buildtrust retry [options] -- <command> [args...]     Run a command with exponential backoff")
	fmt.Println()
	fmt.Println("Verify exit codes: 0 verified, 1 failed, 2 accepted unverified (TOFU)")
}
