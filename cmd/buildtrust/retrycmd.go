package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joshjhall/buildtrust/internal/retry"
)

// runRetry handles the `buildtrust retry` subcommand. The wrapped
// command's final exit code is propagated unchanged so callers can
// distinguish failure classes.
func runRetry(args []string) (int, error) {
	var command []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--help", "-h":
			fmt.Println("Usage: buildtrust retry [--] <command> [args...]")
			fmt.Println()
			fmt.Println("Run a command, retrying with exponential backoff on non-zero exit.")
			fmt.Println()
			fmt.Println("Environment:")
			fmt.Println("  RETRY_MAX_ATTEMPTS   Attempts before giving up (default 3)")
			fmt.Println("  RETRY_INITIAL_DELAY  First backoff delay (default 2s)")
			fmt.Println("  RETRY_MAX_DELAY      Backoff cap (default 30s)")
			return 0, nil
		case "--":
			command = args[i+1:]
			i = len(args)
		default:
			command = args[i:]
			i = len(args)
		}
	}

	if len(command) == 0 {
		return 1, fmt.Errorf("expected a command to run")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	exec := retry.New(retry.PolicyFromEnv())
	code, err := exec.Command(ctx, command[0], command[1:]...)
	if code < 0 {
		// The command never started or the context was cancelled;
		// surface the error with a generic failure code.
		return 1, err
	}
	return code, err
}
