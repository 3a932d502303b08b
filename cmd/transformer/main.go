// Package main provides the transformer CLI.
//
// Commands:
//   - make: generate transformer definitions for a model struct
//   - import: convert a JSON payload with YAML declarations and save it to SQLite
//   - export: convert a stored record back into a JSON payload
//
// Engine settings come from TRANSFORMER_* environment variables.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
)

var errUsage = errors.New("usage: transformer <make|import|export> [flags]")

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "transformer:", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}

	cmd, rest := args[0], args[1:]

	switch cmd {
	case "make":
		return runMake(rest, stdout, stderr)
	case "import":
		return runImport(ctx, rest, stdout, stderr)
	case "export":
		return runExport(ctx, rest, stdout, stderr)
	case "-h", "-help", "help":
		fmt.Fprintln(stdout, errUsage)
		return nil
	default:
		return fmt.Errorf("unknown command %q: %w", cmd, errUsage)
	}
}
