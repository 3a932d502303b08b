package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"

	"transformer/internal/fieldpath"
	"transformer/internal/transformer"
)

func runImport(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	fs := flag.NewFlagSet("import", flag.ContinueOnError)
	fs.SetOutput(stderr)

	flags := addEngineFlags(fs)
	dataPath := fs.String("data", "", "JSON payload file; an array imports one record per element")
	attempts := fs.Int("attempts", 0, "transaction attempts (default: $TRANSFORMER_TRANSACTION_ATTEMPTS)")
	dump := fs.Bool("dump", false, "dump the saved records")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *dataPath == "" {
		return fmt.Errorf("import: missing -data")
	}

	raw, err := os.ReadFile(*dataPath)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	e, err := openEngine(ctx, flags)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	defer func() {
		if cerr := e.close(*flags.metrics, stderr); err == nil {
			err = cerr
		}
	}()

	n := *attempts
	if n <= 0 {
		n = e.cfg.TransactionAttempts
	}

	tr, err := e.factory.Make(*flags.name)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	items, err := tr.WithData(fieldpath.RawJSON(raw)).ToModelAll(ctx)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	if err := items.WithTransaction(n).Call(ctx, transformer.OpSave); err != nil {
		return fmt.Errorf("import: %w", err)
	}

	records := items.Models()
	for _, rec := range records {
		fmt.Fprintf(stdout, "%s %s\n", rec.Type, rec.ID)
	}

	e.logger.Info("import finished",
		zap.String("transformer", *flags.name),
		zap.Int("records", len(records)),
	)

	if *dump {
		spew.Fdump(stdout, records)
	}

	return nil
}
