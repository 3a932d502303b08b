package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
)

func runExport(ctx context.Context, args []string, stdout, stderr io.Writer) (err error) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)

	flags := addEngineFlags(fs)
	id := fs.String("id", "", "record ID")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if *id == "" {
		return fmt.Errorf("export: missing -id")
	}

	e, err := openEngine(ctx, flags)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	defer func() {
		if cerr := e.close(*flags.metrics, stderr); err == nil {
			err = cerr
		}
	}()

	def, ok := e.factory.Definition(*flags.name)
	if !ok {
		// Make reports the unknown name with a suggestion.
		_, err := e.factory.Make(*flags.name)
		return fmt.Errorf("export: %w", err)
	}

	rec, err := e.store.Get(ctx, def.ModelType, *id)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	tr, err := e.factory.Make(*flags.name)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}

	if err := tr.WithModel(rec).ToData(ctx); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")

	if err := enc.Encode(tr.Data()); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	return nil
}
