package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"transformer/internal/analyze"
	"transformer/internal/gen"
)

func runMake(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("make", flag.ContinueOnError)
	fs.SetOutput(stderr)

	pkg := fs.String("pkg", ".", "package pattern holding the model structs")
	modelName := fs.String("model", "", "root model struct name")
	out := fs.String("out", ".", "output directory")
	pkgName := fs.String("package", "", "generated package name (default: the model package's name)")
	yamlName := fs.String("yaml", "", "also write the declarations to this file in the output directory")
	withHooks := fs.Bool("hooks", false, "generate To<Field>Attribute hook stubs")

	if err := fs.Parse(args); err != nil {
		return err
	}

	if strings.TrimSpace(*modelName) == "" {
		return errors.New("make: missing -model")
	}

	catalog, err := analyze.NewAnalyzer().LoadPackages(*pkg)
	if err != nil {
		return fmt.Errorf("make: %w", err)
	}

	cfg := gen.DefaultGeneratorConfig()
	cfg.Hooks = *withHooks
	cfg.PackageName = *pkgName

	if cfg.PackageName == "" {
		if m, ok := catalog.Lookup(*modelName); ok {
			cfg.PackageName = catalog.Packages[m.ID.PkgPath]
		}
	}

	res, genErr := gen.NewGenerator(cfg).Generate(catalog, *modelName)
	if res == nil {
		return fmt.Errorf("make: %w", genErr)
	}

	// Unformatted output is still written so it can be inspected.
	if err := gen.WriteResult(res, *out, *yamlName); err != nil {
		return fmt.Errorf("make: %w", err)
	}

	if genErr != nil {
		return fmt.Errorf("make: %w", genErr)
	}

	for _, f := range res.Files {
		fmt.Fprintln(stdout, f.Filename)
	}

	if *yamlName != "" {
		fmt.Fprintln(stdout, *yamlName)
	}

	return nil
}
