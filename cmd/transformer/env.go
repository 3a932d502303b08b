package main

import (
	"context"
	"flag"
	"fmt"
	"io"

	"github.com/prometheus/common/expfmt"
	"go.uber.org/zap"

	"transformer/internal/config"
	"transformer/internal/logging"
	"transformer/internal/mapping"
	"transformer/internal/metrics"
	"transformer/internal/storage/sqlite"
	"transformer/internal/transformer"
)

// engineFlags are shared by the commands that touch the database.
type engineFlags struct {
	decl    *string
	name    *string
	db      *string
	metrics *bool
}

func addEngineFlags(fs *flag.FlagSet) engineFlags {
	return engineFlags{
		decl:    fs.String("decl", "", "YAML declarations file"),
		name:    fs.String("transformer", "", "transformer name"),
		db:      fs.String("db", "", "SQLite database (default: $TRANSFORMER_DB_PATH)"),
		metrics: fs.Bool("metrics", false, "print metrics to stderr when done"),
	}
}

// engine bundles what one command run needs.
type engine struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Recorder
	store   *sqlite.Store
	factory *transformer.Factory
}

func openEngine(ctx context.Context, flags engineFlags) (*engine, error) {
	if *flags.decl == "" || *flags.name == "" {
		return nil, fmt.Errorf("missing -decl or -transformer")
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	if *flags.db != "" {
		cfg.DBPath = *flags.db
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	doc, err := mapping.LoadFile(*flags.decl)
	if err != nil {
		return nil, err
	}

	store, err := sqlite.Open(ctx, cfg.DBPath)
	if err != nil {
		return nil, err
	}

	rec := metrics.New("transformer")

	f := transformer.NewFactory(store,
		transformer.WithConfig(cfg),
		transformer.WithLogger(logger),
		transformer.WithMetrics(rec),
	)

	if err := f.Load(doc); err != nil {
		_ = store.Close()
		return nil, err
	}

	if err := f.DefineRelations(store); err != nil {
		_ = store.Close()
		return nil, err
	}

	return &engine{cfg: cfg, logger: logger, metrics: rec, store: store, factory: f}, nil
}

// close releases the store and, when asked, prints the metrics.
func (e *engine) close(printMetrics bool, w io.Writer) error {
	_ = e.logger.Sync()

	if printMetrics {
		if err := writeMetrics(e.metrics, w); err != nil {
			_ = e.store.Close()
			return err
		}
	}

	return e.store.Close()
}

func writeMetrics(rec *metrics.Recorder, w io.Writer) error {
	families, err := rec.Registry().Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return fmt.Errorf("encode metrics: %w", err)
		}
	}

	return nil
}
