package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"metaextractor/internal/config"
	"metaextractor/internal/coordinator"
	"metaextractor/internal/logger"
	"metaextractor/internal/model"
)

// sourceFlags define a single ad-hoc source on the command line. It is added
// after the sources of the config file, if one is given.
type sourceFlags struct {
	name             string
	dbType           string
	connectionString string
	schemas          []string
	timeout          string
	queryRate        float64
	concurrency      int
}

func (f *sourceFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&f.name, "name", "default", "Source name for the ad-hoc source")
	flags.StringVar(&f.dbType, "db-type", "", "Database type: postgres, mysql, sqlite, mssql, oracle")
	flags.StringVar(&f.connectionString, "connection-string", "", "Connection string (URL, driver DSN or SQLite file path)")
	flags.StringSliceVar(&f.schemas, "schema", nil, "Schema to extract (repeatable; default all user schemas)")
	flags.StringVar(&f.timeout, "timeout", "", "Connection timeout for the ad-hoc source, e.g. 10s")
	flags.Float64Var(&f.queryRate, "query-rate", 0, "Catalog queries per second (0 = unlimited)")
	flags.IntVar(&f.concurrency, "concurrency", 0, "Sources extracted at once (0 = all)")
}

// resolve merges the loaded config with the command line
func (f *sourceFlags) resolve(cmd *cobra.Command) *config.Config {
	cfg := config.Default()
	if loaded != nil {
		copied := *loaded
		copied.Sources = append([]config.SourceConfig(nil), loaded.Sources...)
		cfg = &copied
	}

	if f.connectionString != "" || f.dbType != "" {
		cfg.Sources = append(cfg.Sources, config.SourceConfig{
			Name:             f.name,
			Type:             f.dbType,
			ConnectionString: f.connectionString,
			Timeout:          f.timeout,
			Schemas:          f.schemas,
			QueryRate:        f.queryRate,
		})
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Extract.Concurrency = f.concurrency
	}
	return cfg
}

// toSources converts the validated config into coordinator sources
func toSources(cfg *config.Config) ([]coordinator.Source, error) {
	defaultTimeout := cfg.Extract.DefaultTimeoutDuration()

	sources := make([]coordinator.Source, 0, len(cfg.Sources))
	for _, sc := range cfg.Sources {
		timeout, err := sc.TimeoutDuration()
		if err != nil {
			return nil, fmt.Errorf("source %q: %w", sc.Name, err)
		}
		if timeout == 0 {
			timeout = defaultTimeout
		}

		sources = append(sources, coordinator.Source{
			Name:      sc.Name,
			Engine:    sc.Type,
			DSN:       sc.ConnectionString,
			Timeout:   timeout,
			Schemas:   sc.Schemas,
			QueryRate: sc.QueryRate,
			Options:   sc.Options,
		})
	}
	return sources, nil
}

// runExtraction validates cfg and runs one pass. Only misconfiguration
// returns an error; source failures are in the results.
func runExtraction(ctx context.Context, cfg *config.Config) ([]model.ExtractionResult, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	sources, err := toSources(cfg)
	if err != nil {
		return nil, err
	}

	c := coordinator.New(
		coordinator.WithConcurrency(cfg.Extract.Concurrency),
		coordinator.WithLogger(logger.Get()),
	)
	return c.Run(ctx, sources)
}
