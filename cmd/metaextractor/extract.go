package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"metaextractor/internal/config"
	"metaextractor/internal/datamimic"
	"metaextractor/internal/exporter"
	"metaextractor/internal/logger"
	"metaextractor/internal/model"
	"metaextractor/internal/sink"
)

var (
	extractSources sourceFlags
	outputFormat   string
	outputPath     string
	withDataMimic  bool
	documentTitle  string
)

var ExtractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Extract all sources and write an export",
	Long: `Extract connects to every configured source concurrently, normalizes the
catalog metadata and writes one export containing every source, failed ones
included. The command fails only when every source failed.`,
	RunE: runExtract,
}

func init() {
	extractSources.register(ExtractCmd)
	flags := ExtractCmd.Flags()
	flags.StringVarP(&outputFormat, "format", "f", "", "Export format: json, yaml, xlsx, html, docx (default json)")
	flags.StringVarP(&outputPath, "output", "o", "", `Output path, "-" for stdout or s3://bucket/key (default "-")`)
	flags.BoolVar(&withDataMimic, "datamimic", false, "Also write a DataMimic data-generation model next to the export")
	flags.StringVar(&documentTitle, "title", "", "Title for html and xlsx exports")
}

// signalContext is cancelled on SIGINT or SIGTERM
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runExtract(cmd *cobra.Command, args []string) error {
	cfg := extractSources.resolve(cmd)
	applyOutputFlags(cmd, cfg)

	ctx, cancel := signalContext(cmd.Context())
	defer cancel()

	results, err := runExtraction(ctx, cfg)
	if err != nil {
		return err
	}

	// The report comes first so that it is printed even when the export fails
	if err := WriteReport(cmd.ErrOrStderr(), results); err != nil {
		return err
	}

	if err := writeExport(ctx, cfg.Output, results); err != nil {
		return err
	}
	if cfg.Output.DataMimic {
		if err := writeDataMimic(ctx, cfg.Output, results); err != nil {
			return err
		}
	}

	if model.AllFailed(results) {
		return errAllFailed
	}
	return nil
}

func applyOutputFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("format") {
		cfg.Output.Format = outputFormat
	}
	if flags.Changed("output") {
		cfg.Output.Path = outputPath
	}
	if flags.Changed("datamimic") {
		cfg.Output.DataMimic = withDataMimic
	}
	if flags.Changed("title") {
		cfg.Output.Title = documentTitle
	}
}

func writeExport(ctx context.Context, out config.OutputConfig, results []model.ExtractionResult) error {
	exp, err := exporter.NewExporter(out.Format, exporter.Config{Title: out.Title})
	if err != nil {
		return err
	}

	w, err := sink.Open(ctx, out.Path, sink.Options{ContentType: exp.MimeType()})
	if err != nil {
		return &exporter.SerializationError{Format: exp.Format(), Err: err}
	}
	if err := exporter.Write(exp, results, w); err != nil {
		w.Close()
		return err
	}
	if err := w.Close(); err != nil {
		return &exporter.SerializationError{Format: exp.Format(), Err: err}
	}

	logger.Get().Info("export written", "format", exp.Format(), "path", out.Path)
	return nil
}

const dataMimicFormat = "datamimic"

func writeDataMimic(ctx context.Context, out config.OutputConfig, results []model.ExtractionResult) error {
	ext := datamimic.Extension(out.Format)
	path := sink.Sibling(out.Path, "_datamimic", ext, "metaextractor")

	w, err := sink.Open(ctx, path, sink.Options{ContentType: "application/" + ext[1:]})
	if err != nil {
		return &exporter.SerializationError{Format: dataMimicFormat, Err: err}
	}
	if err := datamimic.Write(datamimic.Generate(results), ext, w); err != nil {
		w.Close()
		return &exporter.SerializationError{Format: dataMimicFormat, Err: err}
	}
	if err := w.Close(); err != nil {
		return &exporter.SerializationError{Format: dataMimicFormat, Err: err}
	}

	logger.Get().Info("datamimic model written", "path", path)
	return nil
}
