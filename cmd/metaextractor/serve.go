package main

import (
	"github.com/spf13/cobra"

	"metaextractor/internal/exporter"
	"metaextractor/internal/ui"
)

var (
	serveSources sourceFlags
	serveAddr    string
	serveTitle   string
)

var ServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Extract and serve an HTML preview with downloads",
	Long: `Serve runs one extraction pass and serves the result until interrupted:

  /                 HTML preview
  /api/results      JSON rendering
  /export/{format}  download as json, yaml, xlsx or html`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := serveSources.resolve(cmd)
		if cmd.Flags().Changed("title") {
			cfg.Output.Title = serveTitle
		}

		ctx, cancel := signalContext(cmd.Context())
		defer cancel()

		results, err := runExtraction(ctx, cfg)
		if err != nil {
			return err
		}
		if err := WriteReport(cmd.ErrOrStderr(), results); err != nil {
			return err
		}

		return ui.NewServer(results, exporter.Config{Title: cfg.Output.Title}, "catalog").Start(ctx, serveAddr)
	},
}

func init() {
	serveSources.register(ServeCmd)
	ServeCmd.Flags().StringVar(&serveAddr, "addr", "localhost:8080", "Listen address")
	ServeCmd.Flags().StringVar(&serveTitle, "title", "", "Document title")
}
