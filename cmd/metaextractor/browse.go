package main

import (
	"bufio"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"metaextractor/internal/browse"
	"metaextractor/internal/config"
)

var (
	browseSources sourceFlags
	browseWizard  bool
)

var BrowseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Extract and walk the catalog in the terminal",
	Long: `Browse runs one extraction pass and then reads navigation commands from
stdin: j/k move, enter toggles, l/h expand and collapse, q quits.

With --wizard, or when no source is configured, browse first asks for a
connection on stdin and can write an export and a DataMimic model for it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := browseSources.resolve(cmd)
		in := bufio.NewReader(cmd.InOrStdin())

		var conn browse.Connection
		if browseWizard || len(cfg.Sources) == 0 {
			var err error
			conn, err = browse.NewWizard(in, cmd.OutOrStdout()).Ask()
			if err != nil {
				return err
			}
			cfg.Sources = append(cfg.Sources, config.SourceConfig{
				Name:             wizardSourceName,
				Type:             conn.Engine,
				ConnectionString: conn.DSN(),
				Schemas:          conn.Schemas(),
				Timeout:          browseSources.timeout,
				QueryRate:        browseSources.queryRate,
			})
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

		if conn.Output != "" {
			out := config.OutputConfig{
				Format:    formatForPath(conn.Output, cfg.Output.Format),
				Path:      conn.Output,
				DataMimic: conn.DataMimic,
				Title:     cfg.Output.Title,
			}
			if err := writeExport(ctx, out, results); err != nil {
				return err
			}
			if out.DataMimic {
				if err := writeDataMimic(ctx, out, results); err != nil {
					return err
				}
			}
		}

		return browse.Run(in, cmd.OutOrStdout(), browse.NewNavigator(results))
	},
}

const wizardSourceName = "wizard"

// formatForPath picks the export format from the file extension, falling
// back to def for unknown extensions
func formatForPath(path, def string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "yml" {
		ext = "yaml"
	}
	for _, f := range config.Formats {
		if f == ext {
			return f
		}
	}
	return def
}

func init() {
	browseSources.register(BrowseCmd)
	BrowseCmd.Flags().BoolVar(&browseWizard, "wizard", false, "Ask for a connection on stdin before extracting")
}
