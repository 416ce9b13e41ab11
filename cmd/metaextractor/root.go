package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"metaextractor/internal/config"
	"metaextractor/internal/logger"
)

var (
	configPath string
	debug      bool

	// loaded is the parsed --config file, nil when none was given
	loaded    *config.Config
	logCloser io.Closer
)

// Build-time variables set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// errAllFailed makes the process exit non-zero without printing usage
var errAllFailed = errors.New("every source failed")

var RootCmd = &cobra.Command{
	Use:   "metaextractor",
	Short: "Extract schema metadata from many databases into one catalog",
	Long: fmt.Sprintf(`metaextractor reads table, column, constraint and index metadata from
PostgreSQL, MySQL/MariaDB, SQLite, SQL Server and Oracle sources concurrently
and exports one normalized catalog.

Version: %s@%s %s %s

Commands:
  extract   Extract all sources and write an export
  browse    Extract and walk the catalog in the terminal
  serve     Extract and serve an HTML preview with downloads

Use "metaextractor [command] --help" for more information about a command.`,
		Version, GitCommit, platform(), BuildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logCloser != nil {
			logCloser.Close()
		}
	},
}

var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "metaextractor %s@%s %s %s\n", Version, GitCommit, platform(), BuildDate)
	},
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to a YAML or TOML configuration file")
	RootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")

	RootCmd.AddCommand(ExtractCmd)
	RootCmd.AddCommand(BrowseCmd)
	RootCmd.AddCommand(ServeCmd)
	RootCmd.AddCommand(VersionCmd)
}

// setup loads the config file, if any, and installs the global logger
func setup() error {
	loaded = nil
	logging := config.Default().Logging

	if configPath != "" {
		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		loaded = cfg
		logging = cfg.Logging
	}

	closer, err := logger.Setup(logger.Options{
		Level:  logging.Level,
		Format: logging.Format,
		File:   logging.File,
		Debug:  debug,
	})
	if err != nil {
		return err
	}
	logCloser = closer
	return nil
}

// platform returns the OS/architecture combination
func platform() string {
	return runtime.GOOS + "/" + runtime.GOARCH
}

func Execute() {
	if err := RootCmd.Execute(); err != nil {
		if !errors.Is(err, errAllFailed) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
