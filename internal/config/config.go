package config

import (
	"fmt"
	"strings"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	Sources []SourceConfig `yaml:"sources" toml:"sources"`
	Output  OutputConfig   `yaml:"output" toml:"output"`
	Extract ExtractConfig  `yaml:"extract" toml:"extract"`
	Logging LogConfig      `yaml:"logging" toml:"logging"`
}

// SourceConfig holds one catalog connection. Sources are extracted and reported
// in the order they are listed.
type SourceConfig struct {
	Name             string            `yaml:"name" toml:"name"`
	Type             string            `yaml:"type" toml:"type"` // postgres, mysql, sqlite, mssql, oracle
	ConnectionString string            `yaml:"connection_string" toml:"connection_string"`
	Timeout          string            `yaml:"timeout" toml:"timeout"`       // connection timeout, e.g. "10s"
	Schemas          []string          `yaml:"schemas" toml:"schemas"`       // filter by schema/owner
	QueryRate        float64           `yaml:"query_rate" toml:"query_rate"` // catalog queries per second, 0 = unlimited
	Options          map[string]string `yaml:"options" toml:"options"`       // additional driver-specific options
}

// OutputConfig controls export settings
type OutputConfig struct {
	Format    string `yaml:"format" toml:"format"`       // json, yaml, xlsx, html, docx
	Path      string `yaml:"path" toml:"path"`           // file path, "-" for stdout, or s3://bucket/key
	DataMimic bool   `yaml:"datamimic" toml:"datamimic"` // also write the data-generation model
	Title     string `yaml:"title" toml:"title"`         // document title for html, xlsx and docx
}

// ExtractConfig controls the extraction pass
type ExtractConfig struct {
	Concurrency    int    `yaml:"concurrency" toml:"concurrency"` // 0 = one worker per source
	DefaultTimeout string `yaml:"default_timeout" toml:"default_timeout"`
}

// LogConfig controls logging behavior
type LogConfig struct {
	Level  string `yaml:"level" toml:"level"`   // debug, info, warn, error
	Format string `yaml:"format" toml:"format"` // json, text
	File   string `yaml:"file" toml:"file"`     // log file path (empty = stderr)
}

// Formats lists the supported export formats
var Formats = []string{"json", "yaml", "xlsx", "html", "docx"}

// Validate performs basic validation on the configuration
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return ErrNoSources
	}

	seen := make(map[string]bool, len(c.Sources))
	for i, src := range c.Sources {
		if strings.TrimSpace(src.Name) == "" {
			return fmt.Errorf("source #%d: %w", i+1, ErrMissingSourceName)
		}
		if seen[src.Name] {
			return fmt.Errorf("source %q: %w", src.Name, ErrDuplicateSource)
		}
		seen[src.Name] = true

		if src.Type == "" {
			return fmt.Errorf("source %q: %w", src.Name, ErrMissingDBType)
		}
		if strings.TrimSpace(src.ConnectionString) == "" {
			return fmt.Errorf("source %q: %w", src.Name, ErrMissingConnectionString)
		}
		if _, err := src.TimeoutDuration(); err != nil {
			return fmt.Errorf("source %q: %w", src.Name, err)
		}
		if src.QueryRate < 0 {
			return fmt.Errorf("source %q: %w", src.Name, ErrInvalidQueryRate)
		}
	}

	if !isFormat(c.Output.Format) {
		return fmt.Errorf("%w: %s (supported: %s)", ErrInvalidFormat, c.Output.Format, strings.Join(Formats, ", "))
	}
	if c.Extract.Concurrency < 0 {
		return ErrInvalidConcurrency
	}
	if _, err := parseDuration(c.Extract.DefaultTimeout); err != nil {
		return err
	}
	return nil
}

// TimeoutDuration parses the source timeout; empty means the default
func (s SourceConfig) TimeoutDuration() (time.Duration, error) {
	return parseDuration(s.Timeout)
}

// DefaultTimeoutDuration parses the timeout applied to sources without their own
func (e ExtractConfig) DefaultTimeoutDuration() time.Duration {
	d, _ := parseDuration(e.DefaultTimeout)
	return d
}

func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeout, s)
	}
	return d, nil
}

func isFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Output: OutputConfig{
			Format: "json",
			Path:   "-",
		},
		Extract: ExtractConfig{
			DefaultTimeout: "30s",
		},
		Logging: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// ApplyDefaults fills unset fields from Default
func (c *Config) ApplyDefaults() {
	def := Default()
	if c.Output.Format == "" {
		c.Output.Format = def.Output.Format
	}
	c.Output.Format = strings.ToLower(c.Output.Format)
	if c.Output.Path == "" {
		c.Output.Path = def.Output.Path
	}
	if c.Extract.DefaultTimeout == "" {
		c.Extract.DefaultTimeout = def.Extract.DefaultTimeout
	}
	if c.Logging.Level == "" {
		c.Logging.Level = def.Logging.Level
	}
	if c.Logging.Format == "" {
		c.Logging.Format = def.Logging.Format
	}
}
