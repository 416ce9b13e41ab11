package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// EnvFileName is loaded from the config file's directory when present
const EnvFileName = ".env"

// LoadConfig loads configuration from a YAML or TOML file, chosen by extension.
// Variables from a neighbouring .env file are loaded first (existing environment
// variables win) so that ${VAR} references in connection strings can be expanded.
func LoadConfig(path string) (*Config, error) {
	if err := loadEnvFile(filepath.Join(filepath.Dir(path), EnvFileName)); err != nil {
		return nil, err
	}

	// Read file
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	case ".toml":
		if _, err := toml.Decode(string(data), &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedConfigFile, path)
	}

	cfg.ExpandEnv()
	cfg.ApplyDefaults()

	// Validate
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// ExpandEnv replaces ${VAR} and $VAR references in connection strings and the output path
func (c *Config) ExpandEnv() {
	for i := range c.Sources {
		c.Sources[i].ConnectionString = os.ExpandEnv(c.Sources[i].ConnectionString)
	}
	c.Output.Path = os.ExpandEnv(c.Output.Path)
}

func loadEnvFile(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	} else if err != nil {
		return err
	}

	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}
