package coordinator

import (
	"errors"
	"fmt"
	"strings"

	"metaextractor/internal/extractor"
)

// Misconfiguration errors. They are the only errors that stop a pass before any
// source is contacted.
var (
	ErrNoSources             = errors.New("no sources configured")
	ErrEmptySourceName       = errors.New("source name is required")
	ErrDuplicateSource       = errors.New("duplicate source name")
	ErrEmptyConnectionString = errors.New("connection string is required")
	ErrUnknownEngine         = errors.New("unknown engine")
)

// Validate checks a source list before extraction
func Validate(sources []Source) error {
	if len(sources) == 0 {
		return ErrNoSources
	}

	seen := make(map[string]bool, len(sources))
	for i, src := range sources {
		name := strings.TrimSpace(src.Name)
		if name == "" {
			return fmt.Errorf("source #%d: %w", i+1, ErrEmptySourceName)
		}
		if seen[name] {
			return fmt.Errorf("source %q: %w", name, ErrDuplicateSource)
		}
		seen[name] = true

		if strings.TrimSpace(src.DSN) == "" {
			return fmt.Errorf("source %q: %w", name, ErrEmptyConnectionString)
		}

		if _, ok := extractor.CanonicalEngine(src.Engine); !ok {
			return fmt.Errorf("source %q: %w: %s (supported: %s)", name, ErrUnknownEngine,
				src.Engine, strings.Join(extractor.SupportedEngines(), ", "))
		}
		if _, err := extractor.NewDriver(src.Engine, src.Options); err != nil {
			return fmt.Errorf("source %q: %w", name, err)
		}
	}
	return nil
}
