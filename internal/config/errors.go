package config

import "errors"

// Common configuration errors
var (
	ErrNoSources               = errors.New("at least one source is required")
	ErrMissingSourceName       = errors.New("source name is required")
	ErrDuplicateSource         = errors.New("duplicate source name")
	ErrMissingDBType           = errors.New("database type is required")
	ErrMissingConnectionString = errors.New("connection string is required")
	ErrInvalidTimeout          = errors.New("invalid timeout")
	ErrInvalidQueryRate        = errors.New("query rate must not be negative")
	ErrInvalidFormat           = errors.New("invalid output format")
	ErrInvalidConcurrency      = errors.New("concurrency must not be negative")
	ErrUnsupportedConfigFile   = errors.New("unsupported config file extension")
)
