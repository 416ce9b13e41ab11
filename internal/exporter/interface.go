package exporter

import (
	"io"

	"metaextractor/internal/model"
)

// Exporter defines the interface for exporting extraction results to various formats
type Exporter interface {
	// Export writes the results to the provided writer in the specific format.
	// Results are read-only; failed sources are rendered with their failure record.
	Export(results []model.ExtractionResult, w io.Writer) error

	// Format returns the format name (e.g., "json", "yaml", "xlsx", "html")
	Format() string

	// MimeType returns the MIME type for HTTP response headers
	MimeType() string

	// FileExtension returns the file extension (e.g., ".json", ".xlsx")
	FileExtension() string
}

// Config holds common configuration for all exporters
type Config struct {
	// Title for the html and xlsx renderings
	Title string
}

// DefaultTitle is used when Config.Title is empty
const DefaultTitle = "Metadata Catalog"
