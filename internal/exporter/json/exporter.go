package json

import (
	"encoding/json"
	"io"

	"metaextractor/internal/exporter/document"
	"metaextractor/internal/model"
)

// Exporter writes the document as indented JSON
type Exporter struct{}

// NewExporter creates a new JSON exporter
func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Format() string        { return "json" }
func (e *Exporter) MimeType() string      { return "application/json" }
func (e *Exporter) FileExtension() string { return ".json" }

// Export encodes the results. Struct fields are emitted in declaration order
// and the document holds no maps, so the output is byte-stable.
func (e *Exporter) Export(results []model.ExtractionResult, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(document.Build(results))
}
