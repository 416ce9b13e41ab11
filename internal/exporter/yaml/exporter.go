package yaml

import (
	"io"

	"gopkg.in/yaml.v3"

	"metaextractor/internal/exporter/document"
	"metaextractor/internal/model"
)

// Exporter writes the document as YAML
type Exporter struct{}

// NewExporter creates a new YAML exporter
func NewExporter() *Exporter {
	return &Exporter{}
}

func (e *Exporter) Format() string        { return "yaml" }
func (e *Exporter) MimeType() string      { return "application/yaml" }
func (e *Exporter) FileExtension() string { return ".yaml" }

func (e *Exporter) Export(results []model.ExtractionResult, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(document.Build(results)); err != nil {
		enc.Close()
		return err
	}
	return enc.Close()
}
