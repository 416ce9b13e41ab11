package exporter

import (
	"fmt"
	"strings"

	"metaextractor/internal/exporter/docx"
	"metaextractor/internal/exporter/html"
	"metaextractor/internal/exporter/json"
	"metaextractor/internal/exporter/xlsx"
	"metaextractor/internal/exporter/yaml"
)

// NewExporter creates an exporter for the specified format
func NewExporter(format string, cfg Config) (Exporter, error) {
	format = strings.ToLower(strings.TrimSpace(format))

	title := cfg.Title
	if title == "" {
		title = DefaultTitle
	}

	switch format {
	case "json":
		return json.NewExporter(), nil
	case "yaml", "yml":
		return yaml.NewExporter(), nil
	case "xlsx", "excel":
		return xlsx.NewExporter(xlsx.Config{Title: title}), nil
	case "html":
		return html.NewExporter(html.Config{Title: title}), nil
	case "docx", "word":
		return docx.NewExporter(docx.Config{Title: title}), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s (supported: %s)",
			format, strings.Join(GetSupportedFormats(), ", "))
	}
}

// GetSupportedFormats returns a list of supported export formats
func GetSupportedFormats() []string {
	return []string{"json", "yaml", "xlsx", "html", "docx"}
}
