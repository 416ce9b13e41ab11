package exporter

import (
	"fmt"
	"io"

	"metaextractor/internal/model"
)

// SerializationError is returned when an export cannot be rendered or written.
// It is fatal for the export but never affects the extraction results.
type SerializationError struct {
	Format string
	Err    error
}

func (e *SerializationError) Error() string {
	return fmt.Sprintf("serialize %s: %v", e.Format, e.Err)
}

func (e *SerializationError) Unwrap() error {
	return e.Err
}

// Write renders results with exp, wrapping any failure in a SerializationError
func Write(exp Exporter, results []model.ExtractionResult, w io.Writer) error {
	if err := exp.Export(results, w); err != nil {
		return &SerializationError{Format: exp.Format(), Err: err}
	}
	return nil
}
