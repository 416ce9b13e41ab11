// Package datamimic derives a data-generation model from extracted catalogs:
// one entry per table listing each column's generator type, nullability and
// primary key membership.
package datamimic

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"metaextractor/internal/model"
)

// ModelVersion identifies the layout of Model
const ModelVersion = "1"

// Generator types
const (
	GenInt      = "int"
	GenBigInt   = "bigint"
	GenBool     = "bool"
	GenString   = "string"
	GenDate     = "date"
	GenDateTime = "datetime"
	GenFloat    = "float"
	GenBinary   = "binary"
)

type Model struct {
	Version string   `json:"version" yaml:"version"`
	Sources []Source `json:"sources" yaml:"sources"`
}

type Source struct {
	Name               string  `json:"name" yaml:"name"`
	SourceDatabaseType string  `json:"source_database_type" yaml:"source_database_type"`
	Tables             []Table `json:"tables" yaml:"tables"`
}

type Table struct {
	Schema  string   `json:"schema" yaml:"schema"`
	Name    string   `json:"name" yaml:"name"`
	Columns []Column `json:"columns" yaml:"columns"`
}

type Column struct {
	Name          string `json:"name" yaml:"name"`
	GeneratorType string `json:"generator_type" yaml:"generator_type"`
	Nullable      bool   `json:"nullable" yaml:"nullable"`
	IsPrimaryKey  bool   `json:"is_primary_key" yaml:"is_primary_key"`
}

// Generate builds the model from every source that produced a catalog.
// Views are skipped since no data is generated for them.
func Generate(results []model.ExtractionResult) *Model {
	m := &Model{Version: ModelVersion, Sources: []Source{}}
	for _, r := range results {
		if r.Catalog == nil || r.Failure != nil {
			continue
		}
		src := Source{Name: r.Source, SourceDatabaseType: r.Engine, Tables: []Table{}}
		for _, schema := range r.Catalog.Schemas {
			for i := range schema.Tables {
				t := &schema.Tables[i]
				if t.Kind == model.TableKindView {
					continue
				}
				src.Tables = append(src.Tables, table(schema.Name, t))
			}
		}
		m.Sources = append(m.Sources, src)
	}
	return m
}

func table(schema string, t *model.Table) Table {
	pk := map[string]bool{}
	if c, ok := t.PrimaryKey(); ok {
		for _, name := range c.Columns {
			pk[name] = true
		}
	}

	out := Table{Schema: schema, Name: t.Name, Columns: make([]Column, 0, len(t.Columns))}
	for _, col := range t.Columns {
		out.Columns = append(out.Columns, Column{
			Name:          col.Name,
			GeneratorType: GeneratorType(col.Type),
			Nullable:      col.Nullable,
			IsPrimaryKey:  pk[col.Name],
		})
	}
	return out
}

// GeneratorType picks the generator for a semantic type; anything without a
// dedicated generator is produced as a string
func GeneratorType(t model.SemanticType) string {
	switch t.Kind {
	case model.KindInteger:
		if t.Bits > 32 || (t.Bits == 32 && t.Unsigned) {
			return GenBigInt
		}
		return GenInt
	case model.KindBoolean:
		return GenBool
	case model.KindDate:
		return GenDate
	case model.KindTimestamp:
		return GenDateTime
	case model.KindFloat, model.KindDecimal:
		return GenFloat
	case model.KindBinary:
		return GenBinary
	default:
		return GenString
	}
}

// Extension returns the file extension the model is written with for an export format
func Extension(format string) string {
	if format == "yaml" {
		return ".yaml"
	}
	return ".json"
}

// Write encodes the model as YAML for ".yaml" and JSON otherwise
func Write(m *Model, ext string, w io.Writer) error {
	switch ext {
	case ".yaml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("failed to encode datamimic model: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(m); err != nil {
			return fmt.Errorf("failed to encode datamimic model: %w", err)
		}
		return nil
	}
}
