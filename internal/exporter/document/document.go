// Package document builds the serializable view of an extraction pass.
//
// Every exporter renders from a Document so that all formats agree on the
// shape: format_version, then one entry per source in configuration order,
// nesting catalog, schemas, tables, and their columns, constraints and indexes.
// Nothing in a Document depends on map iteration or wall-clock time, so
// identical results always produce identical bytes.
package document

import (
	"metaextractor/internal/model"
)

// FormatVersion is bumped whenever the exported shape changes incompatibly
const FormatVersion = "1"

// Document is the root of every export
type Document struct {
	FormatVersion string   `json:"format_version" yaml:"format_version"`
	Sources       []Source `json:"sources" yaml:"sources"`
}

// Source is one configured source and its outcome
type Source struct {
	Name    string         `json:"name" yaml:"name"`
	Engine  string         `json:"engine" yaml:"engine"`
	Status  model.Status   `json:"status" yaml:"status"`
	Failure *model.Failure `json:"failure,omitempty" yaml:"failure,omitempty"`
	Catalog *Catalog       `json:"catalog,omitempty" yaml:"catalog,omitempty"`
}

type Catalog struct {
	Database string   `json:"database" yaml:"database"`
	Version  string   `json:"version,omitempty" yaml:"version,omitempty"`
	Schemas  []Schema `json:"schemas" yaml:"schemas"`
}

type Schema struct {
	Name       string   `json:"name" yaml:"name"`
	Incomplete bool     `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`
	Issues     []string `json:"issues,omitempty" yaml:"issues,omitempty"`
	Tables     []Table  `json:"tables" yaml:"tables"`
}

type Table struct {
	Name        string       `json:"name" yaml:"name"`
	Kind        string       `json:"kind" yaml:"kind"`
	Incomplete  bool         `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`
	Issues      []string     `json:"issues,omitempty" yaml:"issues,omitempty"`
	Columns     []Column     `json:"columns" yaml:"columns"`
	Constraints []Constraint `json:"constraints" yaml:"constraints"`
	Indexes     []Index      `json:"indexes" yaml:"indexes"`
}

// Column carries the descriptor alongside the structured type for readers
// that only want a display string
type Column struct {
	Name       string             `json:"name" yaml:"name"`
	Position   int                `json:"position" yaml:"position"`
	Descriptor string             `json:"descriptor" yaml:"descriptor"`
	Type       model.SemanticType `json:"type" yaml:"type"`
	Nullable   bool               `json:"nullable" yaml:"nullable"`
	Default    *string            `json:"default,omitempty" yaml:"default,omitempty"`
	PrimaryKey bool               `json:"primary_key,omitempty" yaml:"primary_key,omitempty"`
}

type Constraint struct {
	Name       string               `json:"name" yaml:"name"`
	Kind       model.ConstraintKind `json:"kind" yaml:"kind"`
	Columns    []string             `json:"columns" yaml:"columns"`
	Reference  *Reference           `json:"reference,omitempty" yaml:"reference,omitempty"`
	Expression string               `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// Reference is a foreign key target. Resolved is false when the target table
// or one of its columns is not present anywhere in the result sequence.
type Reference struct {
	Schema   string   `json:"schema" yaml:"schema"`
	Table    string   `json:"table" yaml:"table"`
	Columns  []string `json:"columns" yaml:"columns"`
	Resolved bool     `json:"resolved" yaml:"resolved"`
}

type Index struct {
	Name       string   `json:"name" yaml:"name"`
	Columns    []string `json:"columns" yaml:"columns"`
	Unique     bool     `json:"unique" yaml:"unique"`
	Primary    bool     `json:"primary,omitempty" yaml:"primary,omitempty"`
	Expression string   `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// Build converts a result sequence into a Document, keeping input order
func Build(results []model.ExtractionResult) *Document {
	resolver := model.NewResolver(results)

	doc := &Document{
		FormatVersion: FormatVersion,
		Sources:       make([]Source, 0, len(results)),
	}
	for _, r := range results {
		src := Source{
			Name:    r.Source,
			Engine:  r.Engine,
			Status:  r.Status(),
			Failure: r.Failure,
		}
		if r.Catalog != nil && r.Failure == nil {
			src.Catalog = buildCatalog(resolver, r.Source, r.Catalog)
		}
		doc.Sources = append(doc.Sources, src)
	}
	return doc
}

func buildCatalog(resolver *model.Resolver, source string, c *model.Catalog) *Catalog {
	out := &Catalog{
		Database: c.Database,
		Version:  c.Version,
		Schemas:  make([]Schema, 0, len(c.Schemas)),
	}
	for _, s := range c.Schemas {
		schema := Schema{
			Name:       s.Name,
			Incomplete: s.Incomplete,
			Issues:     s.Issues,
			Tables:     make([]Table, 0, len(s.Tables)),
		}
		for i := range s.Tables {
			schema.Tables = append(schema.Tables, buildTable(resolver, source, s.Name, &s.Tables[i]))
		}
		out.Schemas = append(out.Schemas, schema)
	}
	return out
}

func buildTable(resolver *model.Resolver, source, schema string, t *model.Table) Table {
	pk := map[string]bool{}
	if c, ok := t.PrimaryKey(); ok {
		for _, name := range c.Columns {
			pk[name] = true
		}
	}

	out := Table{
		Name:        t.Name,
		Kind:        t.Kind,
		Incomplete:  t.Incomplete,
		Issues:      t.Issues,
		Columns:     make([]Column, 0, len(t.Columns)),
		Constraints: make([]Constraint, 0, len(t.Constraints)),
		Indexes:     make([]Index, 0, len(t.Indexes)),
	}

	for _, col := range t.Columns {
		out.Columns = append(out.Columns, Column{
			Name:       col.Name,
			Position:   col.Position,
			Descriptor: col.Type.Describe(),
			Type:       col.Type,
			Nullable:   col.Nullable,
			Default:    col.Default,
			PrimaryKey: pk[col.Name],
		})
	}

	for _, c := range t.Constraints {
		con := Constraint{
			Name:       c.Name,
			Kind:       c.Kind,
			Columns:    nonNil(c.Columns),
			Expression: c.Expression,
		}
		if c.Reference != nil {
			refSchema := c.Reference.Schema
			if refSchema == "" {
				refSchema = schema
			}
			con.Reference = &Reference{
				Schema:   refSchema,
				Table:    c.Reference.Table,
				Columns:  nonNil(c.Reference.Columns),
				Resolved: resolver.Resolved(source, schema, *c.Reference),
			}
		}
		out.Constraints = append(out.Constraints, con)
	}

	for _, idx := range t.Indexes {
		out.Indexes = append(out.Indexes, Index{
			Name:       idx.Name,
			Columns:    nonNil(idx.Columns),
			Unique:     idx.Unique,
			Primary:    idx.Primary,
			Expression: idx.Expression,
		})
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Counts summarizes a source for overview tables
type Counts struct {
	Schemas     int
	Tables      int
	Views       int
	Columns     int
	Incomplete  int
	UnknownType int
}

// Count walks a source catalog; a failed source counts as zero
func (s Source) Count() Counts {
	var c Counts
	if s.Catalog == nil {
		return c
	}
	c.Schemas = len(s.Catalog.Schemas)
	for _, schema := range s.Catalog.Schemas {
		for _, t := range schema.Tables {
			if t.Kind == model.TableKindView {
				c.Views++
			} else {
				c.Tables++
			}
			if t.Incomplete {
				c.Incomplete++
			}
			c.Columns += len(t.Columns)
			for _, col := range t.Columns {
				if col.Type.IsUnknown() {
					c.UnknownType++
				}
			}
		}
	}
	return c
}
