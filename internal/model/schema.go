package model

import (
	"errors"
	"fmt"
	"sort"
)

// Catalog is the normalized metadata read from one source connection.
// It is built once per extraction pass and never modified afterwards.
type Catalog struct {
	Source   string   `json:"source" yaml:"source"`
	Engine   string   `json:"engine" yaml:"engine"`
	Database string   `json:"database" yaml:"database"`
	Version  string   `json:"version,omitempty" yaml:"version,omitempty"`
	Schemas  []Schema `json:"schemas" yaml:"schemas"`
}

// Schema groups tables; Tables are sorted by name
type Schema struct {
	Name       string   `json:"name" yaml:"name"`
	Tables     []Table  `json:"tables" yaml:"tables"`
	Incomplete bool     `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`
	Issues     []string `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// Table kinds
const (
	TableKindTable = "table"
	TableKindView  = "view"
)

// Table represents a table or view with its columns, constraints and indexes
type Table struct {
	Name        string       `json:"name" yaml:"name"`
	Kind        string       `json:"kind" yaml:"kind"`
	Columns     []Column     `json:"columns" yaml:"columns"`
	Constraints []Constraint `json:"constraints,omitempty" yaml:"constraints,omitempty"`
	Indexes     []Index      `json:"indexes,omitempty" yaml:"indexes,omitempty"`

	// Incomplete is set when one of the table's catalog queries failed.
	// Whatever was read before the failure is kept.
	Incomplete bool     `json:"incomplete,omitempty" yaml:"incomplete,omitempty"`
	Issues     []string `json:"issues,omitempty" yaml:"issues,omitempty"`
}

// Column represents a table column
type Column struct {
	Name     string       `json:"name" yaml:"name"`
	Position int          `json:"position" yaml:"position"`
	Type     SemanticType `json:"type" yaml:"type"`
	Nullable bool         `json:"nullable" yaml:"nullable"`

	// Default is the raw default expression; it is never evaluated
	Default *string `json:"default,omitempty" yaml:"default,omitempty"`
}

// ConstraintKind enumerates the supported constraint kinds
type ConstraintKind string

const (
	ConstraintPrimaryKey ConstraintKind = "primary_key"
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintCheck      ConstraintKind = "check"
)

// Constraint is a table-level rule over one or more columns
type Constraint struct {
	Name    string         `json:"name" yaml:"name"`
	Kind    ConstraintKind `json:"kind" yaml:"kind"`
	Columns []string       `json:"columns,omitempty" yaml:"columns,omitempty"`

	// Reference is set for foreign keys only
	Reference *Reference `json:"reference,omitempty" yaml:"reference,omitempty"`

	// Expression holds the check clause for check constraints
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// Reference points at another table by name. It is resolved at lookup time
// because the target may live in another schema or in a source that failed.
type Reference struct {
	Schema  string   `json:"schema,omitempty" yaml:"schema,omitempty"`
	Table   string   `json:"table" yaml:"table"`
	Columns []string `json:"columns" yaml:"columns"`
}

// Index represents a table index
type Index struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []string `json:"columns" yaml:"columns"`
	Unique  bool     `json:"unique" yaml:"unique"`
	Primary bool     `json:"primary,omitempty" yaml:"primary,omitempty"`

	// Expression is set for expression or partial indexes
	Expression string `json:"expression,omitempty" yaml:"expression,omitempty"`
}

// Schema returns the schema with the given name
func (c *Catalog) Schema(name string) (*Schema, bool) {
	for i := range c.Schemas {
		if c.Schemas[i].Name == name {
			return &c.Schemas[i], true
		}
	}
	return nil, false
}

// Incomplete reports whether any schema or table in the catalog is incomplete
func (c *Catalog) Incomplete() bool {
	for _, s := range c.Schemas {
		if s.Incomplete {
			return true
		}
		for _, t := range s.Tables {
			if t.Incomplete {
				return true
			}
		}
	}
	return false
}

// TableCount returns the number of tables and views across all schemas
func (c *Catalog) TableCount() int {
	n := 0
	for _, s := range c.Schemas {
		n += len(s.Tables)
	}
	return n
}

// Table returns the table with the given name using binary search over the sorted slice
func (s *Schema) Table(name string) (*Table, bool) {
	i := sort.Search(len(s.Tables), func(i int) bool { return s.Tables[i].Name >= name })
	if i < len(s.Tables) && s.Tables[i].Name == name {
		return &s.Tables[i], true
	}
	return nil, false
}

// Column returns the column with the given name
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// PrimaryKey returns the table's primary key constraint, if declared
func (t *Table) PrimaryKey() (*Constraint, bool) {
	for i := range t.Constraints {
		if t.Constraints[i].Kind == ConstraintPrimaryKey {
			return &t.Constraints[i], true
		}
	}
	return nil, false
}

// ForeignKeys returns the table's foreign key constraints in name order
func (t *Table) ForeignKeys() []Constraint {
	var fks []Constraint
	for _, c := range t.Constraints {
		if c.Kind == ConstraintForeignKey {
			fks = append(fks, c)
		}
	}
	return fks
}

// Violation is one broken structural invariant. Table is empty when the
// violation concerns the schema itself.
type Violation struct {
	Schema string
	Table  string
	Reason string
}

func (v *Violation) Error() string {
	if v.Table == "" {
		return fmt.Sprintf("schema %s: %s", v.Schema, v.Reason)
	}
	return fmt.Sprintf("table %s.%s: %s", v.Schema, v.Table, v.Reason)
}

// Violations checks the structural invariants of a catalog: unique schema, table
// and column names, and primary keys that reference existing columns.
// Primary keys of incomplete tables are not checked since their columns may be partial.
func (c *Catalog) Violations() []Violation {
	var violations []Violation

	seenSchemas := make(map[string]bool, len(c.Schemas))
	for _, s := range c.Schemas {
		if seenSchemas[s.Name] {
			violations = append(violations, Violation{Schema: s.Name, Reason: "duplicate schema"})
			continue
		}
		seenSchemas[s.Name] = true

		seenTables := make(map[string]bool, len(s.Tables))
		for _, t := range s.Tables {
			if seenTables[t.Name] {
				violations = append(violations, Violation{Schema: s.Name, Table: t.Name, Reason: "duplicate table"})
				continue
			}
			seenTables[t.Name] = true

			if reason := t.violation(); reason != "" {
				violations = append(violations, Violation{Schema: s.Name, Table: t.Name, Reason: reason})
			}
		}
	}
	return violations
}

// Validate returns every violation joined into one error, or nil
func (c *Catalog) Validate() error {
	violations := c.Violations()
	errs := make([]error, len(violations))
	for i := range violations {
		errs[i] = &violations[i]
	}
	return errors.Join(errs...)
}

// MarkIncomplete flags the objects named by the violations as incomplete and
// records each reason as an issue. It must run before the catalog is shared.
func (c *Catalog) MarkIncomplete(violations []Violation) {
	for _, v := range violations {
		issue := "validation: " + v.Reason
		for i := range c.Schemas {
			s := &c.Schemas[i]
			if s.Name != v.Schema {
				continue
			}
			if v.Table == "" {
				s.Incomplete = true
				s.Issues = append(s.Issues, issue)
				continue
			}
			for j := range s.Tables {
				if s.Tables[j].Name == v.Table {
					s.Tables[j].Incomplete = true
					s.Tables[j].Issues = append(s.Tables[j].Issues, issue)
				}
			}
		}
	}
}

func (t *Table) violation() string {
	seen := make(map[string]bool, len(t.Columns))
	for _, col := range t.Columns {
		if seen[col.Name] {
			return fmt.Sprintf("duplicate column %q", col.Name)
		}
		seen[col.Name] = true
	}

	if t.Incomplete {
		return ""
	}

	if pk, ok := t.PrimaryKey(); ok {
		for _, name := range pk.Columns {
			if !seen[name] {
				return fmt.Sprintf("primary key %s references unknown column %q", pk.Name, name)
			}
		}
	}
	return ""
}
