// Package normalizer turns raw driver rows into the engine-agnostic schema model.
// It performs no I/O.
package normalizer

import (
	"fmt"
	"sort"
	"strings"

	"metaextractor/internal/extractor"
	"metaextractor/internal/model"
)

// Normalize builds a catalog from one source's raw read. Schemas and tables are
// sorted by name, columns by ordinal position, constraints and indexes by name.
// Foreign keys are kept as name references whether or not their target exists.
func Normalize(raw extractor.RawCatalog) *model.Catalog {
	catalog := &model.Catalog{
		Source:   raw.Source,
		Engine:   raw.Engine,
		Database: raw.Database,
		Version:  raw.Version,
		Schemas:  make([]model.Schema, 0, len(raw.Schemas)),
	}

	for _, rs := range raw.Schemas {
		schema := model.Schema{
			Name:       rs.Name,
			Tables:     make([]model.Table, 0, len(rs.Tables)),
			Incomplete: len(rs.Issues) > 0,
			Issues:     rs.Issues,
		}
		for _, rt := range rs.Tables {
			schema.Tables = append(schema.Tables, normalizeTable(raw.Engine, rt))
		}
		sort.SliceStable(schema.Tables, func(i, j int) bool {
			return schema.Tables[i].Name < schema.Tables[j].Name
		})
		catalog.Schemas = append(catalog.Schemas, schema)
	}

	sort.SliceStable(catalog.Schemas, func(i, j int) bool {
		return catalog.Schemas[i].Name < catalog.Schemas[j].Name
	})
	return catalog
}

func normalizeTable(engine string, rt extractor.RawTable) model.Table {
	kind := rt.Kind
	if kind == "" {
		kind = model.TableKindTable
	}

	table := model.Table{
		Name:        rt.Name,
		Kind:        kind,
		Columns:     make([]model.Column, 0, len(rt.Columns)),
		Constraints: groupConstraints(rt.Constraints),
		Indexes:     groupIndexes(rt.Indexes),
		Incomplete:  len(rt.Issues) > 0,
		Issues:      rt.Issues,
	}

	for _, rc := range rt.Columns {
		col := model.Column{
			Name:     rc.Name,
			Position: rc.Position,
			Type:     MapType(engine, rc),
			Nullable: rc.Nullable,
		}
		if rc.Default.Valid {
			def := rc.Default.String
			col.Default = &def
		}
		table.Columns = append(table.Columns, col)
	}

	sort.SliceStable(table.Columns, func(i, j int) bool {
		return table.Columns[i].Position < table.Columns[j].Position
	})
	return table
}

var constraintKinds = map[string]model.ConstraintKind{
	extractor.KindPrimaryKey: model.ConstraintPrimaryKey,
	extractor.KindUnique:     model.ConstraintUnique,
	extractor.KindForeignKey: model.ConstraintForeignKey,
	extractor.KindCheck:      model.ConstraintCheck,
}

// groupConstraints folds (constraint, column) rows into one constraint per name
// and kind. MySQL names a foreign key and the unique key backing it alike, so
// the name alone is not an identity. Rows with an unrecognized kind are dropped.
func groupConstraints(rows []extractor.ConstraintRow) []model.Constraint {
	if len(rows) == 0 {
		return nil
	}

	sorted := append([]extractor.ConstraintRow(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		if sorted[i].Kind != sorted[j].Kind {
			return sorted[i].Kind < sorted[j].Kind
		}
		return sorted[i].Position < sorted[j].Position
	})

	var constraints []model.Constraint
	for _, row := range sorted {
		kind, ok := constraintKinds[row.Kind]
		if !ok {
			continue
		}

		n := len(constraints)
		if n == 0 || constraints[n-1].Name != row.Name || constraints[n-1].Kind != kind {
			c := model.Constraint{Name: row.Name, Kind: kind, Expression: row.Expression}
			if kind == model.ConstraintForeignKey {
				c.Reference = &model.Reference{Schema: row.RefSchema, Table: row.RefTable}
			}
			constraints = append(constraints, c)
			n++
		}

		c := &constraints[n-1]
		if row.Column != "" && !contains(c.Columns, row.Column) {
			c.Columns = append(c.Columns, row.Column)
			if c.Reference != nil && row.RefColumn != "" {
				c.Reference.Columns = append(c.Reference.Columns, row.RefColumn)
			}
		}
	}
	return constraints
}

// groupIndexes folds (index, key position) rows into one index per name. Expression
// keys and partial-index predicates are rendered into Index.Expression.
func groupIndexes(rows []extractor.IndexRow) []model.Index {
	if len(rows) == 0 {
		return nil
	}

	sorted := append([]extractor.IndexRow(nil), rows...)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Name != sorted[j].Name {
			return sorted[i].Name < sorted[j].Name
		}
		if sorted[i].Kind != sorted[j].Kind {
			return sorted[i].Kind < sorted[j].Kind
		}
		return sorted[i].Position < sorted[j].Position
	})

	var indexes []model.Index
	var expressions [][]string
	var predicates []string

	for _, row := range sorted {
		n := len(indexes)
		if n == 0 || indexes[n-1].Name != row.Name {
			indexes = append(indexes, model.Index{
				Name:    row.Name,
				Columns: []string{},
				Unique:  row.Unique || row.Primary,
				Primary: row.Primary,
			})
			expressions = append(expressions, nil)
			predicates = append(predicates, row.Predicate)
			n++
		}

		switch {
		case row.Expression != "":
			if !contains(expressions[n-1], row.Expression) {
				expressions[n-1] = append(expressions[n-1], row.Expression)
			}
		case row.Column != "":
			indexes[n-1].Columns = append(indexes[n-1].Columns, row.Column)
		}
		if predicates[n-1] == "" {
			predicates[n-1] = row.Predicate
		}
	}

	for i := range indexes {
		indexes[i].Expression = indexExpression(expressions[i], predicates[i])
	}
	return indexes
}

func indexExpression(expressions []string, predicate string) string {
	expr := strings.Join(expressions, ", ")
	switch {
	case predicate == "":
		return expr
	case expr == "":
		return "WHERE " + predicate
	default:
		return expr + " WHERE " + predicate
	}
}

// UnknownTypes lists the columns whose native type could not be mapped, as
// "schema.table.column: native"
func UnknownTypes(catalog *model.Catalog) []string {
	var unknown []string
	for _, s := range catalog.Schemas {
		for _, t := range s.Tables {
			for _, c := range t.Columns {
				if c.Type.IsUnknown() {
					unknown = append(unknown, fmt.Sprintf("%s.%s.%s: %s", s.Name, t.Name, c.Name, c.Type.Native))
				}
			}
		}
	}
	return unknown
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
