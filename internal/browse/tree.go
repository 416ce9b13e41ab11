// Package browse lets a user walk one extraction snapshot in the terminal:
// sources expand into schemas, schemas into tables, and tables into their
// columns, constraints and indexes. The snapshot is never re-extracted.
package browse

import (
	"fmt"
	"strings"

	"metaextractor/internal/exporter/document"
	"metaextractor/internal/model"
)

// Level identifies what a node represents
type Level int

const (
	LevelSource Level = iota
	LevelSchema
	LevelTable
	LevelSection
	LevelDetail
)

// Node is one line of the tree
type Node struct {
	Level    Level
	Label    string
	Children []*Node

	parent   *Node
	expanded bool
}

// Expandable reports whether the node has children to show
func (n *Node) Expandable() bool {
	return len(n.Children) > 0
}

// Expanded reports whether the node's children are visible
func (n *Node) Expanded() bool {
	return n.expanded
}

func (n *Node) add(child *Node) {
	child.parent = n
	n.Children = append(n.Children, child)
}

// buildTree converts the results into root nodes, one per source, in input order
func buildTree(results []model.ExtractionResult) []*Node {
	doc := document.Build(results)
	roots := make([]*Node, 0, len(doc.Sources))
	for _, src := range doc.Sources {
		roots = append(roots, sourceNode(src))
	}
	return roots
}

func sourceNode(src document.Source) *Node {
	label := fmt.Sprintf("%s (%s) %s", src.Name, src.Engine, src.Status)
	if src.Failure != nil {
		label += ": " + string(src.Failure.Kind) + ": " + src.Failure.Message
	}
	node := &Node{Level: LevelSource, Label: label}
	if src.Catalog == nil {
		return node
	}

	for _, schema := range src.Catalog.Schemas {
		s := &Node{Level: LevelSchema, Label: fmt.Sprintf("%s (%d tables)%s", schema.Name, len(schema.Tables), incomplete(schema.Incomplete))}
		for _, issue := range schema.Issues {
			s.add(&Node{Level: LevelDetail, Label: "! " + issue})
		}
		for _, t := range schema.Tables {
			s.add(tableNode(t))
		}
		node.add(s)
	}
	return node
}

func tableNode(t document.Table) *Node {
	node := &Node{Level: LevelTable, Label: fmt.Sprintf("%s [%s]%s", t.Name, t.Kind, incomplete(t.Incomplete))}
	for _, issue := range t.Issues {
		node.add(&Node{Level: LevelDetail, Label: "! " + issue})
	}

	columns := &Node{Level: LevelSection, Label: fmt.Sprintf("columns (%d)", len(t.Columns))}
	for _, col := range t.Columns {
		columns.add(&Node{Level: LevelDetail, Label: columnLabel(col)})
	}
	node.add(columns)

	constraints := &Node{Level: LevelSection, Label: fmt.Sprintf("constraints (%d)", len(t.Constraints))}
	for _, c := range t.Constraints {
		constraints.add(&Node{Level: LevelDetail, Label: constraintLabel(c)})
	}
	node.add(constraints)

	indexes := &Node{Level: LevelSection, Label: fmt.Sprintf("indexes (%d)", len(t.Indexes))}
	for _, idx := range t.Indexes {
		indexes.add(&Node{Level: LevelDetail, Label: indexLabel(idx)})
	}
	node.add(indexes)

	return node
}

func columnLabel(col document.Column) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", col.Name, col.Descriptor)
	if !col.Nullable {
		b.WriteString(" NOT NULL")
	}
	if col.Default != nil {
		b.WriteString(" DEFAULT " + *col.Default)
	}
	if col.PrimaryKey {
		b.WriteString(" PK")
	}
	return b.String()
}

func constraintLabel(c document.Constraint) string {
	label := fmt.Sprintf("%s %s (%s)", c.Name, c.Kind, strings.Join(c.Columns, ", "))
	if ref := c.Reference; ref != nil {
		label += fmt.Sprintf(" -> %s.%s(%s)", ref.Schema, ref.Table, strings.Join(ref.Columns, ", "))
		if !ref.Resolved {
			label += " [unresolved]"
		}
	}
	if c.Expression != "" {
		label += " " + c.Expression
	}
	return label
}

func indexLabel(idx document.Index) string {
	label := fmt.Sprintf("%s (%s)", idx.Name, strings.Join(idx.Columns, ", "))
	switch {
	case idx.Primary:
		label += " primary"
	case idx.Unique:
		label += " unique"
	}
	if idx.Expression != "" {
		label += " " + idx.Expression
	}
	return label
}

func incomplete(b bool) string {
	if b {
		return " [incomplete]"
	}
	return ""
}
