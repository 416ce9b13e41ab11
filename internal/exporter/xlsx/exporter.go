package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"metaextractor/internal/exporter/document"
	"metaextractor/internal/model"
)

// Config holds configuration for Excel export
type Config struct {
	Title string
}

// Exporter implements Excel (.xlsx) export functionality
type Exporter struct {
	config Config
}

// NewExporter creates a new Excel exporter
func NewExporter(cfg Config) *Exporter {
	return &Exporter{config: cfg}
}

// Format returns the format name
func (e *Exporter) Format() string {
	return "xlsx"
}

// MimeType returns the MIME type
func (e *Exporter) MimeType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

// FileExtension returns the file extension
func (e *Exporter) FileExtension() string {
	return ".xlsx"
}

// Sheet names in workbook order
const (
	SheetSources     = "Sources"
	SheetTables      = "Tables"
	SheetColumns     = "Columns"
	SheetConstraints = "Constraints"
	SheetIndexes     = "Indexes"
)

var sheets = []string{SheetSources, SheetTables, SheetColumns, SheetConstraints, SheetIndexes}

// Export generates a workbook with one sheet per object level. Every row
// carries its source and schema so sheets can be filtered independently.
func (e *Exporter) Export(results []model.ExtractionResult, w io.Writer) error {
	doc := document.Build(results)

	f := excelize.NewFile()
	defer f.Close()

	for i, name := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", name); err != nil {
				return fmt.Errorf("failed to create sheet %s: %w", name, err)
			}
			continue
		}
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}
	f.SetActiveSheet(0)

	headerStyle, err := e.getHeaderStyle(f)
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	writers := []func(*excelize.File, *document.Document, int) error{
		e.writeSources,
		e.writeTables,
		e.writeColumns,
		e.writeConstraints,
		e.writeIndexes,
	}
	for i, write := range writers {
		if err := write(f, doc, headerStyle); err != nil {
			return fmt.Errorf("failed to write %s: %w", sheets[i], err)
		}
	}

	if err := f.SetDocProps(&excelize.DocProperties{Title: e.config.Title}); err != nil {
		return err
	}
	return f.Write(w)
}

// writeSources creates the per-source summary sheet, failed sources included
func (e *Exporter) writeSources(f *excelize.File, doc *document.Document, style int) error {
	headers := []interface{}{"Source", "Engine", "Status", "Database", "Version",
		"Schemas", "Tables", "Views", "Incomplete", "Failure"}
	rows := make([][]interface{}, 0, len(doc.Sources))
	for _, src := range doc.Sources {
		counts := src.Count()
		var database, version, failure string
		if src.Catalog != nil {
			database, version = src.Catalog.Database, src.Catalog.Version
		}
		if src.Failure != nil {
			failure = string(src.Failure.Kind) + ": " + src.Failure.Message
		}
		rows = append(rows, []interface{}{src.Name, src.Engine, string(src.Status), database, version,
			counts.Schemas, counts.Tables, counts.Views, counts.Incomplete, failure})
	}
	return writeSheet(f, SheetSources, style, headers, rows, []float64{20, 12, 10, 20, 30, 9, 9, 9, 11, 60})
}

func (e *Exporter) writeTables(f *excelize.File, doc *document.Document, style int) error {
	headers := []interface{}{"Source", "Schema", "Table", "Kind", "Columns", "Constraints", "Indexes", "Incomplete", "Issues"}
	var rows [][]interface{}
	eachTable(doc, func(src document.Source, schema document.Schema, t document.Table) {
		rows = append(rows, []interface{}{src.Name, schema.Name, t.Name, t.Kind,
			len(t.Columns), len(t.Constraints), len(t.Indexes), boolToYN(t.Incomplete), strings.Join(t.Issues, "; ")})
	})
	return writeSheet(f, SheetTables, style, headers, rows, []float64{20, 15, 25, 8, 9, 12, 9, 11, 50})
}

func (e *Exporter) writeColumns(f *excelize.File, doc *document.Document, style int) error {
	headers := []interface{}{"Source", "Schema", "Table", "Column", "Position", "Type", "Native", "Nullable", "PK", "Default"}
	var rows [][]interface{}
	eachTable(doc, func(src document.Source, schema document.Schema, t document.Table) {
		for _, col := range t.Columns {
			def := ""
			if col.Default != nil {
				def = *col.Default
			}
			rows = append(rows, []interface{}{src.Name, schema.Name, t.Name, col.Name, col.Position,
				col.Descriptor, col.Type.Native, boolToYN(col.Nullable), boolToYN(col.PrimaryKey), def})
		}
	})
	return writeSheet(f, SheetColumns, style, headers, rows, []float64{20, 15, 25, 25, 9, 28, 20, 9, 6, 25})
}

func (e *Exporter) writeConstraints(f *excelize.File, doc *document.Document, style int) error {
	headers := []interface{}{"Source", "Schema", "Table", "Constraint", "Kind", "Columns", "References", "Resolved", "Expression"}
	var rows [][]interface{}
	eachTable(doc, func(src document.Source, schema document.Schema, t document.Table) {
		for _, c := range t.Constraints {
			var ref, resolved string
			if c.Reference != nil {
				ref = fmt.Sprintf("%s.%s(%s)", c.Reference.Schema, c.Reference.Table, strings.Join(c.Reference.Columns, ", "))
				resolved = boolToYN(c.Reference.Resolved)
			}
			rows = append(rows, []interface{}{src.Name, schema.Name, t.Name, c.Name, string(c.Kind),
				strings.Join(c.Columns, ", "), ref, resolved, c.Expression})
		}
	})
	return writeSheet(f, SheetConstraints, style, headers, rows, []float64{20, 15, 25, 30, 12, 30, 40, 9, 40})
}

func (e *Exporter) writeIndexes(f *excelize.File, doc *document.Document, style int) error {
	headers := []interface{}{"Source", "Schema", "Table", "Index", "Columns", "Unique", "Primary", "Expression"}
	var rows [][]interface{}
	eachTable(doc, func(src document.Source, schema document.Schema, t document.Table) {
		for _, idx := range t.Indexes {
			rows = append(rows, []interface{}{src.Name, schema.Name, t.Name, idx.Name,
				strings.Join(idx.Columns, ", "), boolToYN(idx.Unique), boolToYN(idx.Primary), idx.Expression})
		}
	})
	return writeSheet(f, SheetIndexes, style, headers, rows, []float64{20, 15, 25, 30, 30, 8, 8, 40})
}

func writeSheet(f *excelize.File, sheet string, style int, headers []interface{}, rows [][]interface{}, widths []float64) error {
	if err := f.SetSheetRow(sheet, "A1", &headers); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(headers), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, style); err != nil {
		return err
	}

	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return err
		}
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}

	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func eachTable(doc *document.Document, fn func(document.Source, document.Schema, document.Table)) {
	for _, src := range doc.Sources {
		if src.Catalog == nil {
			continue
		}
		for _, schema := range src.Catalog.Schemas {
			for _, t := range schema.Tables {
				fn(src, schema, t)
			}
		}
	}
}

// getHeaderStyle returns the gray header style
func (e *Exporter) getHeaderStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{
			Type:    "pattern",
			Color:   []string{"#D9D9D9"},
			Pattern: 1,
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border: []excelize.Border{
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "left", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
}

// boolToYN converts bool to Y/N string
func boolToYN(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}
