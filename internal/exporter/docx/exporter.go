package docx

import (
	"archive/zip"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"metaextractor/internal/exporter/document"
	"metaextractor/internal/model"
)

// Config holds configuration for Word export
type Config struct {
	Title string
}

// Exporter implements Word (.docx) export functionality
type Exporter struct {
	config Config
}

// NewExporter creates a new Word exporter
func NewExporter(cfg Config) *Exporter {
	return &Exporter{config: cfg}
}

// Format returns the format name
func (e *Exporter) Format() string {
	return "docx"
}

// MimeType returns the MIME type
func (e *Exporter) MimeType() string {
	return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
}

// FileExtension returns the file extension
func (e *Exporter) FileExtension() string {
	return ".docx"
}

// Export generates a minimal but valid OOXML package. Zip entries carry no
// modification time, so identical results produce identical bytes.
func (e *Exporter) Export(results []model.ExtractionResult, w io.Writer) error {
	zw := zip.NewWriter(w)

	parts := []struct {
		name    string
		content string
	}{
		{"[Content_Types].xml", contentTypes},
		{"_rels/.rels", packageRels},
		{"word/_rels/document.xml.rels", documentRels},
		{"word/document.xml", e.documentXML(document.Build(results))},
		{"word/styles.xml", styles},
	}

	for _, part := range parts {
		f, err := zw.Create(part.name)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", part.name, err)
		}
		if _, err := io.WriteString(f, part.content); err != nil {
			return fmt.Errorf("failed to write %s: %w", part.name, err)
		}
	}
	return zw.Close()
}

func (e *Exporter) documentXML(doc *document.Document) string {
	var body strings.Builder

	body.WriteString(paragraph(e.config.Title, "Title"))
	body.WriteString(paragraph(summary(doc), "Normal"))

	for _, src := range doc.Sources {
		body.WriteString(paragraph(fmt.Sprintf("%s (%s)", src.Name, src.Engine), "Heading1"))
		body.WriteString(paragraph("Status: "+string(src.Status), "Normal"))

		if f := src.Failure; f != nil {
			msg := string(f.Kind) + ": " + f.Message
			if f.Timeout {
				msg += " (timeout)"
			}
			body.WriteString(paragraph(msg, "Failure"))
			continue
		}
		if src.Catalog == nil {
			continue
		}
		body.WriteString(paragraph(fmt.Sprintf("Database: %s  Version: %s", src.Catalog.Database, src.Catalog.Version), "Normal"))

		for _, schema := range src.Catalog.Schemas {
			body.WriteString(paragraph("Schema "+schema.Name, "Heading2"))
			for _, issue := range schema.Issues {
				body.WriteString(paragraph("Incomplete: "+issue, "Failure"))
			}
			for _, t := range schema.Tables {
				writeTable(&body, schema.Name, t)
			}
		}
	}

	return `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
	<w:body>
` + body.String() + `		<w:sectPr>
			<w:pgSz w:w="11906" w:h="16838"/>
			<w:pgMar w:top="1440" w:right="1440" w:bottom="1440" w:left="1440"/>
		</w:sectPr>
	</w:body>
</w:document>`
}

func summary(doc *document.Document) string {
	var ok, partial, failed int
	for _, src := range doc.Sources {
		switch src.Status {
		case model.StatusSuccess:
			ok++
		case model.StatusPartial:
			partial++
		default:
			failed++
		}
	}
	return fmt.Sprintf("%d sources: %d succeeded, %d partial, %d failed", len(doc.Sources), ok, partial, failed)
}

func writeTable(body *strings.Builder, schema string, t document.Table) {
	body.WriteString(paragraph(fmt.Sprintf("%s.%s (%s)", schema, t.Name, t.Kind), "Heading3"))
	for _, issue := range t.Issues {
		body.WriteString(paragraph("Incomplete: "+issue, "Failure"))
	}

	rows := [][]string{{"#", "Column", "Type", "Native", "Nullable", "Default", "PK"}}
	for _, col := range t.Columns {
		def := ""
		if col.Default != nil {
			def = *col.Default
		}
		rows = append(rows, []string{
			fmt.Sprint(col.Position), col.Name, col.Descriptor, col.Type.Native,
			boolToYN(col.Nullable), def, boolToYN(col.PrimaryKey),
		})
	}
	body.WriteString(grid(rows))

	for _, c := range t.Constraints {
		line := fmt.Sprintf("%s %s (%s)", c.Kind, c.Name, strings.Join(c.Columns, ", "))
		if ref := c.Reference; ref != nil {
			line += fmt.Sprintf(" references %s.%s (%s)", ref.Schema, ref.Table, strings.Join(ref.Columns, ", "))
			if !ref.Resolved {
				line += " [unresolved]"
			}
		}
		if c.Expression != "" {
			line += " " + c.Expression
		}
		body.WriteString(paragraph(line, "ListItem"))
	}

	for _, idx := range t.Indexes {
		line := "index " + idx.Name + " (" + strings.Join(idx.Columns, ", ") + ")"
		if idx.Expression != "" {
			line += " " + idx.Expression
		}
		if idx.Unique {
			line += " unique"
		}
		body.WriteString(paragraph(line, "ListItem"))
	}
}

// paragraph creates a Word paragraph with specified style
func paragraph(text, style string) string {
	return fmt.Sprintf(`		<w:p>
			<w:pPr>
				<w:pStyle w:val="%s"/>
			</w:pPr>
			<w:r>
				<w:t xml:space="preserve">%s</w:t>
			</w:r>
		</w:p>
`, style, escape(text))
}

// grid renders rows as a bordered table; the first row is the header
func grid(rows [][]string) string {
	var b strings.Builder
	b.WriteString(`		<w:tbl>
			<w:tblPr>
				<w:tblStyle w:val="Grid"/>
				<w:tblW w:w="0" w:type="auto"/>
			</w:tblPr>
`)
	for i, row := range rows {
		b.WriteString("			<w:tr>\n")
		for _, cell := range row {
			run := `<w:r><w:t xml:space="preserve">` + escape(cell) + `</w:t></w:r>`
			if i == 0 {
				run = `<w:r><w:rPr><w:b/></w:rPr><w:t xml:space="preserve">` + escape(cell) + `</w:t></w:r>`
			}
			b.WriteString("				<w:tc><w:p>" + run + "</w:p></w:tc>\n")
		}
		b.WriteString("			</w:tr>\n")
	}
	b.WriteString("		</w:tbl>\n")
	return b.String()
}

func escape(text string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(text))
	return b.String()
}

func boolToYN(b bool) string {
	if b {
		return "Y"
	}
	return "N"
}

const contentTypes = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types">
	<Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/>
	<Default Extension="xml" ContentType="application/xml"/>
	<Override PartName="/word/document.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.document.main+xml"/>
	<Override PartName="/word/styles.xml" ContentType="application/vnd.openxmlformats-officedocument.wordprocessingml.styles+xml"/>
</Types>`

const packageRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
	<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="word/document.xml"/>
</Relationships>`

const documentRels = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">
	<Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/styles" Target="styles.xml"/>
</Relationships>`

const styles = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<w:styles xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main">
	<w:docDefaults>
		<w:rPrDefault>
			<w:rPr>
				<w:rFonts w:ascii="Calibri" w:hAnsi="Calibri" w:eastAsia="Calibri" w:cs="Calibri"/>
				<w:sz w:val="20"/>
				<w:szCs w:val="20"/>
			</w:rPr>
		</w:rPrDefault>
	</w:docDefaults>
	<w:style w:type="paragraph" w:styleId="Normal">
		<w:name w:val="Normal"/>
		<w:qFormat/>
	</w:style>
	<w:style w:type="paragraph" w:styleId="Title">
		<w:name w:val="Title"/>
		<w:basedOn w:val="Normal"/>
		<w:qFormat/>
		<w:rPr>
			<w:b/>
			<w:sz w:val="48"/>
			<w:color w:val="2C3E50"/>
		</w:rPr>
	</w:style>
	<w:style w:type="paragraph" w:styleId="Heading1">
		<w:name w:val="Heading 1"/>
		<w:basedOn w:val="Normal"/>
		<w:qFormat/>
		<w:rPr>
			<w:b/>
			<w:sz w:val="32"/>
			<w:color w:val="2C3E50"/>
		</w:rPr>
		<w:pPr>
			<w:spacing w:before="480" w:after="240"/>
		</w:pPr>
	</w:style>
	<w:style w:type="paragraph" w:styleId="Heading2">
		<w:name w:val="Heading 2"/>
		<w:basedOn w:val="Normal"/>
		<w:qFormat/>
		<w:rPr>
			<w:b/>
			<w:sz w:val="26"/>
			<w:color w:val="34495E"/>
		</w:rPr>
		<w:pPr>
			<w:spacing w:before="360" w:after="180"/>
		</w:pPr>
	</w:style>
	<w:style w:type="paragraph" w:styleId="Heading3">
		<w:name w:val="Heading 3"/>
		<w:basedOn w:val="Normal"/>
		<w:qFormat/>
		<w:rPr>
			<w:b/>
			<w:sz w:val="22"/>
			<w:color w:val="1F4D78"/>
		</w:rPr>
		<w:pPr>
			<w:spacing w:before="240" w:after="120"/>
		</w:pPr>
	</w:style>
	<w:style w:type="paragraph" w:styleId="ListItem">
		<w:name w:val="List Item"/>
		<w:basedOn w:val="Normal"/>
		<w:pPr>
			<w:ind w:left="360"/>
		</w:pPr>
	</w:style>
	<w:style w:type="paragraph" w:styleId="Failure">
		<w:name w:val="Failure"/>
		<w:basedOn w:val="Normal"/>
		<w:rPr>
			<w:color w:val="C0392B"/>
		</w:rPr>
	</w:style>
	<w:style w:type="table" w:styleId="Grid">
		<w:name w:val="Grid"/>
		<w:tblPr>
			<w:tblBorders>
				<w:top w:val="single" w:sz="4" w:color="BFBFBF"/>
				<w:left w:val="single" w:sz="4" w:color="BFBFBF"/>
				<w:bottom w:val="single" w:sz="4" w:color="BFBFBF"/>
				<w:right w:val="single" w:sz="4" w:color="BFBFBF"/>
				<w:insideH w:val="single" w:sz="4" w:color="BFBFBF"/>
				<w:insideV w:val="single" w:sz="4" w:color="BFBFBF"/>
			</w:tblBorders>
		</w:tblPr>
	</w:style>
</w:styles>`
