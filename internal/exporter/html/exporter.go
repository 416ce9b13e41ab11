package html

import (
	"html/template"
	"io"

	"metaextractor/internal/exporter/document"
	"metaextractor/internal/model"
)

// Config holds configuration for HTML export
type Config struct {
	Title string
}

// Exporter implements HTML export functionality
type Exporter struct {
	config Config
	tmpl   *template.Template
}

var funcs = template.FuncMap{
	"deref": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

// NewExporter creates a new HTML exporter
func NewExporter(cfg Config) *Exporter {
	return &Exporter{
		config: cfg,
		tmpl:   template.Must(template.New("catalog").Funcs(funcs).Parse(htmlTemplate)),
	}
}

// Format returns the format name
func (e *Exporter) Format() string {
	return "html"
}

// MimeType returns the MIME type
func (e *Exporter) MimeType() string {
	return "text/html; charset=utf-8"
}

// FileExtension returns the file extension
func (e *Exporter) FileExtension() string {
	return ".html"
}

type page struct {
	Title string
	*document.Document
}

// Export generates a single self-contained HTML document with print CSS
func (e *Exporter) Export(results []model.ExtractionResult, w io.Writer) error {
	return e.tmpl.Execute(w, page{Title: e.config.Title, Document: document.Build(results)})
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Title}}</title>
    <style>
        * {
            font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Arial, sans-serif;
            box-sizing: border-box;
        }

        body {
            margin: 0;
            padding: 20px;
            background: #f5f5f5;
            color: #333;
            line-height: 1.6;
        }

        .container {
            max-width: 1200px;
            margin: 0 auto;
            background: white;
            padding: 40px;
            box-shadow: 0 2px 10px rgba(0,0,0,0.1);
        }

        h1 {
            color: #2c3e50;
            border-bottom: 3px solid #3498db;
            padding-bottom: 10px;
            margin-bottom: 30px;
        }

        h2 {
            color: #34495e;
            border-bottom: 2px solid #95a5a6;
            padding-bottom: 8px;
            margin-top: 40px;
            margin-bottom: 20px;
        }

        h3 {
            color: #7f8c8d;
            margin-top: 30px;
            margin-bottom: 15px;
        }

        table {
            width: 100%;
            border-collapse: collapse;
            margin-bottom: 30px;
            background: white;
        }

        th {
            background: #D9D9D9;
            color: #333;
            font-weight: bold;
            text-align: left;
            padding: 12px;
            border: 1px solid #bdc3c7;
        }

        td {
            padding: 10px 12px;
            border: 1px solid #ecf0f1;
        }

        tr:nth-child(even) {
            background: #f9f9f9;
        }

        code {
            font-family: 'SFMono-Regular', Consolas, monospace;
            font-size: 12px;
        }

        .badge {
            display: inline-block;
            padding: 3px 8px;
            border-radius: 3px;
            font-size: 11px;
            font-weight: bold;
        }

        .badge-pk { background: #2ecc71; color: white; }
        .badge-success { background: #2ecc71; color: white; }
        .badge-partial { background: #f39c12; color: white; }
        .badge-failed { background: #e74c3c; color: white; }
        .badge-unresolved { background: #95a5a6; color: white; }

        .failure, .issues {
            border-left: 4px solid #e74c3c;
            background: #fdf2f1;
            padding: 10px 15px;
            margin-bottom: 20px;
        }

        .issues { border-left-color: #f39c12; background: #fef9f0; }

        @media print {
            @page {
                size: A4;
                margin: 2cm;
            }

            body {
                background: white;
                padding: 0;
            }

            .container {
                box-shadow: none;
                padding: 0;
            }

            h2 {
                page-break-before: always;
            }

            h2:first-of-type {
                page-break-before: avoid;
            }

            h3, h4 {
                page-break-after: avoid;
            }

            tr {
                page-break-inside: avoid;
            }
        }
    </style>
</head>
<body>
    <div class="container">
        <h1>{{.Title}}</h1>

        <table>
            <thead>
                <tr>
                    <th>Source</th>
                    <th>Engine</th>
                    <th>Status</th>
                    <th>Database</th>
                    <th>Version</th>
                </tr>
            </thead>
            <tbody>
                {{range .Sources}}
                <tr>
                    <td><a href="#source-{{.Name}}"><strong>{{.Name}}</strong></a></td>
                    <td>{{.Engine}}</td>
                    <td><span class="badge badge-{{.Status}}">{{.Status}}</span></td>
                    <td>{{with .Catalog}}{{.Database}}{{end}}</td>
                    <td>{{with .Catalog}}{{.Version}}{{end}}</td>
                </tr>
                {{end}}
            </tbody>
        </table>

        {{range .Sources}}
        {{$source := .Name}}
        <h2 id="source-{{.Name}}">{{.Name}} <small>({{.Engine}})</small></h2>

        {{with .Failure}}
        <div class="failure">
            <strong>{{.Kind}}</strong>{{if .Timeout}} (timeout){{end}}: {{.Message}}
            {{if .Query}}<br>query: <code>{{.Query}}</code>{{end}}
            {{if .Object}}<br>object: <code>{{.Object}}</code>{{end}}
        </div>
        {{end}}

        {{with .Catalog}}
        {{range .Schemas}}
        {{$schema := .Name}}
        <h3>Schema: {{.Name}}</h3>
        {{if .Issues}}<div class="issues">{{range .Issues}}<div>{{.}}</div>{{end}}</div>{{end}}

        {{range .Tables}}
        <h4 id="{{$source}}.{{$schema}}.{{.Name}}">{{if eq .Kind "view"}}View{{else}}Table{{end}}: {{$schema}}.{{.Name}}</h4>
        {{if .Issues}}<div class="issues">{{range .Issues}}<div>{{.}}</div>{{end}}</div>{{end}}

        <table>
            <thead>
                <tr>
                    <th>#</th>
                    <th>Column</th>
                    <th>Type</th>
                    <th>Native</th>
                    <th>Nullable</th>
                    <th>Default</th>
                </tr>
            </thead>
            <tbody>
                {{range .Columns}}
                <tr>
                    <td>{{.Position}}</td>
                    <td><strong>{{.Name}}</strong> {{if .PrimaryKey}}<span class="badge badge-pk">PK</span>{{end}}</td>
                    <td><code>{{.Descriptor}}</code></td>
                    <td><code>{{.Type.Native}}</code></td>
                    <td>{{if .Nullable}}YES{{else}}NO{{end}}</td>
                    <td><code>{{deref .Default}}</code></td>
                </tr>
                {{end}}
            </tbody>
        </table>

        {{if .Constraints}}
        <table>
            <thead>
                <tr>
                    <th>Constraint</th>
                    <th>Kind</th>
                    <th>Columns</th>
                    <th>Definition</th>
                </tr>
            </thead>
            <tbody>
                {{range .Constraints}}
                <tr>
                    <td>{{.Name}}</td>
                    <td>{{.Kind}}</td>
                    <td>{{range $i, $c := .Columns}}{{if $i}}, {{end}}{{$c}}{{end}}</td>
                    <td>
                        {{with .Reference}}{{.Schema}}.{{.Table}}({{range $i, $c := .Columns}}{{if $i}}, {{end}}{{$c}}{{end}})
                        {{if not .Resolved}}<span class="badge badge-unresolved">unresolved</span>{{end}}{{end}}
                        {{with .Expression}}<code>{{.}}</code>{{end}}
                    </td>
                </tr>
                {{end}}
            </tbody>
        </table>
        {{end}}

        {{if .Indexes}}
        <table>
            <thead>
                <tr>
                    <th>Index</th>
                    <th>Columns</th>
                    <th>Unique</th>
                    <th>Expression</th>
                </tr>
            </thead>
            <tbody>
                {{range .Indexes}}
                <tr>
                    <td>{{.Name}}{{if .Primary}} <span class="badge badge-pk">PK</span>{{end}}</td>
                    <td>{{range $i, $c := .Columns}}{{if $i}}, {{end}}{{$c}}{{end}}</td>
                    <td>{{if .Unique}}YES{{else}}NO{{end}}</td>
                    <td><code>{{.Expression}}</code></td>
                </tr>
                {{end}}
            </tbody>
        </table>
        {{end}}
        {{end}}
        {{end}}
        {{end}}
        {{end}}

        <hr style="margin: 40px 0; border: none; border-top: 2px solid #ecf0f1;">
        <p style="text-align: center; color: #95a5a6; font-size: 12px;">
            format version {{.FormatVersion}} | metaextractor
        </p>
    </div>
</body>
</html>
`
