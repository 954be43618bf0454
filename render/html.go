package render

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"path/filepath"

	"github.com/unkn0wn-root/gridiron"
	"github.com/unkn0wn-root/gridiron/internal/util"
)

// DefaultHTMLFile is the page name inside the output directory.
const DefaultHTMLFile = "index.html"

// HTML writes a table with one header row of column labels and one row per
// row label. Produced cells link the mirrored image; failed cells show the
// diagnostic instead.
type HTML struct {
	OutputDir string
	FileName  string // "" => index.html
	Title     string // "" => "gridiron"
	MaxWidth  int    // image max width in px; 0 => 256
}

type htmlCell struct {
	Src    string
	Error  string
	Cached bool
}

type htmlRow struct {
	Label string
	Cells []htmlCell
}

type htmlPage struct {
	Title    string
	MaxWidth int
	Cols     []string
	Rows     []htmlRow
	Stats    gridiron.Stats
}

var page = template.Must(template.New("grid").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
	table { border-collapse: collapse; }
	td, th { padding: 10px; border: 1px solid #ddd; vertical-align: top; }
	img { max-width: {{.MaxWidth}}px; }
	.error { max-width: {{.MaxWidth}}px; color: #b00020; font-family: monospace; white-space: pre-wrap; }
</style>
</head>
<body>
<p>{{.Stats.Total}} cells: {{.Stats.Produced}} produced ({{.Stats.Cached}} cached), {{.Stats.Failed}} failed</p>
<table>
	<tr>
		<th></th>
		{{- range .Cols}}
		<th>{{.}}</th>
		{{- end}}
	</tr>
	{{- range .Rows}}
	<tr>
		<th>{{.Label}}</th>
		{{- range .Cells}}
		{{- if .Src}}
		<td><img src="{{.Src}}" alt=""></td>
		{{- else}}
		<td><div class="error">{{.Error}}</div></td>
		{{- end}}
		{{- end}}
	</tr>
	{{- end}}
</table>
</body>
</html>
`))

func (h *HTML) Render(_ context.Context, g *gridiron.Grid) error {
	if h.OutputDir == "" {
		return fmt.Errorf("render: html: output dir is required")
	}
	p := htmlPage{
		Title:    h.Title,
		MaxWidth: h.MaxWidth,
		Cols:     g.ColLabels,
		Rows:     make([]htmlRow, len(g.Cells)),
		Stats:    g.Stats(),
	}
	if p.Title == "" {
		p.Title = "gridiron"
	}
	if p.MaxWidth <= 0 {
		p.MaxWidth = 256
	}
	for i, row := range g.Cells {
		r := htmlRow{Label: g.RowLabels[i], Cells: make([]htmlCell, len(row))}
		for j, c := range row {
			switch c.State {
			case gridiron.StateProduced:
				r.Cells[j] = htmlCell{Src: relPath(h.OutputDir, c.Path), Cached: c.Cached}
			case gridiron.StateFailed:
				r.Cells[j] = htmlCell{Error: c.Diagnostic()}
			default:
				r.Cells[j] = htmlCell{Error: "not generated"}
			}
		}
		p.Rows[i] = r
	}

	var buf bytes.Buffer
	if err := page.Execute(&buf, p); err != nil {
		return fmt.Errorf("render: html: %w", err)
	}
	name := h.FileName
	if name == "" {
		name = DefaultHTMLFile
	}
	return util.WriteFileAtomic(filepath.Join(h.OutputDir, name), buf.Bytes(), 0o644)
}
