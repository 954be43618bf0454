package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/unkn0wn-root/gridiron"
	"github.com/unkn0wn-root/gridiron/codec"
	"github.com/unkn0wn-root/gridiron/internal/util"
)

const DefaultManifestFile = "manifest.json"

// ManifestDoc records a run: axis labels, per-cell outcome and totals.
// Paths are relative to the output directory.
type ManifestDoc struct {
	GeneratedAt time.Time      `json:"generated_at"`
	Rows        []string       `json:"rows"`
	Cols        []string       `json:"cols"`
	Cells       []ManifestCell `json:"cells"`
	Total       int            `json:"total"`
	Produced    int            `json:"produced"`
	Cached      int            `json:"cached"`
	Failed      int            `json:"failed"`
}

type ManifestCell struct {
	Row         int    `json:"row"`
	Col         int    `json:"col"`
	Fingerprint string `json:"fingerprint,omitempty"`
	State       string `json:"state"`
	Path        string `json:"path,omitempty"`
	Cached      bool   `json:"cached,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Manifest writes <OutputDir>/manifest.json.
type Manifest struct {
	OutputDir string
	FileName  string                   // "" => manifest.json
	Codec     codec.Codec[ManifestDoc] // nil => indented JSON
	Now       func() time.Time         // nil => time.Now
}

// BuildManifest converts g into a ManifestDoc with paths relative to outputDir.
func BuildManifest(g *gridiron.Grid, outputDir string, now time.Time) ManifestDoc {
	st := g.Stats()
	doc := ManifestDoc{
		GeneratedAt: now.UTC(),
		Rows:        g.RowLabels,
		Cols:        g.ColLabels,
		Cells:       make([]ManifestCell, 0, g.Len()),
		Total:       st.Total,
		Produced:    st.Produced,
		Cached:      st.Cached,
		Failed:      st.Failed,
	}
	g.Each(func(c *gridiron.Cell) {
		doc.Cells = append(doc.Cells, ManifestCell{
			Row:         c.Row,
			Col:         c.Col,
			Fingerprint: c.Fingerprint.String(),
			State:       c.State.String(),
			Path:        relPath(outputDir, c.Path),
			Cached:      c.Cached,
			Error:       c.Diagnostic(),
		})
	})
	return doc
}

func (m *Manifest) Render(_ context.Context, g *gridiron.Grid) error {
	if m.OutputDir == "" {
		return fmt.Errorf("render: manifest: output dir is required")
	}
	now := time.Now
	if m.Now != nil {
		now = m.Now
	}
	var c codec.Codec[ManifestDoc] = codec.IndentJSON[ManifestDoc]{}
	if m.Codec != nil {
		c = m.Codec
	}

	b, err := c.Encode(BuildManifest(g, m.OutputDir, now()))
	if err != nil {
		return fmt.Errorf("render: manifest: %w", err)
	}
	name := m.FileName
	if name == "" {
		name = DefaultManifestFile
	}
	return util.WriteFileAtomic(filepath.Join(m.OutputDir, name), b, 0o644)
}

// ReadManifest loads a JSON manifest, refusing files over maxBytes
// (<= 0 disables the limit).
func ReadManifest(path string, maxBytes int) (ManifestDoc, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return ManifestDoc{}, err
	}
	c := codec.LimitCodec[ManifestDoc]{Inner: codec.JSON[ManifestDoc]{}, MaxDecode: maxBytes}
	doc, err := c.Decode(b)
	if err != nil {
		return ManifestDoc{}, fmt.Errorf("render: read manifest %s: %w", path, err)
	}
	return doc, nil
}
