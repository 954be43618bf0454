package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/unkn0wn-root/gridiron"
	"github.com/unkn0wn-root/gridiron/codec"
	"github.com/unkn0wn-root/gridiron/fingerprint"
)

func sampleGrid(out string) *gridiron.Grid {
	fpA := strings.Repeat("a", 64)
	fpB := strings.Repeat("b", 64)
	ok := &gridiron.Cell{
		CellRef:     gridiron.CellRef{Row: 0, Col: 0, RowLabel: "cat", ColLabel: "l1"},
		Fingerprint: fingerprint.Fingerprint(fpA),
		State:       gridiron.StateProduced,
		Path:        filepath.Join(out, "images", fpA+".png"),
		Cached:      true,
	}
	ok2 := &gridiron.Cell{
		CellRef: gridiron.CellRef{Row: 0, Col: 1, RowLabel: "cat", ColLabel: "<l2>"},
		State:   gridiron.StateProduced,
		Path:    filepath.Join(out, "images", fpB+".png"),
	}
	ref := gridiron.CellRef{Row: 1, Col: 0, RowLabel: "dog", ColLabel: "l1"}
	bad := &gridiron.Cell{
		CellRef: ref,
		State:   gridiron.StateFailed,
		Err: &gridiron.CellError{Cell: ref, Stage: gridiron.StageGenerate, Err: &gridiron.BackendError{
			Kind:  gridiron.KindRejected,
			Nodes: []gridiron.NodeError{{Node: "4", Type: "CheckpointLoader", Message: "ckpt missing"}},
		}},
	}
	ok3 := &gridiron.Cell{
		CellRef: gridiron.CellRef{Row: 1, Col: 1, RowLabel: "dog", ColLabel: "<l2>"},
		State:   gridiron.StateProduced,
		Path:    filepath.Join(out, "images", fpA+".png"),
	}
	return &gridiron.Grid{
		RowLabels: []string{"cat", "dog"},
		ColLabels: []string{"l1", "<l2>"},
		Cells:     [][]*gridiron.Cell{{ok, ok2}, {bad, ok3}},
	}
}

func TestHTMLRendersTable(t *testing.T) {
	out := t.TempDir()
	g := sampleGrid(out)
	if err := (&HTML{OutputDir: out}).Render(context.Background(), g); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(filepath.Join(out, DefaultHTMLFile))
	if err != nil {
		t.Fatal(err)
	}
	html := string(b)

	for _, want := range []string{
		`src="images/` + strings.Repeat("a", 64) + `.png"`,
		`src="images/` + strings.Repeat("b", 64) + `.png"`,
		"<th>cat</th>", "<th>dog</th>",
		"&lt;l2&gt;", // labels are escaped
		"CheckpointLoader", "ckpt missing",
		"4 cells: 3 produced (1 cached), 1 failed",
	} {
		if !strings.Contains(html, want) {
			t.Fatalf("index.html missing %q\n%s", want, html)
		}
	}
	if strings.Index(html, "<th>cat</th>") > strings.Index(html, "<th>dog</th>") {
		t.Fatalf("row order not preserved")
	}
	if strings.Count(html, "<img ") != 3 {
		t.Fatalf("expected 3 images")
	}
}

func TestHTMLRequiresOutputDir(t *testing.T) {
	if err := (&HTML{}).Render(context.Background(), &gridiron.Grid{}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestManifestRoundTrip(t *testing.T) {
	out := t.TempDir()
	g := sampleGrid(out)
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	m := &Manifest{OutputDir: out, Now: func() time.Time { return at }}
	if err := m.Render(context.Background(), g); err != nil {
		t.Fatal(err)
	}

	doc, err := ReadManifest(filepath.Join(out, DefaultManifestFile), 1<<20)
	if err != nil {
		t.Fatal(err)
	}
	if !doc.GeneratedAt.Equal(at) || doc.Total != 4 || doc.Failed != 1 || doc.Cached != 1 {
		t.Fatalf("doc %+v", doc)
	}
	if len(doc.Cells) != 4 {
		t.Fatalf("cells=%d", len(doc.Cells))
	}
	bad := doc.Cells[2]
	if bad.Row != 1 || bad.Col != 0 || bad.State != "failed" || !strings.Contains(bad.Error, "ckpt missing") {
		t.Fatalf("failed cell %+v", bad)
	}
	if doc.Cells[0].Path != "images/"+strings.Repeat("a", 64)+".png" {
		t.Fatalf("path not relative: %q", doc.Cells[0].Path)
	}

	if _, err := ReadManifest(filepath.Join(out, DefaultManifestFile), 16); !errors.Is(err, codec.ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestRelPath(t *testing.T) {
	root := filepath.Join("/", "run", "out")
	if got := relPath(root, filepath.Join(root, "images", "x.png")); got != "images/x.png" {
		t.Fatalf("got %q", got)
	}
	outside := filepath.Join("/", "elsewhere", "x.png")
	if got := relPath(root, outside); got != filepath.ToSlash(outside) {
		t.Fatalf("got %q", got)
	}
	if relPath(root, "") != "" {
		t.Fatalf("empty path")
	}
}
