package gridiron

import (
	"github.com/unkn0wn-root/gridiron/fingerprint"
)

// State is the lifecycle state of a cell.
type State uint8

const (
	StatePending State = iota
	StateProduced
	StateFailed
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateProduced:
		return "produced"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// CellRef identifies a cell by coordinate and display labels.
type CellRef struct {
	Row      int
	Col      int
	RowLabel string
	ColLabel string
}

// Cell is one (row, col) unit of work. Its position and request are fixed
// when the grid is laid out; State, Path, Cached and Err are written exactly
// once by the goroutine that runs the cell.
type Cell struct {
	CellRef
	Request     Request
	Fingerprint fingerprint.Fingerprint

	State State
	// Path of the artifact in the output directory (Produced only).
	Path string
	// Cached is true when the artifact came from the cache rather than the
	// producer (including coalesced cells that shared another cell's result).
	Cached bool
	// Err is a *CellError (Failed only).
	Err error
}

func (c *Cell) produce(path string, cached bool) {
	c.State = StateProduced
	c.Path = path
	c.Cached = cached
}

func (c *Cell) fail(stage Stage, err error) {
	c.State = StateFailed
	c.Err = &CellError{Cell: c.CellRef, Stage: stage, Err: err}
}

// Diagnostic is the one-line failure description shown in place of the
// artifact ("" unless Failed).
func (c *Cell) Diagnostic() string {
	if c.State != StateFailed || c.Err == nil {
		return ""
	}
	return c.Err.Error()
}

// Grid is a rectangular arrangement of cells: len(Cells) == len(RowLabels)
// and every row holds len(ColLabels) cells.
type Grid struct {
	RowLabels []string
	ColLabels []string
	Cells     [][]*Cell
}

// Stats counts cells by outcome.
type Stats struct {
	Total    int
	Produced int
	Cached   int
	Failed   int
	Pending  int
}

func (g *Grid) Rows() int { return len(g.RowLabels) }

// Cols is the number of cells per row. It does not depend on Rows, so an
// empty row axis still reports the column count.
func (g *Grid) Cols() int { return len(g.ColLabels) }

func (g *Grid) Len() int { return g.Rows() * g.Cols() }

// At returns the cell at (row, col) or nil when out of range.
func (g *Grid) At(row, col int) *Cell {
	if row < 0 || row >= len(g.Cells) || col < 0 || col >= len(g.Cells[row]) {
		return nil
	}
	return g.Cells[row][col]
}

// Each visits cells in row-major order.
func (g *Grid) Each(fn func(*Cell)) {
	for _, row := range g.Cells {
		for _, c := range row {
			fn(c)
		}
	}
}

// Complete reports whether every cell reached a terminal state.
func (g *Grid) Complete() bool {
	done := true
	g.Each(func(c *Cell) {
		if c.State == StatePending {
			done = false
		}
	})
	return done
}

// Failed returns failed cells in row-major order.
func (g *Grid) Failed() []*Cell {
	var out []*Cell
	g.Each(func(c *Cell) {
		if c.State == StateFailed {
			out = append(out, c)
		}
	})
	return out
}

func (g *Grid) Stats() Stats {
	s := Stats{Total: g.Len()}
	g.Each(func(c *Cell) {
		switch c.State {
		case StateProduced:
			s.Produced++
			if c.Cached {
				s.Cached++
			}
		case StateFailed:
			s.Failed++
		default:
			s.Pending++
		}
	})
	return s
}
