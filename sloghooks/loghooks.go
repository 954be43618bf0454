package sloghooks

import (
	"log/slog"
	"sync/atomic"

	"github.com/unkn0wn-root/gridiron"
	"github.com/unkn0wn-root/gridiron/internal/util"
)

type Options struct {
	// Sampling to avoid floods on large grids; 0/1 = log all.
	HitEvery      uint64
	ProgressEvery uint64
	// RedactLabels logs a hash of row/column labels instead of the text
	// (labels are often full prompts).
	RedactLabels bool
	// Optional label redactor. Defaults to a SHA-256 prefix.
	Redact func(string) string
}

type Hooks struct {
	l    *slog.Logger
	opts Options

	hitCtr atomic.Uint64
}

var _ gridiron.Hooks = (*Hooks)(nil)

func New(l *slog.Logger, opts Options) *Hooks {
	return &Hooks{l: l, opts: opts}
}

func (h *Hooks) label(s string) string {
	if !h.opts.RedactLabels {
		return s
	}
	if h.opts.Redact != nil {
		return h.opts.Redact(s)
	}
	return util.Redact(s)
}

func sample(n uint64, ctr *atomic.Uint64) bool {
	if n == 0 || n == 1 {
		return true
	}
	return ctr.Add(1)%n == 0
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}

func (h *Hooks) CacheHit(c gridiron.CellRef, fp string) {
	if h.l == nil || !sample(h.opts.HitEvery, &h.hitCtr) {
		return
	}
	h.l.Debug("gridiron.cache_hit",
		"row", h.label(c.RowLabel),
		"col", h.label(c.ColLabel),
		"fp", short(fp))
}

func (h *Hooks) CacheMiss(c gridiron.CellRef, fp string) {
	if h.l == nil {
		return
	}
	h.l.Debug("gridiron.cache_miss",
		"row", h.label(c.RowLabel),
		"col", h.label(c.ColLabel),
		"fp", short(fp))
}

func (h *Hooks) Coalesced(c gridiron.CellRef, fp string) {
	if h.l == nil {
		return
	}
	h.l.Debug("gridiron.coalesced",
		"row", h.label(c.RowLabel),
		"col", h.label(c.ColLabel),
		"fp", short(fp))
}

func (h *Hooks) CellFailed(c gridiron.CellRef, err error) {
	if h.l == nil {
		return
	}
	h.l.Warn("gridiron.cell_failed",
		"row", h.label(c.RowLabel),
		"col", h.label(c.ColLabel),
		"err", gridiron.Summarize(err))
}

// Progress logs every ProgressEvery-th cell and always the last one.
func (h *Hooks) Progress(done, total int) {
	if h.l == nil {
		return
	}
	every := int(h.opts.ProgressEvery)
	if every > 1 && done%every != 0 && done != total {
		return
	}
	h.l.Info("gridiron.progress",
		"done", done,
		"total", total)
}
