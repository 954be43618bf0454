package gridiron

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/unkn0wn-root/gridiron/fingerprint"
)

type orchestrator[R, C any] struct {
	producer  Producer
	cache     Cache
	ownsCache bool
	fp        Fingerprinter
	log       Logger
	hooks     Hooks
	renderers []Renderer

	seed         int64
	concurrency  int
	workers      int
	singleFlight bool
	rowLabel     func(R) string
	colLabel     func(C) string

	// shared by every Generate call on this orchestrator: the bound is on
	// the backend, not on a single grid
	sem    *semaphore.Weighted
	flight singleflight.Group
}

func newOrchestrator[R, C any](opts Options[R, C]) (*orchestrator[R, C], error) {
	if opts.Producer == nil {
		return nil, fmt.Errorf("gridiron: producer is required")
	}
	if opts.Cache == nil && opts.OutputDir == "" {
		return nil, fmt.Errorf("gridiron: cache or output dir is required")
	}
	if opts.Concurrency < 0 || opts.Workers < 0 {
		return nil, fmt.Errorf("gridiron: concurrency and workers must be >= 0")
	}

	o := &orchestrator[R, C]{
		producer:     opts.Producer,
		renderers:    opts.Renderers,
		singleFlight: !opts.DisableSingleFlight,
	}

	// defaults
	o.log = coalesce[Logger](opts.Logger, NopLogger{})
	o.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	o.fp = coalesce[Fingerprinter](opts.Fingerprinter, fingerprint.Default())
	o.concurrency = coalesce(opts.Concurrency, DefaultConcurrency)
	o.workers = coalesce(opts.Workers, 4*o.concurrency)
	o.seed = DefaultSeed
	if opts.Seed != nil {
		o.seed = *opts.Seed
	}
	o.rowLabel = opts.RowLabel
	if o.rowLabel == nil {
		o.rowLabel = sprintLabel[R]
	}
	o.colLabel = opts.ColLabel
	if o.colLabel == nil {
		o.colLabel = sprintLabel[C]
	}
	o.sem = semaphore.NewWeighted(int64(o.concurrency))

	if opts.Cache != nil {
		o.cache = opts.Cache
	} else {
		ac, err := NewArtifactCache(CacheOptions{
			OutputDir: opts.OutputDir,
			CacheDir:  opts.CacheDir,
			Logger:    o.log,
		})
		if err != nil {
			return nil, err
		}
		o.cache = ac
		o.ownsCache = true
	}
	return o, nil
}

func (o *orchestrator[R, C]) Close(ctx context.Context) error {
	if o.ownsCache {
		return o.cache.Close(ctx)
	}
	return nil
}

func (o *orchestrator[R, C]) Generate(ctx context.Context, rows []R, cols []C, build RequestBuilder[R, C]) (*Grid, error) {
	if build == nil {
		return nil, fmt.Errorf("gridiron: request builder is required")
	}
	start := time.Now()
	g := o.layout(rows, cols, build)
	total := g.Len()
	o.log.Info("grid generation started", Fields{
		"rows": g.Rows(), "cols": g.Cols(), "cells": total,
		"concurrency": o.concurrency, "seed": o.seed,
	})

	if total > 0 {
		prog := &progress{total: total, hooks: o.hooks}
		var eg errgroup.Group
		eg.SetLimit(o.workers)
		for _, row := range g.Cells {
			for _, cell := range row {
				t := task{cell: cell, progress: prog}
				eg.Go(func() error {
					o.run(ctx, t)
					return nil
				})
			}
		}
		_ = eg.Wait()
	}

	st := g.Stats()
	o.log.Info("grid generation finished", Fields{
		"cells": st.Total, "produced": st.Produced, "cached": st.Cached,
		"failed": st.Failed, "elapsed": time.Since(start).String(),
	})

	for _, r := range o.renderers {
		if err := r.Render(ctx, g); err != nil {
			o.log.Error("render failed", Fields{"renderer": fmt.Sprintf("%T", r), "err": err})
			return g, fmt.Errorf("gridiron: render: %w", err)
		}
	}
	return g, ctx.Err()
}

// layout builds the whole grid before any generation starts, so structure
// and labels exist even when every cell fails.
func (o *orchestrator[R, C]) layout(rows []R, cols []C, build RequestBuilder[R, C]) *Grid {
	g := &Grid{
		RowLabels: make([]string, len(rows)),
		ColLabels: make([]string, len(cols)),
		Cells:     make([][]*Cell, len(rows)),
	}
	for j, c := range cols {
		g.ColLabels[j] = o.colLabel(c)
	}
	for i, r := range rows {
		g.RowLabels[i] = o.rowLabel(r)
		g.Cells[i] = make([]*Cell, len(cols))
		for j, c := range cols {
			cell := &Cell{CellRef: CellRef{Row: i, Col: j, RowLabel: g.RowLabels[i], ColLabel: g.ColLabels[j]}}
			cell.Request = build(r, c, o.seed)
			fp, err := o.fp.Sum(cell.Request)
			if err != nil {
				cell.fail(StageFingerprint, err)
			} else {
				cell.Fingerprint = fp
			}
			g.Cells[i][j] = cell
		}
	}
	return g
}

// task is one cell's unit of work. It carries everything the goroutine
// touches besides the orchestrator itself.
type task struct {
	cell     *Cell
	progress *progress
}

type progress struct {
	done  atomic.Int64
	total int
	hooks Hooks
}

func (p *progress) advance() {
	n := p.done.Add(1)
	p.hooks.Progress(int(n), p.total)
}

type outcome struct {
	path   string
	cached bool
}

// stageError tags an error with the pipeline step it came from.
type stageError struct {
	stage Stage
	err   error
}

func (e *stageError) Error() string { return string(e.stage) + ": " + e.err.Error() }
func (e *stageError) Unwrap() error { return e.err }

func (o *orchestrator[R, C]) run(ctx context.Context, t task) {
	c := t.cell
	defer t.progress.advance()

	if c.State == StateFailed { // fingerprinting failed during layout
		o.reportFailure(c)
		return
	}

	out, err := o.resolve(ctx, c)
	if err != nil {
		var se *stageError
		if errors.As(err, &se) {
			c.fail(se.stage, se.err)
		} else {
			c.fail(StageGenerate, err)
		}
		o.reportFailure(c)
		return
	}
	c.produce(out.path, out.cached)
}

func (o *orchestrator[R, C]) resolve(ctx context.Context, c *Cell) (outcome, error) {
	if !o.singleFlight {
		return o.fetch(ctx, c)
	}
	key := c.Fingerprint.String()
	for {
		// fn runs on the leader's goroutine only
		leader := false
		v, err, _ := o.flight.Do(key, func() (any, error) {
			leader = true
			return o.fetch(ctx, c)
		})
		if err != nil && !leader && ctx.Err() == nil && isContextErr(err) {
			// the leader belonged to a run that was cancelled; ours is
			// still live, so resolve the cell again
			continue
		}
		if !leader {
			o.hooks.Coalesced(c.CellRef, key)
		}
		if err != nil {
			return outcome{}, err
		}
		out := v.(outcome)
		if !leader {
			out.cached = true
		}
		return out, nil
	}
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// fetch is the per-fingerprint pipeline: lookup, then produce and store.
func (o *orchestrator[R, C]) fetch(ctx context.Context, c *Cell) (outcome, error) {
	fp := c.Fingerprint
	path, ok, err := o.cache.Lookup(ctx, fp)
	if err != nil {
		return outcome{}, &stageError{stage: StageLookup, err: err}
	}
	if ok {
		o.hooks.CacheHit(c.CellRef, fp.String())
		return outcome{path: path, cached: true}, nil
	}

	o.hooks.CacheMiss(c.CellRef, fp.String())
	data, err := o.produce(ctx, c.Request)
	if err != nil {
		return outcome{}, &stageError{stage: StageGenerate, err: err}
	}
	path, err = o.cache.Store(ctx, fp, data)
	if err != nil {
		return outcome{}, &stageError{stage: StageStore, err: err}
	}
	return outcome{path: path}, nil
}

// produce calls the backend under the concurrency bound and keeps the
// first artifact.
func (o *orchestrator[R, C]) produce(ctx context.Context, req Request) (data []byte, err error) {
	if err := o.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer o.sem.Release(1)

	defer func() {
		if r := recover(); r != nil {
			data = nil
			err = &BackendError{Kind: KindInternal, Message: fmt.Sprintf("producer panic: %v", r)}
		}
	}()

	blobs, err := o.producer.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(blobs) == 0 || len(blobs[0]) == 0 {
		return nil, &BackendError{Kind: KindMalformed, Message: "empty result", Err: ErrEmptyResult}
	}
	return blobs[0], nil
}

func (o *orchestrator[R, C]) reportFailure(c *Cell) {
	fields := Fields{"row": c.RowLabel, "col": c.ColLabel, "fp": c.Fingerprint.Short()}
	var ce *CellError
	if errors.As(c.Err, &ce) {
		fields["stage"] = string(ce.Stage)
		fields["err"] = Summarize(ce.Err)
	}
	o.log.Warn("cell failed", fields)
	o.hooks.CellFailed(c.CellRef, c.Err)
}
