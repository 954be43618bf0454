// usage:
//
//	raw := sloghooks.New(slog.Default(), sloghooks.Options{
//	    HitEvery:      10, // sample cache-hit logs
//	    ProgressEvery: 25, // one progress line per 25 cells
//	})
//
//	hooks := asynchook.New(raw, 1, 1000) // 1 worker; queue 1000 events
//	defer hooks.Close()
//
//	gen, _ := gridiron.New(gridiron.Options[string, string]{
//	    Producer:  backend,
//	    OutputDir: "output",
//	    Hooks:     hooks, // or `raw` if you don't want async
//	})
package asynchook

import (
	"sync"
	"sync/atomic"

	"github.com/unkn0wn-root/gridiron"
)

// Hooks forwards events to inner on background workers so a slow sink never
// holds up a cell. Events are dropped when the queue is full. With more than
// one worker, Progress events may arrive out of order.
type Hooks struct {
	inner   gridiron.Hooks
	q       chan func()
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Uint64
}

var _ gridiron.Hooks = (*Hooks)(nil)

func New(inner gridiron.Hooks, workers, qlen int) *Hooks {
	if workers <= 0 {
		workers = 1
	}
	if qlen <= 0 {
		qlen = 1024
	}

	h := &Hooks{inner: inner, q: make(chan func(), qlen)}
	h.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer h.wg.Done()
			for f := range h.q {
				f()
			}
		}()
	}
	return h
}

// Close drains the queue and stops the workers. Events sent after Close
// are dropped.
func (h *Hooks) Close() {
	h.once.Do(func() {
		close(h.q)
		h.wg.Wait()
	})
}

// Dropped reports how many events were discarded.
func (h *Hooks) Dropped() uint64 { return h.dropped.Load() }

func (h *Hooks) try(f func()) {
	defer func() {
		// send on closed queue
		if recover() != nil {
			h.dropped.Add(1)
		}
	}()
	select {
	case h.q <- f:
	default:
		h.dropped.Add(1)
	}
}

func (h *Hooks) CacheHit(c gridiron.CellRef, fp string)  { h.try(func() { h.inner.CacheHit(c, fp) }) }
func (h *Hooks) CacheMiss(c gridiron.CellRef, fp string) { h.try(func() { h.inner.CacheMiss(c, fp) }) }
func (h *Hooks) Coalesced(c gridiron.CellRef, fp string) { h.try(func() { h.inner.Coalesced(c, fp) }) }
func (h *Hooks) CellFailed(c gridiron.CellRef, err error) {
	h.try(func() { h.inner.CellFailed(c, err) })
}
func (h *Hooks) Progress(done, total int) { h.try(func() { h.inner.Progress(done, total) }) }
