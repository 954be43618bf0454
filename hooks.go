package gridiron

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking; they are called from
// the cell goroutines. Wrap slow sinks with hooks/async.
type Hooks interface {
	// The cell's artifact was found in the cache; no backend call was made.
	CacheHit(cell CellRef, fp string)

	// The cell missed the cache and is about to call the producer.
	CacheMiss(cell CellRef, fp string)

	// The cell shared the in-flight result of another cell with the same fingerprint.
	Coalesced(cell CellRef, fp string)

	// The cell reached the Failed state.
	CellFailed(cell CellRef, err error)

	// A cell reached a terminal state; done counts up to total exactly once per cell.
	Progress(done, total int)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) CacheHit(CellRef, string)  {}
func (NopHooks) CacheMiss(CellRef, string) {}
func (NopHooks) Coalesced(CellRef, string) {}
func (NopHooks) CellFailed(CellRef, error) {}
func (NopHooks) Progress(int, int)         {}
