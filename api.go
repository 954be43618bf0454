package gridiron

import (
	"context"

	"github.com/unkn0wn-root/gridiron/fingerprint"
)

// Generator builds grids. R and C are the row and column axis element
// types; they may differ (e.g. prompts × LoRA descriptors).
type Generator[R, C any] interface {
	// Generate lays out the full rows × cols grid, resolves every cell
	// through the cache or the producer, runs the configured renderers and
	// returns the grid. The grid is returned only once every cell is
	// terminal. Per-cell failures never fail the call; the error is non-nil
	// only for a nil builder, a renderer failure or a cancelled ctx (the
	// grid is still complete in the last two cases).
	Generate(ctx context.Context, rows []R, cols []C, build RequestBuilder[R, C]) (*Grid, error)

	// Close releases the cache when the Generator created it.
	Close(ctx context.Context) error
}

// Fingerprinter derives cache keys from request parameters.
// *fingerprint.Hasher satisfies it.
type Fingerprinter interface {
	Sum(params map[string]any) (fingerprint.Fingerprint, error)
}

// Options configure a Generator. Producer is required, and so is either
// Cache or OutputDir; the rest have sensible defaults.
type Options[R, C any] struct {
	// Required
	Producer Producer

	Cache     Cache  // nil => ArtifactCache{OutputDir, CacheDir}
	OutputDir string // per-run output root; required when Cache is nil
	CacheDir  string // durable cache root when Cache is nil; "" => DefaultCacheDir()

	Concurrency int    // max in-flight Producer calls; 0 => 4
	Workers     int    // max cell goroutines (cache I/O); 0 => 4*Concurrency
	Seed        *int64 // seed for every cell; nil => DefaultSeed

	Fingerprinter Fingerprinter  // nil => fingerprint.Default() (canonical CBOR)
	RowLabel      func(R) string // nil => fmt.Sprint
	ColLabel      func(C) string // nil => fmt.Sprint

	Logger    Logger     // if nil, NopLogger is used
	Hooks     Hooks      // if nil, NopHooks is used
	Renderers []Renderer // run in order after the grid is complete

	// DisableSingleFlight lets concurrent cells with the same fingerprint
	// each call the producer. Default false => they share one call.
	DisableSingleFlight bool
}

// Seed returns a pointer to v, for Options.Seed.
func Seed(v int64) *int64 { return &v }

func New[R, C any](opts Options[R, C]) (Generator[R, C], error) {
	o, err := newOrchestrator[R, C](opts)
	if err != nil {
		return nil, err
	}
	return o, nil
}
