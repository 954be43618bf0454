package gridiron

import "context"

// Request is a generation request: the workflow/parameter graph sent to the
// producer. Values must be representable by the fingerprint encoder
// (JSON-like data: strings, numbers, bools, nil, []any, map[string]any).
// A Request is treated as immutable once the builder returns it.
type Request map[string]any

// RequestBuilder maps a grid coordinate to its request. seed is the grid
// seed (Options.Seed); it is the same for every cell.
type RequestBuilder[R, C any] func(row R, col C, seed int64) Request

// Producer is the remote generation backend. Generate returns every
// artifact the backend produced for req; the orchestrator keeps the first.
// Failures the backend can describe should be returned as *BackendError.
type Producer interface {
	Generate(ctx context.Context, req Request) ([][]byte, error)
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(ctx context.Context, req Request) ([][]byte, error)

func (f ProducerFunc) Generate(ctx context.Context, req Request) ([][]byte, error) {
	return f(ctx, req)
}

// Renderer consumes a completed grid (every cell terminal).
type Renderer interface {
	Render(ctx context.Context, g *Grid) error
}
