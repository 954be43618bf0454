// Package gridiron generates comparison grids of images (rows × columns of
// parameter variations) through a content-addressed artifact cache, calling
// a slow generation backend with bounded concurrency.
//
// Components:
//   - Generator[R, C]: lays out the grid, resolves every cell and runs renderers.
//   - Producer: the backend. One request in, one or more encoded images out.
//   - Fingerprinter: canonical hash of a cell's parameters (see package fingerprint).
//   - Cache: ArtifactCache stacks an optional memory tier, the durable disk
//     tier and an optional shared tier (see package provider).
//   - Renderer: consumes the finished grid (see package render).
//
// Layout:
//
//	<CacheDir>/<fingerprint><ext>           - durable entries, shared across runs
//	<OutputDir>/images/<fingerprint><ext>   - per-run mirror referenced by renderers
//
// A cell is either produced (Path set) or failed (Err set, a *CellError); one
// failing cell never fails the grid. Cells with the same fingerprint share one
// producer call.
//
//	gen, _ := gridiron.New(gridiron.Options[string, string]{
//		Producer:  backend,
//		OutputDir: "output",
//	})
//	grid, err := gen.Generate(ctx, prompts, loras, func(p, l string, seed int64) gridiron.Request {
//		return gridiron.Request{"prompt": p, "lora": l, "seed": seed}
//	})
package gridiron
