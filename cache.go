package gridiron

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/unkn0wn-root/gridiron/fingerprint"
	"github.com/unkn0wn-root/gridiron/internal/util"
	pr "github.com/unkn0wn-root/gridiron/provider"
	"github.com/unkn0wn-root/gridiron/provider/disk"
)

// Cache is the artifact store the orchestrator drives. ArtifactCache is the
// standard implementation.
type Cache interface {
	// Lookup returns the output path of the artifact for fp, mirroring it
	// into the output directory first. ok=false (and no error) on a miss.
	Lookup(ctx context.Context, fp fingerprint.Fingerprint) (path string, ok bool, err error)
	// Store persists data under fp and returns its output path.
	// Storing the same fp twice with the same bytes is harmless.
	Store(ctx context.Context, fp fingerprint.Fingerprint, data []byte) (path string, err error)
	Close(ctx context.Context) error
}

// SetCostFunc computes the cost hint passed to providers (ristretto uses it
// to bound memory). Default: len(raw).
type SetCostFunc func(key string, raw []byte) int64

// CacheOptions configure an ArtifactCache. Only OutputDir is required.
type CacheOptions struct {
	// OutputDir is the per-run browsable root; artifacts are mirrored to
	// <OutputDir>/images/<fingerprint><Ext>.
	OutputDir string

	Durable  pr.Provider // nil => disk provider rooted at CacheDir
	CacheDir string      // "" => DefaultCacheDir(); ignored when Durable is set
	Memory   pr.Provider // optional in-process front tier
	Shared   pr.Provider // optional remote tier, consulted after Durable

	Ext            string // "" => .png
	Logger         Logger // nil => NopLogger
	ComputeSetCost SetCostFunc
}

type tier struct {
	name     string
	p        pr.Provider
	required bool
}

// ArtifactCache is a content-addressed, append-only artifact store.
// Entries are never mutated or evicted by this package (memory and shared
// tiers may evict on their own; the durable tier is authoritative).
//
// Safe for concurrent use. Concurrent Stores of the same fingerprint are
// tolerated but expected to be coalesced upstream.
type ArtifactCache struct {
	lookup []tier // Memory, Durable, Shared
	store  []tier // Durable first: a cell only succeeds once it is durable

	durable   pr.Provider
	imagesDir string
	ext       string
	log       Logger
	cost      SetCostFunc
}

var _ Cache = (*ArtifactCache)(nil)

// NewArtifactCache validates opts and creates the output images directory.
// Failures here are run-fatal setup errors.
func NewArtifactCache(opts CacheOptions) (*ArtifactCache, error) {
	if opts.OutputDir == "" {
		return nil, fmt.Errorf("gridiron: output dir is required")
	}

	c := &ArtifactCache{
		imagesDir: filepath.Join(opts.OutputDir, imagesDir),
		ext:       util.NormalizeExt(opts.Ext, DefaultExt),
		log:       coalesce[Logger](opts.Logger, NopLogger{}),
	}
	if opts.ComputeSetCost != nil {
		c.cost = opts.ComputeSetCost
	} else {
		c.cost = func(_ string, raw []byte) int64 { return int64(len(raw)) }
	}

	if opts.Durable != nil {
		c.durable = opts.Durable
	} else {
		d, err := disk.New(disk.Config{
			Root: coalesce(opts.CacheDir, DefaultCacheDir()),
			Ext:  c.ext,
		})
		if err != nil {
			return nil, fmt.Errorf("gridiron: cache dir: %w", err)
		}
		c.durable = d
	}

	if err := os.MkdirAll(c.imagesDir, 0o755); err != nil {
		if opts.Durable == nil {
			_ = c.durable.Close(context.Background())
		}
		return nil, fmt.Errorf("gridiron: create output dir: %w", err)
	}

	durable := tier{name: "durable", p: c.durable, required: true}
	if opts.Memory != nil {
		c.lookup = append(c.lookup, tier{name: "memory", p: opts.Memory})
	}
	c.lookup = append(c.lookup, durable)
	c.store = append(c.store, durable)
	if opts.Memory != nil {
		c.store = append(c.store, tier{name: "memory", p: opts.Memory})
	}
	if opts.Shared != nil {
		shared := tier{name: "shared", p: opts.Shared}
		c.lookup = append(c.lookup, shared)
		c.store = append(c.store, shared)
	}
	return c, nil
}

// OutputPath is where the artifact for fp is mirrored.
func (c *ArtifactCache) OutputPath(fp fingerprint.Fingerprint) string {
	return filepath.Join(c.imagesDir, util.FileName(fp.String(), c.ext))
}

// ImagesDir is the mirror directory (<OutputDir>/images).
func (c *ArtifactCache) ImagesDir() string { return c.imagesDir }

func (c *ArtifactCache) Lookup(ctx context.Context, fp fingerprint.Fingerprint) (string, bool, error) {
	if !fp.Valid() {
		return "", false, fmt.Errorf("gridiron: invalid fingerprint %q", fp)
	}
	key := fp.String()
	dst := c.OutputPath(fp)

	for i, t := range c.lookup {
		// file-backed tiers place the entry without reading it
		if ex, ok := t.p.(pr.Exporter); ok {
			hit, err := ex.Export(ctx, key, dst)
			if err != nil {
				if t.required {
					return "", false, fmt.Errorf("gridiron: lookup %s tier: %w", t.name, err)
				}
				c.log.Warn("cache tier lookup failed", Fields{"tier": t.name, "fp": fp.Short(), "err": err})
				continue
			}
			if !hit {
				continue
			}
			if i > 0 {
				if raw, err := os.ReadFile(dst); err == nil {
					c.backfill(ctx, fp, raw, c.lookup[:i])
				}
			}
			c.log.Debug("cache hit", Fields{"tier": t.name, "fp": fp.Short()})
			return dst, true, nil
		}

		raw, hit, err := t.p.Get(ctx, key)
		if err != nil {
			if t.required {
				return "", false, fmt.Errorf("gridiron: lookup %s tier: %w", t.name, err)
			}
			c.log.Warn("cache tier lookup failed", Fields{"tier": t.name, "fp": fp.Short(), "err": err})
			continue
		}
		if !hit || len(raw) == 0 {
			continue
		}
		c.backfill(ctx, fp, raw, c.lookup[:i])
		if err := c.mirror(dst, raw); err != nil {
			return "", false, fmt.Errorf("gridiron: mirror to output: %w", err)
		}
		c.log.Debug("cache hit", Fields{"tier": t.name, "fp": fp.Short()})
		return dst, true, nil
	}
	return "", false, nil
}

func (c *ArtifactCache) Store(ctx context.Context, fp fingerprint.Fingerprint, data []byte) (string, error) {
	if !fp.Valid() {
		return "", fmt.Errorf("gridiron: invalid fingerprint %q", fp)
	}
	if len(data) == 0 {
		return "", ErrEmptyArtifact
	}
	key := fp.String()
	cost := c.cost(key, data)

	for _, t := range c.store {
		ok, err := t.p.Set(ctx, key, data, cost, 0)
		if err != nil {
			if t.required {
				return "", fmt.Errorf("gridiron: store %s tier: %w", t.name, err)
			}
			c.log.Warn("cache tier store failed", Fields{"tier": t.name, "fp": fp.Short(), "err": err})
			continue
		}
		if !ok {
			if t.required {
				return "", fmt.Errorf("gridiron: store %s tier: write rejected", t.name)
			}
			c.log.Debug("cache tier rejected write (pressure)", Fields{"tier": t.name, "fp": fp.Short()})
		}
	}

	dst := c.OutputPath(fp)
	if err := c.mirror(dst, data); err != nil {
		return "", fmt.Errorf("gridiron: mirror to output: %w", err)
	}
	return dst, nil
}

// backfill copies a hit into faster tiers. Best effort.
func (c *ArtifactCache) backfill(ctx context.Context, fp fingerprint.Fingerprint, raw []byte, tiers []tier) {
	key := fp.String()
	for _, t := range tiers {
		if _, err := t.p.Set(ctx, key, raw, c.cost(key, raw), 0); err != nil {
			c.log.Warn("cache backfill failed", Fields{"tier": t.name, "fp": fp.Short(), "err": err})
		}
	}
}

// mirror writes raw to dst unless an artifact is already there. Mirrors are
// content-addressed, so an existing file already holds these bytes.
func (c *ArtifactCache) mirror(dst string, raw []byte) error {
	if util.Exists(dst) {
		return nil
	}
	return util.WriteFileAtomic(dst, raw, 0o644)
}

func (c *ArtifactCache) Close(ctx context.Context) error {
	var errs []error
	for _, t := range c.lookup {
		if err := t.p.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s tier: %w", t.name, err))
		}
	}
	return errors.Join(errs...)
}
