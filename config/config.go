// Package config loads a gridiron run configuration from YAML and builds the
// pieces a Generator needs from it.
package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gopkg.in/yaml.v3"

	"github.com/unkn0wn-root/gridiron"
	"github.com/unkn0wn-root/gridiron/codec"
	"github.com/unkn0wn-root/gridiron/fingerprint"
	asynchook "github.com/unkn0wn-root/gridiron/hooks/async"
	"github.com/unkn0wn-root/gridiron/log/logrus"
	"github.com/unkn0wn-root/gridiron/log/slog"
	"github.com/unkn0wn-root/gridiron/log/zap"
	pr "github.com/unkn0wn-root/gridiron/provider"
	"github.com/unkn0wn-root/gridiron/provider/bigcache"
	redisprov "github.com/unkn0wn-root/gridiron/provider/redis"
	"github.com/unkn0wn-root/gridiron/provider/ristretto"
	"github.com/unkn0wn-root/gridiron/render"
	"github.com/unkn0wn-root/gridiron/sloghooks"
)

// Config is the complete run configuration.
type Config struct {
	CacheDir    string `yaml:"cache_dir"`
	OutputDir   string `yaml:"output_dir"`
	Concurrency int    `yaml:"concurrency"`
	Seed        *int64 `yaml:"seed"`
	Extension   string `yaml:"extension"`
	// Fingerprint selects the canonical encoding: cbor, json, msgpack or protobuf.
	Fingerprint string `yaml:"fingerprint"`

	Log      LogConfig      `yaml:"log"`
	Memory   MemoryConfig   `yaml:"memory"`
	Redis    RedisConfig    `yaml:"redis"`
	Render   RenderConfig   `yaml:"render"`
	Progress ProgressConfig `yaml:"progress"`
}

// ProgressConfig controls the per-cell event log (progress lines, cache
// hits, coalesced cells and failures) written during a run.
type ProgressConfig struct {
	Enabled bool `yaml:"enabled"`

	// Every logs one progress line per Every cells; the last cell is
	// always logged. 0 or 1 logs every cell.
	Every    int  `yaml:"every"`
	HitEvery int  `yaml:"hit_every"`
	Redact   bool `yaml:"redact_labels"`

	// AsyncQueue > 0 moves event logging onto a background worker with a
	// queue of that size; events are dropped when it is full.
	AsyncQueue int `yaml:"async_queue"`
}

// RenderConfig selects the files written after a run.
type RenderConfig struct {
	HTML     bool   `yaml:"html"`
	Manifest bool   `yaml:"manifest"`
	Title    string `yaml:"title"`
}

// LogConfig selects the logger backend.
type LogConfig struct {
	Backend string `yaml:"backend"` // zap, logrus, slog or none
	Level   string `yaml:"level"`
}

// MemoryConfig enables an in-process tier in front of the disk cache.
type MemoryConfig struct {
	Kind  string `yaml:"kind"` // none, ristretto or bigcache
	MaxMB int    `yaml:"max_mb"`
}

// RedisConfig enables the shared tier. Empty Addr disables it.
type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	Prefix   string        `yaml:"prefix"`
	TTL      time.Duration `yaml:"ttl"`
}

// Default returns the configuration used when no file is given: output in
// ./output, cache in the user cache dir, 4 concurrent generations, seed 42,
// PNG artifacts, CBOR fingerprints, slog at info, no memory or shared tier,
// index.html and manifest.json written after every run, a progress line
// every 10 cells.
func Default() *Config {
	seed := gridiron.DefaultSeed
	return &Config{
		CacheDir:    gridiron.DefaultCacheDir(),
		OutputDir:   "output",
		Concurrency: gridiron.DefaultConcurrency,
		Seed:        &seed,
		Extension:   gridiron.DefaultExt,
		Fingerprint: "cbor",
		Log:         LogConfig{Backend: "slog", Level: "info"},
		Memory:      MemoryConfig{Kind: "none", MaxMB: 256},
		Render:      RenderConfig{HTML: true, Manifest: true},
		Progress:    ProgressConfig{Enabled: true, Every: 10},
	}
}

// Load reads path over Default(); fields missing from the file keep their
// default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default() and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output_dir is required")
	}
	if c.CacheDir == "" {
		return fmt.Errorf("cache_dir is required")
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency)
	}
	switch strings.ToLower(c.Fingerprint) {
	case "cbor", "json", "msgpack", "protobuf", "":
	default:
		return fmt.Errorf("unknown fingerprint encoding %q", c.Fingerprint)
	}
	if c.Progress.Every < 0 || c.Progress.HitEvery < 0 || c.Progress.AsyncQueue < 0 {
		return fmt.Errorf("progress settings must be >= 0")
	}
	switch strings.ToLower(c.Log.Backend) {
	case "zap", "logrus", "slog", "none", "":
	default:
		return fmt.Errorf("unknown log backend %q", c.Log.Backend)
	}
	switch strings.ToLower(c.Memory.Kind) {
	case "none", "":
	case "ristretto", "bigcache":
		if c.Memory.MaxMB < 1 {
			return fmt.Errorf("memory.max_mb must be >= 1 for %s", c.Memory.Kind)
		}
	default:
		return fmt.Errorf("unknown memory tier %q", c.Memory.Kind)
	}
	return nil
}

// Logger builds the configured logger. Text backends write to w.
func (c *Config) Logger(w io.Writer) (gridiron.Logger, error) {
	switch strings.ToLower(c.Log.Backend) {
	case "zap":
		return zap.New(c.Log.Level)
	case "logrus":
		return logrus.New(w, c.Log.Level)
	case "slog":
		return slog.NewText(w, c.Log.Level)
	default:
		return gridiron.NopLogger{}, nil
	}
}

// Fingerprinter builds the hasher for the configured encoding.
func (c *Config) Fingerprinter() (gridiron.Fingerprinter, error) {
	switch strings.ToLower(c.Fingerprint) {
	case "json":
		return fingerprint.New(codec.JSON[map[string]any]{}), nil
	case "msgpack":
		return fingerprint.New(codec.Msgpack[map[string]any]{SortKeys: true}), nil
	case "protobuf":
		return fingerprint.New(codec.Struct{}), nil
	case "cbor", "":
		return fingerprint.Default(), nil
	default:
		return nil, fmt.Errorf("unknown fingerprint encoding %q", c.Fingerprint)
	}
}

// ArtifactCache builds the disk tier plus the configured memory and shared
// tiers. The caller owns the result and must Close it.
func (c *Config) ArtifactCache(log gridiron.Logger) (*gridiron.ArtifactCache, error) {
	mem, err := c.memoryTier()
	if err != nil {
		return nil, err
	}
	shared, err := c.sharedTier()
	if err != nil {
		closeTiers(mem)
		return nil, err
	}
	ac, err := gridiron.NewArtifactCache(gridiron.CacheOptions{
		OutputDir: c.OutputDir,
		CacheDir:  c.CacheDir,
		Memory:    mem,
		Shared:    shared,
		Ext:       c.Extension,
		Logger:    log,
	})
	if err != nil {
		closeTiers(mem, shared)
		return nil, err
	}
	return ac, nil
}

// closeTiers releases tiers built before a later setup step failed.
func closeTiers(tiers ...pr.Provider) {
	for _, t := range tiers {
		if t != nil {
			_ = t.Close(context.Background())
		}
	}
}

func (c *Config) memoryTier() (pr.Provider, error) {
	switch strings.ToLower(c.Memory.Kind) {
	case "ristretto":
		maxCost := int64(c.Memory.MaxMB) << 20
		// assume ~512 KiB per artifact; ristretto wants ~10 counters per item
		items := maxCost / (512 << 10)
		p, err := ristretto.New(ristretto.Config{
			NumCounters: max(1000, 10*items),
			MaxCost:     maxCost,
			BufferItems: 64,
		})
		if err != nil {
			return nil, fmt.Errorf("memory tier: %w", err)
		}
		return p, nil
	case "bigcache":
		p, err := bigcache.New(bigcache.Config{HardMaxCacheSizeMB: c.Memory.MaxMB})
		if err != nil {
			return nil, fmt.Errorf("memory tier: %w", err)
		}
		return p, nil
	default:
		return nil, nil
	}
}

func (c *Config) sharedTier() (pr.Provider, error) {
	if c.Redis.Addr == "" {
		return nil, nil
	}
	client := goredis.NewClient(&goredis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	})
	p, err := redisprov.New(redisprov.Config{
		Client:      client,
		Prefix:      c.Redis.Prefix,
		TTL:         c.Redis.TTL,
		CloseClient: true,
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("shared tier: %w", err)
	}
	return p, nil
}

// Renderers returns the configured renderers, HTML first.
func (c *Config) Renderers() []gridiron.Renderer {
	var out []gridiron.Renderer
	if c.Render.HTML {
		out = append(out, &render.HTML{OutputDir: c.OutputDir, Title: c.Render.Title})
	}
	if c.Render.Manifest {
		out = append(out, &render.Manifest{OutputDir: c.OutputDir})
	}
	return out
}

// Hooks builds the configured event hooks over a text slog handler writing
// to w. The returned stop func drains and stops the async worker, if any;
// call it after the last Generate. Disabled progress yields NopHooks.
func (c *Config) Hooks(w io.Writer) (gridiron.Hooks, func(), error) {
	if !c.Progress.Enabled {
		return gridiron.NopHooks{}, func() {}, nil
	}
	// progress is logged at info; cache hits only show up at debug
	level := "info"
	if strings.EqualFold(c.Log.Level, "debug") {
		level = "debug"
	}
	sl, err := slog.NewText(w, level)
	if err != nil {
		return nil, nil, err
	}
	var h gridiron.Hooks = sloghooks.New(sl.L, sloghooks.Options{
		ProgressEvery: uint64(c.Progress.Every),
		HitEvery:      uint64(c.Progress.HitEvery),
		RedactLabels:  c.Progress.Redact,
	})
	if c.Progress.AsyncQueue <= 0 {
		return h, func() {}, nil
	}
	async := asynchook.New(h, 1, c.Progress.AsyncQueue)
	return async, async.Close, nil
}

// GeneratorOptions fills gridiron.Options from the configuration: logger
// and hooks (writing to w), fingerprinter, artifact cache, renderers,
// concurrency and seed. The returned close func stops the hooks and closes
// the cache; call it once the Generator is done.
func GeneratorOptions[R, C any](c *Config, p gridiron.Producer, w io.Writer) (gridiron.Options[R, C], func(context.Context) error, error) {
	log, err := c.Logger(w)
	if err != nil {
		return gridiron.Options[R, C]{}, nil, fmt.Errorf("logger: %w", err)
	}
	fp, err := c.Fingerprinter()
	if err != nil {
		return gridiron.Options[R, C]{}, nil, err
	}
	hooks, stopHooks, err := c.Hooks(w)
	if err != nil {
		return gridiron.Options[R, C]{}, nil, fmt.Errorf("hooks: %w", err)
	}
	cache, err := c.ArtifactCache(log)
	if err != nil {
		stopHooks()
		return gridiron.Options[R, C]{}, nil, err
	}
	closeFn := func(ctx context.Context) error {
		stopHooks()
		return cache.Close(ctx)
	}
	return gridiron.Options[R, C]{
		Producer:      p,
		Cache:         cache,
		Concurrency:   c.Concurrency,
		Seed:          c.Seed,
		Fingerprinter: fp,
		Logger:        log,
		Hooks:         hooks,
		Renderers:     c.Renderers(),
	}, closeFn, nil
}
