package gridiron

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/gridiron/fingerprint"
	pr "github.com/unkn0wn-root/gridiron/provider"
	"github.com/unkn0wn-root/gridiron/provider/disk"
)

type memProvider struct {
	mu   sync.Mutex
	m    map[string][]byte
	sets int
}

var _ pr.Provider = (*memProvider)(nil)

func newMemProvider() *memProvider { return &memProvider{m: make(map[string][]byte)} }

func (p *memProvider) Get(_ context.Context, key string) ([]byte, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.m[key]
	return v, ok, nil
}

func (p *memProvider) Set(_ context.Context, key string, value []byte, _ int64, _ time.Duration) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.m[key] = append([]byte(nil), value...)
	p.sets++
	return true, nil
}

func (p *memProvider) Del(_ context.Context, key string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.m, key)
	return nil
}

func (p *memProvider) Close(context.Context) error { return nil }

func (p *memProvider) has(key string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.m[key]
	return ok
}

// failProvider fails every operation.
type failProvider struct{ err error }

func (p failProvider) Get(context.Context, string) ([]byte, bool, error) { return nil, false, p.err }
func (p failProvider) Set(context.Context, string, []byte, int64, time.Duration) (bool, error) {
	return false, p.err
}
func (p failProvider) Del(context.Context, string) error { return p.err }
func (p failProvider) Close(context.Context) error       { return nil }

func newTestArtifactCache(t *testing.T, cacheDir string, optsOpt func(*CacheOptions)) *ArtifactCache {
	t.Helper()
	opts := CacheOptions{
		OutputDir: t.TempDir(),
		CacheDir:  cacheDir,
	}
	if optsOpt != nil {
		optsOpt(&opts)
	}
	c, err := NewArtifactCache(opts)
	if err != nil {
		t.Fatalf("NewArtifactCache: %v", err)
	}
	t.Cleanup(func() { _ = c.Close(context.Background()) })
	return c
}

func fpOf(t *testing.T, s string) fingerprint.Fingerprint {
	t.Helper()
	f, err := fingerprint.Of(map[string]any{"k": s})
	if err != nil {
		t.Fatal(err)
	}
	return f
}

func readFile(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return b
}

func TestStoreThenLookup(t *testing.T) {
	ctx := context.Background()
	cacheDir := t.TempDir()
	c := newTestArtifactCache(t, cacheDir, nil)
	fp := fpOf(t, "a")

	if p, ok, err := c.Lookup(ctx, fp); err != nil || ok || p != "" {
		t.Fatalf("expected miss, got p=%q ok=%v err=%v", p, ok, err)
	}

	path, err := c.Store(ctx, fp, []byte("png"))
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if want := filepath.Join(c.ImagesDir(), fp.String()+".png"); path != want {
		t.Fatalf("output path %q want %q", path, want)
	}
	if !bytes.Equal(readFile(t, filepath.Join(cacheDir, fp.String()+".png")), []byte("png")) {
		t.Fatalf("durable entry content mismatch")
	}

	got, ok, err := c.Lookup(ctx, fp)
	if err != nil || !ok || got != path {
		t.Fatalf("Lookup: got=%q ok=%v err=%v", got, ok, err)
	}
	if !bytes.Equal(readFile(t, got), []byte("png")) {
		t.Fatalf("mirrored content mismatch")
	}
}

func TestStoreIsIdempotent(t *testing.T) {
	ctx := context.Background()
	cacheDir := t.TempDir()
	c := newTestArtifactCache(t, cacheDir, nil)
	fp := fpOf(t, "a")

	p1, err := c.Store(ctx, fp, []byte("same-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	p2, err := c.Store(ctx, fp, []byte("same-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if p1 != p2 {
		t.Fatalf("paths differ: %q vs %q", p1, p2)
	}

	entries, err := os.ReadDir(cacheDir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected exactly one durable file, got %d", len(entries))
	}
	got, ok, err := c.Lookup(ctx, fp)
	if err != nil || !ok || !bytes.Equal(readFile(t, got), []byte("same-bytes")) {
		t.Fatalf("Lookup after double store: ok=%v err=%v", ok, err)
	}
}

func TestLookupMirrorsIntoFreshOutput(t *testing.T) {
	ctx := context.Background()
	cacheDir := t.TempDir()
	fp := fpOf(t, "a")

	first := newTestArtifactCache(t, cacheDir, nil)
	if _, err := first.Store(ctx, fp, []byte("img")); err != nil {
		t.Fatal(err)
	}

	// new run: same durable root, empty output dir
	second := newTestArtifactCache(t, cacheDir, nil)
	path, ok, err := second.Lookup(ctx, fp)
	if err != nil || !ok {
		t.Fatalf("Lookup: ok=%v err=%v", ok, err)
	}
	if filepath.Dir(path) != second.ImagesDir() {
		t.Fatalf("hit not mirrored into the new output: %s", path)
	}
	if !bytes.Equal(readFile(t, path), []byte("img")) {
		t.Fatalf("mirror content mismatch")
	}
}

func TestMemoryTierIsBackfilledAndServesHits(t *testing.T) {
	ctx := context.Background()
	cacheDir := t.TempDir()
	fp := fpOf(t, "a")

	seed := newTestArtifactCache(t, cacheDir, nil)
	if _, err := seed.Store(ctx, fp, []byte("img")); err != nil {
		t.Fatal(err)
	}

	mem := newMemProvider()
	c := newTestArtifactCache(t, cacheDir, func(o *CacheOptions) { o.Memory = mem })
	if _, ok, err := c.Lookup(ctx, fp); err != nil || !ok {
		t.Fatalf("Lookup: ok=%v err=%v", ok, err)
	}
	if !mem.has(fp.String()) {
		t.Fatalf("durable hit was not back-filled into memory tier")
	}

	// durable entry gone: memory still serves, mirror goes to a fresh output
	if err := os.Remove(filepath.Join(cacheDir, fp.String()+".png")); err != nil {
		t.Fatal(err)
	}
	c2 := newTestArtifactCache(t, t.TempDir(), func(o *CacheOptions) { o.Memory = mem })
	path, ok, err := c2.Lookup(ctx, fp)
	if err != nil || !ok || !bytes.Equal(readFile(t, path), []byte("img")) {
		t.Fatalf("memory hit: ok=%v err=%v", ok, err)
	}
}

func TestSharedTierBackfillsDurable(t *testing.T) {
	ctx := context.Background()
	cacheDir := t.TempDir()
	fp := fpOf(t, "a")

	shared := newMemProvider()
	_, _ = shared.Set(ctx, fp.String(), []byte("remote"), 0, 0)

	c := newTestArtifactCache(t, cacheDir, func(o *CacheOptions) { o.Shared = shared })
	path, ok, err := c.Lookup(ctx, fp)
	if err != nil || !ok {
		t.Fatalf("Lookup: ok=%v err=%v", ok, err)
	}
	if !bytes.Equal(readFile(t, path), []byte("remote")) {
		t.Fatalf("mirror content mismatch")
	}
	if !bytes.Equal(readFile(t, filepath.Join(cacheDir, fp.String()+".png")), []byte("remote")) {
		t.Fatalf("shared hit was not back-filled into the durable tier")
	}
}

func TestStoreWritesEveryTier(t *testing.T) {
	ctx := context.Background()
	mem, shared := newMemProvider(), newMemProvider()
	c := newTestArtifactCache(t, t.TempDir(), func(o *CacheOptions) {
		o.Memory = mem
		o.Shared = shared
	})
	fp := fpOf(t, "a")
	if _, err := c.Store(ctx, fp, []byte("img")); err != nil {
		t.Fatal(err)
	}
	if !mem.has(fp.String()) || !shared.has(fp.String()) {
		t.Fatalf("optional tiers not written: mem=%v shared=%v", mem.has(fp.String()), shared.has(fp.String()))
	}
}

func TestDurableFailureFailsStoreOptionalDoesNot(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("disk full")
	fp := fpOf(t, "a")

	c := newTestArtifactCache(t, "", func(o *CacheOptions) { o.Durable = failProvider{err: boom} })
	if _, err := c.Store(ctx, fp, []byte("img")); !errors.Is(err, boom) {
		t.Fatalf("expected durable error, got %v", err)
	}
	if _, _, err := c.Lookup(ctx, fp); !errors.Is(err, boom) {
		t.Fatalf("expected durable lookup error, got %v", err)
	}

	c2 := newTestArtifactCache(t, t.TempDir(), func(o *CacheOptions) {
		o.Memory = failProvider{err: boom}
		o.Shared = failProvider{err: boom}
	})
	path, err := c2.Store(ctx, fp, []byte("img"))
	if err != nil {
		t.Fatalf("optional tier failure must not fail Store: %v", err)
	}
	if got, ok, err := c2.Lookup(ctx, fp); err != nil || !ok || got != path {
		t.Fatalf("Lookup: got=%q ok=%v err=%v", got, ok, err)
	}
}

func TestStoreRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	c := newTestArtifactCache(t, t.TempDir(), nil)
	if _, err := c.Store(ctx, fpOf(t, "a"), nil); !errors.Is(err, ErrEmptyArtifact) {
		t.Fatalf("expected ErrEmptyArtifact, got %v", err)
	}
	if _, err := c.Store(ctx, "../../etc/passwd", []byte("x")); err == nil {
		t.Fatalf("expected invalid fingerprint error")
	}
	if _, _, err := c.Lookup(ctx, "nope"); err == nil {
		t.Fatalf("expected invalid fingerprint error")
	}
}

func TestNewArtifactCacheSetupErrors(t *testing.T) {
	if _, err := NewArtifactCache(CacheOptions{}); err == nil {
		t.Fatalf("expected output dir required error")
	}

	// output dir path is occupied by a regular file
	blocker := filepath.Join(t.TempDir(), "out")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewArtifactCache(CacheOptions{OutputDir: blocker, CacheDir: t.TempDir()}); err == nil {
		t.Fatalf("expected setup error for unusable output dir")
	}
}

func TestCustomExtension(t *testing.T) {
	ctx := context.Background()
	cacheDir := t.TempDir()
	d, err := disk.New(disk.Config{Root: cacheDir, Ext: ".webp"})
	if err != nil {
		t.Fatal(err)
	}
	c := newTestArtifactCache(t, "", func(o *CacheOptions) {
		o.Durable = d
		o.Ext = "webp"
	})
	path, err := c.Store(ctx, fpOf(t, "a"), []byte("img"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(path) != ".webp" {
		t.Fatalf("output path %q should use .webp", path)
	}
}
