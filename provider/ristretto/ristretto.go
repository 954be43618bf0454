// Package ristretto is an in-memory front tier for the artifact cache.
// Cost is the artifact size in bytes, so MaxCost bounds memory.
package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	pr "github.com/unkn0wn-root/gridiron/provider"
)

var ErrInvalidConfig = errors.New("ristretto provider: NumCounters, MaxCost and BufferItems must be > 0")

type Provider struct {
	c        *rc.Cache
	sync     bool
	maxBytes int64
}

var _ pr.Provider = (*Provider)(nil)

type Config struct {
	NumCounters int64 // ~10x the number of artifacts expected to fit
	MaxCost     int64 // bytes
	BufferItems int64 // 64 is what ristretto recommends
	Metrics     bool
	// MaxItemBytes keeps single huge artifacts from flushing the tier.
	// 0 => MaxCost/8.
	MaxItemBytes int64
	// Sync waits for each Set to be applied before returning. Ristretto
	// buffers writes, so without it a Get right after Set may miss.
	Sync bool
}

func New(cfg Config) (*Provider, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, ErrInvalidConfig
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	p := &Provider{c: c, sync: cfg.Sync, maxBytes: cfg.MaxItemBytes}
	if p.maxBytes <= 0 {
		p.maxBytes = cfg.MaxCost / 8
	}
	return p, nil
}

func (p *Provider) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := p.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, ok := v.([]byte)
	if !ok || len(b) == 0 {
		p.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

// Set stores value as is; callers must not modify it afterwards.
func (p *Provider) Set(_ context.Context, key string, value []byte, cost int64, ttl time.Duration) (bool, error) {
	if int64(len(value)) > p.maxBytes {
		return false, nil
	}
	if cost <= 0 {
		cost = int64(len(value))
	}
	ok := p.c.SetWithTTL(key, value, cost, ttl)
	if ok && p.sync {
		p.c.Wait()
	}
	return ok, nil
}

func (p *Provider) Del(_ context.Context, key string) error {
	p.c.Del(key)
	return nil
}

func (p *Provider) Close(_ context.Context) error {
	p.c.Wait()
	p.c.Close()
	return nil
}

// HitRatio reports the tier's hit ratio; 0 unless Config.Metrics.
func (p *Provider) HitRatio() float64 {
	if p.c.Metrics == nil {
		return 0
	}
	return p.c.Metrics.Ratio()
}
