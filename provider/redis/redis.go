// Package redis is a shared artifact tier: several hosts rendering grids
// against the same backend can reuse each other's artifacts.
//
// Entries are content-addressed and immutable, so writes use SET NX and
// never replace an existing value. With a TTL, hits slide the expiry
// forward (GETEX) so artifacts that are still being looked at stay.
package redis

import (
	"context"
	"errors"
	"time"

	goredis "github.com/redis/go-redis/v9"

	pr "github.com/unkn0wn-root/gridiron/provider"
)

const DefaultPrefix = "gridiron:artifact:"

var ErrNilClient = errors.New("redis provider: nil client")

type Redis struct {
	rdb         goredis.UniversalClient
	prefix      string
	ttl         time.Duration
	maxBytes    int
	closeClient bool
}

var _ pr.Provider = (*Redis)(nil)

type Config struct {
	Client goredis.UniversalClient
	Prefix string        // "" => DefaultPrefix
	TTL    time.Duration // used when Set gets ttl <= 0; 0 => no expiry
	// MaxValueBytes skips artifacts larger than this (Set reports ok=false).
	// 0 => no limit.
	MaxValueBytes int
	CloseClient   bool // set true only if this provider exclusively owns the client
}

func New(cfg Config) (*Redis, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	r := &Redis{
		rdb:         cfg.Client,
		prefix:      cfg.Prefix,
		ttl:         cfg.TTL,
		maxBytes:    cfg.MaxValueBytes,
		closeClient: cfg.CloseClient,
	}
	if r.prefix == "" {
		r.prefix = DefaultPrefix
	}
	return r, nil
}

func (p *Redis) key(fp string) string { return p.prefix + fp }

func (p *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var cmd *goredis.StringCmd
	if p.ttl > 0 {
		cmd = p.rdb.GetEx(ctx, p.key(key), p.ttl)
	} else {
		cmd = p.rdb.Get(ctx, p.key(key))
	}
	b, err := cmd.Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

func (p *Redis) Set(ctx context.Context, key string, value []byte, _ int64, ttl time.Duration) (bool, error) {
	if p.maxBytes > 0 && len(value) > p.maxBytes {
		return false, nil
	}
	if ttl <= 0 {
		ttl = p.ttl
	}
	// an existing entry holds the same bytes; losing the race is fine
	if err := p.rdb.SetNX(ctx, p.key(key), value, ttl).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (p *Redis) Del(ctx context.Context, key string) error {
	return p.rdb.Del(ctx, p.key(key)).Err()
}

// Close releases the client only when this provider owns it. Repeated calls
// are no-ops.
func (p *Redis) Close(context.Context) error {
	if !p.closeClient {
		return nil
	}
	if err := p.rdb.Close(); err != nil && !errors.Is(err, goredis.ErrClosed) {
		return err
	}
	return nil
}
