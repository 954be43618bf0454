package redis

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

func TestNilClient(t *testing.T) {
	if _, err := New(Config{}); err != ErrNilClient {
		t.Fatalf("expected ErrNilClient, got %v", err)
	}
}

func TestOversizedValueIsSkipped(t *testing.T) {
	// no server needed: the size check happens before any command
	client := goredis.NewClient(&goredis.Options{Addr: "127.0.0.1:0"})
	p, err := New(Config{Client: client, MaxValueBytes: 4, CloseClient: true})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close(context.Background()) })

	ok, err := p.Set(context.Background(), "k", []byte("too large"), 0, 0)
	if ok || err != nil {
		t.Fatalf("expected silent rejection, ok=%v err=%v", ok, err)
	}
	if p.key("abc") != DefaultPrefix+"abc" {
		t.Fatalf("key %q", p.key("abc"))
	}
}

// Runs only when GRIDIRON_REDIS_ADDR points at a disposable server.
func TestRoundTrip(t *testing.T) {
	addr := os.Getenv("GRIDIRON_REDIS_ADDR")
	if addr == "" {
		t.Skip("GRIDIRON_REDIS_ADDR not set")
	}
	ctx := context.Background()
	p, err := New(Config{
		Client:      goredis.NewClient(&goredis.Options{Addr: addr}),
		Prefix:      "gridiron:test:",
		TTL:         time.Minute,
		CloseClient: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = p.Close(ctx) })

	_ = p.Del(ctx, "k")
	if _, ok, err := p.Get(ctx, "k"); ok || err != nil {
		t.Fatalf("expected miss, ok=%v err=%v", ok, err)
	}
	if _, err := p.Set(ctx, "k", []byte("img"), 0, 0); err != nil {
		t.Fatal(err)
	}
	// second write does not replace the first
	if _, err := p.Set(ctx, "k", []byte("other"), 0, 0); err != nil {
		t.Fatal(err)
	}
	b, ok, err := p.Get(ctx, "k")
	if err != nil || !ok || !bytes.Equal(b, []byte("img")) {
		t.Fatalf("Get: ok=%v err=%v b=%q", ok, err, b)
	}
	_ = p.Del(ctx, "k")
}
