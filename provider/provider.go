// Package provider defines the byte stores behind the artifact cache.
//
// Keys are fingerprint hex strings. Values are raw artifact bytes.
// Implementations MUST be byte-for-byte transparent: Get must return exactly
// the bytes previously passed to Set for a key (no framing, no re-encoding).
// Entries are immutable, so Set for an existing key may simply overwrite.
package provider

import (
	"context"
	"time"
)

// Provider is a minimal byte store. Must be safe for concurrent use.
type Provider interface {
	// Get returns (value, true, nil) on hit; (nil, false, nil) on miss.
	// If an IO/remote error happens, return (nil, false, err).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value. cost and ttl are hints; stores that cannot honour
	// them ignore them. ttl <= 0 means no expiry.
	// Returns ok=false when the store rejected the write under pressure.
	Set(ctx context.Context, key string, value []byte, cost int64, ttl time.Duration) (ok bool, err error)

	// Del removes a key (best-effort).
	Del(ctx context.Context, key string) error

	// Close releases resources.
	Close(ctx context.Context) error
}

// Exporter is implemented by stores that keep entries as files and can place
// an entry at a filesystem path without loading it (hard link or copy).
type Exporter interface {
	// Export writes the entry for key to dst. ok=false means no entry exists.
	Export(ctx context.Context, key, dst string) (ok bool, err error)
}
