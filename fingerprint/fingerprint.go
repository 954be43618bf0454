// Package fingerprint derives content identifiers for generation requests.
//
// A Fingerprint is the hex SHA-256 of a canonical serialization of the
// request parameters. Canonical means map keys are ordered, so two requests
// with the same content always collide no matter how they were built.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/unkn0wn-root/gridiron/codec"
)

// Size is the length of a Fingerprint in hex characters.
const Size = sha256.Size * 2

// Fingerprint is a lowercase hex SHA-256 digest.
type Fingerprint string

func (f Fingerprint) String() string { return string(f) }

// Short returns a 12-char prefix for log lines.
func (f Fingerprint) Short() string {
	if len(f) <= 12 {
		return string(f)
	}
	return string(f[:12])
}

// Valid reports whether f has the shape of a fingerprint.
func (f Fingerprint) Valid() bool {
	if len(f) != Size {
		return false
	}
	for i := 0; i < len(f); i++ {
		c := f[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// Hasher computes fingerprints with a fixed canonical encoder.
// Safe for concurrent use when the encoder is.
type Hasher struct {
	enc codec.Encoder[map[string]any]
}

// New returns a Hasher over enc. The encoder must be deterministic for
// map-shaped input; see codec.NewCBOR, codec.JSON, codec.Msgpack (SortKeys)
// and codec.Struct.
func New(enc codec.Encoder[map[string]any]) *Hasher {
	return &Hasher{enc: enc}
}

// Sum fingerprints params. It fails only when params holds a value the
// encoder cannot represent (funcs, channels, NaN for JSON and so on).
func (h *Hasher) Sum(params map[string]any) (Fingerprint, error) {
	b, err := h.enc.Encode(params)
	if err != nil {
		return "", err
	}
	return Bytes(b), nil
}

// Bytes fingerprints an already canonical byte string.
func Bytes(b []byte) Fingerprint {
	sum := sha256.Sum256(b)
	return Fingerprint(hex.EncodeToString(sum[:]))
}

var defaultHasher = New(codec.MustCBOR[map[string]any](true))

// Default returns the package default Hasher (deterministic CBOR).
func Default() *Hasher { return defaultHasher }

// Of fingerprints params with the default Hasher.
func Of(params map[string]any) (Fingerprint, error) {
	return defaultHasher.Sum(params)
}
