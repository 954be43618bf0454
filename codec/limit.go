package codec

import (
	"errors"
	"fmt"
)

// ErrTooLarge is returned by LimitCodec.Decode for oversized payloads.
var ErrTooLarge = errors.New("codec: payload too large")

// LimitCodec wraps another codec and refuses to decode payloads longer
// than MaxDecode bytes. Encode is forwarded unchanged.
// MaxDecode <= 0 disables the check.
//
// Used when reading files that may have been edited or replaced by hand
// (run manifests in a shared output directory).
type LimitCodec[V any] struct {
	Inner     Codec[V]
	MaxDecode int
}

var _ Codec[struct{}] = LimitCodec[struct{}]{}

func (c LimitCodec[V]) Encode(v V) ([]byte, error) { return c.Inner.Encode(v) }
func (c LimitCodec[V]) Decode(b []byte) (V, error) {
	if c.MaxDecode > 0 && len(b) > c.MaxDecode {
		var zero V
		return zero, fmt.Errorf("%w: %d > %d", ErrTooLarge, len(b), c.MaxDecode)
	}
	return c.Inner.Decode(b)
}
