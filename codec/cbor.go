package codec

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// CBOR encodes with fxamacker/cbor. Build it with NewCBOR or MustCBOR; the
// zero value has no modes and panics.
//
// The deterministic mode (RFC 8949 Core Deterministic) backs the default
// request fingerprint: map keys are sorted bytewise, integers and floats
// take their shortest form, and 1 and 1.0 stay distinct.
type CBOR[V any] struct {
	em cbor.EncMode
	dm cbor.DecMode
}

var _ Codec[struct{}] = CBOR[struct{}]{}

var anyMap = reflect.TypeOf(map[string]any(nil))

// NewCBOR returns a CBOR codec. deterministic=false uses the preferred
// unsorted options, which are fine for storage but not for hashing.
// Nested maps decode as map[string]any so a decoded request has the same
// shape the builder produced.
func NewCBOR[V any](deterministic bool) (CBOR[V], error) {
	eo := cbor.PreferredUnsortedEncOptions()
	if deterministic {
		eo = cbor.CoreDetEncOptions()
	}
	eo.Time = cbor.TimeRFC3339Nano

	em, err := eo.EncMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	dm, err := cbor.DecOptions{
		DefaultMapType:  anyMap,
		MaxNestedLevels: 64,
	}.DecMode()
	if err != nil {
		return CBOR[V]{}, err
	}
	return CBOR[V]{em: em, dm: dm}, nil
}

// MustCBOR is NewCBOR for package-level defaults; the option sets are
// static so it only panics on a library bug.
func MustCBOR[V any](deterministic bool) CBOR[V] {
	c, err := NewCBOR[V](deterministic)
	if err != nil {
		panic(err)
	}
	return c
}

func (c CBOR[V]) Encode(v V) ([]byte, error) { return c.em.Marshal(v) }

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	err := c.dm.Unmarshal(b, &v)
	return v, err
}

// Diagnose renders CBOR bytes in diagnostic notation (RFC 8949 §8), e.g.
// {"lora": "l1", "seed": 42}. Used to show what a fingerprint was taken over.
func Diagnose(b []byte) (string, error) { return cbor.Diagnose(b) }
