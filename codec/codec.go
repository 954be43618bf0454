package codec

// Encoder serializes V to []byte.
// Encoders used for fingerprinting must be deterministic: equal values
// (regardless of map insertion order) must produce identical bytes.
type Encoder[V any] interface {
	Encode(V) ([]byte, error)
}

// Codec encodes/decodes values V to []byte for storage.
type Codec[V any] interface {
	Encoder[V]
	Decode([]byte) (V, error)
}
