package codec

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Struct encodes map-shaped values as a google.protobuf.Struct using
// deterministic marshaling (map entries ordered by key).
//
// Struct models every number as a double, so 1 and 1.0 encode the same.
// Values must be JSON-like: nil, bool, numbers, string, []any, map[string]any.
type Struct struct{}

var _ Codec[map[string]any] = Struct{}

func (Struct) Encode(v map[string]any) ([]byte, error) {
	s, err := structpb.NewStruct(v)
	if err != nil {
		return nil, err
	}
	return proto.MarshalOptions{Deterministic: true}.Marshal(s)
}

func (Struct) Decode(b []byte) (map[string]any, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	return s.AsMap(), nil
}
