package codec

import "encoding/json"

// JSON encodes with encoding/json. Map keys are written in sorted order,
// so the output is stable for map-shaped values. Note that JSON does not
// distinguish 1 from 1.0.
type JSON[V any] struct{}

var _ Codec[struct{}] = JSON[struct{}]{}

func (JSON[V]) Encode(v V) ([]byte, error) { return json.Marshal(v) }
func (JSON[V]) Decode(b []byte) (V, error) {
	var v V
	err := json.Unmarshal(b, &v)
	return v, err
}

// IndentJSON is JSON with two-space indentation. Handy for files meant
// to be read by people (run manifests).
type IndentJSON[V any] struct{}

func (IndentJSON[V]) Encode(v V) ([]byte, error) { return json.MarshalIndent(v, "", "  ") }
func (IndentJSON[V]) Decode(b []byte) (V, error) { return JSON[V]{}.Decode(b) }
