package codec

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func sample(reverse bool) map[string]any {
	keys := []string{"alpha", "beta", "gamma", "delta", "epsilon"}
	if reverse {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}
	m := make(map[string]any, len(keys))
	for _, k := range keys {
		m[k] = map[string]any{"len": len(k), "name": k, "odd": len(k)%2 == 1}
	}
	return m
}

func TestDeterministicEncoders(t *testing.T) {
	encs := map[string]Encoder[map[string]any]{
		"cbor":    MustCBOR[map[string]any](true),
		"json":    JSON[map[string]any]{},
		"msgpack": Msgpack[map[string]any]{SortKeys: true},
		"struct":  Struct{},
	}
	for name, enc := range encs {
		t.Run(name, func(t *testing.T) {
			first, err := enc.Encode(sample(false))
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			for i := 0; i < 25; i++ {
				again, err := enc.Encode(sample(i%2 == 0))
				if err != nil {
					t.Fatalf("Encode: %v", err)
				}
				if !bytes.Equal(first, again) {
					t.Fatalf("encoding is not stable across runs")
				}
			}
		})
	}
}

func TestStructRoundTripsMapShape(t *testing.T) {
	in := map[string]any{"prompt": "x", "steps": 20, "tags": []any{"a", "b"}}
	b, err := Struct{}.Encode(in)
	if err != nil {
		t.Fatal(err)
	}
	out, err := Struct{}.Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if out["prompt"] != "x" || out["steps"] != float64(20) {
		t.Fatalf("unexpected decode: %#v", out)
	}
}

func TestLimitCodecRejectsOversized(t *testing.T) {
	lc := LimitCodec[map[string]any]{Inner: JSON[map[string]any]{}, MaxDecode: 8}
	if _, err := lc.Decode([]byte(`{"a":"0123456789"}`)); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
	v, err := lc.Decode([]byte(`{"a":1}`))
	if err != nil || v["a"] != float64(1) {
		t.Fatalf("small payload: v=%v err=%v", v, err)
	}

	lc.MaxDecode = 0
	if _, err := lc.Decode([]byte(`{"a":"0123456789"}`)); err != nil {
		t.Fatalf("limit disabled: %v", err)
	}
}

func TestCBORDiagnoseShowsSortedKeys(t *testing.T) {
	b, err := MustCBOR[map[string]any](true).Encode(map[string]any{"seed": 42, "lora": "l1"})
	if err != nil {
		t.Fatal(err)
	}
	got, err := Diagnose(b)
	if err != nil {
		t.Fatal(err)
	}
	l, sd := strings.Index(got, `"lora"`), strings.Index(got, `"seed"`)
	if l < 0 || sd < l || !strings.Contains(got, "42") {
		t.Fatalf("diagnostic %q", got)
	}
}

func TestCBORDecodesNestedMapsAsStringKeyed(t *testing.T) {
	c := MustCBOR[map[string]any](true)
	b, err := c.Encode(map[string]any{"sampler": map[string]any{"steps": 20}})
	if err != nil {
		t.Fatal(err)
	}
	out, err := c.Decode(b)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := out["sampler"].(map[string]any); !ok {
		t.Fatalf("nested map decoded as %T", out["sampler"])
	}
}
