package codec

import (
	"testing"

	"github.com/hvml/hvmlcore/internal/variant"
)

func buildSample(h *variant.Heap) *variant.Variant {
	obj := h.NewObject(
		[]string{"name", "count", "tags"},
		[]*variant.Variant{
			h.NewString("widget", false),
			h.NewLongInt(3),
			h.NewArray(h.NewString("a", false), h.NewString("b", false)),
		},
	)
	return obj
}

func TestCBORRoundTripPreservesShapeAndValues(t *testing.T) {
	h := variant.NewHeap()
	v := buildSample(h)

	data, err := Marshal(v)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	h2 := variant.NewHeap()
	got, err := Unmarshal(h2, data)
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if got.Kind != variant.KindObject {
		t.Fatalf("kind = %v, want object", got.Kind)
	}
	name, ok := got.GetByKey("name")
	if !ok || name.String() != "widget" {
		t.Fatalf("name = %v, %v; want widget, true", name, ok)
	}
	count, _ := got.GetByKey("count")
	if count.LongInt() != 3 {
		t.Fatalf("count = %d, want 3", count.LongInt())
	}
}

func TestJSONRoundTripPreservesShapeAndValues(t *testing.T) {
	h := variant.NewHeap()
	v := buildSample(h)

	data, err := MarshalJSON(v)
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}

	h2 := variant.NewHeap()
	got, err := UnmarshalJSON(h2, data)
	if err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	name, ok := got.GetByKey("name")
	if !ok || name.String() != "widget" {
		t.Fatalf("name = %v, %v; want widget, true", name, ok)
	}
	tags, ok := got.GetByKey("tags")
	if !ok || tags.Size() != 2 {
		t.Fatalf("tags = %v, %v; want a 2-element array", tags, ok)
	}
}

func TestJSONRoundTripsByteSequencesThroughBase64Tag(t *testing.T) {
	h := variant.NewHeap()
	v := h.NewBytes([]byte("hi"), false)

	data, err := MarshalJSON(v)
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}

	h2 := variant.NewHeap()
	got, err := UnmarshalJSON(h2, data)
	if err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if got.Kind != variant.KindBytes {
		t.Fatalf("kind = %v, want bytes", got.Kind)
	}
	if string(got.Bytes()) != "hi" {
		t.Fatalf("bytes = %q, want hi", got.Bytes())
	}
}
