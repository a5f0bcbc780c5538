package variant

import "github.com/hvml/hvmlcore/internal/hvmlerr"

// NewTuple creates a fixed-length tuple variant. Unlike array, a tuple's
// length never changes after construction: Append/Remove/Insert* return
// WrongDataType on a tuple.
func (h *Heap) NewTuple(elems ...*Variant) *Variant {
	v := &Variant{Kind: KindTuple}
	for _, e := range elems {
		v.elems = append(v.elems, e.Ref())
	}
	return h.New(v)
}

// SetTuple replaces the tuple element at idx with val (length-preserving).
func (v *Variant) SetTuple(h *Heap, idx int, val *Variant) error {
	if v.Kind != KindTuple {
		return hvmlerr.New(hvmlerr.WrongDataType)
	}
	if idx < 0 || idx >= len(v.elems) {
		return hvmlerr.New(hvmlerr.BadIndex)
	}
	if !v.firePre(EventChange, val) {
		return hvmlerr.New(hvmlerr.InvalidOperand)
	}
	old := v.elems[idx]
	v.elems[idx] = val.Ref()
	h.Unref(old)
	v.firePost(EventChange, val)
	return nil
}
