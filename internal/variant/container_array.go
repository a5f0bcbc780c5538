package variant

import "github.com/hvml/hvmlcore/internal/hvmlerr"

// NewArray creates an array variant from an initial element list. Each
// element is given a strong reference.
func (h *Heap) NewArray(elems ...*Variant) *Variant {
	v := &Variant{Kind: KindArray}
	for _, e := range elems {
		v.elems = append(v.elems, e.Ref())
	}
	return h.New(v)
}

// Size returns the number of elements for any container kind.
func (v *Variant) Size() int {
	switch v.Kind {
	case KindArray, KindTuple:
		return len(v.elems)
	case KindObject:
		return len(v.keys)
	case KindSet:
		return len(v.setMembers)
	default:
		return 0
	}
}

// Get returns the array/tuple element at idx.
func (v *Variant) Get(idx int) (*Variant, error) {
	if v.Kind != KindArray && v.Kind != KindTuple {
		return nil, hvmlerr.New(hvmlerr.WrongDataType)
	}
	if idx < 0 || idx >= len(v.elems) {
		return nil, hvmlerr.New(hvmlerr.BadIndex)
	}
	return v.elems[idx], nil
}

// Set replaces the array element at idx with val, firing CHANGE listeners.
func (v *Variant) Set(h *Heap, idx int, val *Variant) error {
	if v.Kind != KindArray {
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

// Append adds val to the end of the array.
func (v *Variant) Append(val *Variant) error {
	if v.Kind != KindArray {
		return hvmlerr.New(hvmlerr.WrongDataType)
	}
	if !v.firePre(EventGrow, val) {
		return hvmlerr.New(hvmlerr.InvalidOperand)
	}
	v.elems = append(v.elems, val.Ref())
	v.firePost(EventGrow, val)
	return nil
}

// Prepend adds val to the front of the array.
func (v *Variant) Prepend(val *Variant) error {
	if v.Kind != KindArray {
		return hvmlerr.New(hvmlerr.WrongDataType)
	}
	if !v.firePre(EventGrow, val) {
		return hvmlerr.New(hvmlerr.InvalidOperand)
	}
	v.elems = append([]*Variant{val.Ref()}, v.elems...)
	v.firePost(EventGrow, val)
	return nil
}

// InsertBefore inserts val immediately before idx.
func (v *Variant) InsertBefore(idx int, val *Variant) error {
	return v.insertAt(idx, val)
}

// InsertAfter inserts val immediately after idx.
func (v *Variant) InsertAfter(idx int, val *Variant) error {
	return v.insertAt(idx+1, val)
}

func (v *Variant) insertAt(idx int, val *Variant) error {
	if v.Kind != KindArray {
		return hvmlerr.New(hvmlerr.WrongDataType)
	}
	if idx < 0 || idx > len(v.elems) {
		return hvmlerr.New(hvmlerr.BadIndex)
	}
	if !v.firePre(EventGrow, val) {
		return hvmlerr.New(hvmlerr.InvalidOperand)
	}
	v.elems = append(v.elems, nil)
	copy(v.elems[idx+1:], v.elems[idx:])
	v.elems[idx] = val.Ref()
	v.firePost(EventGrow, val)
	return nil
}

// Remove removes the element at idx, unreffing it.
func (v *Variant) Remove(h *Heap, idx int) error {
	if v.Kind != KindArray {
		return hvmlerr.New(hvmlerr.WrongDataType)
	}
	if idx < 0 || idx >= len(v.elems) {
		return hvmlerr.New(hvmlerr.BadIndex)
	}
	old := v.elems[idx]
	if !v.firePre(EventShrink, old) {
		return hvmlerr.New(hvmlerr.InvalidOperand)
	}
	v.elems = append(v.elems[:idx], v.elems[idx+1:]...)
	h.Unref(old)
	v.firePost(EventShrink, old)
	return nil
}

// Clear removes every element.
func (v *Variant) Clear(h *Heap) error {
	if !v.Kind.IsContainer() {
		return hvmlerr.New(hvmlerr.WrongDataType)
	}
	if !v.firePre(EventShrink) {
		return hvmlerr.New(hvmlerr.InvalidOperand)
	}
	for _, k := range v.children() {
		h.Unref(k)
	}
	switch v.Kind {
	case KindArray, KindTuple:
		v.elems = nil
	case KindObject:
		v.keys = nil
		v.objMap = nil
	case KindSet:
		v.setMembers = nil
		v.setIndex = nil
	}
	v.firePost(EventShrink)
	return nil
}

// Displace replaces v's element contents with src's in place, preserving
// v's identity. A single CHANGE event is fired.
func (v *Variant) Displace(h *Heap, src *Variant) error {
	if v.Kind != src.Kind {
		return hvmlerr.New(hvmlerr.WrongDataType)
	}
	if !v.firePre(EventChange, src) {
		return hvmlerr.New(hvmlerr.InvalidOperand)
	}
	oldKids := v.children()
	switch v.Kind {
	case KindArray, KindTuple:
		v.elems = cloneRefs(src.elems)
	case KindObject:
		v.keys = append([]string(nil), src.keys...)
		v.objMap = make(map[string]*Variant, len(src.objMap))
		for k, val := range src.objMap {
			v.objMap[k] = val.Ref()
		}
	case KindSet:
		v.setMembers = cloneRefs(src.setMembers)
		v.setKeyFields = append([]string(nil), src.setKeyFields...)
		v.rebuildSetIndex()
	}
	for _, k := range oldKids {
		h.Unref(k)
	}
	v.firePost(EventChange, src)
	return nil
}

func cloneRefs(in []*Variant) []*Variant {
	out := make([]*Variant, len(in))
	for i, e := range in {
		out[i] = e.Ref()
	}
	return out
}
