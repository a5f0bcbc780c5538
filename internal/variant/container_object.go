package variant

import "github.com/hvml/hvmlcore/internal/hvmlerr"

// NewObject creates an object variant from key/value pairs, preserving the
// insertion order given. Duplicate keys in the initial list keep the last
// occurrence's value but the first occurrence's position, matching
// SetKey's insert-or-replace behaviour.
func (h *Heap) NewObject(keys []string, vals []*Variant) *Variant {
	v := &Variant{Kind: KindObject, objMap: make(map[string]*Variant, len(keys))}
	for i, k := range keys {
		if _, exists := v.objMap[k]; !exists {
			v.keys = append(v.keys, k)
		}
		v.objMap[k] = vals[i].Ref()
	}
	return h.New(v)
}

// GetByKey looks up an object member by key.
func (v *Variant) GetByKey(key string) (*Variant, bool) {
	if v.Kind != KindObject {
		return nil, false
	}
	val, ok := v.objMap[key]
	return val, ok
}

// SetKey inserts or replaces the member at key. Setting val == nil (an
// "undefined" value per the binding semantics) removes the key.
func (v *Variant) SetKey(h *Heap, key string, val *Variant) error {
	if v.Kind != KindObject {
		return hvmlerr.New(hvmlerr.WrongDataType)
	}
	if val == nil || val.Kind == KindUndefined {
		return v.removeKey(h, key)
	}
	old, existed := v.objMap[key]
	event := EventGrow
	if existed {
		event = EventChange
	}
	keyArg := keyVariant(key)
	if !v.firePre(event, keyArg, val) {
		return hvmlerr.New(hvmlerr.InvalidOperand)
	}
	if !existed {
		v.keys = append(v.keys, key)
	} else {
		h.Unref(old)
	}
	v.objMap[key] = val.Ref()
	v.firePost(event, keyArg, val)
	return nil
}

func (v *Variant) removeKey(h *Heap, key string) error {
	old, existed := v.objMap[key]
	if !existed {
		return nil
	}
	keyArg := keyVariant(key)
	if !v.firePre(EventShrink, keyArg, old) {
		return hvmlerr.New(hvmlerr.InvalidOperand)
	}
	for i, k := range v.keys {
		if k == key {
			v.keys = append(v.keys[:i], v.keys[i+1:]...)
			break
		}
	}
	delete(v.objMap, key)
	h.Unref(old)
	v.firePost(EventShrink, keyArg, old)
	return nil
}

// keyVariant builds a throwaway, heap-untracked string Variant carrying a
// key name for listener notification only. Listener args are inspect-only
// (see ListenerFunc's doc comment), so this never needs a refcount or
// heap registration of its own.
func keyVariant(key string) *Variant {
	return &Variant{Kind: KindString, str: key}
}

// RemoveKey removes the member at key, returning NoSuchKey if absent.
func (v *Variant) RemoveKey(h *Heap, key string) error {
	if v.Kind != KindObject {
		return hvmlerr.New(hvmlerr.WrongDataType)
	}
	if _, ok := v.objMap[key]; !ok {
		return hvmlerr.New(hvmlerr.NoSuchKey)
	}
	return v.removeKey(h, key)
}

// Keys returns the object's keys in insertion order.
func (v *Variant) Keys() []string {
	return append([]string(nil), v.keys...)
}
