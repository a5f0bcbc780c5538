package variant

import (
	"fmt"
	"strings"

	"github.com/hvml/hvmlcore/internal/hvmlerr"
)

// NewSet creates a set variant. uniqueKeys, when non-empty, declares the
// tuple of member field names that determine uniqueness (members are
// expected to be objects exposing those fields); an empty list means
// whole-value uniqueness.
func (h *Heap) NewSet(uniqueKeys []string, members ...*Variant) (*Variant, error) {
	v := &Variant{Kind: KindSet, setIndex: make(map[string]int)}
	v.setKeyFields = append([]string(nil), uniqueKeys...)
	if len(uniqueKeys) > 0 {
		v.setFlag(FlagUniqueKeyed)
	}
	for _, m := range members {
		if err := v.SetAdd(h, m); err != nil {
			return nil, err
		}
	}
	return h.New(v), nil
}

func (v *Variant) setKeyOf(m *Variant) string {
	if len(v.setKeyFields) == 0 {
		return deepKey(m)
	}
	var sb strings.Builder
	for _, f := range v.setKeyFields {
		sb.WriteByte('\x1f')
		if val, ok := m.GetByKey(f); ok {
			sb.WriteString(deepKey(val))
		}
	}
	return sb.String()
}

// deepKey produces a string uniquely identifying a scalar/container value
// for set-membership and deep-equality purposes. It is not meant to be a
// general serialization format.
func deepKey(v *Variant) string {
	if v == nil {
		return "\x00nil"
	}
	switch v.Kind {
	case KindUndefined, KindNull:
		return v.Kind.String()
	case KindBoolean:
		return fmt.Sprintf("b:%v", v.b)
	case KindNumber, KindLongDouble:
		return fmt.Sprintf("f:%v", v.f64)
	case KindLongInt:
		return fmt.Sprintf("i:%v", v.i64)
	case KindULongInt:
		return fmt.Sprintf("u:%v", v.u64)
	case KindString:
		return "s:" + v.str
	case KindBytes:
		return fmt.Sprintf("y:%x", v.byts)
	case KindArray, KindTuple:
		var sb strings.Builder
		sb.WriteString(v.Kind.String())
		for _, e := range v.elems {
			sb.WriteByte('\x1e')
			sb.WriteString(deepKey(e))
		}
		return sb.String()
	case KindObject:
		var sb strings.Builder
		sb.WriteString("o:")
		for _, k := range v.keys {
			sb.WriteByte('\x1e')
			sb.WriteString(k)
			sb.WriteByte('=')
			sb.WriteString(deepKey(v.objMap[k]))
		}
		return sb.String()
	case KindSet:
		var sb strings.Builder
		sb.WriteString("set:")
		for _, m := range v.setMembers {
			sb.WriteByte('\x1e')
			sb.WriteString(deepKey(m))
		}
		return sb.String()
	default:
		return fmt.Sprintf("k%d:%p", v.Kind, v)
	}
}

// DeepEqual reports whether a and b denote the same value, recursively,
// independent of identity or refcount.
func DeepEqual(a, b *Variant) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return deepKey(a) == deepKey(b)
}

// SetAdd adds m to the set, returning DuplicateKey if its uniqueness key
// is already present.
func (v *Variant) SetAdd(h *Heap, m *Variant) error {
	if v.Kind != KindSet {
		return hvmlerr.New(hvmlerr.WrongDataType)
	}
	key := v.setKeyOf(m)
	if _, exists := v.setIndex[key]; exists {
		return hvmlerr.New(hvmlerr.DuplicateKey)
	}
	if !v.firePre(EventGrow, m) {
		return hvmlerr.New(hvmlerr.InvalidOperand)
	}
	v.setIndex[key] = len(v.setMembers)
	v.setMembers = append(v.setMembers, m.Ref())
	v.firePost(EventGrow, m)
	return nil
}

// SetRemove removes the member whose uniqueness key matches m's.
func (v *Variant) SetRemove(h *Heap, m *Variant) error {
	if v.Kind != KindSet {
		return hvmlerr.New(hvmlerr.WrongDataType)
	}
	key := v.setKeyOf(m)
	idx, ok := v.setIndex[key]
	if !ok {
		return hvmlerr.New(hvmlerr.NoSuchKey)
	}
	return v.setRemoveAt(h, idx)
}

func (v *Variant) setRemoveAt(h *Heap, idx int) error {
	old := v.setMembers[idx]
	if !v.firePre(EventShrink, old) {
		return hvmlerr.New(hvmlerr.InvalidOperand)
	}
	v.setMembers = append(v.setMembers[:idx], v.setMembers[idx+1:]...)
	v.rebuildSetIndex()
	h.Unref(old)
	v.firePost(EventShrink, old)
	return nil
}

func (v *Variant) rebuildSetIndex() {
	v.setIndex = make(map[string]int, len(v.setMembers))
	for i, m := range v.setMembers {
		v.setIndex[v.setKeyOf(m)] = i
	}
}

// SetMembers returns the set's members in insertion order.
func (v *Variant) SetMembers() []*Variant {
	return append([]*Variant(nil), v.setMembers...)
}

// SetReplace finds the member with the same uniqueness key as m and
// replaces it with m (used when a timer-bound $TIMERS entry's fields
// change in place via object mutation rather than set displace).
func (v *Variant) SetReplace(h *Heap, m *Variant) error {
	if v.Kind != KindSet {
		return hvmlerr.New(hvmlerr.WrongDataType)
	}
	key := v.setKeyOf(m)
	idx, ok := v.setIndex[key]
	if !ok {
		return v.SetAdd(h, m)
	}
	old := v.setMembers[idx]
	if !v.firePre(EventChange, m) {
		return hvmlerr.New(hvmlerr.InvalidOperand)
	}
	v.setMembers[idx] = m.Ref()
	h.Unref(old)
	v.firePost(EventChange, m)
	return nil
}
