// Package codec provides a CBOR wire representation for variant trees,
// used by the move-buffer's wire format and by test fixtures that check
// round-trip equality. Grounded on the reference distribution layer's
// canonical-CBOR pattern (vm/dist/wire.go's cborEncMode), which this
// module reuses for the same reason: deterministic bytes make message
// round-trip tests exact rather than approximate.
package codec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/hvml/hvmlcore/internal/variant"
)

var encMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("codec: failed to build CBOR enc mode: %v", err))
	}
	encMode = em
}

// wireNode is the CBOR-friendly shadow of a *variant.Variant. Dynamic and
// native variants have no wire representation (they carry Go closures and
// opaque pointers) and are rejected by Marshal.
type wireNode struct {
	Kind   uint8       `cbor:"1,keyasint"`
	Bool   bool        `cbor:"2,keyasint,omitempty"`
	Num    float64     `cbor:"3,keyasint,omitempty"`
	Int    int64       `cbor:"4,keyasint,omitempty"`
	UInt   uint64      `cbor:"5,keyasint,omitempty"`
	Str    string      `cbor:"6,keyasint,omitempty"`
	Bytes  []byte      `cbor:"7,keyasint,omitempty"`
	Elems  []*wireNode `cbor:"8,keyasint,omitempty"`
	Keys   []string    `cbor:"9,keyasint,omitempty"`
	Vals   []*wireNode `cbor:"10,keyasint,omitempty"`
	SetKey []string    `cbor:"11,keyasint,omitempty"`
}

// Marshal encodes v's value (not its identity/refcount) to canonical CBOR.
func Marshal(v *variant.Variant) ([]byte, error) {
	node, err := toWire(v)
	if err != nil {
		return nil, err
	}
	return encMode.Marshal(node)
}

// Unmarshal decodes CBOR bytes into a freshly heap-allocated variant tree
// owned by h.
func Unmarshal(h *variant.Heap, data []byte) (*variant.Variant, error) {
	var node wireNode
	if err := cbor.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("codec: unmarshal: %w", err)
	}
	return fromWire(h, &node)
}

func toWire(v *variant.Variant) (*wireNode, error) {
	n := &wireNode{Kind: uint8(v.Kind)}
	switch v.Kind {
	case variant.KindUndefined, variant.KindNull:
	case variant.KindBoolean:
		n.Bool = v.Bool()
	case variant.KindNumber, variant.KindLongDouble:
		n.Num = v.Number()
	case variant.KindLongInt:
		n.Int = v.LongInt()
	case variant.KindULongInt:
		n.UInt = v.ULongInt()
	case variant.KindString:
		n.Str = v.String()
	case variant.KindBytes:
		n.Bytes = v.Bytes()
	case variant.KindArray, variant.KindTuple:
		for i := 0; i < v.Size(); i++ {
			e, _ := v.Get(i)
			child, err := toWire(e)
			if err != nil {
				return nil, err
			}
			n.Elems = append(n.Elems, child)
		}
	case variant.KindObject:
		for _, k := range v.Keys() {
			val, _ := v.GetByKey(k)
			child, err := toWire(val)
			if err != nil {
				return nil, err
			}
			n.Keys = append(n.Keys, k)
			n.Vals = append(n.Vals, child)
		}
	case variant.KindSet:
		for _, m := range v.SetMembers() {
			child, err := toWire(m)
			if err != nil {
				return nil, err
			}
			n.Elems = append(n.Elems, child)
		}
	default:
		return nil, fmt.Errorf("codec: %s variants have no wire representation", v.Kind)
	}
	return n, nil
}

func fromWire(h *variant.Heap, n *wireNode) (*variant.Variant, error) {
	kind := variant.Kind(n.Kind)
	switch kind {
	case variant.KindUndefined:
		return h.NewUndefined(), nil
	case variant.KindNull:
		return h.NewNull(), nil
	case variant.KindBoolean:
		return h.NewBoolean(n.Bool), nil
	case variant.KindNumber:
		return h.NewNumber(n.Num), nil
	case variant.KindLongDouble:
		return h.NewLongDouble(n.Num), nil
	case variant.KindLongInt:
		return h.NewLongInt(n.Int), nil
	case variant.KindULongInt:
		return h.NewULongInt(n.UInt), nil
	case variant.KindString:
		return h.NewString(n.Str, false), nil
	case variant.KindBytes:
		return h.NewBytes(n.Bytes, false), nil
	case variant.KindArray:
		var elems []*variant.Variant
		for _, c := range n.Elems {
			e, err := fromWire(h, c)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return h.NewArray(elems...), nil
	case variant.KindTuple:
		var elems []*variant.Variant
		for _, c := range n.Elems {
			e, err := fromWire(h, c)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return h.NewTuple(elems...), nil
	case variant.KindObject:
		var vals []*variant.Variant
		for _, c := range n.Vals {
			val, err := fromWire(h, c)
			if err != nil {
				return nil, err
			}
			vals = append(vals, val)
		}
		return h.NewObject(n.Keys, vals), nil
	case variant.KindSet:
		var members []*variant.Variant
		for _, c := range n.Elems {
			m, err := fromWire(h, c)
			if err != nil {
				return nil, err
			}
			members = append(members, m)
		}
		return h.NewSet(nil, members...)
	default:
		return nil, fmt.Errorf("codec: unknown wire kind %d", n.Kind)
	}
}
