package codec

import (
	"encoding/base64"
	"encoding/json"
	"fmt"

	"github.com/hvml/hvmlcore/internal/variant"
)

// MarshalJSON encodes v's value as an ejson document: the plain-JSON
// representation the renderer transport's line protocol carries, distinct
// from Marshal's canonical CBOR (used by the move-buffer wire format).
// Byte-sequences have no native JSON type, so they round-trip as
// standard-library base64, the same encoding encoding/json itself already
// uses for []byte fields.
func MarshalJSON(v *variant.Variant) ([]byte, error) {
	tree, err := toJSONTree(v)
	if err != nil {
		return nil, err
	}
	return json.Marshal(tree)
}

// UnmarshalJSON decodes an ejson document into a freshly heap-allocated
// variant tree owned by h.
func UnmarshalJSON(h *variant.Heap, data []byte) (*variant.Variant, error) {
	var tree any
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("codec: unmarshal ejson: %w", err)
	}
	return fromJSONTree(h, tree)
}

// byteSeqTag marks an object produced from a byte-sequence variant, so
// UnmarshalJSON can tell it apart from an ordinary object with the same
// two keys. Renderer peers that don't originate from this module simply
// never emit this shape and always decode byte-heavy payloads as strings.
const byteSeqTag = "$hvml-bytes"

func toJSONTree(v *variant.Variant) (any, error) {
	switch v.Kind {
	case variant.KindUndefined, variant.KindNull:
		return nil, nil
	case variant.KindBoolean:
		return v.Bool(), nil
	case variant.KindNumber, variant.KindLongDouble:
		return v.Number(), nil
	case variant.KindLongInt:
		return v.LongInt(), nil
	case variant.KindULongInt:
		return v.ULongInt(), nil
	case variant.KindString:
		return v.String(), nil
	case variant.KindBytes:
		return map[string]any{byteSeqTag: base64.StdEncoding.EncodeToString(v.Bytes())}, nil
	case variant.KindArray, variant.KindTuple:
		out := make([]any, 0, v.Size())
		for i := 0; i < v.Size(); i++ {
			e, _ := v.Get(i)
			child, err := toJSONTree(e)
			if err != nil {
				return nil, err
			}
			out = append(out, child)
		}
		return out, nil
	case variant.KindObject:
		out := make(map[string]any, len(v.Keys()))
		for _, k := range v.Keys() {
			val, _ := v.GetByKey(k)
			child, err := toJSONTree(val)
			if err != nil {
				return nil, err
			}
			out[k] = child
		}
		return out, nil
	case variant.KindSet:
		members := v.SetMembers()
		out := make([]any, 0, len(members))
		for _, m := range members {
			child, err := toJSONTree(m)
			if err != nil {
				return nil, err
			}
			out = append(out, child)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("codec: %s variants have no ejson representation", v.Kind)
	}
}

func fromJSONTree(h *variant.Heap, node any) (*variant.Variant, error) {
	switch n := node.(type) {
	case nil:
		return h.NewNull(), nil
	case bool:
		return h.NewBoolean(n), nil
	case float64:
		return h.NewNumber(n), nil
	case string:
		return h.NewString(n, false), nil
	case []any:
		elems := make([]*variant.Variant, 0, len(n))
		for _, c := range n {
			e, err := fromJSONTree(h, c)
			if err != nil {
				return nil, err
			}
			elems = append(elems, e)
		}
		return h.NewArray(elems...), nil
	case map[string]any:
		if raw, ok := n[byteSeqTag]; ok {
			s, ok := raw.(string)
			if !ok {
				return nil, fmt.Errorf("codec: %s value must be a string", byteSeqTag)
			}
			b, err := base64.StdEncoding.DecodeString(s)
			if err != nil {
				return nil, fmt.Errorf("codec: decode %s: %w", byteSeqTag, err)
			}
			return h.NewBytes(b, false), nil
		}
		keys := make([]string, 0, len(n))
		vals := make([]*variant.Variant, 0, len(n))
		for k, c := range n {
			val, err := fromJSONTree(h, c)
			if err != nil {
				return nil, err
			}
			keys = append(keys, k)
			vals = append(vals, val)
		}
		return h.NewObject(keys, vals), nil
	default:
		return nil, fmt.Errorf("codec: unsupported ejson node type %T", node)
	}
}
