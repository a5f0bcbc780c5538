// Package variant implements the polymorphic, reference-counted value
// model that every other subsystem builds on: a tagged union with
// containers, listeners, and the two-heap move protocol used to hand a
// value off between per-instance heaps.
//
// Grounded on the reference VM's Object/VTable split (vm/object.go) and its
// registry pattern for out-of-line state (vm/weak_reference.go,
// vm/concurrency_registry.go): here a single struct carries the tag plus
// whichever payload fields that tag uses, and containers own strong
// references to their children directly rather than through a side table.
package variant

import (
	"sync"
	"sync/atomic"
)

// Kind tags the dynamic type of a Variant.
type Kind uint8

const (
	KindUndefined Kind = iota
	KindNull
	KindBoolean
	KindNumber
	KindLongInt
	KindULongInt
	KindLongDouble
	KindString
	KindBytes
	KindDynamic
	KindNative
	KindArray
	KindObject
	KindSet
	KindTuple
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindUndefined:
		return "undefined"
	case KindNull:
		return "null"
	case KindBoolean:
		return "boolean"
	case KindNumber:
		return "number"
	case KindLongInt:
		return "longint"
	case KindULongInt:
		return "ulongint"
	case KindLongDouble:
		return "longdouble"
	case KindString:
		return "string"
	case KindBytes:
		return "bytesequence"
	case KindDynamic:
		return "dynamic"
	case KindNative:
		return "native"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	case KindSet:
		return "set"
	case KindTuple:
		return "tuple"
	default:
		return "unknown"
	}
}

// Flag is a bit in a Variant's flags word.
type Flag uint32

const (
	// FlagStatic marks a string/bytes Variant whose backing storage is a
	// literal the caller owns for the program's lifetime (no extra-buffer
	// copy was taken).
	FlagStatic Flag = 1 << iota
	// FlagSingleton marks one of the four never-freed singletons.
	FlagSingleton
	// FlagUniqueKeyed marks a set that enforces its declared key tuple.
	FlagUniqueKeyed
	// FlagSilently is consulted by frames, not variants, but shares the
	// flag-word mechanism per the data model.
	FlagSilently
)

// DynamicFunc is a dynamic variant's getter or setter.
type DynamicFunc func(args []*Variant) (*Variant, error)

// NativeOps is the operation table behind a native variant: an opaque
// pointer plus a fixed set of callbacks, mirroring the reference VM's
// vtable-per-class dispatch but scoped to a single value instead of a
// class.
type NativeOps struct {
	Getter   func(ptr any, name string) (*Variant, error)
	Setter   func(ptr any, name string, val *Variant) error
	Eraser   func(ptr any, key *Variant) (int, error)
	Compare  func(a, b any) int
	Release  func(ptr any)
}

// Variant is the tagged, reference-counted value. Every live Variant
// (other than the four singletons) is owned by exactly the strong
// references its refcount accounts for.
type Variant struct {
	Kind  Kind
	flags uint32
	refs  atomic.Int32

	mu        sync.Mutex
	listeners []*regListener

	// scalar payload
	b    bool
	f64  float64
	i64  int64
	u64  uint64
	str  string
	byts []byte

	// dynamic payload
	dynGet DynamicFunc
	dynSet DynamicFunc

	// native payload
	nativePtr any
	nativeOps *NativeOps

	// container payload (array/tuple): ordered strong children
	elems []*Variant

	// container payload (object): insertion-ordered unique keys
	keys   []string
	objMap map[string]*Variant

	// container payload (set): unique members keyed by a declared tuple
	// of member field names (empty means "whole value" uniqueness)
	setKeyFields []string
	setMembers   []*Variant
	setIndex     map[string]int
}

func newVariant(k Kind) *Variant {
	return &Variant{Kind: k}
}

// HasFlag reports whether f is set.
func (v *Variant) HasFlag(f Flag) bool { return v.flags&uint32(f) != 0 }

func (v *Variant) setFlag(f Flag)   { v.flags |= uint32(f) }
func (v *Variant) clearFlag(f Flag) { v.flags &^= uint32(f) }

// RefCount returns the current strong reference count.
func (v *Variant) RefCount() int32 { return v.refs.Load() }

// Ref increments the reference count and returns v, for chaining.
func (v *Variant) Ref() *Variant {
	v.refs.Add(1)
	return v
}

// byteSize estimates the extra-buffer bytes this Variant owns beyond the
// struct itself, for heap statistics.
func (v *Variant) byteSize() int64 {
	switch v.Kind {
	case KindString:
		if v.HasFlag(FlagStatic) {
			return 0
		}
		return int64(len(v.str))
	case KindBytes:
		if v.HasFlag(FlagStatic) {
			return 0
		}
		return int64(len(v.byts))
	default:
		return 0
	}
}

// IsContainer reports whether Kind is one of array/object/set/tuple.
func (k Kind) IsContainer() bool {
	switch k {
	case KindArray, KindObject, KindSet, KindTuple:
		return true
	default:
		return false
	}
}

// children returns this Variant's direct strong children in registration
// order. Heap.Unref releases them in reverse of this order; Clear and
// Displace unref them in this order.
func (v *Variant) children() []*Variant {
	switch v.Kind {
	case KindArray, KindTuple:
		return v.elems
	case KindObject:
		out := make([]*Variant, len(v.keys))
		for i, k := range v.keys {
			out[i] = v.objMap[k]
		}
		return out
	case KindSet:
		return v.setMembers
	default:
		return nil
	}
}
