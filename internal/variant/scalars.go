package variant

// NewUndefined returns the heap's undefined singleton, refcounted.
func (h *Heap) NewUndefined() *Variant { return h.undefined.Ref() }

// NewNull returns the heap's null singleton, refcounted.
func (h *Heap) NewNull() *Variant { return h.null.Ref() }

// NewBoolean returns the heap's true/false singleton, refcounted.
func (h *Heap) NewBoolean(b bool) *Variant {
	if b {
		return h.trueV.Ref()
	}
	return h.falseV.Ref()
}

// NewNumber creates an IEEE-754 double variant.
func (h *Heap) NewNumber(f float64) *Variant {
	return h.New(&Variant{Kind: KindNumber, f64: f})
}

// NewLongInt creates a signed 64-bit integer variant.
func (h *Heap) NewLongInt(i int64) *Variant {
	return h.New(&Variant{Kind: KindLongInt, i64: i})
}

// NewULongInt creates an unsigned 64-bit integer variant.
func (h *Heap) NewULongInt(u uint64) *Variant {
	return h.New(&Variant{Kind: KindULongInt, u64: u})
}

// NewLongDouble creates an extended-precision float variant. Go has no
// native long double; float64 is used as the closest available type, which
// is sufficient for every operation this module performs on the kind (it
// is never compared bit-for-bit against a C long double).
func (h *Heap) NewLongDouble(f float64) *Variant {
	return h.New(&Variant{Kind: KindLongDouble, f64: f})
}

// NewString creates a string variant. static marks literal storage the
// caller guarantees will outlive the variant, so no extra-buffer byte
// accounting is charged against the heap.
func (h *Heap) NewString(s string, static bool) *Variant {
	v := &Variant{Kind: KindString, str: s}
	if static {
		v.setFlag(FlagStatic)
	}
	return h.New(v)
}

// NewBytes creates a byte-sequence variant. Unless static is set, b is
// copied so the caller may reuse its buffer; a static b is kept as given.
func (h *Heap) NewBytes(b []byte, static bool) *Variant {
	v := &Variant{Kind: KindBytes}
	if static {
		v.byts = b
		v.setFlag(FlagStatic)
	} else {
		v.byts = append([]byte(nil), b...)
	}
	return h.New(v)
}

// NewDynamic creates a dynamic variant from a getter/setter pair. Either
// may be nil.
func (h *Heap) NewDynamic(get, set DynamicFunc) *Variant {
	return h.New(&Variant{Kind: KindDynamic, dynGet: get, dynSet: set})
}

// NewNative creates a native variant wrapping an opaque pointer and its
// operation table.
func (h *Heap) NewNative(ptr any, ops *NativeOps) *Variant {
	return h.New(&Variant{Kind: KindNative, nativePtr: ptr, nativeOps: ops})
}

// Bool returns the boolean payload; only meaningful if Kind == KindBoolean.
func (v *Variant) Bool() bool { return v.b }

// Number returns the float64 payload; meaningful for KindNumber and
// KindLongDouble.
func (v *Variant) Number() float64 { return v.f64 }

// LongInt returns the int64 payload; meaningful for KindLongInt.
func (v *Variant) LongInt() int64 { return v.i64 }

// ULongInt returns the uint64 payload; meaningful for KindULongInt.
func (v *Variant) ULongInt() uint64 { return v.u64 }

// String returns the string payload; meaningful for KindString.
func (v *Variant) String() string { return v.str }

// Bytes returns the byte-sequence payload; meaningful for KindBytes.
func (v *Variant) Bytes() []byte { return v.byts }

// NativePtr and NativeOps expose the native payload.
func (v *Variant) NativePtr() any         { return v.nativePtr }
func (v *Variant) NativeOpTable() *NativeOps { return v.nativeOps }

// Call invokes a dynamic variant's getter (no args) or setter (args[0] is
// the `!`-marked positional per §6, remaining args follow) depending on
// whether set is true.
func (v *Variant) Call(set bool, args []*Variant) (*Variant, error) {
	if set {
		if v.dynSet == nil {
			return nil, nil
		}
		return v.dynSet(args)
	}
	if v.dynGet == nil {
		return nil, nil
	}
	return v.dynGet(args)
}
