package variant

import (
	"sync"
)

// TypeStats holds the live count and byte usage for one Kind.
type TypeStats struct {
	Count int64
	Bytes int64
}

// Heap is a per-instance variant heap: bookkeeping for every live Variant
// an instance created, plus the four never-freed singletons. Grounded on
// the reference VM's per-registry stats pattern (vm/registry_gc.go
// RegistryGCStats) but scoped to one instance instead of swept globally.
type Heap struct {
	mu    sync.Mutex
	stats [kindCount]TypeStats

	undefined *Variant
	null      *Variant
	trueV     *Variant
	falseV    *Variant
}

// NewHeap creates a heap with its four singletons.
func NewHeap() *Heap {
	h := &Heap{}
	h.undefined = &Variant{Kind: KindUndefined, flags: uint32(FlagSingleton)}
	h.null = &Variant{Kind: KindNull, flags: uint32(FlagSingleton)}
	h.trueV = &Variant{Kind: KindBoolean, b: true, flags: uint32(FlagSingleton)}
	h.falseV = &Variant{Kind: KindBoolean, b: false, flags: uint32(FlagSingleton)}
	return h
}

func (h *Heap) Undefined() *Variant { return h.undefined }
func (h *Heap) Null() *Variant      { return h.null }
func (h *Heap) True() *Variant      { return h.trueV }
func (h *Heap) False() *Variant     { return h.falseV }

// Stats returns a snapshot of the live count/bytes for k.
func (h *Heap) Stats(k Kind) TypeStats {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stats[k]
}

func (h *Heap) track(v *Variant) {
	h.mu.Lock()
	h.stats[v.Kind].Count++
	h.stats[v.Kind].Bytes += v.byteSize()
	h.mu.Unlock()
}

func (h *Heap) untrack(v *Variant) {
	h.mu.Lock()
	h.stats[v.Kind].Count--
	h.stats[v.Kind].Bytes -= v.byteSize()
	h.mu.Unlock()
}

// adjustBytes is used when a mutation (e.g. a string overwrite in place)
// changes a tracked Variant's byte footprint without changing its count.
func (h *Heap) adjustBytes(k Kind, delta int64) {
	h.mu.Lock()
	h.stats[k].Bytes += delta
	h.mu.Unlock()
}

func (h *Heap) isSingleton(v *Variant) bool {
	return v == h.undefined || v == h.null || v == h.trueV || v == h.falseV
}

func (h *Heap) singletonOf(v *Variant) *Variant {
	switch v.Kind {
	case KindUndefined:
		return h.undefined
	case KindNull:
		return h.null
	case KindBoolean:
		if v.b {
			return h.trueV
		}
		return h.falseV
	}
	return nil
}

// New registers a freshly built Variant with the heap and returns it with
// a refcount of 1.
func (h *Heap) New(v *Variant) *Variant {
	v.refs.Store(1)
	h.track(v)
	return v
}

// Unref decrements v's refcount; at zero the Variant is released: its
// extra-buffer is dropped, its children are unreffed in reverse
// registration order, and the heap statistics are updated. Singletons are
// never released — their refcount may fall to (and sit at) zero.
func (h *Heap) Unref(v *Variant) {
	if v == nil || h.isSingleton(v) {
		if v != nil {
			v.refs.Add(-1)
		}
		return
	}
	if v.refs.Add(-1) > 0 {
		return
	}
	kids := v.children()
	for i := len(kids) - 1; i >= 0; i-- {
		h.Unref(kids[i])
	}
	h.untrack(v)
}
