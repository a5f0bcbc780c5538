package variant

import (
	deadlock "github.com/sasha-s/go-deadlock"
)

// globalMoveHeap is the single process-wide hand-off arena used to
// transfer a variant tree between two instance heaps living on different
// OS threads. transferMu is the one lock that serializes every in/out
// transition; per the locking discipline, it is never held while any
// instance's queue lock is taken.
var (
	globalMoveHeap = NewHeap()
	transferMu     deadlock.Mutex
)

// GlobalMoveHeap returns the process-wide move heap singleton.
func GlobalMoveHeap() *Heap { return globalMoveHeap }

// MoveInto transfers v from src into the move heap and returns the move
// heap's resident value. The mutex is held only for this single top-level
// transfer.
func MoveInto(src *Heap, v *Variant) *Variant {
	transferMu.Lock()
	defer transferMu.Unlock()
	return transfer(src, globalMoveHeap, v)
}

// MoveOutOf transfers v from the move heap into dst and returns dst's
// resident value. The mirror of MoveInto.
func MoveOutOf(v *Variant, dst *Heap) *Variant {
	transferMu.Lock()
	defer transferMu.Unlock()
	return transfer(globalMoveHeap, dst, v)
}

// CopyInto clones v into dst without disturbing v's standing in src: src's
// refcount for v is left exactly as it was, since v's owner there keeps
// its own claim on v independently of the copy. Used for broadcast
// fan-out, where one message field must reach N independently-owned
// recipients and the source message still owns its own reference once
// every recipient has its copy.
func CopyInto(src, dst *Heap, v *Variant) *Variant {
	transferMu.Lock()
	defer transferMu.Unlock()
	if src.isSingleton(v) {
		return dst.singletonOf(v).Ref()
	}
	return deepClone(dst, v)
}

// transfer implements the move protocol described in §4.A: singletons
// swap for the destination's own singleton; a uniquely-referenced value
// moves in place (its stats relocate, its mutable descendants recurse);
// anything else is deep-cloned into dst, leaving the source untouched.
func transfer(src, dst *Heap, v *Variant) *Variant {
	if src.isSingleton(v) {
		v.refs.Add(-1)
		target := dst.singletonOf(v)
		target.refs.Add(1)
		return target
	}

	if v.refs.Load() == 1 {
		return moveInPlace(src, dst, v)
	}
	return deepClone(dst, v)
}

func moveInPlace(src, dst *Heap, v *Variant) *Variant {
	src.untrack(v)

	switch v.Kind {
	case KindArray, KindTuple:
		for i, kid := range v.elems {
			v.elems[i] = transferDescendant(src, dst, kid)
		}
	case KindObject:
		for _, k := range v.keys {
			v.objMap[k] = transferDescendant(src, dst, v.objMap[k])
		}
	case KindSet:
		for i, m := range v.setMembers {
			v.setMembers[i] = transferDescendant(src, dst, m)
		}
	}

	dst.track(v)
	return v
}

// transferDescendant moves a child that is itself uniquely referenced (so
// moveInPlace can keep recursing) or clones it when some other reference
// still holds it, since moving it in place would corrupt that reference's
// view. It never re-enters src.isSingleton handling on children because
// singleton children swap for the destination's own singleton, same as a
// top-level value would.
func transferDescendant(src, dst *Heap, kid *Variant) *Variant {
	if src.isSingleton(kid) {
		kid.refs.Add(-1)
		target := dst.singletonOf(kid)
		target.refs.Add(1)
		return target
	}
	if kid.refs.Load() == 1 {
		return moveInPlace(src, dst, kid)
	}
	cloned := deepClone(dst, kid)
	src.Unref(kid)
	return cloned
}

func deepClone(dst *Heap, v *Variant) *Variant {
	if dst.isSingleton(v) {
		return dst.singletonOf(v).Ref()
	}
	c := &Variant{Kind: v.Kind, flags: v.flags &^ uint32(FlagSingleton)}
	switch v.Kind {
	case KindBoolean:
		c.b = v.b
	case KindNumber, KindLongDouble:
		c.f64 = v.f64
	case KindLongInt:
		c.i64 = v.i64
	case KindULongInt:
		c.u64 = v.u64
	case KindString:
		c.str = v.str
	case KindBytes:
		c.byts = append([]byte(nil), v.byts...)
	case KindDynamic:
		c.dynGet, c.dynSet = v.dynGet, v.dynSet
	case KindNative:
		c.nativePtr, c.nativeOps = v.nativePtr, v.nativeOps
	case KindArray, KindTuple:
		for _, kid := range v.elems {
			c.elems = append(c.elems, deepClone(dst, kid))
		}
	case KindObject:
		c.objMap = make(map[string]*Variant, len(v.keys))
		for _, k := range v.keys {
			c.keys = append(c.keys, k)
			c.objMap[k] = deepClone(dst, v.objMap[k])
		}
	case KindSet:
		c.setKeyFields = append([]string(nil), v.setKeyFields...)
		c.setIndex = make(map[string]int, len(v.setMembers))
		for i, m := range v.setMembers {
			cloned := deepClone(dst, m)
			c.setMembers = append(c.setMembers, cloned)
			c.setIndex[c.setKeyOf(cloned)] = i
		}
	}
	return dst.New(c)
}
