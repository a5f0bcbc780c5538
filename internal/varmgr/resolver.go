package varmgr

import (
	"github.com/hvml/hvmlcore/internal/coroutine"
	"github.com/hvml/hvmlcore/internal/variant"
)

// Resolver implements the five-level (bottom-up, first-hit-wins) name
// resolution order from spec.md §4.B: frame `!`-temporaries walking up
// the parent chain, each enclosing element's scope VarMgr, the document
// VarMgr, the instance VarMgr. It is a thin struct rather than a free
// function because the document/instance levels are per-coroutine (a
// Resolver is built once per coroutine, pointing at that coroutine's
// document and instance).
type Resolver struct {
	Heap *variant.Heap
	Doc  *VarMgr
	Inst *VarMgr
}

// Lookup resolves name starting from frame, the bottom (innermost) frame
// of the coroutine's stack.
func (r *Resolver) Lookup(frame *coroutine.Frame, name string) (*variant.Variant, bool) {
	for f := frame; f != nil; f = f.Parent {
		if tmp := f.ExclamationVar(); tmp != nil {
			if v, ok := tmp.GetByKey(name); ok {
				return v, true
			}
		}
	}
	for f := frame; f != nil; f = f.Parent {
		if f.Scope == nil {
			continue
		}
		if v, ok := f.Scope.Get(name); ok {
			return v, true
		}
	}
	if r.Doc != nil {
		if v, ok := r.Doc.Get(name); ok {
			return v, true
		}
	}
	if r.Inst != nil {
		if v, ok := r.Inst.Get(name); ok {
			return v, true
		}
	}
	return nil, false
}

// Unbind removes name using the same precedence Lookup uses to find it,
// mirroring pcintr_unbind_named_var: temp vars first, then scope, then
// the document VarMgr (the instance level is never unbound through this
// path in the original, since instance-level globals outlive any single
// document).
func (r *Resolver) Unbind(frame *coroutine.Frame, name string) bool {
	for f := frame; f != nil; f = f.Parent {
		if tmp := f.ExclamationVar(); tmp != nil {
			if _, ok := tmp.GetByKey(name); ok {
				return tmp.RemoveKey(r.Heap, name) == nil
			}
		}
	}
	for f := frame; f != nil; f = f.Parent {
		if f.Scope == nil {
			continue
		}
		if mgr, ok := f.Scope.(*VarMgr); ok {
			if _, found := mgr.Get(name); found {
				return mgr.Remove(name, false) == nil
			}
		}
	}
	if r.Doc != nil {
		if _, found := r.Doc.Get(name); found {
			return r.Doc.Remove(name, false) == nil
		}
	}
	return false
}
