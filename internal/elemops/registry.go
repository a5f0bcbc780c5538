package elemops

import (
	"github.com/hvml/hvmlcore/internal/coroutine"
	"github.com/hvml/hvmlcore/internal/hvmlerr"
	"github.com/hvml/hvmlcore/internal/msgqueue"
	"github.com/hvml/hvmlcore/internal/variant"
	"github.com/hvml/hvmlcore/internal/varmgr"
)

// Registry is one instance's tag -> op table lookup, plus the shared
// state (heap, resolver, document var manager, DOM sink, this instance's
// own atom) every op table needs. One Registry exists per instance and is
// handed to coroutine.Advance/Resume as its HooksFor/AttrsOf pair.
type Registry struct {
	heap     *variant.Heap
	resolver *varmgr.Resolver
	doc      *varmgr.VarMgr
	self     msgqueue.Atom

	tables   map[string]OpTable
	fallback OpTable
}

// NewRegistry builds a Registry with the standard tag set (iterate, sort,
// erase, body, observe, forget) wired in, plus the generic fallback for
// any other tag.
func NewRegistry(h *variant.Heap, r *varmgr.Resolver, doc *varmgr.VarMgr, self msgqueue.Atom, sink EraseSink) *Registry {
	reg := &Registry{heap: h, resolver: r, doc: doc, self: self}
	reg.tables = map[string]OpTable{
		"iterate": &iterateOp{heap: h, resolver: r},
		"sort":    &sortOp{heap: h, resolver: r},
		"erase":   &eraseOp{heap: h, resolver: r, sink: sink},
		"body":    &bodyOp{},
		"observe": &observeOp{doc: doc, self: self},
		"forget":  &forgetOp{doc: doc, self: self},
	}
	reg.fallback = &undefinedOp{}
	return reg
}

// HooksFor resolves element's op table by tag, falling back to the
// generic undefined table for any tag not in the standard set. Matches
// coroutine.HooksFor's signature so it can be passed directly to
// Advance/Resume.
func (reg *Registry) HooksFor(element any) (coroutine.Hooks, error) {
	el, ok := element.(Element)
	if !ok {
		return nil, hvmlerr.New(hvmlerr.WrongDataType)
	}
	if t, ok := reg.tables[el.Tag()]; ok {
		return t, nil
	}
	return reg.fallback, nil
}

// AttrsOf extracts element's raw attribute map. Matches
// coroutine.AttrsOf's signature.
func (reg *Registry) AttrsOf(element any) map[string]string {
	el, ok := element.(Element)
	if !ok {
		return nil
	}
	return el.Attrs()
}
