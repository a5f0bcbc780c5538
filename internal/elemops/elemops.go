// Package elemops implements the per-HVML-tag operation tables the
// coroutine dispatch loop drives: iterate, sort, erase (spec.md's worked
// examples), body (the document-mode driver), observe/forget (the
// document-visible face of the variable manager's observer API), and a
// generic fallback for any tag with no dedicated table.
//
// Grounded on the retrieved PurC interpreter sources
// (elements/{iterate,sort,erase}.c, interpreter/{body,var-mgr,undefined}.c):
// each op table there is exactly the same four-hook shape coroutine.Hooks
// declares, built around an attribute grammar table and a per-tag context
// struct created in after_pushed and torn down on pop.
package elemops

import (
	"strings"

	"github.com/hvml/hvmlcore/internal/coroutine"
	"github.com/hvml/hvmlcore/internal/hvmlerr"
	"github.com/hvml/hvmlcore/internal/variant"
	"github.com/hvml/hvmlcore/internal/varmgr"
)

// OpTable is elemops's name for the dispatch loop's four-hook interface.
// Declared as an alias rather than a redeclaration: coroutine.Hooks is the
// canonical definition (kept there to avoid an elemops<->coroutine import
// cycle, since Advance/Resume must call through it without importing the
// package that implements it); every op table below satisfies it.
type OpTable = coroutine.Hooks

// AttrSet is the raw string attribute map coroutine.AttrsOf extracts from
// an element, exactly as coroutine.Hooks.AfterPushed receives it.
type AttrSet = map[string]string

// Element is the minimal vdom node contract elemops needs: a tag name to
// pick an op table, a flat attribute map, and a children list to drive
// select_child. The lexer/parser and DOM library that build the real tree
// are external collaborators per spec.md §1; Node in vdom.go is the
// concrete, in-memory implementation this module tests against.
type Element interface {
	Tag() string
	Attrs() AttrSet
	Children() []Element
}

// AttrSpec is one entry of an element's attribute grammar: a recognized
// attribute name, and whether its value is a whitespace-separated list
// rather than a single token.
type AttrSpec struct {
	Name   string
	Repeat bool
}

// attrFound reports whether name is present in attrs.
func attrFound(attrs AttrSet, name string) (string, bool) {
	v, ok := attrs[name]
	return v, ok
}

// attrFoundVal resolves spec against attrs: a single-element slice for a
// plain attribute, or the whitespace-split tokens for a Repeat attribute.
// Returns nil if the attribute is absent.
func attrFoundVal(attrs AttrSet, spec AttrSpec) []string {
	v, ok := attrs[spec.Name]
	if !ok {
		return nil
	}
	if spec.Repeat {
		return strings.Fields(v)
	}
	return []string{v}
}

// validateGrammar rejects any attrs key not named in grammar, returning
// BadHVMLAttrName — the common contract §4.F's attribute grammar tables
// share across every op table below.
func validateGrammar(attrs AttrSet, grammar []AttrSpec) error {
	allowed := make(map[string]bool, len(grammar))
	for _, spec := range grammar {
		allowed[spec.Name] = true
	}
	for name := range attrs {
		if !allowed[name] {
			return hvmlerr.Newf(hvmlerr.BadHVMLAttrName, "unrecognized attribute %q", name)
		}
	}
	return nil
}

// requireAttrs returns ArgumentMissed if any of names is absent from
// attrs.
func requireAttrs(attrs AttrSet, names ...string) error {
	for _, n := range names {
		if _, ok := attrs[n]; !ok {
			return hvmlerr.Newf(hvmlerr.ArgumentMissed, "missing required attribute %q", n)
		}
	}
	return nil
}

// resolveOperand resolves raw as a variable reference (stripping a leading
// "$" or "!") through r, starting the name-resolution walk at fr. Used for
// operands ("on" of iterate/sort, "on" of object/array/set erase) whose
// value is itself a variant rather than a literal token — the evaluation
// of the expression that produced that variant happens upstream, in the
// external expression evaluator spec.md §1 excludes from this module.
func resolveOperand(r *varmgr.Resolver, fr *coroutine.Frame, raw string) (*variant.Variant, error) {
	name := strings.TrimLeft(raw, "$!")
	v, ok := r.Lookup(fr, name)
	if !ok {
		return nil, hvmlerr.Newf(hvmlerr.NoData, "undefined variable %q", name)
	}
	return v, nil
}

// resolveOnOperand resolves the common "on" attribute: a "$"/"!"-prefixed
// token is a variable reference resolved via resolveOperand; anything else
// is taken as a literal string value (erase's CSS-selector form, which
// spec.md §4.E describes as a plain string, not a variable reference).
func resolveOnOperand(h *variant.Heap, r *varmgr.Resolver, fr *coroutine.Frame, raw string) (*variant.Variant, error) {
	if strings.HasPrefix(raw, "$") || strings.HasPrefix(raw, "!") {
		return resolveOperand(r, fr, raw)
	}
	return h.NewString(raw, false), nil
}

// elementsOf returns v's children as a slice regardless of container kind
// (array, tuple, or set), for operations (sort, erase) that accept either.
func elementsOf(v *variant.Variant) []*variant.Variant {
	switch v.Kind {
	case variant.KindArray, variant.KindTuple:
		n := v.Size()
		out := make([]*variant.Variant, n)
		for i := 0; i < n; i++ {
			out[i], _ = v.Get(i)
		}
		return out
	case variant.KindSet:
		return v.SetMembers()
	default:
		return nil
	}
}

// nextChild is the generic select_child cursor shared by op tables (body,
// the generic fallback) that simply walk an element's children in
// document order with no special iteration semantics.
func nextChild(fr *coroutine.Frame, el Element) (any, bool) {
	children := el.Children()
	if fr.ChildCursor >= len(children) {
		return nil, false
	}
	child := children[fr.ChildCursor]
	fr.ChildCursor++
	return child, true
}
