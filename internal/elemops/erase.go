package elemops

import (
	"strconv"
	"strings"

	"github.com/hvml/hvmlcore/internal/coroutine"
	"github.com/hvml/hvmlcore/internal/hvmlerr"
	"github.com/hvml/hvmlcore/internal/variant"
	"github.com/hvml/hvmlcore/internal/varmgr"
)

var eraseGrammar = []AttrSpec{{Name: "on"}, {Name: "at"}}

// EraseSink is the subset of domsink.Sink erase needs for its CSS-selector
// form. Declared here rather than imported from domsink so this package
// doesn't depend on a concrete DOM representation, matching the
// Hooks-declared-at-point-of-use pattern used for VarGetter/Hooks
// elsewhere in this module.
type EraseSink interface {
	QuerySelect(selector string) []any
	RemoveAttr(n any, name string) bool
	RemoveNode(n any) bool
}

// eraseOp implements spec.md §4.E's erase element: it dispatches on the
// Kind of "on" to one of four removal strategies, each reporting a count
// of removals bound to ?. Like sort, it has no children and runs entirely
// in after_pushed, mirroring elements/erase.c's single-pass erase_post_hook.
type eraseOp struct {
	heap     *variant.Heap
	resolver *varmgr.Resolver
	sink     EraseSink
}

func (o *eraseOp) AfterPushed(co *coroutine.Coroutine, fr *coroutine.Frame, attrs AttrSet) (any, error) {
	if err := validateGrammar(attrs, eraseGrammar); err != nil {
		return nil, err
	}
	if err := requireAttrs(attrs, "on"); err != nil {
		return nil, err
	}
	at, hasAt := attrFound(attrs, "at")

	on, err := resolveOnOperand(o.heap, o.resolver, fr, attrs["on"])
	if err != nil {
		return nil, err
	}

	var n int
	switch on.Kind {
	case variant.KindString:
		n, err = o.eraseSelector(on.String(), at, hasAt)
	case variant.KindObject:
		n, err = o.eraseObject(on, at, hasAt)
	case variant.KindArray, variant.KindSet:
		n, err = o.eraseContainer(on, at, hasAt)
	case variant.KindNative:
		n, err = o.eraseNative(on, at, hasAt)
	default:
		return nil, hvmlerr.New(hvmlerr.WrongDataType)
	}
	if err != nil {
		return nil, err
	}
	fr.SetSymbol(coroutine.SymbolQuestion, o.heap.NewLongInt(int64(n)), o.heap)
	return nil, nil
}

// eraseSelector implements the on-string form: "at" absent erases whole
// matching elements, "at" of the form "attr.<name>" removes just that
// attribute from each match. Any other "at" value is rejected here. The
// original's prefix test was a raw 5-byte strncmp that could also match
// unrelated strings sharing "attr."'s first five bytes by coincidence;
// here the prefix is checked properly with strings.HasPrefix.
func (o *eraseOp) eraseSelector(selector, at string, hasAt bool) (int, error) {
	if o.sink == nil {
		return 0, hvmlerr.New(hvmlerr.NotIterable)
	}
	matches := o.sink.QuerySelect(selector)
	if !hasAt || at == "" {
		n := 0
		for _, m := range matches {
			if o.sink.RemoveNode(m) {
				n++
			}
		}
		return n, nil
	}
	if !strings.HasPrefix(at, "attr.") {
		return 0, hvmlerr.Newf(hvmlerr.BadHVMLAttrValue, "erase: unsupported at value %q for a selector on", at)
	}
	name := strings.TrimPrefix(at, "attr.")
	n := 0
	for _, m := range matches {
		if o.sink.RemoveAttr(m, name) {
			n++
		}
	}
	return n, nil
}

// eraseObject removes the keys named by "at" (space-separated), or every
// key if "at" is absent.
func (o *eraseOp) eraseObject(on *variant.Variant, at string, hasAt bool) (int, error) {
	keys := on.Keys()
	if !hasAt || at == "" {
		n := len(keys)
		for _, k := range keys {
			_ = on.RemoveKey(o.heap, k)
		}
		return n, nil
	}
	n := 0
	for _, k := range strings.Fields(at) {
		if err := on.RemoveKey(o.heap, k); err == nil {
			n++
		}
	}
	return n, nil
}

// eraseContainer removes the array or set element at the index named by
// "at" (a "[n]" literal), or clears the whole container if "at" is
// absent. Removing a set member by position removes whatever currently
// occupies that position in SetMembers' order, since sets have no other
// notion of index.
func (o *eraseOp) eraseContainer(on *variant.Variant, at string, hasAt bool) (int, error) {
	if !hasAt || at == "" {
		n := on.Size()
		if err := on.Clear(o.heap); err != nil {
			return 0, err
		}
		return n, nil
	}
	idx, err := parseIndexAt(at)
	if err != nil {
		return 0, err
	}
	if on.Kind == variant.KindSet {
		members := on.SetMembers()
		if idx < 0 || idx >= len(members) {
			return 0, nil
		}
		if err := on.SetRemove(o.heap, members[idx]); err != nil {
			return 0, err
		}
		return 1, nil
	}
	if err := on.Remove(o.heap, idx); err != nil {
		return 0, nil
	}
	return 1, nil
}

// eraseNative delegates to the native variant's own eraser op, passing
// "at" as a string key (or undefined if absent) since a native type's
// eraser interprets its own key shape.
func (o *eraseOp) eraseNative(on *variant.Variant, at string, hasAt bool) (int, error) {
	ops := on.NativeOpTable()
	if ops == nil || ops.Eraser == nil {
		return 0, hvmlerr.New(hvmlerr.NotIterable)
	}
	var key *variant.Variant
	if hasAt {
		key = o.heap.NewString(at, false)
	} else {
		key = o.heap.NewUndefined()
	}
	return ops.Eraser(on.NativePtr(), key)
}

// parseIndexAt parses erase's "[n]" index form.
func parseIndexAt(at string) (int, error) {
	if !strings.HasPrefix(at, "[") || !strings.HasSuffix(at, "]") {
		return 0, hvmlerr.Newf(hvmlerr.BadHVMLAttrValue, "erase: bad index %q", at)
	}
	n, err := strconv.Atoi(at[1 : len(at)-1])
	if err != nil {
		return 0, hvmlerr.Newf(hvmlerr.BadHVMLAttrValue, "erase: bad index %q", at)
	}
	return n, nil
}

func (o *eraseOp) SelectChild(co *coroutine.Coroutine, fr *coroutine.Frame) (any, bool) {
	return nil, false
}

func (o *eraseOp) Rerun(co *coroutine.Coroutine, fr *coroutine.Frame) (bool, error) {
	return true, nil
}

func (o *eraseOp) OnPopping(co *coroutine.Coroutine, fr *coroutine.Frame) bool {
	return true
}
