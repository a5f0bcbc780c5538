// Package coroutine implements the cooperative, stack-based executor: one
// Frame per active element, a Stack carrying the frame chain plus
// document-mode state, and a Coroutine wrapping a Stack with the
// scheduling state the owning instance's runloop drives.
//
// Grounded on the reference VM's ProcessObject (vm/concurrency.go) for the
// state/done-channel shape of a schedulable unit of work, and on
// CancellationContextObject (vm/cancellation.go) for the cancel-list
// teardown discipline — a list of (ctxt, fn) pairs invoked in reverse,
// rather than a single cancel function, since a frame may register many
// independent blocking waits over its lifetime.
package coroutine

import "github.com/hvml/hvmlcore/internal/variant"

// Symbol identifies one of a frame's seven symbol variables.
type Symbol byte

const (
	SymbolQuestion    Symbol = '?'
	SymbolLessThan    Symbol = '<'
	SymbolAtSign      Symbol = '@'
	SymbolExclamation Symbol = '!'
	SymbolColon       Symbol = ':'
	SymbolEqual       Symbol = '='
	SymbolPercent     Symbol = '%'
)

var symbolOrder = [...]Symbol{
	SymbolQuestion, SymbolLessThan, SymbolAtSign, SymbolExclamation,
	SymbolColon, SymbolEqual, SymbolPercent,
}

func symbolIndex(s Symbol) int {
	for i, sym := range symbolOrder {
		if sym == s {
			return i
		}
	}
	return -1
}

// VarGetter is satisfied by anything a frame can resolve scope-level
// names against — in practice a *varmgr.VarMgr, assigned by whatever
// layer constructs frames. Declared here (rather than imported from
// varmgr) so this package never depends on varmgr, keeping the
// dependency edge one-directional: varmgr depends on coroutine for
// Resolver.Lookup's frame-walking, not the other way around.
type VarGetter interface {
	Get(name string) (*variant.Variant, bool)
}

// Destroyer is implemented by a frame's element-chosen context object
// when it owns resources that must be released on frame teardown.
type Destroyer interface {
	Destroy()
}

// Frame is one activation record: the element it points to, that
// element's op-table-chosen context, its seven symbol variables, its
// scope variable map, an EDOM target, the silently flag, and the cursor
// into its currently-iterated children.
type Frame struct {
	Element any // opaque vdom element reference; elemops/instance interpret it
	Context any // element op table's context, destroyed via Destroyer if implemented

	symbols [7]*variant.Variant

	Scope    VarGetter // this element's scope VarMgr, nil if none declared
	EdomNode any       // current rendering target, opaque to this package
	Silently bool

	ChildCursor int // index of the next child select_child should visit

	Parent *Frame
}

// NewFrame creates a frame as parent's child (parent may be nil for the
// bottom frame). The exclamation ('!') symbol is seeded with an empty object so
// `$name!` bindings have somewhere to land immediately.
func NewFrame(parent *Frame, h *variant.Heap, element any) *Frame {
	fr := &Frame{Element: element, Parent: parent}
	fr.symbols[symbolIndex(SymbolExclamation)] = h.NewObject(nil, nil)
	return fr
}

// SetSymbol stores v as this frame's symbol variable sym, taking
// ownership of the reference: the caller must hand over a ref it owns
// (freshly created, or explicitly Ref'd if borrowed), since destroy
// unrefs every symbol slot on frame teardown. Any previous occupant of
// sym is unref'd here rather than leaked.
func (fr *Frame) SetSymbol(sym Symbol, v *variant.Variant, h *variant.Heap) {
	idx := symbolIndex(sym)
	if idx < 0 {
		return
	}
	h.Unref(fr.symbols[idx])
	fr.symbols[idx] = v
}

// Symbol resolves symbol sym after climbing generation parent frames
// (generation 0 is this frame itself), mirroring
// pcintr_get_symbolized_var's frame-parent walk.
func (fr *Frame) Symbol(sym Symbol, generation int) *variant.Variant {
	f := fr
	for i := 0; i < generation && f != nil; i++ {
		f = f.Parent
	}
	if f == nil {
		return nil
	}
	idx := symbolIndex(sym)
	if idx < 0 {
		return nil
	}
	return f.symbols[idx]
}

// ExclamationVar returns this frame's `!` temporary-variable object,
// the object-typed map temp-variable resolution walks per element.
func (fr *Frame) ExclamationVar() *variant.Variant {
	return fr.symbols[symbolIndex(SymbolExclamation)]
}

// AnchorID reports the frame's `id` attribute as recorded at push time,
// used by anchor-qualified symbol lookup. Elements with no id return "".
type anchorIDer interface {
	AnchorID() string
}

// AnchorSymbol walks from fr up the parent chain looking for a frame
// whose pointed element reports an id of "#<anchor>", mirroring
// pcintr_find_anchor_symbolized_var, and resolves sym (generation 0) at
// that frame. Returns nil if no frame matches.
func (fr *Frame) AnchorSymbol(anchor string, sym Symbol) *variant.Variant {
	for f := fr; f != nil; f = f.Parent {
		ider, ok := f.Element.(anchorIDer)
		if !ok {
			continue
		}
		if id := ider.AnchorID(); id == "#"+anchor {
			return f.Symbol(sym, 0)
		}
	}
	return nil
}

// destroy runs the context's Destroy hook, if any, and drops all symbol
// references into h. Called by Stack.Pop after on_popping consumes the
// frame.
func (fr *Frame) destroy(h *variant.Heap) {
	if d, ok := fr.Context.(Destroyer); ok {
		d.Destroy()
	}
	for _, v := range fr.symbols {
		h.Unref(v)
	}
}
