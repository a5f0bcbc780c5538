package elemops

import (
	"github.com/hvml/hvmlcore/internal/coroutine"
	"github.com/hvml/hvmlcore/internal/variant"
	"github.com/hvml/hvmlcore/internal/varmgr"
)

var iterateGrammar = []AttrSpec{
	{Name: "on"}, {Name: "by"}, {Name: "with"}, {Name: "onlyif"},
	{Name: "while"}, {Name: "nosetotail"},
}

// iterCtxt is iterate's frame context: the chosen Executor (case a, the
// "by" rule form) and the loop's own finished flag, since an iterate with
// no children drives its whole loop inline in after_pushed rather than
// across repeated select_child calls (there is no child to suspend
// between, so there's nothing to gain by spreading it across Advance
// calls).
type iterCtxt struct {
	exec       Executor
	nosetotail bool
	finished   bool
}

// iterateOp drives spec.md §4.E's worked-example loop form: `by="RANGE:
// FROM …"` over the container named by "on". The with/onlyif/while guard
// triple (case b) needs a boolean-expression evaluator this module
// doesn't own (expression evaluation is an external-collaborator concern
// per spec.md §1); this op table handles a reduced form of case (b):
// "onlyif" and "with" are resolved only as direct variable references via
// the same resolver iterate uses for "on", "while" is accepted but not
// evaluated, and the guard form runs no loop, so an iterate without "by"
// never visits its children.
type iterateOp struct {
	heap     *variant.Heap
	resolver *varmgr.Resolver
}

func (o *iterateOp) AfterPushed(co *coroutine.Coroutine, fr *coroutine.Frame, attrs AttrSet) (any, error) {
	if err := validateGrammar(attrs, iterateGrammar); err != nil {
		return nil, err
	}
	_, nosetotail := attrFound(attrs, "nosetotail")

	by, hasBy := attrFound(attrs, "by")
	if hasBy {
		return o.beginRuleDriven(fr, attrs, by, nosetotail)
	}
	return o.beginGuardTriple(fr, attrs, nosetotail)
}

func (o *iterateOp) beginRuleDriven(fr *coroutine.Frame, attrs AttrSet, by string, nosetotail bool) (any, error) {
	if err := requireAttrs(attrs, "on"); err != nil {
		return nil, err
	}
	on, err := resolveOperand(o.resolver, fr, attrs["on"])
	if err != nil {
		return nil, err
	}
	exec, err := newExecutor(on, by)
	if err != nil {
		return nil, err
	}
	if err := exec.Begin(); err != nil {
		return nil, err
	}
	ctx := &iterCtxt{exec: exec, nosetotail: nosetotail}
	el, ok := fr.Element.(Element)
	if ok && len(el.Children()) == 0 {
		for exec.Next() {
			fr.SetSymbol(coroutine.SymbolQuestion, exec.Value().Ref(), o.heap)
		}
		ctx.finished = true
	}
	return ctx, nil
}

// beginGuardTriple implements the reduced with/onlyif/while form: "onlyif"
// (a pre-guard, checked once here since there is no loop body to
// re-check it against) must resolve to a truthy variable, or the loop
// runs zero iterations; "with" is set as ? for the caller to act on.
func (o *iterateOp) beginGuardTriple(fr *coroutine.Frame, attrs AttrSet, nosetotail bool) (any, error) {
	if onlyif, ok := attrFound(attrs, "onlyif"); ok {
		v, err := resolveOperand(o.resolver, fr, onlyif)
		if err != nil {
			return nil, err
		}
		if !truthy(v) {
			return &iterCtxt{finished: true, nosetotail: nosetotail}, nil
		}
	}
	if with, ok := attrFound(attrs, "with"); ok {
		v, err := resolveOperand(o.resolver, fr, with)
		if err != nil {
			return nil, err
		}
		fr.SetSymbol(coroutine.SymbolQuestion, v.Ref(), o.heap)
	}
	return &iterCtxt{finished: true, nosetotail: nosetotail}, nil
}

func truthy(v *variant.Variant) bool {
	switch v.Kind {
	case variant.KindUndefined, variant.KindNull:
		return false
	case variant.KindBoolean:
		return v.Bool()
	case variant.KindNumber, variant.KindLongDouble:
		return v.Number() != 0
	case variant.KindLongInt:
		return v.LongInt() != 0
	case variant.KindULongInt:
		return v.ULongInt() != 0
	case variant.KindString:
		return v.String() != ""
	default:
		return v.Size() > 0
	}
}

func (o *iterateOp) SelectChild(co *coroutine.Coroutine, fr *coroutine.Frame) (any, bool) {
	ctx, ok := fr.Context.(*iterCtxt)
	if !ok || ctx.finished || ctx.exec == nil {
		return nil, false
	}
	el, ok := fr.Element.(Element)
	if !ok {
		return nil, false
	}
	children := el.Children()
	if len(children) == 0 {
		return nil, false
	}
	if fr.ChildCursor >= len(children) {
		if !ctx.exec.Next() {
			ctx.finished = true
			return nil, false
		}
		fr.SetSymbol(coroutine.SymbolQuestion, ctx.exec.Value().Ref(), o.heap)
		fr.ChildCursor = 0
	}
	child := children[fr.ChildCursor]
	fr.ChildCursor++
	return child, true
}

func (o *iterateOp) Rerun(co *coroutine.Coroutine, fr *coroutine.Frame) (bool, error) {
	return true, nil
}

func (o *iterateOp) OnPopping(co *coroutine.Coroutine, fr *coroutine.Frame) bool {
	if ctx, ok := fr.Context.(*iterCtxt); ok && ctx.exec != nil {
		ctx.exec.Destroy()
	}
	return true
}
