package elemops

import (
	"sort"
	"strings"

	"github.com/hvml/hvmlcore/internal/coroutine"
	"github.com/hvml/hvmlcore/internal/hvmlerr"
	"github.com/hvml/hvmlcore/internal/variant"
	"github.com/hvml/hvmlcore/internal/varmgr"
)

var sortGrammar = []AttrSpec{
	{Name: "on"}, {Name: "against", Repeat: true},
	{Name: "desc"}, {Name: "caseinsensitively"},
}

// sortOp implements spec.md §4.E's sort element: a stable multi-key
// comparator over an array or set, with an optional "against" key list
// for tie-breaking between nested object members. It has no children and
// no loop: the sorted result is produced entirely in after_pushed and
// bound to ?, mirroring elements/sort.c's single-pass sort_post_hook.
type sortOp struct {
	heap     *variant.Heap
	resolver *varmgr.Resolver
}

func (o *sortOp) AfterPushed(co *coroutine.Coroutine, fr *coroutine.Frame, attrs AttrSet) (any, error) {
	if err := validateGrammar(attrs, sortGrammar); err != nil {
		return nil, err
	}
	if err := requireAttrs(attrs, "on"); err != nil {
		return nil, err
	}
	on, err := resolveOperand(o.resolver, fr, attrs["on"])
	if err != nil {
		return nil, err
	}
	members := elementsOf(on)
	if members == nil {
		return nil, hvmlerr.New(hvmlerr.NotIterable)
	}

	against := strings.Fields(attrs["against"])
	_, desc := attrFound(attrs, "desc")
	_, ci := attrFound(attrs, "caseinsensitively")

	sorted := append([]*variant.Variant(nil), members...)
	sort.SliceStable(sorted, func(i, j int) bool {
		c := compareMembers(sorted[i], sorted[j], against, ci)
		if desc {
			return c > 0
		}
		return c < 0
	})

	result := o.heap.NewArray(sorted...)
	fr.SetSymbol(coroutine.SymbolQuestion, result, o.heap)
	return nil, nil
}

func compareMembers(a, b *variant.Variant, against []string, ci bool) int {
	if len(against) == 0 {
		return compareScalars(a, b, ci)
	}
	for _, key := range against {
		av, _ := a.GetByKey(key)
		bv, _ := b.GetByKey(key)
		if c := compareScalars(av, bv, ci); c != 0 {
			return c
		}
	}
	return 0
}

func compareScalars(a, b *variant.Variant, ci bool) int {
	if a == nil || b == nil {
		switch {
		case a == b:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	if af, aok := numeric(a); aok {
		if bf, bok := numeric(b); bok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			default:
				return 0
			}
		}
	}
	as, bs := stringify(a), stringify(b)
	if ci {
		as, bs = strings.ToLower(as), strings.ToLower(bs)
	}
	return strings.Compare(as, bs)
}

func numeric(v *variant.Variant) (float64, bool) {
	switch v.Kind {
	case variant.KindNumber, variant.KindLongDouble:
		return v.Number(), true
	case variant.KindLongInt:
		return float64(v.LongInt()), true
	case variant.KindULongInt:
		return float64(v.ULongInt()), true
	default:
		return 0, false
	}
}

func stringify(v *variant.Variant) string {
	switch v.Kind {
	case variant.KindString:
		return v.String()
	case variant.KindBoolean:
		if v.Bool() {
			return "true"
		}
		return "false"
	case variant.KindUndefined:
		return ""
	case variant.KindNull:
		return "null"
	default:
		return v.Kind.String()
	}
}

func (o *sortOp) SelectChild(co *coroutine.Coroutine, fr *coroutine.Frame) (any, bool) {
	return nil, false
}

func (o *sortOp) Rerun(co *coroutine.Coroutine, fr *coroutine.Frame) (bool, error) {
	return true, nil
}

func (o *sortOp) OnPopping(co *coroutine.Coroutine, fr *coroutine.Frame) bool {
	return true
}
