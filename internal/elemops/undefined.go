package elemops

import "github.com/hvml/hvmlcore/internal/coroutine"

// undefinedGrammar is the one attribute undefined.c recognizes on a
// generic element: an href pulling in externally-referenced content.
var undefinedGrammar = []AttrSpec{{Name: "href"}}

// undefinedCtxt is the frame context for any tag with no dedicated op
// table.
type undefinedCtxt struct {
	href string
}

// undefinedOp is the generic fallback op table for unrecognized element
// tags, grounded on original_source/Source/PurC/interpreter/undefined.c:
// rather than asserting (the original's PC_ASSERT(0) path), an
// unrecognized tag still gets a frame and, if it carries an href, the
// frame remembers it; children are walked exactly as any other element's.
// This is the concrete resolution of the "unrecognized tag" Open
// Question: never a panic, never BadHVMLTag for traversal purposes (tag
// dispatch itself never fails) — BadHVMLTag is reserved for callers that
// explicitly require a recognized tag, which this op table's caller is
// not.
type undefinedOp struct{}

func (o *undefinedOp) AfterPushed(co *coroutine.Coroutine, fr *coroutine.Frame, attrs AttrSet) (any, error) {
	if err := validateGrammar(attrs, undefinedGrammar); err != nil {
		return nil, err
	}
	href, _ := attrFound(attrs, "href")
	return &undefinedCtxt{href: href}, nil
}

func (o *undefinedOp) SelectChild(co *coroutine.Coroutine, fr *coroutine.Frame) (any, bool) {
	el, ok := fr.Element.(Element)
	if !ok {
		return nil, false
	}
	return nextChild(fr, el)
}

func (o *undefinedOp) Rerun(co *coroutine.Coroutine, fr *coroutine.Frame) (bool, error) {
	return true, nil
}

func (o *undefinedOp) OnPopping(co *coroutine.Coroutine, fr *coroutine.Frame) bool {
	return true
}
