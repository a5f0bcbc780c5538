package elemops

import "github.com/hvml/hvmlcore/internal/coroutine"

// bodyOp drives the document-mode state machine: body is the sole element
// allowed to move the stack into IN_BODY (on push) and AFTER_BODY (on
// pop), per spec.md §4.E's mode machine and body.c's role as the
// document's top-level driver. Its children are walked via the shared
// nextChild cursor (fr.ChildCursor), mirroring body.c's ctxt_for_body
// except that the cursor lives on the frame rather than a dedicated
// context struct, since nothing else needs per-body state.
type bodyOp struct{}

func (o *bodyOp) AfterPushed(co *coroutine.Coroutine, fr *coroutine.Frame, attrs AttrSet) (any, error) {
	if err := validateGrammar(attrs, nil); err != nil {
		return nil, err
	}
	if err := co.Stack.Transition(coroutine.ModeInBody); err != nil {
		return nil, err
	}
	return nil, nil
}

func (o *bodyOp) SelectChild(co *coroutine.Coroutine, fr *coroutine.Frame) (any, bool) {
	el, ok := fr.Element.(Element)
	if !ok {
		return nil, false
	}
	return nextChild(fr, el)
}

func (o *bodyOp) Rerun(co *coroutine.Coroutine, fr *coroutine.Frame) (bool, error) {
	return true, nil
}

func (o *bodyOp) OnPopping(co *coroutine.Coroutine, fr *coroutine.Frame) bool {
	_ = co.Stack.Transition(coroutine.ModeAfterBody)
	return true
}
