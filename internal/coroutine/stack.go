package coroutine

import (
	"github.com/hvml/hvmlcore/internal/hvmlerr"
	"github.com/hvml/hvmlcore/internal/variant"
)

// DocMode is one state of the document-level mode machine.
type DocMode uint8

const (
	ModeBeforeHVML DocMode = iota
	ModeBeforeHead
	ModeInHead
	ModeAfterHead
	ModeInBody
	ModeAfterBody
	ModeAfterHVML
)

func (m DocMode) String() string {
	switch m {
	case ModeBeforeHVML:
		return "BEFORE_HVML"
	case ModeBeforeHead:
		return "BEFORE_HEAD"
	case ModeInHead:
		return "IN_HEAD"
	case ModeAfterHead:
		return "AFTER_HEAD"
	case ModeInBody:
		return "IN_BODY"
	case ModeAfterBody:
		return "AFTER_BODY"
	case ModeAfterHVML:
		return "AFTER_HVML"
	default:
		return "UNKNOWN_MODE"
	}
}

// legalTransitions lists, for each mode, the modes it may advance to. The
// machine only ever moves forward (no mode is ever re-entered), matching
// the document parse's single top-to-bottom pass.
var legalTransitions = map[DocMode][]DocMode{
	ModeBeforeHVML: {ModeBeforeHead},
	ModeBeforeHead: {ModeInHead, ModeAfterHead},
	ModeInHead:     {ModeAfterHead},
	ModeAfterHead:  {ModeInBody},
	ModeInBody:     {ModeAfterBody},
	ModeAfterBody:  {ModeAfterHVML},
	ModeAfterHVML:  {},
}

// Stack is one coroutine's frame chain plus the document-mode machine,
// the exception slot, and the back-anchor used to unwind to a named
// ancestor frame.
type Stack struct {
	heap *variant.Heap

	top  *Frame
	mode DocMode

	Except     *variant.Variant // set on an uncaught exception
	BackAnchor string           // target anchor id for Unwind; "" means unwind one frame
}

// NewStack creates an empty stack in BEFORE_HVML mode.
func NewStack(h *variant.Heap) *Stack {
	return &Stack{heap: h, mode: ModeBeforeHVML}
}

// Mode returns the current document mode.
func (s *Stack) Mode() DocMode { return s.mode }

// Transition advances the document mode to next, or returns
// InternalFailure if the transition isn't in legalTransitions — illegal
// transitions are a programming error in the element driving the mode
// machine (normally only `body`), never a panic, per the "None abort the
// process" invariant.
func (s *Stack) Transition(next DocMode) error {
	for _, ok := range legalTransitions[s.mode] {
		if ok == next {
			s.mode = next
			return nil
		}
	}
	return hvmlerr.Newf(hvmlerr.InternalFailure, "illegal document mode transition %s -> %s", s.mode, next)
}

// Top returns the innermost active frame, or nil if the stack is empty.
func (s *Stack) Top() *Frame { return s.top }

// Push creates a new frame as a child of the current top, with ctx as its
// initial context, and makes it the new top. Advance pushes with a nil
// context, then runs the element's AfterPushed hook on the new frame and
// stores the hook's returned context on it.
func (s *Stack) Push(element any, ctx any) *Frame {
	fr := NewFrame(s.top, s.heap, element)
	fr.Context = ctx
	s.top = fr
	return fr
}

// Pop destroys the current top frame and restores its parent as the new
// top. The caller must have already run on_popping and obtained its
// finalize-ok before calling Pop; Pop unconditionally tears the frame
// down once called.
func (s *Stack) Pop() {
	if s.top == nil {
		return
	}
	popped := s.top
	s.top = popped.Parent
	popped.destroy(s.heap)
}

// Depth reports the number of active frames.
func (s *Stack) Depth() int {
	n := 0
	for f := s.top; f != nil; f = f.Parent {
		n++
	}
	return n
}

// Unwind pops frames until either BackAnchor is empty and one frame has
// been removed, or a frame's pointed element matches "#<BackAnchor>".
// Each popped frame still goes through the ordinary on_popping/destroy
// path via the supplied onPopping hook, which returns true to consume
// (stop unwinding at) that frame.
func (s *Stack) Unwind(onPopping func(fr *Frame) bool) {
	for s.top != nil {
		fr := s.top
		consumed := onPopping(fr)
		s.Pop()
		if consumed {
			return
		}
		if s.BackAnchor == "" {
			return
		}
		if ider, ok := fr.Element.(anchorIDer); ok && ider.AnchorID() == "#"+s.BackAnchor {
			return
		}
	}
}
