package coroutine

import (
	"testing"

	"github.com/hvml/hvmlcore/internal/variant"
)

type stubElement struct {
	name     string
	children []any
}

type stubHooks struct{ popOK bool }

func (h stubHooks) AfterPushed(co *Coroutine, fr *Frame, attrs map[string]string) (any, error) {
	return nil, nil
}

func (h stubHooks) SelectChild(co *Coroutine, fr *Frame) (any, bool) {
	el := fr.Element.(*stubElement)
	if fr.ChildCursor >= len(el.children) {
		return nil, false
	}
	child := el.children[fr.ChildCursor]
	fr.ChildCursor++
	return child, true
}

func (h stubHooks) Rerun(co *Coroutine, fr *Frame) (bool, error) { return true, nil }
func (h stubHooks) OnPopping(co *Coroutine, fr *Frame) bool      { return h.popOK }

type noopRunloop struct{}

func (noopRunloop) Post(fn func()) { fn() }

func TestAdvanceWalksChildrenThenExhausts(t *testing.T) {
	h := variant.NewHeap()
	leaf := &stubElement{name: "leaf"}
	root := &stubElement{name: "root", children: []any{leaf}}

	stack := NewStack(h)
	stack.Push(root, nil)

	co := New(stack, noopRunloop{})
	hooksFor := func(element any) (Hooks, error) { return stubHooks{popOK: true}, nil }
	attrsOf := func(element any) map[string]string { return nil }

	if err := co.Advance(hooksFor, attrsOf); err != nil {
		t.Fatalf("advance into leaf: %v", err)
	}
	if stack.Depth() != 2 {
		t.Fatalf("expected depth 2 after pushing leaf, got %d", stack.Depth())
	}

	if err := co.Advance(hooksFor, attrsOf); err != nil {
		t.Fatalf("advance past leaf's exhausted children: %v", err)
	}
	if stack.Depth() != 1 {
		t.Fatalf("expected leaf popped, depth 1, got %d", stack.Depth())
	}

	err := co.Advance(hooksFor, attrsOf)
	if err != ErrStackExhausted {
		t.Fatalf("expected ErrStackExhausted popping root, got %v", err)
	}
}

func TestOnPoppingDeclineSuspendsCoroutine(t *testing.T) {
	h := variant.NewHeap()
	root := &stubElement{name: "root"}
	stack := NewStack(h)
	stack.Push(root, nil)

	co := New(stack, noopRunloop{})
	hooksFor := func(element any) (Hooks, error) { return stubHooks{popOK: false}, nil }
	attrsOf := func(element any) map[string]string { return nil }

	if err := co.Advance(hooksFor, attrsOf); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if co.State() != StateWait {
		t.Fatalf("expected coroutine suspended in WAIT, got %s", co.State())
	}
	if stack.Depth() != 1 {
		t.Fatalf("frame declining on_popping must stay on the stack")
	}
}

func TestExitRunsCancelRecordsInReverseOrder(t *testing.T) {
	h := variant.NewHeap()
	stack := NewStack(h)
	co := New(stack, noopRunloop{})

	var order []int
	co.RegisterCancel(CancelRecord{Fn: func() { order = append(order, 1) }})
	co.RegisterCancel(CancelRecord{Fn: func() { order = append(order, 2) }})

	co.Exit()

	if len(order) != 2 || order[0] != 2 || order[1] != 1 {
		t.Fatalf("expected cancel records to run in reverse order, got %v", order)
	}
	select {
	case <-co.Done():
	default:
		t.Fatalf("expected Done() closed after Exit")
	}
}
