package elemops

import (
	"testing"

	"github.com/hvml/hvmlcore/internal/coroutine"
)

// TestIterateRangeOverArrayNoChildren exercises spec.md §8 scenario 3: an
// iterate with no body runs its whole rule-driven loop inline, setting ?
// to each source element in turn, and exits cleanly once RANGE's walk is
// done.
func TestIterateRangeOverArrayNoChildren(t *testing.T) {
	env := newTestEnv(t)
	arr := env.heap.NewArray(
		env.heap.NewLongInt(3),
		env.heap.NewLongInt(1),
		env.heap.NewLongInt(2),
	)
	env.doc.Add("nums", arr)

	iter := NewNode("iterate", AttrSet{"on": "$nums", "by": "RANGE: FROM 0"})
	root := NewNode("div", nil).AddChild(iter)

	stack := coroutine.NewStack(env.heap)
	fr := stack.Push(root, nil)
	hooks, err := env.registry.HooksFor(root)
	if err != nil {
		t.Fatalf("HooksFor(root): %v", err)
	}
	ctx, err := hooks.AfterPushed(nil, fr, env.registry.AttrsOf(root))
	if err != nil {
		t.Fatalf("root AfterPushed: %v", err)
	}
	fr.Context = ctx

	co := coroutine.New(stack, inlineRunloop{})
	co.Run()

	// First Advance selects and pushes the iterate child; its
	// after_pushed runs the whole loop inline since it has no children,
	// leaving ? set to the last value visited (2).
	if err := co.Advance(env.registry.HooksFor, env.registry.AttrsOf); err != nil {
		t.Fatalf("Advance (push iterate): %v", err)
	}
	iterFrame := stack.Top()
	got := iterFrame.Symbol(coroutine.SymbolQuestion, 0)
	if got == nil || got.LongInt() != 2 {
		t.Fatalf("? after inline loop = %v, want 2", got)
	}

	// Drain the rest of the stack.
	for {
		err := co.Advance(env.registry.HooksFor, env.registry.AttrsOf)
		if err == coroutine.ErrStackExhausted {
			break
		}
		if err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
}

// TestIterateRangeOverArrayWithChildren drives one child per iteration
// via select_child, setting ? before each child visit.
func TestIterateRangeOverArrayWithChildren(t *testing.T) {
	env := newTestEnv(t)
	arr := env.heap.NewArray(
		env.heap.NewLongInt(10),
		env.heap.NewLongInt(20),
	)
	env.doc.Add("nums", arr)

	body := NewNode("span", nil)
	iter := NewNode("iterate", AttrSet{"on": "$nums", "by": "RANGE: FROM 0"}).AddChild(body)
	root := NewNode("div", nil).AddChild(iter)

	env.run(t, root)
}

func TestIterateGuardTripleOnlyifFalseSkipsBody(t *testing.T) {
	env := newTestEnv(t)
	env.doc.Add("flag", env.heap.NewBoolean(false))

	child := NewNode("span", nil)
	iter := NewNode("iterate", AttrSet{"onlyif": "$flag"}).AddChild(child)
	root := NewNode("div", nil).AddChild(iter)

	env.run(t, root)
}
