package elemops

import (
	"testing"

	"github.com/hvml/hvmlcore/internal/coroutine"
	"github.com/hvml/hvmlcore/internal/msgqueue"
)

// TestObserveDeliversChangeAttachedThenForgetStopsDelivery exercises
// spec.md §8 scenario 2's shape: observing a name delivers a
// change:attached event on bind, and an explicit forget stops further
// delivery for that same name.
func TestObserveDeliversChangeAttachedThenForgetStopsDelivery(t *testing.T) {
	env := newTestEnv(t)

	observeNode := NewNode("observe", AttrSet{"on": "greeting"})
	root := NewNode("div", nil).AddChild(observeNode)
	env.run(t, root)

	env.doc.Add("greeting", env.heap.NewString("hi", false))

	q, ok := env.table.QueueOf(env.self)
	if !ok {
		t.Fatalf("QueueOf(self) not found")
	}
	if q.HoldingCount() != 1 {
		t.Fatalf("HoldingCount after bind = %d, want 1", q.HoldingCount())
	}
	msg, err := q.TakeAwayMessage(msgqueue.KindEvent, 0)
	if err != nil {
		t.Fatalf("TakeAwayMessage: %v", err)
	}
	if msg.Event == nil || msg.Event.String() != "attached" {
		t.Fatalf("event = %v, want attached", msg.Event)
	}

	forgetNode := NewNode("forget", AttrSet{"on": "greeting"})
	root2 := NewNode("div", nil).AddChild(forgetNode)
	env.run(t, root2)

	// Re-bind from scratch (remove then add, so the add is a fresh
	// EventGrow/attached rather than an EventChange/displaced) and
	// confirm forget actually stopped delivery.
	env.doc.Remove("greeting", true)
	env.doc.Add("greeting", env.heap.NewString("bye", false))
	if q.HoldingCount() != 0 {
		t.Fatalf("HoldingCount after forget+rebind = %d, want 0", q.HoldingCount())
	}
}

// TestIterateOperandUndefinedVariableFails exercises the error path of
// resolveOperand: referencing an unbound variable reports NoData rather
// than a nil-pointer panic.
func TestIterateOperandUndefinedVariableFails(t *testing.T) {
	env := newTestEnv(t)
	iter := NewNode("iterate", AttrSet{"on": "$missing", "by": "RANGE: FROM 0"})
	root := NewNode("div", nil).AddChild(iter)

	stack := coroutine.NewStack(env.heap)
	fr := stack.Push(root, nil)
	hooks, _ := env.registry.HooksFor(root)
	ctx, err := hooks.AfterPushed(nil, fr, env.registry.AttrsOf(root))
	if err != nil {
		t.Fatalf("root AfterPushed: %v", err)
	}
	fr.Context = ctx

	co := coroutine.New(stack, inlineRunloop{})
	co.Run()
	if err := co.Advance(env.registry.HooksFor, env.registry.AttrsOf); err == nil {
		t.Fatalf("expected an error resolving an unbound variable")
	}
}
