package varmgr

import (
	"testing"

	"github.com/hvml/hvmlcore/internal/msgqueue"
	"github.com/hvml/hvmlcore/internal/variant"
)

func TestAddUndefinedRemovesBinding(t *testing.T) {
	h := variant.NewHeap()
	mgr := New(h, msgqueue.NewAtomTable())
	defer mgr.Destroy()

	if err := mgr.Add("x", h.NewLongInt(1)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, ok := mgr.Get("x"); !ok {
		t.Fatalf("expected x to be bound")
	}
	if err := mgr.Add("x", h.NewUndefined()); err != nil {
		t.Fatalf("add undefined: %v", err)
	}
	if _, ok := mgr.Get("x"); ok {
		t.Fatalf("expected x to be removed by binding undefined")
	}
}

func TestObserverReceivesAttachedAndDetachedEvents(t *testing.T) {
	h := variant.NewHeap()
	table := msgqueue.NewAtomTable()
	observerHeap := variant.NewHeap()
	atom, err := table.CreateMoveBuffer("h", "a", "observer", observerHeap, 0, 0)
	if err != nil {
		t.Fatalf("create move buffer: %v", err)
	}

	mgr := New(h, table)
	defer mgr.Destroy()

	mgr.AddObserver("clock", EventAttached, "", atom)
	mgr.AddObserver("clock", EventDetached, "", atom)

	if err := mgr.Add("clock", h.NewLongInt(1)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := mgr.Remove("clock", false); err != nil {
		t.Fatalf("remove: %v", err)
	}

	q, _ := table.QueueOf(atom)
	if q.HoldingCount() != 2 {
		t.Fatalf("expected 2 dispatched events (attached+detached), got %d", q.HoldingCount())
	}

	if got := h.Stats(variant.KindString).Count; got != 0 {
		t.Fatalf("expected mgr's own heap to hold no dispatched-event strings, got %d", got)
	}
	if got := observerHeap.Stats(variant.KindString).Count; got != 2 {
		t.Fatalf("expected the observer's heap to own both dispatched-event strings, got %d", got)
	}
}

func TestDuplicateObserverRegistrationIsNoop(t *testing.T) {
	h := variant.NewHeap()
	table := msgqueue.NewAtomTable()
	observerHeap := variant.NewHeap()
	atom, _ := table.CreateMoveBuffer("h", "a", "observer", observerHeap, 0, 0)

	mgr := New(h, table)
	defer mgr.Destroy()

	mgr.AddObserver("clock", EventAttached, "", atom)
	mgr.AddObserver("clock", EventAttached, "", atom)

	if len(mgr.observers) != 1 {
		t.Fatalf("expected duplicate registration to be a no-op, got %d observers", len(mgr.observers))
	}
}
