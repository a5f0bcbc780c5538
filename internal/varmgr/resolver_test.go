package varmgr

import (
	"testing"

	"github.com/hvml/hvmlcore/internal/coroutine"
	"github.com/hvml/hvmlcore/internal/msgqueue"
	"github.com/hvml/hvmlcore/internal/variant"
)

func TestLookupPrefersTempOverScopeOverDocOverInstance(t *testing.T) {
	h := variant.NewHeap()
	table := msgqueue.NewAtomTable()

	instMgr := New(h, table)
	docMgr := New(h, table)
	scopeMgr := New(h, table)
	defer instMgr.Destroy()
	defer docMgr.Destroy()
	defer scopeMgr.Destroy()

	_ = instMgr.Add("x", h.NewLongInt(1))
	_ = docMgr.Add("x", h.NewLongInt(2))
	_ = scopeMgr.Add("x", h.NewLongInt(3))

	frame := coroutine.NewFrame(nil, h, nil)
	frame.Scope = scopeMgr

	r := &Resolver{Heap: h, Doc: docMgr, Inst: instMgr}

	v, ok := r.Lookup(frame, "x")
	if !ok || v.LongInt() != 3 {
		t.Fatalf("expected scope-level binding to win, got ok=%v v=%v", ok, v)
	}

	_ = scopeMgr.Remove("x", true)
	v, ok = r.Lookup(frame, "x")
	if !ok || v.LongInt() != 2 {
		t.Fatalf("expected doc-level binding to win once scope is removed, got ok=%v v=%v", ok, v)
	}

	_ = docMgr.Remove("x", true)
	v, ok = r.Lookup(frame, "x")
	if !ok || v.LongInt() != 1 {
		t.Fatalf("expected instance-level binding to win once doc is removed, got ok=%v v=%v", ok, v)
	}
}

func TestLookupFindsFrameTempVariableFirst(t *testing.T) {
	h := variant.NewHeap()
	table := msgqueue.NewAtomTable()
	docMgr := New(h, table)
	defer docMgr.Destroy()
	_ = docMgr.Add("y", h.NewLongInt(100))

	frame := coroutine.NewFrame(nil, h, nil)
	tmp := frame.ExclamationVar()
	_ = tmp.SetKey(h, "y", h.NewLongInt(7))

	r := &Resolver{Heap: h, Doc: docMgr}
	v, ok := r.Lookup(frame, "y")
	if !ok || v.LongInt() != 7 {
		t.Fatalf("expected temp var to shadow doc var, got ok=%v v=%v", ok, v)
	}
}
