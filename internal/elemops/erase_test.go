package elemops

import (
	"testing"

	"github.com/hvml/hvmlcore/internal/coroutine"
	"github.com/hvml/hvmlcore/internal/domsink"
	"github.com/hvml/hvmlcore/internal/msgqueue"
	"github.com/hvml/hvmlcore/internal/variant"
	"github.com/hvml/hvmlcore/internal/varmgr"
)

func newTestEnvWithSink(t *testing.T, sink EraseSink) *testEnv {
	t.Helper()
	h := variant.NewHeap()
	table := msgqueue.NewAtomTable()
	self, err := table.CreateMoveBuffer("local", "test.app", "erase.runner", h, 0, 0)
	if err != nil {
		t.Fatalf("CreateMoveBuffer: %v", err)
	}
	doc := varmgr.New(h, table)
	resolver := &varmgr.Resolver{Heap: h, Doc: doc}
	reg := NewRegistry(h, resolver, doc, self, sink)
	return &testEnv{heap: h, doc: doc, resolver: resolver, table: table, self: self, registry: reg}
}

func runOne(t *testing.T, env *testEnv, root Element) *coroutine.Frame {
	t.Helper()
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
	if err := co.Advance(env.registry.HooksFor, env.registry.AttrsOf); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	return stack.Top()
}

// TestEraseSelectorAttrRemovesClassFromEveryMatch exercises spec.md §8
// scenario 5: erase on a CSS selector with at="attr.class" removes that
// attribute from every matching node and reports the removal count.
func TestEraseSelectorAttrRemovesClassFromEveryMatch(t *testing.T) {
	sink := domsink.NewMemory()
	n1 := sink.AddNode("div", "item")
	n2 := sink.AddNode("div", "item")
	sink.AddNode("div", "other")
	sink.SetAttr(n1, "class", "item")
	sink.SetAttr(n2, "class", "item")

	env := newTestEnvWithSink(t, sink)
	erase := NewNode("erase", AttrSet{"on": "div.item", "at": "attr.class"})
	root := NewNode("div", nil).AddChild(erase)

	eraseFrame := runOne(t, env, root)
	got := eraseFrame.Symbol(coroutine.SymbolQuestion, 0)
	if got == nil || got.LongInt() != 2 {
		t.Fatalf("? = %v, want 2", got)
	}
	if _, ok := sink.Attr(n1, "class"); ok {
		t.Fatalf("n1 still has class attribute after erase")
	}
}

func TestEraseSelectorNoAtRemovesWholeNodes(t *testing.T) {
	sink := domsink.NewMemory()
	sink.AddNode("div", "item")
	sink.AddNode("div", "item")

	env := newTestEnvWithSink(t, sink)
	erase := NewNode("erase", AttrSet{"on": "div.item"})
	root := NewNode("div", nil).AddChild(erase)

	eraseFrame := runOne(t, env, root)
	got := eraseFrame.Symbol(coroutine.SymbolQuestion, 0)
	if got == nil || got.LongInt() != 2 {
		t.Fatalf("? = %v, want 2", got)
	}
	if matches := sink.QuerySelect("div.item"); len(matches) != 0 {
		t.Fatalf("expected no remaining matches, got %d", len(matches))
	}
}

func TestEraseObjectRemovesListedKeys(t *testing.T) {
	env := newTestEnv(t)
	obj := env.heap.NewObject(
		[]string{"a", "b", "c"},
		[]*variant.Variant{env.heap.NewLongInt(1), env.heap.NewLongInt(2), env.heap.NewLongInt(3)},
	)
	env.doc.Add("obj", obj)

	erase := NewNode("erase", AttrSet{"on": "$obj", "at": "a b"})
	root := NewNode("div", nil).AddChild(erase)

	eraseFrame := runOne(t, env, root)
	got := eraseFrame.Symbol(coroutine.SymbolQuestion, 0)
	if got == nil || got.LongInt() != 2 {
		t.Fatalf("? = %v, want 2", got)
	}
	if _, ok := obj.GetByKey("a"); ok {
		t.Fatalf("key a should have been removed")
	}
	if _, ok := obj.GetByKey("c"); !ok {
		t.Fatalf("key c should still be present")
	}
}

func TestEraseArrayIndexRemovesOneElement(t *testing.T) {
	env := newTestEnv(t)
	arr := env.heap.NewArray(env.heap.NewLongInt(10), env.heap.NewLongInt(20), env.heap.NewLongInt(30))
	env.doc.Add("nums", arr)

	erase := NewNode("erase", AttrSet{"on": "$nums", "at": "[1]"})
	root := NewNode("div", nil).AddChild(erase)

	eraseFrame := runOne(t, env, root)
	got := eraseFrame.Symbol(coroutine.SymbolQuestion, 0)
	if got == nil || got.LongInt() != 1 {
		t.Fatalf("? = %v, want 1", got)
	}
	if arr.Size() != 2 {
		t.Fatalf("array size after erase = %d, want 2", arr.Size())
	}
}
