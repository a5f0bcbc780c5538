package elemops

import (
	"errors"
	"testing"

	"github.com/hvml/hvmlcore/internal/coroutine"
	"github.com/hvml/hvmlcore/internal/msgqueue"
	"github.com/hvml/hvmlcore/internal/variant"
	"github.com/hvml/hvmlcore/internal/varmgr"
)

// inlineRunloop runs posted work synchronously, enough for tests that
// never actually suspend a coroutine.
type inlineRunloop struct{}

func (inlineRunloop) Post(fn func()) { fn() }

// testEnv bundles the pieces every op table test needs: a heap, a
// document VarMgr, a Resolver over it, an atom table with this
// instance's own atom, and a Registry wired to all of the above.
type testEnv struct {
	heap     *variant.Heap
	doc      *varmgr.VarMgr
	resolver *varmgr.Resolver
	table    *msgqueue.AtomTable
	self     msgqueue.Atom
	registry *Registry
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	h := variant.NewHeap()
	table := msgqueue.NewAtomTable()
	self, err := table.CreateMoveBuffer("local", "test.app", "test.runner", h, 0, 0)
	if err != nil {
		t.Fatalf("CreateMoveBuffer: %v", err)
	}
	doc := varmgr.New(h, table)
	resolver := &varmgr.Resolver{Heap: h, Doc: doc}
	reg := NewRegistry(h, resolver, doc, self, nil)
	return &testEnv{heap: h, doc: doc, resolver: resolver, table: table, self: self, registry: reg}
}

// run drives a coroutine rooted at root to completion, advancing until
// the stack is exhausted.
func (e *testEnv) run(t *testing.T, root Element) *coroutine.Coroutine {
	t.Helper()
	stack := coroutine.NewStack(e.heap)
	fr := stack.Push(root, nil)
	hooks, err := e.registry.HooksFor(root)
	if err != nil {
		t.Fatalf("HooksFor(root): %v", err)
	}
	ctx, err := hooks.AfterPushed(nil, fr, e.registry.AttrsOf(root))
	if err != nil {
		t.Fatalf("root AfterPushed: %v", err)
	}
	fr.Context = ctx

	co := coroutine.New(stack, inlineRunloop{})
	co.Run()
	for {
		err := co.Advance(e.registry.HooksFor, e.registry.AttrsOf)
		if errors.Is(err, coroutine.ErrStackExhausted) {
			return co
		}
		if err != nil {
			t.Fatalf("Advance: %v", err)
		}
	}
}
