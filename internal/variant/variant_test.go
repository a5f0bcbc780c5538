package variant

import "testing"

func TestRefcountRoundTrip(t *testing.T) {
	h := NewHeap()
	before := h.Stats(KindString)

	s := h.NewString("hello", false)
	s.Ref()
	h.Unref(s)
	h.Unref(s)

	after := h.Stats(KindString)
	if after != before {
		t.Fatalf("stats did not return to baseline: before=%+v after=%+v", before, after)
	}
}

func TestDisplacePreservesIdentityAndContents(t *testing.T) {
	h := NewHeap()
	dst := h.NewArray(h.NewLongInt(1), h.NewLongInt(2))
	src := h.NewArray(h.NewLongInt(9), h.NewLongInt(8), h.NewLongInt(7))

	if err := dst.Displace(h, src); err != nil {
		t.Fatalf("displace: %v", err)
	}
	if dst.Size() != 3 {
		t.Fatalf("expected size 3 after displace, got %d", dst.Size())
	}
	got, _ := dst.Get(0)
	if got.LongInt() != 9 {
		t.Fatalf("expected first element 9, got %d", got.LongInt())
	}
}

func TestSetDuplicateKeyRejected(t *testing.T) {
	h := NewHeap()
	set, err := h.NewSet([]string{"id"})
	if err != nil {
		t.Fatalf("new set: %v", err)
	}
	obj1 := h.NewObject([]string{"id"}, []*Variant{h.NewString("a", true)})
	obj2 := h.NewObject([]string{"id"}, []*Variant{h.NewString("a", true)})

	if err := set.SetAdd(h, obj1); err != nil {
		t.Fatalf("first add: %v", err)
	}
	if err := set.SetAdd(h, obj2); err == nil {
		t.Fatalf("expected duplicate key error")
	}
}

func TestPreListenerAbortsMutation(t *testing.T) {
	h := NewHeap()
	arr := h.NewArray()
	arr.AddListener(EventGrow, true, func(v *Variant, event EventMask, ctx any, args ...*Variant) bool {
		return false
	}, nil)

	if err := arr.Append(h.NewLongInt(1)); err == nil {
		t.Fatalf("expected append to be aborted by pre-listener")
	}
	if arr.Size() != 0 {
		t.Fatalf("container should be untouched after aborted mutation")
	}
}

func TestPostListenerOrderIsRegistrationOrder(t *testing.T) {
	h := NewHeap()
	arr := h.NewArray()
	var order []int
	arr.AddListener(EventGrow, false, func(v *Variant, event EventMask, ctx any, args ...*Variant) bool {
		order = append(order, ctx.(int))
		return true
	}, 1)
	arr.AddListener(EventGrow, false, func(v *Variant, event EventMask, ctx any, args ...*Variant) bool {
		order = append(order, ctx.(int))
		return true
	}, 2)

	_ = arr.Append(h.NewLongInt(1))
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("expected listeners fired in registration order, got %v", order)
	}
}
