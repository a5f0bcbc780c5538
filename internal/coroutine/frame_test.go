package coroutine

import (
	"testing"

	"github.com/hvml/hvmlcore/internal/variant"
)

// TestSetSymbolTakesOwnershipAndUnrefsPriorOccupant exercises SetSymbol's
// ownership contract: it must not leak a symbol slot's previous occupant
// when overwritten, and destroy must not under- or over-decrement a
// caller-owned reference passed straight through.
func TestSetSymbolTakesOwnershipAndUnrefsPriorOccupant(t *testing.T) {
	h := variant.NewHeap()
	fr := NewFrame(nil, h, nil)

	first := h.NewLongInt(1)
	fr.SetSymbol(SymbolQuestion, first, h)
	if got := first.RefCount(); got != 1 {
		t.Fatalf("first refcount after SetSymbol = %d, want 1", got)
	}

	second := h.NewLongInt(2)
	fr.SetSymbol(SymbolQuestion, second, h)
	if got := first.RefCount(); got != 0 {
		t.Fatalf("first refcount after overwrite = %d, want 0 (unref'd)", got)
	}

	fr.destroy(h)
	if got := second.RefCount(); got != 0 {
		t.Fatalf("second refcount after frame destroy = %d, want 0", got)
	}
}
