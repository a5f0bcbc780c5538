package timer

import (
	"testing"
	"time"

	"github.com/hvml/hvmlcore/internal/msgqueue"
	"github.com/hvml/hvmlcore/internal/variant"
)

func newTestService(t *testing.T) (*Service, *variant.Heap, msgqueue.Atom, *msgqueue.Queue) {
	h := variant.NewHeap()
	table := msgqueue.NewAtomTable()
	atom, err := table.CreateMoveBuffer("local", "app", "runner", h, 0, 0)
	if err != nil {
		t.Fatalf("CreateMoveBuffer: %v", err)
	}
	set, err := h.NewSet([]string{"id"})
	if err != nil {
		t.Fatalf("NewSet: %v", err)
	}
	svc := New(h, table, atom, set)
	q, _ := table.QueueOf(atom)
	return svc, h, atom, q
}

func newMember(h *variant.Heap, id string, intervalMs int64, active string) *variant.Variant {
	m := h.NewObject(nil, nil)
	_ = m.SetKey(h, "id", h.NewString(id, false))
	_ = m.SetKey(h, "interval", h.NewLongInt(intervalMs))
	_ = m.SetKey(h, "active", h.NewString(active, false))
	return m
}

func TestAddingTimersMemberCreatesOneShotFireWithinInterval(t *testing.T) {
	svc, h, _, q := newTestService(t)
	defer svc.Close()

	member := newMember(h, "clock", 10, "yes")
	if err := svc.set.SetAdd(h, member); err != nil {
		t.Fatalf("SetAdd: %v", err)
	}

	tm, ok := svc.Timer("clock")
	if !ok {
		t.Fatalf("expected timer 'clock' to be created")
	}
	if !tm.IsActive() {
		t.Fatalf("expected timer to be active")
	}

	deadline := time.Now().Add(500 * time.Millisecond)
	for q.HoldingCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if q.HoldingCount() == 0 {
		t.Fatalf("expected an expired message to have been posted")
	}
	msg, err := q.RetrieveMessage(msgqueue.KindTimer, 0)
	if err != nil {
		t.Fatalf("RetrieveMessage: %v", err)
	}
	if msg.TimerID != "clock" {
		t.Fatalf("expected TimerID 'clock', got %q", msg.TimerID)
	}
}

func TestRemovingTimersMemberStopsAndForgetsTimer(t *testing.T) {
	svc, h, _, _ := newTestService(t)
	defer svc.Close()

	member := newMember(h, "clock", 50, "yes")
	_ = svc.set.SetAdd(h, member)

	tm, ok := svc.Timer("clock")
	if !ok {
		t.Fatalf("expected timer to exist before removal")
	}

	if err := svc.set.SetRemove(h, member); err != nil {
		t.Fatalf("SetRemove: %v", err)
	}
	if _, ok := svc.Timer("clock"); ok {
		t.Fatalf("expected timer to be forgotten after set removal")
	}
	if tm.IsActive() {
		t.Fatalf("expected destroyed timer handle to be inactive")
	}
}

func TestSettingActiveNoStopsTimerWithoutRemovingIt(t *testing.T) {
	svc, h, _, _ := newTestService(t)
	defer svc.Close()

	member := newMember(h, "clock", 50, "yes")
	_ = svc.set.SetAdd(h, member)

	updated := newMember(h, "clock", 50, "no")
	if err := svc.set.SetReplace(h, updated); err != nil {
		t.Fatalf("SetReplace: %v", err)
	}

	tm, ok := svc.Timer("clock")
	if !ok {
		t.Fatalf("expected timer handle to still exist")
	}
	if tm.IsActive() {
		t.Fatalf("expected timer to be stopped once active:no is set")
	}
}

func TestFireCoalescingDropsRefiresWhileDeliveryOutstanding(t *testing.T) {
	svc, h, _, q := newTestService(t)
	defer svc.Close()

	member := newMember(h, "clock", 5, "yes")
	_ = svc.set.SetAdd(h, member)

	time.Sleep(120 * time.Millisecond)

	tm, _ := svc.Timer("clock")
	tm.Stop()

	count := q.HoldingCount()
	if count == 0 {
		t.Fatalf("expected at least one expired message")
	}
	if count > 1 {
		t.Fatalf("fire coalescing should hold at most one outstanding expired message per timer, got %d", count)
	}
}
