package msgqueue

import (
	"testing"

	"github.com/hvml/hvmlcore/internal/variant"
)

func TestAppendRoutesByTypeAndTimerID(t *testing.T) {
	q := NewQueue()
	q.Append(&Message{Header: Header{Type: TypeRequest}})
	q.Append(&Message{Header: Header{Type: TypeResponse}})
	q.Append(&Message{Header: Header{Type: TypeEvent}})
	q.Append(&Message{Header: Header{Type: TypeEvent}, TimerID: "clock"})

	if q.HoldingCount() != 4 {
		t.Fatalf("expected 4 messages held, got %d", q.HoldingCount())
	}
	if _, err := q.RetrieveMessage(KindTimer, 0); err != nil {
		t.Fatalf("expected a timer-routed message: %v", err)
	}
	if _, err := q.RetrieveMessage(KindEvent, 0); err != nil {
		t.Fatalf("expected a plain event message: %v", err)
	}
}

func TestDestroyDrainsAndReleasesEveryList(t *testing.T) {
	h := variant.NewHeap()
	q := NewQueue()
	q.Append(&Message{Header: Header{Type: TypeRequest}, Data: h.NewString("a", true)})
	q.Append(&Message{Header: Header{Type: TypeEvent}, Data: h.NewString("b", true)})

	discarded := q.Destroy(h)
	if discarded != 2 {
		t.Fatalf("expected 2 discarded messages, got %d", discarded)
	}
	if q.HoldingCount() != 0 {
		t.Fatalf("expected empty queue after destroy")
	}
}

func TestMoveMessageToSingleTargetTransfersHeapOwnership(t *testing.T) {
	table := NewAtomTable()
	srcHeap := variant.NewHeap()
	dstHeap := variant.NewHeap()

	dstAtom, err := table.CreateMoveBuffer("localhost", "app", "runnerB", dstHeap, 0, 0)
	if err != nil {
		t.Fatalf("create move buffer: %v", err)
	}

	payload := srcHeap.NewString("hello", false)
	msg := &Message{Header: Header{Type: TypeRequest}, Data: payload}

	delivered, err := MoveMessage(srcHeap, table, dstAtom, msg)
	if err != nil {
		t.Fatalf("move message: %v", err)
	}
	if delivered != 1 {
		t.Fatalf("expected 1 delivery, got %d", delivered)
	}

	q, _ := table.QueueOf(dstAtom)
	if q.HoldingCount() != 1 {
		t.Fatalf("expected message in destination queue")
	}
	got, _ := q.RetrieveMessage(KindRequest, 0)
	if got.Data.String() != "hello" {
		t.Fatalf("payload lost across move")
	}
}

func TestMoveMessageBroadcastsToSubscribedEndpointsOnly(t *testing.T) {
	table := NewAtomTable()
	srcHeap := variant.NewHeap()

	subA := variant.NewHeap()
	subB := variant.NewHeap()
	quiet := variant.NewHeap()

	atomA, _ := table.CreateMoveBuffer("h", "a", "runnerA", subA, FlagBroadcast, 0)
	atomB, _ := table.CreateMoveBuffer("h", "a", "runnerB", subB, FlagBroadcast, 0)
	_, _ = table.CreateMoveBuffer("h", "a", "runnerC", quiet, 0, 0)

	event := srcHeap.NewString("expired:clock", true)
	msg := &Message{Header: Header{Type: TypeEvent}, Event: event}
	delivered, err := MoveMessage(srcHeap, table, 0, msg)
	if err != nil {
		t.Fatalf("broadcast: %v", err)
	}
	if delivered != 2 {
		t.Fatalf("expected 2 broadcast deliveries, got %d", delivered)
	}

	qa, _ := table.QueueOf(atomA)
	qb, _ := table.QueueOf(atomB)
	if qa.HoldingCount() != 1 || qb.HoldingCount() != 1 {
		t.Fatalf("expected both broadcast subscribers to hold one message each")
	}

	if got := srcHeap.Stats(variant.KindString).Count; got != 0 {
		t.Fatalf("expected srcHeap to hold no live strings once its own message field is released regardless of subscriber count, got %d", got)
	}
	if got := subA.Stats(variant.KindString).Count; got != 1 {
		t.Fatalf("expected subA to own exactly one string after its clone, got %d", got)
	}
	if got := subB.Stats(variant.KindString).Count; got != 1 {
		t.Fatalf("expected subB to own exactly one string after its clone, got %d", got)
	}
}
