package msgqueue

import (
	"github.com/google/uuid"

	"github.com/hvml/hvmlcore/internal/hvmlerr"
	"github.com/hvml/hvmlcore/internal/variant"
)

// NewRequestMessage builds a REQUEST message with a fresh request-id.
// google/uuid is used here specifically because request-ids must be
// unique across the whole process (potentially across machines, once the
// renderer transport is in play), unlike atoms, which only need to be
// unique within one AtomTable and so use a monotonic counter.
func NewRequestMessage(operation, elementSelector, property, data *variant.Variant) *Message {
	return &Message{
		Header:          Header{Type: TypeRequest},
		Operation:       operation,
		ElementSelector: elementSelector,
		Property:        property,
		Data:            data,
		RequestID:       uuid.NewString(),
	}
}

// MoveMessage delivers msg from srcHeap to the endpoint(s) target
// addresses. When target is 0 and msg is an EVENT message, it is cloned
// once per broadcast-subscribed endpoint (per-recipient heaps get their
// own reference, per srcHeap semantics) and delivered to every one;
// MoveMessage reports how many endpoints received a copy. Otherwise the
// message is moved, not cloned, into the single named endpoint's queue —
// srcHeap's references are consumed by the transfer.
func MoveMessage(srcHeap *variant.Heap, table *AtomTable, target Atom, msg *Message) (int, error) {
	if target == 0 {
		if msg.Header.Type != TypeEvent {
			return 0, hvmlerr.New(hvmlerr.InvalidOperand)
		}
		targets := table.broadcastTargets(0)
		delivered := 0
		for _, reg := range targets {
			copy := msg.clone(srcHeap, reg.heap)
			reg.queue.Append(copy)
			delivered++
		}
		msg.Release(srcHeap)
		return delivered, nil
	}

	reg, ok := table.queueOf(target)
	if !ok {
		return 0, hvmlerr.New(hvmlerr.EntityNotFound)
	}
	msg.move(srcHeap, reg.heap)
	reg.queue.Append(msg)
	return 1, nil
}
