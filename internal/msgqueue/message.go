// Package msgqueue implements the per-instance message queue and the
// cross-instance move-buffer protocol: five intrusive lists per instance,
// an atom table mapping (host, app, runner) endpoint names to queues, and
// the move semantics that carry a message's variant payload from a
// source instance heap to a destination instance heap (or clone it, for
// broadcast).
//
// Grounded on the reference interpreter's msg-queue.c: five list heads
// (req_msgs, res_msgs, event_msgs, timer_msgs, msgs) behind one
// reader/writer lock, and grind_message's unref-every-variant-field
// release discipline.
package msgqueue

import "github.com/hvml/hvmlcore/internal/variant"

// Type is the message's PCRDR_MSG_TYPE_* analogue.
type Type uint8

const (
	TypeVoid Type = iota
	TypeRequest
	TypeResponse
	TypeEvent
)

// TargetKind identifies what TargetValue addresses.
type TargetKind uint8

const (
	TargetNone TargetKind = iota
	TargetInstance
	TargetCoroutine
	TargetAtom
)

// Header carries a message's routing and result fields.
type Header struct {
	Type        Type
	TargetKind  TargetKind
	TargetValue uint64
	ElementType string
	DataType    string
	RetCode     int
}

// Message is a queue entry. Every *variant.Variant field is a strong
// reference owned by the message; Release drops them all. TimerID is set
// only on EVENT messages synthesized by the timer service and is what
// routes a message to the timer list instead of the event list (see
// Queue.Append).
type Message struct {
	Header Header

	Operation       *variant.Variant
	Event           *variant.Variant
	ElementSelector *variant.Variant
	Property        *variant.Variant
	Data            *variant.Variant

	RequestID string
	TimerID   string
}

// Release unrefs every variant field the message owns. Safe to call with
// nil fields.
func (m *Message) Release(h *variant.Heap) {
	h.Unref(m.Operation)
	h.Unref(m.Event)
	h.Unref(m.ElementSelector)
	h.Unref(m.Property)
	h.Unref(m.Data)
}

// clone deep-copies m's variant fields into dst via the move heap, for
// the broadcast fan-out case where one logical event reaches many
// instances and each must own its own references.
func (m *Message) clone(src, dst *variant.Heap) *Message {
	c := &Message{Header: m.Header, RequestID: m.RequestID, TimerID: m.TimerID}
	c.Operation = cloneField(src, dst, m.Operation)
	c.Event = cloneField(src, dst, m.Event)
	c.ElementSelector = cloneField(src, dst, m.ElementSelector)
	c.Property = cloneField(src, dst, m.Property)
	c.Data = cloneField(src, dst, m.Data)
	return c
}

func cloneField(src, dst *variant.Heap, v *variant.Variant) *variant.Variant {
	if v == nil {
		return nil
	}
	return variant.CopyInto(src, dst, v)
}

// move transfers m's variant fields from src to dst through the move
// heap in place, for the single-target (non-broadcast) delivery case: the
// source's references are consumed, not duplicated.
func (m *Message) move(src, dst *variant.Heap) {
	m.Operation = moveField(src, dst, m.Operation)
	m.Event = moveField(src, dst, m.Event)
	m.ElementSelector = moveField(src, dst, m.ElementSelector)
	m.Property = moveField(src, dst, m.Property)
	m.Data = moveField(src, dst, m.Data)
}

func moveField(src, dst *variant.Heap, v *variant.Variant) *variant.Variant {
	if v == nil {
		return nil
	}
	moved := variant.MoveInto(src, v)
	return variant.MoveOutOf(moved, dst)
}
