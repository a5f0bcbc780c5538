package msgqueue

import (
	"container/list"

	deadlock "github.com/sasha-s/go-deadlock"

	"github.com/hvml/hvmlcore/internal/hvmlerr"
	"github.com/hvml/hvmlcore/internal/variant"
)

// Kind selects one of the queue's five intrusive lists.
type Kind uint8

const (
	KindMisc Kind = iota
	KindRequest
	KindResponse
	KindEvent
	KindTimer
	kindCount
)

// Queue is a single instance's message queue: five FIFO lists guarded by
// one reader/writer lock, per msg-queue.c. The lock is a go-deadlock
// RWMutex per §5's concurrency model — this is one of the two lock sites
// (the other being the move heap's mutex) whose ordering the locking
// discipline invariant governs.
type Queue struct {
	mu    deadlock.RWMutex
	lists [kindCount]*list.List
	count int
}

// NewQueue creates an empty queue with its five lists initialized.
func NewQueue() *Queue {
	q := &Queue{}
	for i := range q.lists {
		q.lists[i] = list.New()
	}
	return q
}

func kindOf(m *Message) Kind {
	switch m.Header.Type {
	case TypeRequest:
		return KindRequest
	case TypeResponse:
		return KindResponse
	case TypeEvent:
		if m.TimerID != "" {
			return KindTimer
		}
		return KindEvent
	default:
		return KindMisc
	}
}

// Append adds msg to the tail of its routed list.
func (q *Queue) Append(msg *Message) {
	q.mu.Lock()
	q.lists[kindOf(msg)].PushBack(msg)
	q.count++
	q.mu.Unlock()
}

// Prepend adds msg to the head of its routed list.
func (q *Queue) Prepend(msg *Message) {
	q.mu.Lock()
	q.lists[kindOf(msg)].PushFront(msg)
	q.count++
	q.mu.Unlock()
}

// HoldingCount reports the total number of messages across all five
// lists.
func (q *Queue) HoldingCount() int {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.count
}

// elementAt walks list l to the idx'th element (0-based), or returns nil.
func elementAt(l *list.List, idx int) *list.Element {
	e := l.Front()
	for i := 0; e != nil && i < idx; i++ {
		e = e.Next()
	}
	return e
}

// RetrieveMessage returns a read-only view of the idx'th message in the
// given list, without removing it.
func (q *Queue) RetrieveMessage(kind Kind, idx int) (*Message, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()
	e := elementAt(q.lists[kind], idx)
	if e == nil {
		return nil, hvmlerr.New(hvmlerr.BadIndex)
	}
	return e.Value.(*Message), nil
}

// TakeAwayMessage removes and returns ownership of the idx'th message in
// the given list.
func (q *Queue) TakeAwayMessage(kind Kind, idx int) (*Message, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	e := elementAt(q.lists[kind], idx)
	if e == nil {
		return nil, hvmlerr.New(hvmlerr.BadIndex)
	}
	q.lists[kind].Remove(e)
	q.count--
	return e.Value.(*Message), nil
}

// Destroy drains every list, releasing each message's variant fields
// into h, and reports how many messages were discarded. Mirrors
// pcinst_msg_queue_destroy's grind_msg_list sweep.
func (q *Queue) Destroy(h *variant.Heap) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	discarded := 0
	for _, l := range q.lists {
		for e := l.Front(); e != nil; {
			next := e.Next()
			msg := e.Value.(*Message)
			msg.Release(h)
			l.Remove(e)
			discarded++
			e = next
		}
	}
	q.count = 0
	return discarded
}
