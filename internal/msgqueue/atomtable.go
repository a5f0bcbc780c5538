package msgqueue

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/hvml/hvmlcore/internal/hvmlerr"
	"github.com/hvml/hvmlcore/internal/variant"
)

// Atom is an interned endpoint identifier, allocated by AtomTable in the
// same spirit as the reference VM's atomic-counter ID allocation for its
// interpreter registry, but keyed by a human-readable endpoint name
// rather than a goroutine id.
type Atom uint64

// Flags modifies a registered endpoint's delivery behavior.
type Flags uint32

const (
	// FlagBroadcast marks an endpoint as eligible to receive a cloned
	// copy of every broadcast (target atom 0) event message.
	FlagBroadcast Flags = 1 << iota
)

type registration struct {
	atom  Atom
	queue *Queue
	heap  *variant.Heap
	flags Flags
	max   int
}

// AtomTable maps (host, app, runner) endpoint names to Atoms and owns the
// per-endpoint queue registry that MoveMessage and the timer service
// deliver into. One process-wide AtomTable is normally enough, but the
// type is exported so tests can build isolated tables.
type AtomTable struct {
	byName sync.Map // string -> Atom
	byAtom sync.Map // Atom -> *registration
	next   atomic.Uint64
}

// NewAtomTable creates an empty atom table.
func NewAtomTable() *AtomTable {
	return &AtomTable{}
}

func endpointKey(host, app, runner string) string {
	return fmt.Sprintf("%s/%s/%s", host, app, runner)
}

// CreateMoveBuffer registers a new endpoint bound to heap (the owning
// instance's variant heap, the destination for any message moved or
// cloned into this endpoint), allocates its queue, and returns its atom.
// max bounds the queue's holding count (0 means unbounded; enforcement is
// the caller's responsibility at Append time).
func (t *AtomTable) CreateMoveBuffer(host, app, runner string, heap *variant.Heap, flags Flags, max int) (Atom, error) {
	key := endpointKey(host, app, runner)
	if _, exists := t.byName.Load(key); exists {
		return 0, hvmlerr.New(hvmlerr.DuplicateName)
	}
	atom := Atom(t.next.Add(1))
	reg := &registration{atom: atom, queue: NewQueue(), heap: heap, flags: flags, max: max}
	t.byName.Store(key, atom)
	t.byAtom.Store(atom, reg)
	return atom, nil
}

// DestroyMoveBuffer drains and deregisters atom's queue, returning the
// number of messages discarded.
func (t *AtomTable) DestroyMoveBuffer(h *variant.Heap, atom Atom) (int, error) {
	v, ok := t.byAtom.Load(atom)
	if !ok {
		return 0, hvmlerr.New(hvmlerr.EntityNotFound)
	}
	reg := v.(*registration)
	discarded := reg.queue.Destroy(h)
	t.byAtom.Delete(atom)
	t.byName.Range(func(k, val any) bool {
		if val.(Atom) == atom {
			t.byName.Delete(k)
			return false
		}
		return true
	})
	return discarded, nil
}

// Lookup resolves an endpoint name to its atom.
func (t *AtomTable) Lookup(host, app, runner string) (Atom, bool) {
	v, ok := t.byName.Load(endpointKey(host, app, runner))
	if !ok {
		return 0, false
	}
	return v.(Atom), true
}

// QueueOf exposes the raw queue for a registered atom, for callers (the
// instance package, tests) that need direct access rather than going
// through MoveMessage.
func (t *AtomTable) QueueOf(atom Atom) (*Queue, bool) {
	reg, ok := t.queueOf(atom)
	if !ok {
		return nil, false
	}
	return reg.queue, true
}

// HeapOf exposes the variant heap a registered atom's endpoint owns, for
// callers outside this package (varmgr's cross-instance observer
// dispatch) that need to move a variant into it rather than assume it
// shares the caller's own heap.
func (t *AtomTable) HeapOf(atom Atom) (*variant.Heap, bool) {
	reg, ok := t.queueOf(atom)
	if !ok {
		return nil, false
	}
	return reg.heap, true
}

func (t *AtomTable) queueOf(atom Atom) (*registration, bool) {
	v, ok := t.byAtom.Load(atom)
	if !ok {
		return nil, false
	}
	return v.(*registration), true
}

// broadcastTargets returns every registered endpoint with FlagBroadcast
// set, except skip.
func (t *AtomTable) broadcastTargets(skip Atom) []*registration {
	var out []*registration
	t.byAtom.Range(func(_, val any) bool {
		reg := val.(*registration)
		if reg.atom != skip && reg.flags&FlagBroadcast != 0 {
			out = append(out, reg)
		}
		return true
	})
	return out
}
