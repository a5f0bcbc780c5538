// Package varmgr implements the scoped variable manager: a named-value
// container (backed by a variant object) plus the observer bookkeeping
// that turns its grow/shrink/change events into synthetic
// change:attached / change:detached / change:displaced messages delivered
// to whichever instances registered interest.
//
// Grounded on
// _examples/original_source/Source/PurC/interpreter/var-mgr.c: a VarMgr
// wraps one purc_variant_t object and three post-listeners
// (grow/shrink/change) that walk a flat array of observer records and
// dispatch a message per match. This module keeps that shape — one
// object, three listeners, a slice of observer records — and replaces
// the dispatch target (a C pcintr_stack_t) with an enqueue onto the
// observer's own instance message queue, per SPEC_FULL.md's dispatch rule.
package varmgr

import (
	"sync"

	"github.com/hvml/hvmlcore/internal/hvmlerr"
	"github.com/hvml/hvmlcore/internal/msgqueue"
	"github.com/hvml/hvmlcore/internal/variant"
)

// EventKind is the var-mgr.c enum var_event_type, renamed to fit this
// module's naming.
type EventKind uint8

const (
	EventAttached EventKind = iota
	EventDetached
	EventDisplaced
	EventExcept
)

const (
	msgTypeChange    = "change"
	subTypeAttached  = "attached"
	subTypeDetached  = "detached"
	subTypeDisplaced = "displaced"
)

// observer is one registered (name, kind, target) triplet, mirroring
// var-mgr.c's struct var_observe (name, type, stack) with stack replaced
// by a delivery target (an atom plus the table to deliver through).
type observer struct {
	name   string
	kind   EventKind
	except string // set only when kind == EventExcept
	target msgqueue.Atom
}

// VarMgr is a named-value container with observer dispatch. One exists
// per document and one per instance; element-scoped VarMgrs are created
// and destroyed alongside their owning frame.
type VarMgr struct {
	heap   *variant.Heap
	object *variant.Variant // KindObject

	growTok, shrinkTok, changeTok int

	mu        sync.Mutex
	observers []*observer

	table *msgqueue.AtomTable
}

// New creates an empty VarMgr backed by a fresh object variant. table is
// the atom table observers' dispatch targets are resolved through; it is
// typically the instance-wide table shared by the whole runloop.
func New(h *variant.Heap, table *msgqueue.AtomTable) *VarMgr {
	mgr := &VarMgr{heap: h, object: h.NewObject(nil, nil), table: table}
	mgr.growTok = mgr.object.AddListener(variant.EventGrow, false, mgr.onGrow, nil)
	mgr.shrinkTok = mgr.object.AddListener(variant.EventShrink, false, mgr.onShrink, nil)
	mgr.changeTok = mgr.object.AddListener(variant.EventChange, false, mgr.onChange, nil)
	return mgr
}

// Destroy revokes this VarMgr's listeners and releases its backing
// object. Every VarMgr must be destroyed at scope/instance teardown per
// the "no dangling observer" invariant.
func (mgr *VarMgr) Destroy() {
	mgr.object.RemoveListener(mgr.growTok)
	mgr.object.RemoveListener(mgr.shrinkTok)
	mgr.object.RemoveListener(mgr.changeTok)
	mgr.heap.Unref(mgr.object)
}

// Add binds name to v. v == undefined removes the binding (per
// pcvarmgr_add); an existing binding is replaced through object.SetKey,
// which unrefs the old value and stores v under the same key, for
// containers and scalars alike. No displace is performed, so a handle
// obtained earlier through Get is not updated.
func (mgr *VarMgr) Add(name string, v *variant.Variant) error {
	if v.Kind == variant.KindUndefined {
		return mgr.Remove(name, true)
	}
	return mgr.object.SetKey(mgr.heap, name, v)
}

// Get resolves name directly against this VarMgr, with no chain walk.
func (mgr *VarMgr) Get(name string) (*variant.Variant, bool) {
	return mgr.object.GetByKey(name)
}

// Remove unbinds name. silently suppresses the NoSuchKey error when name
// is absent (pcvarmgr_remove_ex's silently flag).
func (mgr *VarMgr) Remove(name string, silently bool) error {
	err := mgr.object.RemoveKey(mgr.heap, name)
	if err != nil && silently {
		return nil
	}
	return err
}

// DispatchExcept fires a change:except:<except> event to every observer
// registered on name for exception delivery. Mirrors
// pcvarmgr_dispatch_except.
func (mgr *VarMgr) DispatchExcept(name, except string) error {
	mgr.mu.Lock()
	matches := mgr.matchingObservers(name, EventExcept, except)
	mgr.mu.Unlock()
	for _, obs := range matches {
		mgr.deliver(obs, except)
	}
	return nil
}

// AddObserver registers target to receive change:<kind> events for name.
// Re-registering an identical (name, kind, target) triplet is a no-op,
// matching find_var_observe's dedup-before-insert check.
func (mgr *VarMgr) AddObserver(name string, kind EventKind, except string, target msgqueue.Atom) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	for _, obs := range mgr.observers {
		if obs.name == name && obs.kind == kind && obs.target == target && obs.except == except {
			return
		}
	}
	mgr.observers = append(mgr.observers, &observer{name: name, kind: kind, except: except, target: target})
}

// RemoveObserver deregisters the first observer matching (name, kind,
// target). Returns NoSuchKey if none matched.
func (mgr *VarMgr) RemoveObserver(name string, kind EventKind, target msgqueue.Atom) error {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	for i, obs := range mgr.observers {
		if obs.name == name && obs.kind == kind && obs.target == target {
			mgr.observers = append(mgr.observers[:i], mgr.observers[i+1:]...)
			return nil
		}
	}
	return hvmlerr.New(hvmlerr.NoSuchKey)
}

func (mgr *VarMgr) matchingObservers(name string, kind EventKind, except string) []*observer {
	var out []*observer
	for _, obs := range mgr.observers {
		if obs.name != name || obs.kind != kind {
			continue
		}
		if kind == EventExcept && obs.except != except {
			continue
		}
		out = append(out, obs)
	}
	return out
}

// deliver enqueues a change event Message onto obs's target instance
// queue. The subType string is carried as the message's Event payload
// (a string variant); since obs.target may belong to a different
// instance than this VarMgr (cross-instance observers are legal per
// SPEC_FULL.md §4.B), the payload is built on mgr.heap and moved into
// the target's own heap through the move heap before being appended,
// the same way msgqueue.MoveMessage moves ordinary message fields
// across instances.
func (mgr *VarMgr) deliver(obs *observer, subType string) {
	q, ok := mgr.table.QueueOf(obs.target)
	if !ok {
		return
	}
	dstHeap, ok := mgr.table.HeapOf(obs.target)
	if !ok {
		return
	}
	event := mgr.heap.NewString(subType, false)
	moved := variant.MoveInto(mgr.heap, event)
	event = variant.MoveOutOf(moved, dstHeap)
	msg := &msgqueue.Message{
		Header: msgqueue.Header{Type: msgqueue.TypeEvent, ElementType: msgTypeChange},
		Event:  event,
	}
	q.Append(msg)
}

func (mgr *VarMgr) onGrow(v *variant.Variant, event variant.EventMask, ctx any, args ...*variant.Variant) bool {
	return mgr.fireNamed(EventAttached, subTypeAttached, args)
}

func (mgr *VarMgr) onShrink(v *variant.Variant, event variant.EventMask, ctx any, args ...*variant.Variant) bool {
	return mgr.fireNamed(EventDetached, subTypeDetached, args)
}

func (mgr *VarMgr) onChange(v *variant.Variant, event variant.EventMask, ctx any, args ...*variant.Variant) bool {
	return mgr.fireNamed(EventDisplaced, subTypeDisplaced, args)
}

// fireNamed resolves the bound key name out of args[0] (the convention
// container listeners use for object mutations: the first arg is the
// key), finds matching observers, and delivers to each.
func (mgr *VarMgr) fireNamed(kind EventKind, subType string, args []*variant.Variant) bool {
	if len(args) == 0 {
		return true
	}
	name := args[0].String()
	mgr.mu.Lock()
	matches := mgr.matchingObservers(name, kind, "")
	mgr.mu.Unlock()
	for _, obs := range matches {
		mgr.deliver(obs, subType)
	}
	return true
}
