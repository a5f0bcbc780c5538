// Package timer implements the named-timer handles bound to a document's
// $TIMERS set, and the Service that keeps the set and the handle map in
// sync.
//
// Grounded on spec.md §4.D and, for its lifecycle shape, the reference VM's
// RegistryGC (vm/registry_gc.go): a Start/Stop goroutine pair guarded by a
// stop/stopped channel and a sync.Mutex, with SetEnabled/IsEnabled backed
// by atomic.Bool. Each *Timer additionally owns its own time.Timer, since
// $TIMERS entries fire independently of one another rather than on a
// shared sweep tick.
package timer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hvml/hvmlcore/internal/msgqueue"
	"github.com/hvml/hvmlcore/internal/variant"
)

// Timer is one named handle. It is created and destroyed by a Service in
// response to $TIMERS mutations, but also exposes the handle operations
// spec.md §4.D lists (SetInterval, Start, StartOneshot, Stop, IsActive,
// Destroy) for direct programmatic use.
type Timer struct {
	id  string
	svc *Service

	mu       sync.Mutex
	interval time.Duration
	t        *time.Timer

	active  atomic.Bool
	pending atomic.Bool
}

// ID returns this timer's $TIMERS-set id.
func (tm *Timer) ID() string { return tm.id }

// IsActive reports whether the timer is currently scheduled to fire.
func (tm *Timer) IsActive() bool { return tm.active.Load() }

// SetInterval changes the timer's repeat interval. If the timer is active
// it is restarted with the new interval, mirroring the behavior of
// reconfiguring a running $TIMERS entry in place.
func (tm *Timer) SetInterval(d time.Duration) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.interval = d
	if tm.active.Load() {
		tm.resetLocked(d, false)
	}
}

// Start (re)starts the timer as a repeating interval timer using its
// current interval.
func (tm *Timer) Start() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.resetLocked(tm.interval, false)
	tm.active.Store(true)
}

// StartOneshot (re)starts the timer to fire exactly once after d, then go
// inactive.
func (tm *Timer) StartOneshot(d time.Duration) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.resetLocked(d, true)
	tm.active.Store(true)
}

// Stop halts the timer without destroying the handle. A subsequent Start
// or StartOneshot reschedules it.
func (tm *Timer) Stop() {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	if tm.t != nil {
		tm.t.Stop()
		tm.t = nil
	}
	tm.active.Store(false)
}

// Destroy stops the timer and releases its reference to its owning
// service; the handle must not be used afterward.
func (tm *Timer) Destroy() {
	tm.Stop()
	tm.svc = nil
}

// Acknowledge clears the fire-coalescing flag, allowing the next fire to
// post a new expired event rather than being dropped. Nothing in this
// module calls it, so once a timer has posted an expired event, its later
// fires are dropped.
func (tm *Timer) Acknowledge() {
	tm.pending.Store(false)
}

func (tm *Timer) resetLocked(d time.Duration, oneshot bool) {
	if tm.t != nil {
		tm.t.Stop()
	}
	if d <= 0 {
		tm.t = nil
		return
	}
	tm.t = time.AfterFunc(d, func() { tm.fire(d, oneshot) })
}

func (tm *Timer) fire(d time.Duration, oneshot bool) {
	if !tm.pending.CompareAndSwap(false, true) {
		// already has an undelivered expired event outstanding; drop
		// this fire per the fire-coalescing rule.
	} else if svc := tm.svc; svc != nil {
		svc.postExpired(tm.id)
		svc.fired.Add(1)
	}
	if oneshot {
		tm.active.Store(false)
		return
	}
	tm.mu.Lock()
	if tm.active.Load() {
		tm.t = time.AfterFunc(d, func() { tm.fire(d, oneshot) })
	}
	tm.mu.Unlock()
}

func newTimer(id string, interval time.Duration, svc *Service) *Timer {
	return &Timer{id: id, svc: svc, interval: interval}
}

func postExpiredMessage(h *variant.Heap, id string) *msgqueue.Message {
	return &msgqueue.Message{
		Header:  msgqueue.Header{Type: msgqueue.TypeEvent, ElementType: "expired"},
		Event:   h.NewString("expired", false),
		TimerID: id,
	}
}
