package coroutine

import (
	"sync"
	"sync/atomic"
)

// State is a coroutine's scheduling state.
type State int32

const (
	StateReady State = iota
	StateRun
	StateWait
	StateExited
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "READY"
	case StateRun:
		return "RUN"
	case StateWait:
		return "WAIT"
	case StateExited:
		return "EXITED"
	default:
		return "UNKNOWN"
	}
}

// CancelRecord is one entry of a coroutine's cancellation list: an
// opaque context value plus the function that tears it down. Blocking
// operations (a pending renderer request, an open observe, a running
// timer) each push one of these and the coroutine invokes every
// registered fn in reverse order on teardown — grounded on the reference
// VM's CancellationContextObject, generalized from a single cancel
// function to a list because one frame may open several independent
// blocking waits over its lifetime.
type CancelRecord struct {
	Ctxt any
	Fn   func()
}

// Runloop is the owning instance's dispatch loop. A coroutine posts work
// back onto it rather than running arbitrary goroutine-local logic, so
// that all execution for one instance stays single-threaded internally
// per §5. Declared as an interface here so this package never imports
// the instance package that implements it.
type Runloop interface {
	Post(fn func())
}

// Coroutine wraps a Stack with the scheduling state its owning runloop
// drives. The state/done-channel pairing mirrors the reference VM's
// ProcessObject (vm/concurrency.go): an atomic state word plus a
// closed-on-exit channel other goroutines can select on.
type Coroutine struct {
	Stack *Stack

	state atomic.Int32
	done  chan struct{}

	mu         sync.Mutex
	cancelList []CancelRecord

	runloop Runloop
}

// New creates a coroutine in READY state over stack, scheduled on rl.
func New(stack *Stack, rl Runloop) *Coroutine {
	return &Coroutine{Stack: stack, done: make(chan struct{}), runloop: rl}
}

// State returns the coroutine's current scheduling state.
func (co *Coroutine) State() State { return State(co.state.Load()) }

// setState transitions the coroutine's state. Entering StateExited closes
// done exactly once.
func (co *Coroutine) setState(s State) {
	co.state.Store(int32(s))
	if s == StateExited {
		co.mu.Lock()
		select {
		case <-co.done:
		default:
			close(co.done)
		}
		co.mu.Unlock()
	}
}

// Run transitions READY/WAIT -> RUN. Returns false if the coroutine was
// already EXITED.
func (co *Coroutine) Run() bool {
	if co.State() == StateExited {
		return false
	}
	co.setState(StateRun)
	return true
}

// Suspend transitions RUN -> WAIT, used when select_child finds no next
// child but an open observe descendant has registered interest.
func (co *Coroutine) Suspend() {
	co.setState(StateWait)
}

// Exit transitions to EXITED, running every registered cancel fn in
// reverse registration order first.
func (co *Coroutine) Exit() {
	co.mu.Lock()
	records := co.cancelList
	co.cancelList = nil
	co.mu.Unlock()

	for i := len(records) - 1; i >= 0; i-- {
		records[i].Fn()
	}
	co.setState(StateExited)
}

// Done returns a channel closed when the coroutine exits.
func (co *Coroutine) Done() <-chan struct{} { return co.done }

// RegisterCancel adds rec to the cancel list and returns its index in
// that list. Records stay registered until Exit's reverse sweep runs
// them; there is no call that removes a single record.
func (co *Coroutine) RegisterCancel(rec CancelRecord) int {
	co.mu.Lock()
	defer co.mu.Unlock()
	co.cancelList = append(co.cancelList, rec)
	return len(co.cancelList) - 1
}

// Post schedules fn on the owning instance's runloop.
func (co *Coroutine) Post(fn func()) {
	co.runloop.Post(fn)
}
