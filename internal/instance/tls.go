package instance

import (
	"runtime"
	"strconv"
	"strings"
	"sync"
)

// byGoroutine maps a goroutine id to the Instance currently bound to it.
// Grounded directly on the reference VM's vm.go interpreters field (int64
// -> *Interpreter): Go exposes no native thread-local storage, so the
// teacher's workaround of parsing the goroutine id out of runtime.Stack's
// header line is the idiom this module reuses for the equivalent
// interpreter-per-goroutine problem.
var byGoroutine sync.Map // int64 -> *Instance

// goroutineID returns the calling goroutine's id by parsing the leading
// "goroutine <id> [...]" line of a runtime.Stack dump. This is a
// workaround: Go does not expose goroutine ids directly.
func goroutineID() int64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	s := string(buf[:n])
	s = strings.TrimPrefix(s, "goroutine ")
	if idx := strings.IndexByte(s, ' '); idx > 0 {
		s = s[:idx]
	}
	id, _ := strconv.ParseInt(s, 10, 64)
	return id
}

// bind registers inst as the instance running on the calling goroutine.
// Call this once per goroutine that drives inst's runloop or one of its
// coroutines directly (e.g. the runloop worker itself).
func bind(inst *Instance) {
	byGoroutine.Store(goroutineID(), inst)
}

// unbind removes the calling goroutine's binding.
func unbind() {
	byGoroutine.Delete(goroutineID())
}

// Current returns the instance bound to the calling goroutine. If no
// instance is bound (a goroutine that never called bind, e.g. a test's
// main goroutine), it falls back to the main instance: the first instance
// created while no main instance was open (Close clears it), mirroring the
// reference VM's currentInterpreter fallback to the main interpreter.
func Current() (*Instance, bool) {
	if v, ok := byGoroutine.Load(goroutineID()); ok {
		return v.(*Instance), true
	}
	mainMu.Lock()
	inst := mainInstance
	mainMu.Unlock()
	if inst != nil {
		return inst, true
	}
	return nil, false
}
