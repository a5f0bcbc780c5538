// Package instance implements the per-thread instance lifecycle:
// process-wide one-time setup, per-instance creation and teardown, and
// the goroutine-local binding that lets package-level helpers (and
// eventually $SYSTEM) find "the current instance" without threading a
// pointer through every call. Grounded on the reference VM's NewVM /
// bootstrap split (vm/vm.go) and on purc_init_ex's documented sequence
// (spec.md §4.G).
package instance

import (
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/hvml/hvmlcore/internal/coroutine"
	"github.com/hvml/hvmlcore/internal/domsink"
	"github.com/hvml/hvmlcore/internal/elemops"
	"github.com/hvml/hvmlcore/internal/hvmlerr"
	"github.com/hvml/hvmlcore/internal/msgqueue"
	"github.com/hvml/hvmlcore/internal/timer"
	"github.com/hvml/hvmlcore/internal/variant"
	"github.com/hvml/hvmlcore/internal/varmgr"
	"github.com/hvml/hvmlcore/pkg/sysobj"
)

const (
	varTimers = "TIMERS"
	varSystem = "SYSTEM"
)

// Options carries the handful of per-instance knobs InitEx needs beyond
// the (modules, app, runner) triple.
type Options struct {
	// Host identifies this process for endpoint naming; defaults to
	// "localhost".
	Host string
	// QueueMax is stored as the max of this instance's move-buffer
	// registration (0 means unbounded); no Append path checks it.
	QueueMax int
	// Sink is the DOM sink erase and friends mutate through; nil is
	// legal (erase against a live DOM then reports NotIterable, per
	// elemops.eraseSelector).
	Sink elemops.EraseSink
}

var (
	onceGlobal      sync.Once
	globalTable     *msgqueue.AtomTable
	initMu          sync.Mutex
	initializedMods = map[string]bool{}

	mainMu       sync.Mutex
	mainInstance *Instance
)

// globalInit runs the one-shot process-wide setup (atom subsystem) and
// then runs InitOnce for every module in modules that hasn't already run
// it in this process, concurrently, since each module's one-time setup is
// independent of the others.
func globalInit(modules []Module) error {
	onceGlobal.Do(func() {
		globalTable = msgqueue.NewAtomTable()
	})

	initMu.Lock()
	defer initMu.Unlock()

	var pending []Module
	for _, m := range modules {
		if !initializedMods[m.Name()] {
			pending = append(pending, m)
		}
	}
	if len(pending) == 0 {
		return nil
	}
	g := new(errgroup.Group)
	for _, m := range pending {
		m := m
		g.Go(m.InitOnce)
	}
	if err := g.Wait(); err != nil {
		return hvmlerr.Newf(hvmlerr.InternalFailure, "module init-once failed: %v", err)
	}
	for _, m := range pending {
		initializedMods[m.Name()] = true
	}
	return nil
}

// Instance is one thread's HVML runtime: its own variant heap, document
// and instance-level variable managers, timer service, element-op
// registry, and endpoint queue, plus the runloop every coroutine it owns
// posts work back onto.
type Instance struct {
	Heap *variant.Heap

	table *msgqueue.AtomTable
	self  msgqueue.Atom

	host, app, runner string

	DocVarMgr  *varmgr.VarMgr
	InstVarMgr *varmgr.VarMgr
	Resolver   *varmgr.Resolver
	Registry   *elemops.Registry
	Timers     *timer.Service

	modules     []Module
	initialized []Module // modules whose InitInstance succeeded, in order

	work      chan func()
	workDone  chan struct{}
	closeOnce sync.Once
}

// InitEx creates a new instance bound to (host, app, runner), running the
// global once-guarded setup first if it hasn't run yet. A duplicate
// (host, app, runner) triple against a still-live instance is rejected
// with hvmlerr.DuplicateName, matching spec.md §4.G.
func InitEx(modules []Module, app, runner string, extra *Options) (*Instance, error) {
	if extra == nil {
		extra = &Options{}
	}
	host := extra.Host
	if host == "" {
		host = "localhost"
	}

	if err := globalInit(modules); err != nil {
		return nil, err
	}

	h := variant.NewHeap()
	atom, err := globalTable.CreateMoveBuffer(host, app, runner, h, 0, extra.QueueMax)
	if err != nil {
		return nil, err
	}

	inst := &Instance{
		Heap:     h,
		table:    globalTable,
		self:     atom,
		host:     host,
		app:      app,
		runner:   runner,
		modules:  modules,
		work:     make(chan func(), 64),
		workDone: make(chan struct{}),
	}

	inst.InstVarMgr = varmgr.New(h, globalTable)
	inst.DocVarMgr = varmgr.New(h, globalTable)
	inst.Resolver = &varmgr.Resolver{Heap: h, Doc: inst.DocVarMgr, Inst: inst.InstVarMgr}

	timersSet, setErr := h.NewSet([]string{"id"})
	if setErr != nil {
		inst.teardownPartial()
		return nil, setErr
	}
	if err := inst.DocVarMgr.Add(varTimers, timersSet); err != nil {
		inst.teardownPartial()
		return nil, err
	}
	inst.Timers = timer.New(h, globalTable, atom, timersSet)

	if err := inst.DocVarMgr.Add(varSystem, sysobj.New(h)); err != nil {
		inst.teardownPartial()
		return nil, err
	}

	inst.Registry = elemops.NewRegistry(h, inst.Resolver, inst.DocVarMgr, atom, extra.Sink)

	go inst.runloop()

	for _, m := range modules {
		if err := m.InitInstance(inst); err != nil {
			inst.rollbackModules()
			inst.teardownPartial()
			return nil, err
		}
		inst.initialized = append(inst.initialized, m)
	}

	bind(inst)
	mainMu.Lock()
	if mainInstance == nil {
		mainInstance = inst
	}
	mainMu.Unlock()

	return inst, nil
}

// rollbackModules runs CleanupInstance for every module that had
// InitInstance succeed, in reverse order, used when a later module's
// InitInstance fails partway through InitEx.
func (inst *Instance) rollbackModules() {
	for i := len(inst.initialized) - 1; i >= 0; i-- {
		inst.initialized[i].CleanupInstance(inst)
	}
	inst.initialized = nil
}

// teardownPartial releases the heap-level state InitEx built before a
// module failed, without touching the module list (rollbackModules
// handles that separately since it needs its own ordering).
func (inst *Instance) teardownPartial() {
	if inst.Timers != nil {
		inst.Timers.Close()
	}
	if inst.DocVarMgr != nil {
		inst.DocVarMgr.Destroy()
	}
	if inst.InstVarMgr != nil {
		inst.InstVarMgr.Destroy()
	}
	close(inst.work)
	<-inst.workDone
	_, _ = inst.table.DestroyMoveBuffer(inst.Heap, inst.self)
}

// NewCoroutine creates a coroutine over a fresh stack, scheduled on this
// instance's runloop, ready to drive a document rooted at element via
// coroutine.Advance(inst.Registry.HooksFor, inst.Registry.AttrsOf).
func (inst *Instance) NewCoroutine() *coroutine.Coroutine {
	stack := coroutine.NewStack(inst.Heap)
	return coroutine.New(stack, inst)
}

// Post implements coroutine.Runloop: it queues fn to run on this
// instance's single runloop goroutine, so every coroutine owned by this
// instance executes on the same goroutine per spec.md §5's "strictly
// single-threaded internally" rule.
func (inst *Instance) Post(fn func()) {
	inst.work <- fn
}

// runloop is the instance's single dispatch goroutine: it binds itself
// as this instance's thread-local owner and then drains posted work
// until Close closes the work channel.
func (inst *Instance) runloop() {
	bind(inst)
	defer unbind()
	defer close(inst.workDone)
	for fn := range inst.work {
		fn()
	}
}

// Self returns this instance's own endpoint atom.
func (inst *Instance) Self() msgqueue.Atom { return inst.self }

// Table returns the process-wide atom table this instance is registered
// in, for components (e.g. a pcrdr bridge) that need to deliver messages
// to or from other instances.
func (inst *Instance) Table() *msgqueue.AtomTable { return inst.table }

// Close tears the instance down: module CleanupInstance hooks in reverse
// registration order, then the timer service, both VarMgrs, the runloop
// goroutine, and finally the endpoint's move buffer. Safe to call more
// than once; only the first call has effect.
func (inst *Instance) Close() {
	inst.closeOnce.Do(func() {
		inst.rollbackModules()
		inst.teardownPartial()
		unbind()
		mainMu.Lock()
		if mainInstance == inst {
			mainInstance = nil
		}
		mainMu.Unlock()
	})
}

// Compile-time check that domsink.Memory, the in-memory sink most
// callers pass as Options.Sink, satisfies elemops.EraseSink.
var _ elemops.EraseSink = (*domsink.Memory)(nil)
