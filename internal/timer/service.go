package timer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/hvml/hvmlcore/internal/msgqueue"
	"github.com/hvml/hvmlcore/internal/variant"
)

// Stats summarizes one sweep, mirroring RegistryGCStats's
// count-plus-duration-plus-timestamp shape.
type Stats struct {
	Timers        int
	FiredTotal    uint64
	SweepDuration time.Duration
	Timestamp     time.Time
}

// DefaultSweepInterval is the default housekeeping sweep period.
const DefaultSweepInterval = 30 * time.Second

// Service owns one instance's $TIMERS set and the map of named Timer
// handles it drives. Grow/shrink/change listeners on the set translate
// into createTimer/destroyTimer/reconfigureTimer calls; a periodic sweep
// goroutine (grounded on RegistryGC) records Stats on each pass and
// removes no handles.
type Service struct {
	heap   *variant.Heap
	table  *msgqueue.AtomTable
	target msgqueue.Atom

	set *variant.Variant

	mu     sync.Mutex
	timers map[string]*Timer

	growTok, shrinkTok, changeTok int

	enabled       atomic.Bool
	sweepInterval time.Duration
	stop, stopped chan struct{}
	lifecycleMu   sync.Mutex

	sweepCount atomic.Uint64
	fired      atomic.Uint64
	lastStats  atomic.Value // *Stats
}

// New creates a Service bound to set (the $TIMERS variant, expected to be
// KindSet) and installs its grow/shrink/change listeners. Expired events
// are posted into target's queue via table.
func New(h *variant.Heap, table *msgqueue.AtomTable, target msgqueue.Atom, set *variant.Variant) *Service {
	svc := &Service{
		heap:          h,
		table:         table,
		target:        target,
		set:           set,
		timers:        make(map[string]*Timer),
		sweepInterval: DefaultSweepInterval,
	}
	svc.enabled.Store(true)
	svc.growTok = set.AddListener(variant.EventGrow, false, svc.onGrow, nil)
	svc.shrinkTok = set.AddListener(variant.EventShrink, false, svc.onShrink, nil)
	svc.changeTok = set.AddListener(variant.EventChange, false, svc.onChange, nil)
	return svc
}

// Close stops every live timer, deregisters the set listeners, and halts
// the sweep goroutine if running.
func (svc *Service) Close() {
	svc.Stop()
	svc.set.RemoveListener(svc.growTok)
	svc.set.RemoveListener(svc.shrinkTok)
	svc.set.RemoveListener(svc.changeTok)
	svc.mu.Lock()
	for _, tm := range svc.timers {
		tm.Destroy()
	}
	svc.timers = make(map[string]*Timer)
	svc.mu.Unlock()
}

// Start begins the periodic housekeeping sweep goroutine. Safe to call
// multiple times; only one sweep loop ever runs.
func (svc *Service) Start() {
	svc.lifecycleMu.Lock()
	defer svc.lifecycleMu.Unlock()
	if svc.stop != nil {
		return
	}
	svc.stop = make(chan struct{})
	svc.stopped = make(chan struct{})
	go svc.loop(svc.stop, svc.stopped)
}

// Stop halts the sweep goroutine and waits for it to exit. Safe to call on
// a Service that was never started.
func (svc *Service) Stop() {
	svc.lifecycleMu.Lock()
	stopCh := svc.stop
	stoppedCh := svc.stopped
	svc.stop = nil
	svc.stopped = nil
	svc.lifecycleMu.Unlock()

	if stopCh != nil {
		close(stopCh)
		<-stoppedCh
	}
}

// SetEnabled enables or disables sweeping without stopping the goroutine.
func (svc *Service) SetEnabled(enabled bool) { svc.enabled.Store(enabled) }

// IsEnabled reports whether sweeping is currently enabled.
func (svc *Service) IsEnabled() bool { return svc.enabled.Load() }

// LastStats returns the most recent sweep's stats, or nil before the first
// sweep.
func (svc *Service) LastStats() *Stats {
	v := svc.lastStats.Load()
	if v == nil {
		return nil
	}
	return v.(*Stats)
}

func (svc *Service) loop(stopCh <-chan struct{}, stoppedCh chan struct{}) {
	defer close(stoppedCh)
	ticker := time.NewTicker(svc.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			if svc.enabled.Load() {
				svc.sweep()
			}
		}
	}
}

func (svc *Service) sweep() *Stats {
	start := time.Now()
	svc.mu.Lock()
	n := len(svc.timers)
	svc.mu.Unlock()
	stats := &Stats{
		Timers:        n,
		FiredTotal:    svc.fired.Load(),
		SweepDuration: time.Since(start),
		Timestamp:     start,
	}
	svc.sweepCount.Add(1)
	svc.lastStats.Store(stats)
	return stats
}

// Timer returns the named handle, if a $TIMERS entry with that id exists.
func (svc *Service) Timer(id string) (*Timer, bool) {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	tm, ok := svc.timers[id]
	return tm, ok
}

func (svc *Service) postExpired(id string) {
	q, ok := svc.table.QueueOf(svc.target)
	if !ok {
		return
	}
	q.Append(postExpiredMessage(svc.heap, id))
}

func fieldsOf(member *variant.Variant) (id string, interval time.Duration, active bool, ok bool) {
	idv, found := member.GetByKey("id")
	if !found || idv.Kind != variant.KindString {
		return "", 0, false, false
	}
	interval = numberifyMillis(member)
	active = activeOf(member)
	return idv.String(), interval, active, true
}

func numberifyMillis(member *variant.Variant) time.Duration {
	iv, found := member.GetByKey("interval")
	if !found {
		return 0
	}
	var ms float64
	switch iv.Kind {
	case variant.KindLongInt:
		ms = float64(iv.LongInt())
	case variant.KindULongInt:
		ms = float64(iv.ULongInt())
	case variant.KindNumber, variant.KindLongDouble:
		ms = iv.Number()
	default:
		return 0
	}
	if ms < 0 {
		ms = 0
	}
	return time.Duration(ms) * time.Millisecond
}

func activeOf(member *variant.Variant) bool {
	av, found := member.GetByKey("active")
	if !found {
		return true
	}
	if av.Kind == variant.KindBoolean {
		return av.Bool()
	}
	return av.String() != "no"
}

func (svc *Service) onGrow(v *variant.Variant, event variant.EventMask, ctx any, args ...*variant.Variant) bool {
	if len(args) == 0 {
		return true
	}
	svc.createTimer(args[0])
	return true
}

func (svc *Service) onShrink(v *variant.Variant, event variant.EventMask, ctx any, args ...*variant.Variant) bool {
	if len(args) == 0 {
		return true
	}
	svc.destroyTimer(args[0])
	return true
}

func (svc *Service) onChange(v *variant.Variant, event variant.EventMask, ctx any, args ...*variant.Variant) bool {
	if len(args) == 0 {
		return true
	}
	svc.reconfigureTimer(args[0])
	return true
}

func (svc *Service) createTimer(member *variant.Variant) {
	id, interval, active, ok := fieldsOf(member)
	if !ok {
		return
	}
	tm := newTimer(id, interval, svc)
	svc.mu.Lock()
	svc.timers[id] = tm
	svc.mu.Unlock()
	if active {
		tm.Start()
	}
}

func (svc *Service) destroyTimer(member *variant.Variant) {
	idv, found := member.GetByKey("id")
	if !found {
		return
	}
	id := idv.String()
	svc.mu.Lock()
	tm, ok := svc.timers[id]
	delete(svc.timers, id)
	svc.mu.Unlock()
	if ok {
		tm.Destroy()
	}
}

func (svc *Service) reconfigureTimer(member *variant.Variant) {
	id, interval, active, ok := fieldsOf(member)
	if !ok {
		return
	}
	svc.mu.Lock()
	tm, exists := svc.timers[id]
	svc.mu.Unlock()
	if !exists {
		svc.createTimer(member)
		return
	}
	tm.SetInterval(interval)
	if active && !tm.IsActive() {
		tm.Start()
	} else if !active && tm.IsActive() {
		tm.Stop()
	}
}
