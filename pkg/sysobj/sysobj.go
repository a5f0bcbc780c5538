// Package sysobj builds the $SYSTEM built-in object: a variant.Object
// whose members are variant.Dynamic values backed by native Go functions,
// the abridged surface named in spec.md §6 (const, uname, uname_prt,
// time, time_us, locale, timezone, random, cwd, env).
//
// Grounded on the reference VM's class/instance primitive registration
// (AddMethod0/AddMethod1-style selector-to-native-func tables): Register
// fills a process-wide table at init time the same way those call sites
// populate a VTable one selector at a time, and New walks that table to
// bind each entry, with its own per-instance State, into a fresh $SYSTEM
// object.
package sysobj

import (
	"math/rand"
	"os"
	"sync"

	"github.com/hvml/hvmlcore/internal/hvmlerr"
	"github.com/hvml/hvmlcore/internal/variant"
)

// NativeFunc is a $SYSTEM member's native implementation. st carries the
// per-instance state the getter/setter closures over a spec.md-named
// member need (a locale/timezone override, a seeded PRNG, a virtual cwd).
type NativeFunc func(st *State, h *variant.Heap, args []*variant.Variant) (*variant.Variant, error)

// spec is one registered member: name is the base name a caller invokes
// ("locale", "random", ...); a "!"-prefixed registration
// ("!locale") supplies the setter form that a `!`-marked first argument
// selects, per §6's "setter variants take `!` as first positional" rule.
// arity is the minimum argument count accepted; extra trailing optional
// arguments (time_us's bool, random's upper bound) are validated by fn
// itself, not by this table.
type spec struct {
	name  string
	arity int
	fn    NativeFunc
}

var (
	registryMu sync.Mutex
	registry   []spec
)

// Register adds name to the process-wide $SYSTEM member table. Called
// from this package's init() once per member (and once more with a
// "!"-prefixed name for members that also have a setter form); never
// called by other packages.
func Register(name string, arity int, fn NativeFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = append(registry, spec{name: name, arity: arity, fn: fn})
}

// State is the mutable, per-$SYSTEM-instance data its native functions
// close over. Each call to New gets its own, so that one instance's
// random(!seed) or cwd(!path) call never leaks into another's.
type State struct {
	mu       sync.Mutex
	locale   map[string]string
	timezone string
	cwd      string
	rng      *rand.Rand
}

func newState() *State {
	cwd, _ := os.Getwd()
	return &State{
		locale: make(map[string]string),
		cwd:    cwd,
		rng:    rand.New(rand.NewSource(1)),
	}
}

// New builds a fresh $SYSTEM object on h, wiring every registered member
// into a variant.Dynamic whose getter and setter are bound to a single
// State private to this call.
func New(h *variant.Heap) *variant.Variant {
	st := newState()

	byName := make(map[string]*spec)
	setters := make(map[string]*spec)
	registryMu.Lock()
	for i := range registry {
		s := &registry[i]
		if len(s.name) > 0 && s.name[0] == '!' {
			setters[s.name[1:]] = s
		} else {
			byName[s.name] = s
		}
	}
	registryMu.Unlock()

	keys := make([]string, 0, len(byName))
	vals := make([]*variant.Variant, 0, len(byName))
	for name, getSpec := range byName {
		getSpec := getSpec
		setSpec := setters[name]

		var setFn variant.DynamicFunc
		if setSpec != nil {
			setSpec := setSpec
			setFn = func(args []*variant.Variant) (*variant.Variant, error) {
				if len(args) < setSpec.arity {
					return nil, hvmlerr.New(hvmlerr.ArgumentMissed)
				}
				return setSpec.fn(st, h, args)
			}
		}
		getFn := func(args []*variant.Variant) (*variant.Variant, error) {
			if len(args) < getSpec.arity {
				return nil, hvmlerr.New(hvmlerr.ArgumentMissed)
			}
			return getSpec.fn(st, h, args)
		}

		keys = append(keys, name)
		vals = append(vals, h.NewDynamic(getFn, setFn))
	}
	return h.NewObject(keys, vals)
}
