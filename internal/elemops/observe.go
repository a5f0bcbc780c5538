package elemops

import (
	"strings"

	"github.com/hvml/hvmlcore/internal/coroutine"
	"github.com/hvml/hvmlcore/internal/msgqueue"
	"github.com/hvml/hvmlcore/internal/varmgr"
)

var observeGrammar = []AttrSpec{{Name: "on"}, {Name: "for"}}

// parseObserveKind maps the "for" attribute's value to a varmgr.EventKind,
// "attached" by default. "except:<name>" selects exception delivery for
// the named exception.
func parseObserveKind(forVal string) (varmgr.EventKind, string) {
	if forVal == "" {
		return varmgr.EventAttached, ""
	}
	if strings.HasPrefix(forVal, "except:") {
		return varmgr.EventExcept, strings.TrimPrefix(forVal, "except:")
	}
	switch forVal {
	case "detached":
		return varmgr.EventDetached, ""
	case "displaced":
		return varmgr.EventDisplaced, ""
	default:
		return varmgr.EventAttached, ""
	}
}

// observeOp is the document-visible face of the variable manager's
// observer API (§4.B), grounded on var-mgr.c treating observe/forget as
// thin element wrappers over pcvarmgr_add/remove_observer. "on" names the
// observed key of the document VarMgr; only mutations of that VarMgr's
// bindings dispatch to it. The timer service posts its "expired" messages
// straight to the instance's queue, not through VarMgr observers, so
// observe and forget have no effect on timer delivery. "for" selects which
// mutation kind to watch, "attached" if omitted.
type observeOp struct {
	doc  *varmgr.VarMgr
	self msgqueue.Atom
}

type observeCtxt struct {
	name string
	kind varmgr.EventKind
}

func (o *observeOp) AfterPushed(co *coroutine.Coroutine, fr *coroutine.Frame, attrs AttrSet) (any, error) {
	if err := validateGrammar(attrs, observeGrammar); err != nil {
		return nil, err
	}
	if err := requireAttrs(attrs, "on"); err != nil {
		return nil, err
	}
	name := attrs["on"]
	kind, except := parseObserveKind(attrs["for"])
	o.doc.AddObserver(name, kind, except, o.self)
	return &observeCtxt{name: name, kind: kind}, nil
}

func (o *observeOp) SelectChild(co *coroutine.Coroutine, fr *coroutine.Frame) (any, bool) {
	el, ok := fr.Element.(Element)
	if !ok {
		return nil, false
	}
	return nextChild(fr, el)
}

func (o *observeOp) Rerun(co *coroutine.Coroutine, fr *coroutine.Frame) (bool, error) {
	return true, nil
}

// OnPopping leaves the observer registered: forget is the explicit
// counterpart that removes it, matching spec.md §8 scenario 2 where
// observe's interest outlives its own frame until an explicit forget.
func (o *observeOp) OnPopping(co *coroutine.Coroutine, fr *coroutine.Frame) bool {
	return true
}
