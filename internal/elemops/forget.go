package elemops

import (
	"github.com/hvml/hvmlcore/internal/coroutine"
	"github.com/hvml/hvmlcore/internal/hvmlerr"
	"github.com/hvml/hvmlcore/internal/msgqueue"
	"github.com/hvml/hvmlcore/internal/varmgr"
)

var forgetGrammar = []AttrSpec{{Name: "on"}, {Name: "for"}}

// forgetOp is observeOp's counterpart: it deregisters the observer
// immediately on push rather than holding a context across its frame's
// lifetime, since forgetting is a one-shot action with no body to run.
type forgetOp struct {
	doc  *varmgr.VarMgr
	self msgqueue.Atom
}

func (o *forgetOp) AfterPushed(co *coroutine.Coroutine, fr *coroutine.Frame, attrs AttrSet) (any, error) {
	if err := validateGrammar(attrs, forgetGrammar); err != nil {
		return nil, err
	}
	if err := requireAttrs(attrs, "on"); err != nil {
		return nil, err
	}
	kind, _ := parseObserveKind(attrs["for"])
	err := o.doc.RemoveObserver(attrs["on"], kind, o.self)
	if err != nil && hvmlerr.CodeOf(err) != hvmlerr.NoSuchKey {
		return nil, err
	}
	return nil, nil
}

func (o *forgetOp) SelectChild(co *coroutine.Coroutine, fr *coroutine.Frame) (any, bool) {
	return nil, false
}

func (o *forgetOp) Rerun(co *coroutine.Coroutine, fr *coroutine.Frame) (bool, error) {
	return true, nil
}

func (o *forgetOp) OnPopping(co *coroutine.Coroutine, fr *coroutine.Frame) bool {
	return true
}
