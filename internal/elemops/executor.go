package elemops

import (
	"strconv"
	"strings"

	"github.com/hvml/hvmlcore/internal/hvmlerr"
	"github.com/hvml/hvmlcore/internal/variant"
)

// Executor drives iterate's rule-driven (case a) loop form, mirroring
// spec.md §4.E's "create/begin/next/value/destroy" plugin contract. Next
// advances to the next value, reporting false once exhausted; Value
// returns the current value without advancing.
type Executor interface {
	Begin() error
	Next() bool
	Value() *variant.Variant
	Destroy()
}

// rangeExecutor implements the one built-in rule this module ships:
// "RANGE: FROM <n> [TO <m>] [STEP <s>]", walking the element's of a
// source container starting at index FROM, in steps of STEP (default 1),
// up to and including TO (default: the container's last index).
type rangeExecutor struct {
	elems    []*variant.Variant
	from, to int
	step     int
	cur      int
	started  bool
}

func newRangeExecutor(on *variant.Variant, rule string) (*rangeExecutor, error) {
	elems := elementsOf(on)
	if elems == nil {
		return nil, hvmlerr.New(hvmlerr.NotIterable)
	}
	from, to, step, err := parseRangeRule(rule, len(elems))
	if err != nil {
		return nil, err
	}
	return &rangeExecutor{elems: elems, from: from, to: to, step: step}, nil
}

// parseRangeRule parses the tokens after "RANGE:", e.g. "FROM 0 TO 2 STEP
// 1". FROM defaults to 0, TO to n-1, STEP to 1.
func parseRangeRule(rule string, n int) (from, to, step int, err error) {
	from, to, step = 0, n-1, 1
	fields := strings.Fields(rule)
	for i := 0; i < len(fields); i++ {
		switch strings.ToUpper(fields[i]) {
		case "FROM":
			if i+1 >= len(fields) {
				return 0, 0, 0, hvmlerr.New(hvmlerr.BadExecutor)
			}
			from, err = strconv.Atoi(fields[i+1])
			if err != nil {
				return 0, 0, 0, hvmlerr.Newf(hvmlerr.BadExecutor, "bad FROM value: %v", err)
			}
			i++
		case "TO":
			if i+1 >= len(fields) {
				return 0, 0, 0, hvmlerr.New(hvmlerr.BadExecutor)
			}
			to, err = strconv.Atoi(fields[i+1])
			if err != nil {
				return 0, 0, 0, hvmlerr.Newf(hvmlerr.BadExecutor, "bad TO value: %v", err)
			}
			i++
		case "STEP":
			if i+1 >= len(fields) {
				return 0, 0, 0, hvmlerr.New(hvmlerr.BadExecutor)
			}
			step, err = strconv.Atoi(fields[i+1])
			if err != nil {
				return 0, 0, 0, hvmlerr.Newf(hvmlerr.BadExecutor, "bad STEP value: %v", err)
			}
			i++
		default:
			return 0, 0, 0, hvmlerr.Newf(hvmlerr.BadExecutor, "unrecognized RANGE token %q", fields[i])
		}
	}
	if step == 0 {
		return 0, 0, 0, hvmlerr.New(hvmlerr.BadExecutor)
	}
	return from, to, step, nil
}

func (r *rangeExecutor) Begin() error {
	r.cur = r.from
	r.started = false
	return nil
}

func (r *rangeExecutor) Next() bool {
	if !r.started {
		r.started = true
	} else {
		r.cur += r.step
	}
	if r.step > 0 {
		return r.cur <= r.to && r.cur >= 0 && r.cur < len(r.elems)
	}
	return r.cur >= r.to && r.cur >= 0 && r.cur < len(r.elems)
}

func (r *rangeExecutor) Value() *variant.Variant {
	if r.cur < 0 || r.cur >= len(r.elems) {
		return nil
	}
	return r.elems[r.cur]
}

func (r *rangeExecutor) Destroy() {}

// newExecutor resolves by's rule prefix to a concrete Executor. "RANGE" is
// the only built-in rule this module ships; an unrecognized prefix is
// BadExecutor rather than a panic.
func newExecutor(on *variant.Variant, by string) (Executor, error) {
	name, rest, _ := strings.Cut(by, ":")
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "RANGE":
		return newRangeExecutor(on, strings.TrimSpace(rest))
	default:
		return nil, hvmlerr.Newf(hvmlerr.BadExecutor, "unrecognized executor %q", name)
	}
}
