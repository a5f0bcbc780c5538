package sysobj

import (
	"math/rand"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"github.com/hvml/hvmlcore/internal/hvmlerr"
	"github.com/hvml/hvmlcore/internal/variant"
)

func init() {
	Register("const", 1, getConst)
	Register("uname", 0, getUname)
	Register("uname_prt", 1, getUnamePrt)
	Register("time", 0, getTime)
	Register("time_us", 0, getTimeUS)
	Register("locale", 1, getLocale)
	Register("!locale", 2, setLocale)
	Register("timezone", 0, getTimezone)
	Register("!timezone", 1, setTimezone)
	Register("random", 0, getRandom)
	Register("!random", 1, setRandomSeed)
	Register("cwd", 0, getCwd)
	Register("!cwd", 1, setCwd)
	Register("env", 1, getEnv)
	Register("!env", 2, setEnv)
}

func argString(args []*variant.Variant, i int) (string, error) {
	if i >= len(args) || args[i].Kind != variant.KindString {
		return "", hvmlerr.New(hvmlerr.WrongDataType)
	}
	return args[i].String(), nil
}

// consts is the abridged subset of the reference VM's $SYSTEM.const
// table: a handful of named numeric/string values scripts commonly need,
// rather than the full C preprocessor constant dump.
var consts = map[string]float64{
	"PI":          3.141592653589793,
	"E":           2.718281828459045,
	"FLT_EPSILON": 1.1920929e-07,
	"DBL_EPSILON": 2.2204460492503131e-16,
}

func getConst(st *State, h *variant.Heap, args []*variant.Variant) (*variant.Variant, error) {
	name, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	v, ok := consts[name]
	if !ok {
		return nil, hvmlerr.New(hvmlerr.NoSuchKey)
	}
	return h.NewNumber(v), nil
}

func unameFields() (map[string]string, error) {
	var u unix.Utsname
	if err := unix.Uname(&u); err != nil {
		return nil, hvmlerr.Newf(hvmlerr.OSFailure, "uname: %v", err)
	}
	return map[string]string{
		"kernel-name":    unix.ByteSliceToString(u.Sysname[:]),
		"nodename":       unix.ByteSliceToString(u.Nodename[:]),
		"kernel-release": unix.ByteSliceToString(u.Release[:]),
		"kernel-version": unix.ByteSliceToString(u.Version[:]),
		"machine":        unix.ByteSliceToString(u.Machine[:]),
		"domainname":     unix.ByteSliceToString(u.Domainname[:]),
	}, nil
}

func getUname(st *State, h *variant.Heap, args []*variant.Variant) (*variant.Variant, error) {
	fields, err := unameFields()
	if err != nil {
		return nil, err
	}
	keys := []string{"sysname", "nodename", "release", "version", "machine"}
	wire := map[string]string{
		"sysname": fields["kernel-name"], "nodename": fields["nodename"],
		"release": fields["kernel-release"], "version": fields["kernel-version"],
		"machine": fields["machine"],
	}
	vals := make([]*variant.Variant, 0, len(keys))
	for _, k := range keys {
		vals = append(vals, h.NewString(wire[k], false))
	}
	return h.NewObject(keys, vals), nil
}

func getUnamePrt(st *State, h *variant.Heap, args []*variant.Variant) (*variant.Variant, error) {
	spec, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	fields, err := unameFields()
	if err != nil {
		return nil, err
	}
	var parts []string
	for _, name := range strings.Fields(spec) {
		v, ok := fields[name]
		if !ok {
			return nil, hvmlerr.Newf(hvmlerr.InvalidValue, "unknown uname field %q", name)
		}
		parts = append(parts, v)
	}
	return h.NewString(strings.Join(parts, " "), false), nil
}

func getTime(st *State, h *variant.Heap, args []*variant.Variant) (*variant.Variant, error) {
	return h.NewLongInt(time.Now().Unix()), nil
}

// getTimeUS implements time_us()/time_us(true)/time_us(false): with no
// argument or a true argument it returns the current time as microseconds
// since the epoch, fraction included (a long-double per §6); with an explicit
// false it returns the {sec, usec} decomposition instead.
func getTimeUS(st *State, h *variant.Heap, args []*variant.Variant) (*variant.Variant, error) {
	asLongDouble := true
	if len(args) > 0 {
		if args[0].Kind != variant.KindBoolean {
			return nil, hvmlerr.New(hvmlerr.WrongDataType)
		}
		asLongDouble = args[0].Bool()
	}
	now := time.Now()
	if asLongDouble {
		us := float64(now.Unix())*1e6 + float64(now.Nanosecond())/1e3
		return h.NewLongDouble(us), nil
	}
	sec := now.Unix()
	usec := int64(now.Nanosecond() / 1000)
	return h.NewObject(
		[]string{"sec", "usec"},
		[]*variant.Variant{h.NewLongInt(sec), h.NewLongInt(usec)},
	), nil
}

func getLocale(st *State, h *variant.Heap, args []*variant.Variant) (*variant.Variant, error) {
	category, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if v, ok := st.locale[category]; ok {
		return h.NewString(v, false), nil
	}
	return h.NewString("C", false), nil
}

func setLocale(st *State, h *variant.Heap, args []*variant.Variant) (*variant.Variant, error) {
	category, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	value, err := argString(args, 1)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	st.locale[category] = value
	st.mu.Unlock()
	return h.NewBoolean(true), nil
}

func getTimezone(st *State, h *variant.Heap, args []*variant.Variant) (*variant.Variant, error) {
	st.mu.Lock()
	tz := st.timezone
	st.mu.Unlock()
	if tz == "" {
		if env := os.Getenv("TZ"); env != "" {
			tz = env
		} else {
			tz = time.Local.String()
		}
	}
	return h.NewString(tz, false), nil
}

func setTimezone(st *State, h *variant.Heap, args []*variant.Variant) (*variant.Variant, error) {
	zone, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	st.mu.Lock()
	st.timezone = zone
	st.mu.Unlock()
	return h.NewBoolean(true), nil
}

// getRandom implements random()/random(upper): no argument returns a
// float64 in [0, 1); a numeric upper bound returns an integer in
// [0, upper).
func getRandom(st *State, h *variant.Heap, args []*variant.Variant) (*variant.Variant, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if len(args) == 0 {
		return h.NewNumber(st.rng.Float64()), nil
	}
	if args[0].Kind != variant.KindNumber && args[0].Kind != variant.KindLongInt {
		return nil, hvmlerr.New(hvmlerr.WrongDataType)
	}
	upper := int64(args[0].Number())
	if args[0].Kind == variant.KindLongInt {
		upper = args[0].LongInt()
	}
	if upper <= 0 {
		return nil, hvmlerr.New(hvmlerr.InvalidValue)
	}
	return h.NewLongInt(st.rng.Int63n(upper)), nil
}

func setRandomSeed(st *State, h *variant.Heap, args []*variant.Variant) (*variant.Variant, error) {
	if args[0].Kind != variant.KindNumber && args[0].Kind != variant.KindLongInt {
		return nil, hvmlerr.New(hvmlerr.WrongDataType)
	}
	seed := int64(args[0].Number())
	if args[0].Kind == variant.KindLongInt {
		seed = args[0].LongInt()
	}
	st.mu.Lock()
	st.rng = rand.New(rand.NewSource(seed))
	st.mu.Unlock()
	return h.NewBoolean(true), nil
}

// getCwd and setCwd track a per-State virtual working directory rather
// than the process's real one: os.Chdir is process-wide, and two
// instances in the same process must not be able to redirect each
// other's relative paths.
func getCwd(st *State, h *variant.Heap, args []*variant.Variant) (*variant.Variant, error) {
	st.mu.Lock()
	cwd := st.cwd
	st.mu.Unlock()
	return h.NewString(cwd, false), nil
}

func setCwd(st *State, h *variant.Heap, args []*variant.Variant) (*variant.Variant, error) {
	path, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	info, statErr := os.Stat(path)
	if statErr != nil || !info.IsDir() {
		return nil, hvmlerr.Newf(hvmlerr.EntityNotFound, "cwd: %s", path)
	}
	st.mu.Lock()
	st.cwd = path
	st.mu.Unlock()
	return h.NewBoolean(true), nil
}

func getEnv(st *State, h *variant.Heap, args []*variant.Variant) (*variant.Variant, error) {
	name, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	v, ok := os.LookupEnv(name)
	if !ok {
		return h.NewUndefined(), nil
	}
	return h.NewString(v, false), nil
}

// setEnv implements env(!name, value) and env(!name, undefined) (which
// unsets name) in one setter.
func setEnv(st *State, h *variant.Heap, args []*variant.Variant) (*variant.Variant, error) {
	name, err := argString(args, 0)
	if err != nil {
		return nil, err
	}
	if args[1].Kind == variant.KindUndefined {
		if err := os.Unsetenv(name); err != nil {
			return nil, hvmlerr.Newf(hvmlerr.OSFailure, "env: %v", err)
		}
		return h.NewBoolean(true), nil
	}
	if args[1].Kind != variant.KindString {
		return nil, hvmlerr.New(hvmlerr.WrongDataType)
	}
	if err := os.Setenv(name, args[1].String()); err != nil {
		return nil, hvmlerr.Newf(hvmlerr.OSFailure, "env: %v", err)
	}
	return h.NewBoolean(true), nil
}
