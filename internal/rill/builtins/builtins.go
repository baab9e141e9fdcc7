// Package builtins registers the closed set of built-in functions and
// methods described in §4.10 onto a fresh runtime.Context. Host functions
// registered under the same name take priority, per §4.10's "may be
// overridden by host functions of the same name".
package builtins

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/rill-lang/rill/internal/rill/rillerr"
	"github.com/rill-lang/rill/internal/rill/runtime"
	"github.com/rill-lang/rill/internal/rill/value"
)

// Register installs every built-in function and method on rc. Call this
// once per fresh Context, before any host extension registers its own
// functions (so host registrations naturally override, since both use
// RegisterHostFunction/RegisterMethod's plain map-set semantics).
func Register(rc *runtime.Context) {
	registerFunctions(rc)
	registerMethods(rc)
}

func native(name string, fn value.NativeFunc) *value.Callable {
	return &value.Callable{Kind: value.RuntimeCallable, Name: name, Native: fn}
}

func method(name string, fn value.NativeFunc) *value.Callable {
	return &value.Callable{Kind: value.RuntimeCallable, Name: name, IsProperty: true, Native: fn}
}

func registerFunctions(rc *runtime.Context) {
	rc.RegisterHostFunction("identity", native("identity", func(a *value.Args, _ interface{}) (value.Value, error) {
		v, _ := a.Get(0)
		return v, nil
	}))
	rc.RegisterHostFunction("type", native("type", func(a *value.Args, _ interface{}) (value.Value, error) {
		v, _ := a.Get(0)
		return value.String(v.TypeName()), nil
	}))
	rc.RegisterHostFunction("log", native("log", func(a *value.Args, ctx interface{}) (value.Value, error) {
		v, _ := a.Get(0)
		if rc2, ok := ctx.(*runtime.Context); ok {
			rc2.Log(v.String(), nil)
		}
		return v, nil
	}))
	rc.RegisterHostFunction("json", native("json", func(a *value.Args, _ interface{}) (value.Value, error) {
		v, _ := a.Get(0)
		encoded, err := json.Marshal(toJSON(v))
		if err != nil {
			return value.Null, rillerr.TypeError("value cannot be represented as json")
		}
		return value.String(string(encoded)), nil
	}))
}

// toJSON converts a Rill value into a plain Go value encodable by
// encoding/json, used by the `json()` built-in's external format.
func toJSON(v value.Value) interface{} {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.AsBool()
	case value.KindNumber:
		return v.AsNumber()
	case value.KindString:
		return v.AsString()
	case value.KindTuple:
		elems := v.AsTuple()
		out := make([]interface{}, len(elems))
		for i, e := range elems {
			out[i] = toJSON(e)
		}
		return out
	case value.KindDict:
		d := v.AsDict()
		out := make(map[string]interface{}, d.Len())
		for _, k := range d.Keys() {
			ev, _ := d.Get(k)
			out[k] = toJSON(ev)
		}
		return out
	default:
		return v.String()
	}
}

func registerMethods(rc *runtime.Context) {
	rc.RegisterMethod("str", method("str", func(a *value.Args, _ interface{}) (value.Value, error) {
		r, _ := a.Get(0)
		return value.String(r.String()), nil
	}))
	rc.RegisterMethod("num", method("num", func(a *value.Args, _ interface{}) (value.Value, error) {
		r, _ := a.Get(0)
		switch r.Kind() {
		case value.KindNumber:
			return r, nil
		case value.KindString:
			n, err := strconv.ParseFloat(strings.TrimSpace(r.AsString()), 64)
			if err != nil {
				return value.Null, rillerr.TypeError("cannot convert string to number: " + r.AsString())
			}
			return value.Number(n), nil
		case value.KindBool:
			if r.AsBool() {
				return value.Number(1), nil
			}
			return value.Number(0), nil
		default:
			return value.Null, rillerr.TypeError("cannot convert " + r.TypeName() + " to number")
		}
	}))
	rc.RegisterMethod("len", method("len", func(a *value.Args, _ interface{}) (value.Value, error) {
		r, _ := a.Get(0)
		switch r.Kind() {
		case value.KindString:
			return value.Number(float64(len([]rune(r.AsString())))), nil
		case value.KindTuple:
			return value.Number(float64(len(r.AsTuple()))), nil
		case value.KindDict:
			return value.Number(float64(r.AsDict().Len())), nil
		default:
			return value.Null, rillerr.TypeError("len requires a string, tuple, or dict")
		}
	}))
	rc.RegisterMethod("trim", method("trim", func(a *value.Args, _ interface{}) (value.Value, error) {
		r, _ := a.Get(0)
		if r.Kind() != value.KindString {
			return value.Null, rillerr.TypeError("trim requires a string")
		}
		return value.String(strings.TrimSpace(r.AsString())), nil
	}))
	rc.RegisterMethod("first", method("first", func(a *value.Args, _ interface{}) (value.Value, error) {
		r, _ := a.Get(0)
		return sequenceAt(r, 0)
	}))
	rc.RegisterMethod("last", method("last", func(a *value.Args, _ interface{}) (value.Value, error) {
		r, _ := a.Get(0)
		return sequenceAt(r, -1)
	}))
	rc.RegisterMethod("at", method("at", func(a *value.Args, _ interface{}) (value.Value, error) {
		r, _ := a.Get(0)
		idxV, ok := a.Get(1)
		if !ok || idxV.Kind() != value.KindNumber {
			return value.Null, rillerr.ArityError("at", a.Len(), 2)
		}
		return sequenceAt(r, int(idxV.AsNumber()))
	}))
	rc.RegisterMethod("split", method("split", func(a *value.Args, _ interface{}) (value.Value, error) {
		r, _ := a.Get(0)
		if r.Kind() != value.KindString {
			return value.Null, rillerr.TypeError("split requires a string")
		}
		sep := "\n"
		if sv, ok := a.Get(1); ok && sv.Kind() == value.KindString {
			sep = sv.AsString()
		}
		parts := strings.Split(r.AsString(), sep)
		out := make([]value.Value, len(parts))
		for i, p := range parts {
			out[i] = value.String(p)
		}
		return value.Tuple(out), nil
	}))
	rc.RegisterMethod("join", method("join", func(a *value.Args, _ interface{}) (value.Value, error) {
		r, _ := a.Get(0)
		if r.Kind() != value.KindTuple {
			return value.Null, rillerr.TypeError("join requires a tuple")
		}
		sep := ","
		if sv, ok := a.Get(1); ok && sv.Kind() == value.KindString {
			sep = sv.AsString()
		}
		parts := make([]string, len(r.AsTuple()))
		for i, e := range r.AsTuple() {
			parts[i] = e.String()
		}
		return value.String(strings.Join(parts, sep)), nil
	}))
	rc.RegisterMethod("lines", method("lines", func(a *value.Args, _ interface{}) (value.Value, error) {
		r, _ := a.Get(0)
		if r.Kind() != value.KindString {
			return value.Null, rillerr.TypeError("lines requires a string")
		}
		parts := strings.Split(r.AsString(), "\n")
		out := make([]value.Value, len(parts))
		for i, p := range parts {
			out[i] = value.String(p)
		}
		return value.Tuple(out), nil
	}))
	rc.RegisterMethod("empty", method("empty", func(a *value.Args, _ interface{}) (value.Value, error) {
		r, _ := a.Get(0)
		return value.Bool(!r.Truthy()), nil
	}))
	rc.RegisterMethod("contains", method("contains", func(a *value.Args, _ interface{}) (value.Value, error) {
		r, _ := a.Get(0)
		needle, ok := a.Get(1)
		if !ok {
			return value.Null, rillerr.ArityError("contains", a.Len(), 2)
		}
		switch r.Kind() {
		case value.KindString:
			if needle.Kind() != value.KindString {
				return value.Null, rillerr.TypeError("contains on a string requires a string argument")
			}
			return value.Bool(strings.Contains(r.AsString(), needle.AsString())), nil
		case value.KindTuple:
			for _, e := range r.AsTuple() {
				if value.Equal(e, needle) {
					return value.Bool(true), nil
				}
			}
			return value.Bool(false), nil
		default:
			return value.Null, rillerr.TypeError("contains requires a string or tuple")
		}
	}))
	rc.RegisterMethod("matches", method("matches", func(a *value.Args, _ interface{}) (value.Value, error) {
		r, _ := a.Get(0)
		pat, ok := a.Get(1)
		if r.Kind() != value.KindString || !ok || pat.Kind() != value.KindString {
			return value.Null, rillerr.TypeError("matches requires a string receiver and a string pattern")
		}
		re, err := regexp.Compile(pat.AsString())
		if err != nil {
			return value.Null, rillerr.InvalidPattern(pat.AsString(), err.Error())
		}
		groups := re.FindStringSubmatch(r.AsString())
		if groups == nil {
			return value.Tuple(nil), nil
		}
		out := make([]value.Value, len(groups))
		for i, g := range groups {
			out[i] = value.String(g)
		}
		return value.Tuple(out), nil
	}))

	registerComparison(rc, "eq", func(cmp int, ok bool, eq bool) bool { return eq })
	registerComparison(rc, "ne", func(cmp int, ok bool, eq bool) bool { return !eq })
	registerComparison(rc, "lt", func(cmp int, ok bool, eq bool) bool { return ok && cmp < 0 })
	registerComparison(rc, "gt", func(cmp int, ok bool, eq bool) bool { return ok && cmp > 0 })
	registerComparison(rc, "le", func(cmp int, ok bool, eq bool) bool { return ok && cmp <= 0 })
	registerComparison(rc, "ge", func(cmp int, ok bool, eq bool) bool { return ok && cmp >= 0 })

	rc.RegisterMethod("keys", method("keys", func(a *value.Args, _ interface{}) (value.Value, error) {
		r, _ := a.Get(0)
		if r.Kind() != value.KindDict {
			return value.Tuple(nil), nil
		}
		ks := r.AsDict().Keys()
		out := make([]value.Value, len(ks))
		for i, k := range ks {
			out[i] = value.String(k)
		}
		return value.Tuple(out), nil
	}))
	rc.RegisterMethod("values", method("values", func(a *value.Args, _ interface{}) (value.Value, error) {
		r, _ := a.Get(0)
		if r.Kind() != value.KindDict {
			return value.Tuple(nil), nil
		}
		return value.Tuple(r.AsDict().Values()), nil
	}))
	rc.RegisterMethod("entries", method("entries", func(a *value.Args, _ interface{}) (value.Value, error) {
		r, _ := a.Get(0)
		if r.Kind() != value.KindDict {
			return value.Tuple(nil), nil
		}
		return value.Tuple(r.AsDict().Entries()), nil
	}))
}

// registerComparison wires a structural/ordering comparison method; eq/ne
// use deep equality, lt/gt/le/ge use value.Compare (numeric or string).
func registerComparison(rc *runtime.Context, name string, decide func(cmp int, ok bool, eq bool) bool) {
	rc.RegisterMethod(name, method(name, func(a *value.Args, _ interface{}) (value.Value, error) {
		r, _ := a.Get(0)
		other, ok := a.Get(1)
		if !ok {
			return value.Null, rillerr.ArityError(name, a.Len(), 2)
		}
		cmp, cmpOK := value.Compare(r, other)
		return value.Bool(decide(cmp, cmpOK, value.Equal(r, other))), nil
	}))
}

func sequenceAt(r value.Value, idx int) (value.Value, error) {
	switch r.Kind() {
	case value.KindTuple:
		elems := r.AsTuple()
		i := normalizeIndex(idx, len(elems))
		if i < 0 || i >= len(elems) {
			return value.Null, nil
		}
		return elems[i], nil
	case value.KindString:
		runes := []rune(r.AsString())
		i := normalizeIndex(idx, len(runes))
		if i < 0 || i >= len(runes) {
			return value.Null, nil
		}
		return value.String(string(runes[i])), nil
	default:
		return value.Null, rillerr.TypeError("requires a tuple or string")
	}
}

func normalizeIndex(i, length int) int {
	if i < 0 {
		return length + i
	}
	return i
}
