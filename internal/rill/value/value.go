// Package value implements the Rill runtime value model: a tagged union
// over null, bool, number, string, tuple, dict, and callable, plus the
// Args spread-argument wrapper (§3.4).
package value

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rill-lang/rill/internal/rill/ast"
)

// Kind tags a Value's underlying representation.
type Kind int

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindTuple
	KindDict
	KindCallable
	KindArgs
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindTuple:
		return "tuple"
	case KindDict:
		return "dict"
	case KindCallable:
		return "callable"
	case KindArgs:
		return "args"
	default:
		return "unknown"
	}
}

// Value is an immutable Rill runtime value.
type Value struct {
	kind     Kind
	b        bool
	n        float64
	s        string
	tuple    []Value
	dict     *Dict
	callable *Callable
	args     *Args
}

// Null is the singleton null value.
var Null = Value{kind: KindNull}

func Bool(b bool) Value   { return Value{kind: KindBool, b: b} }
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }
func String(s string) Value  { return Value{kind: KindString, s: s} }

func Tuple(elems []Value) Value {
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{kind: KindTuple, tuple: cp}
}

func DictValue(d *Dict) Value { return Value{kind: KindDict, dict: d} }

func CallableValue(c *Callable) Value { return Value{kind: KindCallable, callable: c} }

func ArgsValue(a *Args) Value { return Value{kind: KindArgs, args: a} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsBool() bool        { return v.b }
func (v Value) AsNumber() float64   { return v.n }
func (v Value) AsString() string    { return v.s }
func (v Value) AsTuple() []Value    { return v.tuple }
func (v Value) AsDict() *Dict       { return v.dict }
func (v Value) AsCallable() *Callable { return v.callable }
func (v Value) AsArgs() *Args       { return v.args }

func (v Value) IsNull() bool { return v.kind == KindNull }

// Truthy implements §3.4's truthiness rule: null, false, 0, "", empty
// tuple, and empty dict are falsy; everything else (including callables
// and Args) is truthy.
func (v Value) Truthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	case KindNumber:
		return v.n != 0
	case KindString:
		return v.s != ""
	case KindTuple:
		return len(v.tuple) > 0
	case KindDict:
		return v.dict.Len() > 0
	default:
		return true
	}
}

// TypeName reports the Rill-visible type tag, used by the `type()`
// built-in and by the runtime's per-name type lock.
func (v Value) TypeName() string { return v.kind.String() }

// Equal implements structural equality: dict equality is order
// independent, tuple equality is order dependent, callables compare by
// identity.
func Equal(a, b Value) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case KindNull:
		return true
	case KindBool:
		return a.b == b.b
	case KindNumber:
		return a.n == b.n
	case KindString:
		return a.s == b.s
	case KindTuple:
		if len(a.tuple) != len(b.tuple) {
			return false
		}
		for i := range a.tuple {
			if !Equal(a.tuple[i], b.tuple[i]) {
				return false
			}
		}
		return true
	case KindDict:
		return a.dict.Equal(b.dict)
	case KindCallable:
		return a.callable == b.callable
	case KindArgs:
		return a.args == b.args
	default:
		return false
	}
}

// Compare orders two values for `<`, `<=`, `>`, `>=`. Only number and
// string are orderable; ok is false otherwise.
func Compare(a, b Value) (cmp int, ok bool) {
	if a.kind != b.kind {
		return 0, false
	}
	switch a.kind {
	case KindNumber:
		switch {
		case a.n < b.n:
			return -1, true
		case a.n > b.n:
			return 1, true
		default:
			return 0, true
		}
	case KindString:
		return strings.Compare(a.s, b.s), true
	default:
		return 0, false
	}
}

// String renders a value the way Rill's string coercion (`str`/`.str`)
// would, used both by that method and by debug rendering.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return ""
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return formatNumber(v.n)
	case KindString:
		return v.s
	case KindTuple:
		parts := make([]string, len(v.tuple))
		for i, e := range v.tuple {
			parts[i] = e.Inspect()
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case KindDict:
		return v.dict.Inspect()
	case KindCallable:
		return fmt.Sprintf("<callable %s>", v.callable.Name)
	case KindArgs:
		return "<args>"
	default:
		return ""
	}
}

// Inspect renders a value quoting strings, used inside tuple/dict
// rendering so nested strings are distinguishable from bare text.
func (v Value) Inspect() string {
	if v.kind == KindString {
		return strconv.Quote(v.s)
	}
	return v.String()
}

func formatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "Infinity"
	}
	if math.IsInf(n, -1) {
		return "-Infinity"
	}
	if math.IsNaN(n) {
		return "NaN"
	}
	if n == math.Trunc(n) && math.Abs(n) < 1e15 {
		return strconv.FormatInt(int64(n), 10)
	}
	return strconv.FormatFloat(n, 'g', -1, 64)
}

// Dict is an insertion-order-preserving string-keyed map, since Rill
// dicts must support stable `keys`/`values`/`entries` iteration while
// still comparing for equality order-independently.
type Dict struct {
	keys   []string
	values map[string]Value
}

func NewDict() *Dict {
	return &Dict{values: map[string]Value{}}
}

func (d *Dict) Set(key string, v Value) {
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.values[key]
	return v, ok
}

func (d *Dict) Delete(key string) {
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

func (d *Dict) Len() int { return len(d.keys) }

// Keys returns keys in insertion order.
func (d *Dict) Keys() []string {
	cp := make([]string, len(d.keys))
	copy(cp, d.keys)
	return cp
}

// Values returns values in the same order as Keys.
func (d *Dict) Values() []Value {
	out := make([]Value, len(d.keys))
	for i, k := range d.keys {
		out[i] = d.values[k]
	}
	return out
}

// Entries returns each key/value pair as a two-element tuple, in
// insertion order, for the `entries` method.
func (d *Dict) Entries() []Value {
	out := make([]Value, len(d.keys))
	for i, k := range d.keys {
		out[i] = Tuple([]Value{String(k), d.values[k]})
	}
	return out
}

// Clone makes a shallow copy, used by Merge.
func (d *Dict) Clone() *Dict {
	cp := NewDict()
	for _, k := range d.keys {
		cp.Set(k, d.values[k])
	}
	return cp
}

// Merge returns a new dict with other's entries overlaid on d's, used
// by annotation-frame merging (innermost wins, §4.8).
func (d *Dict) Merge(other *Dict) *Dict {
	cp := d.Clone()
	for _, k := range other.keys {
		cp.Set(k, other.values[k])
	}
	return cp
}

// Equal is order-independent key/value comparison.
func (d *Dict) Equal(other *Dict) bool {
	if d.Len() != other.Len() {
		return false
	}
	for k, v := range d.values {
		ov, ok := other.values[k]
		if !ok || !Equal(v, ov) {
			return false
		}
	}
	return true
}

func (d *Dict) Inspect() string {
	parts := make([]string, 0, len(d.keys))
	for _, k := range d.keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, d.values[k].Inspect()))
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// SortedKeys returns the keys in lexical order, a deterministic order
// distinct from insertion order.
func (d *Dict) SortedKeys() []string {
	ks := d.Keys()
	sort.Strings(ks)
	return ks
}

// CallableKind distinguishes the three invocation surfaces of §3.4.
type CallableKind int

const (
	ScriptCallable CallableKind = iota
	RuntimeCallable
	HostCallable
)

// Callable is the single representation shared by script closures,
// runtime-registered functions, and host functions. Exactly one of
// Body/Native is set, selected by Kind.
type Callable struct {
	Kind       CallableKind
	Name       string
	Params     []ast.Param
	Body       ast.Expr // Block or a single Expression, script callables only
	Native     NativeFunc
	IsProperty bool // implicit-receiver method call, e.g. `.upper`

	HasReceiver bool  // true once bound to a receiver via a method call
	Receiver    Value // the receiver value (any kind, not just dict)

	// DefiningScope is the lexical scope chain captured at closure
	// creation time (§4.4's "late binding" rule). It is an opaque
	// *runtime.Scope, kept untyped here to avoid value importing
	// runtime (which already imports value); internal/rill/eval performs
	// the type assertion.
	DefiningScope interface{}
}

// NativeFunc is the signature every host and runtime-registered function
// implements. CallCtx is an opaque interface{} for the same reason as
// DefiningScope: eval defines the concrete runtime context type.
type NativeFunc func(call *Args, callCtx interface{}) (Value, error)

// Bind returns a copy of c with its receiver set, used when a
// property-style method call resolves against a receiver value (§4.5
// step 3).
func (c *Callable) Bind(receiver Value) *Callable {
	cp := *c
	cp.HasReceiver = true
	cp.Receiver = receiver
	return &cp
}

// Args wraps a call's positional and named arguments, plus spread
// expansion bookkeeping, per §3.4.
type Args struct {
	Positional []Value
	Named      map[string]Value
}

func NewArgs() *Args {
	return &Args{Named: map[string]Value{}}
}

func (a *Args) Len() int { return len(a.Positional) }

func (a *Args) Get(i int) (Value, bool) {
	if i < 0 || i >= len(a.Positional) {
		return Null, false
	}
	return a.Positional[i], true
}

func (a *Args) GetNamed(name string) (Value, bool) {
	v, ok := a.Named[name]
	return v, ok
}

// SpreadDict flattens a dict's entries into named arguments, per the
// `*dict` spread-argument rule of §4.5.
func (a *Args) SpreadDict(d *Dict) {
	for _, k := range d.Keys() {
		v, _ := d.Get(k)
		a.Named[k] = v
	}
}

// SpreadTuple flattens a tuple's elements into positional arguments, per
// the `*tuple` spread-argument rule of §4.5.
func (a *Args) SpreadTuple(elems []Value) {
	a.Positional = append(a.Positional, elems...)
}
