// Package rillerr implements the structured error taxonomy described in
// §6.3/§7 of the specification: stable error ids, categories, rendered
// messages, context maps, call-stack attachment, and deterministic help
// URLs.
package rillerr

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rill-lang/rill/internal/rill/token"
)

// Category classifies where an error originated.
type Category string

const (
	CategoryLexer   Category = "lexer"
	CategoryParse   Category = "parse"
	CategoryRuntime Category = "runtime"
)

// Frame is one entry of a call-stack snapshot attached to a runtime error.
type Frame struct {
	Span         token.Span
	FunctionName string
	Note         string
}

// Error is a structured Rill error: a stable id, a category, a rendered
// message, an optional source location, a context map, and an optional
// call stack.
type Error struct {
	ID        string
	Category  Category
	Template  string
	Context   map[string]string
	Location  *token.Location
	CallStack []Frame
}

func (e *Error) Error() string {
	msg := render(e.Template, e.Context)
	if e.Location != nil {
		return fmt.Sprintf("%s: %s at %d:%d", e.ID, msg, e.Location.Line, e.Location.Column)
	}
	return fmt.Sprintf("%s: %s", e.ID, msg)
}

// HelpURL derives deterministically from the error id.
func (e *Error) HelpURL() string {
	return fmt.Sprintf("https://rill-lang.dev/errors/%s", e.ID)
}

// render expands `{placeholder}` tokens in a template; missing keys render
// as empty per §6.3.
func render(template string, ctx map[string]string) string {
	out := template
	for k, v := range ctx {
		out = strings.ReplaceAll(out, "{"+k+"}", v)
	}
	for {
		start := strings.IndexByte(out, '{')
		if start < 0 {
			break
		}
		end := strings.IndexByte(out[start:], '}')
		if end < 0 {
			break
		}
		out = out[:start] + out[start+end+1:]
	}
	return out
}

// New builds an Error with the given id, category, and message template.
func New(id string, cat Category, template string) *Error {
	return &Error{ID: id, Category: cat, Template: template, Context: map[string]string{}}
}

// WithContext attaches one context key/value and returns the receiver.
func (e *Error) WithContext(key, value string) *Error {
	e.Context[key] = value
	return e
}

// WithLocation attaches a source location and returns the receiver.
func (e *Error) WithLocation(loc token.Location) *Error {
	l := loc
	e.Location = &l
	return e
}

// WithCallStack attaches a call-stack snapshot and returns the receiver.
func (e *Error) WithCallStack(frames []Frame) *Error {
	e.CallStack = frames
	return e
}

// ToJSON renders a stable, human-auditable JSON-ish map (kept dependency
// free and deterministic: keys sorted) rather than pulling in a struct tag
// marshaler, since only a handful of fields are exposed.
func (e *Error) ToJSON() map[string]interface{} {
	m := map[string]interface{}{
		"id":       e.ID,
		"category": string(e.Category),
		"message":  render(e.Template, e.Context),
		"help_url": e.HelpURL(),
	}
	if e.Location != nil {
		m["location"] = map[string]int{"line": e.Location.Line, "column": e.Location.Column}
	}
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		ctx := make(map[string]string, len(e.Context))
		for _, k := range keys {
			ctx[k] = e.Context[k]
		}
		m["context"] = ctx
	}
	if len(e.CallStack) > 0 {
		frames := make([]map[string]string, 0, len(e.CallStack))
		for _, f := range e.CallStack {
			frames = append(frames, map[string]string{"function": f.FunctionName, "note": f.Note})
		}
		m["call_stack"] = frames
	}
	return m
}

// Well-known error ids (§7 kinds, not type names). Lexer errors use the
// "L" prefix, parse errors "P", runtime errors "R".
const (
	LUnterminatedString  = "RILL-L001"
	LInvalidEscape       = "RILL-L002"
	LTripleQuoteInInterp = "RILL-L003"

	PUnexpectedToken = "RILL-P001"
	PUnclosedBracket = "RILL-P002"
	PExpectedToken   = "RILL-P003"

	RUndefinedVariable = "RILL-R001"
	RUndefinedFunction = "RILL-R002"
	RUndefinedMethod   = "RILL-R003"
	RTypeError         = "RILL-R004"
	RArityError        = "RILL-R005"
	RNonIterable       = "RILL-R006"
	RIterationLimit    = "RILL-R007"
	RBreakInParallel   = "RILL-R008"
	RInvalidSpread     = "RILL-R009"
	RDivisionByZero    = "RILL-R010"
	RAutoException     = "RILL-R011"
	RTimeout           = "RILL-R012"
	RAborted           = "RILL-R013"
	RKeyNotFound       = "RILL-R014"
	RInvalidPattern    = "RILL-R015"
)

// Runtime convenience constructors, used throughout internal/rill/eval and
// internal/rill/runtime.

func UndefinedVariable(name string) *Error {
	return New(RUndefinedVariable, CategoryRuntime, "undefined variable {name}").WithContext("name", name)
}

func UndefinedFunction(name string) *Error {
	return New(RUndefinedFunction, CategoryRuntime, "undefined function {name}").WithContext("name", name)
}

func UndefinedMethod(name string) *Error {
	return New(RUndefinedMethod, CategoryRuntime, "undefined method {name}").WithContext("name", name)
}

func TypeError(msg string) *Error {
	return New(RTypeError, CategoryRuntime, msg)
}

// TypeLockViolation reports an assignment to name that would change its
// recorded type, per §4.4's "variable already has a recorded type" rule.
func TypeLockViolation(name, locked, got string) *Error {
	return New(RTypeError, CategoryRuntime, "{name} is locked to type {locked}, cannot assign {got}").
		WithContext("name", name).
		WithContext("locked", locked).
		WithContext("got", got)
}

func ArityError(fn string, got, want int) *Error {
	return New(RArityError, CategoryRuntime, "{fn} expects {want} arguments, got {got}").
		WithContext("fn", fn).
		WithContext("want", fmt.Sprint(want)).
		WithContext("got", fmt.Sprint(got))
}

func NonIterable(typ string) *Error {
	return New(RNonIterable, CategoryRuntime, "value of type {type} is not iterable").WithContext("type", typ)
}

func IterationLimit(limit int) *Error {
	return New(RIterationLimit, CategoryRuntime, "exceeded {limit} iterations").WithContext("limit", fmt.Sprint(limit))
}

func BreakInParallel() *Error {
	return New(RBreakInParallel, CategoryRuntime, "break not allowed in parallel iteration")
}

func InvalidSpread() *Error {
	return New(RInvalidSpread, CategoryRuntime, "invalid spread: expected a dict")
}

func DivisionByZero() *Error {
	return New(RDivisionByZero, CategoryRuntime, "division or modulo by zero")
}

func AutoException(pattern, matched string) *Error {
	return New(RAutoException, CategoryRuntime, "auto-exception pattern {pattern} matched {matched}").
		WithContext("pattern", pattern).
		WithContext("matched", matched)
}

func Timeout(fn string, ms int) *Error {
	return New(RTimeout, CategoryRuntime, "{fn} timed out after {ms}ms").
		WithContext("fn", fn).
		WithContext("ms", fmt.Sprint(ms))
}

func Aborted() *Error {
	return New(RAborted, CategoryRuntime, "execution aborted")
}

func KeyNotFound(key string) *Error {
	return New(RKeyNotFound, CategoryRuntime, "key not found: {key}").WithContext("key", key)
}

func InvalidPattern(pattern, reason string) *Error {
	return New(RInvalidPattern, CategoryRuntime, "invalid pattern {pattern}: {reason}").
		WithContext("pattern", pattern).
		WithContext("reason", reason)
}
