// Package rill is the public embedding API described in §6.2: parse
// source into an AST, build a Context from host-supplied options, and
// execute the AST either all at once or one statement at a time.
package rill

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rill-lang/rill/internal/rill/ast"
	"github.com/rill-lang/rill/internal/rill/builtins"
	"github.com/rill-lang/rill/internal/rill/eval"
	"github.com/rill-lang/rill/internal/rill/parser"
	"github.com/rill-lang/rill/internal/rill/rillerr"
	"github.com/rill-lang/rill/internal/rill/runtime"
	"github.com/rill-lang/rill/internal/rill/value"
)

// Parse scans and parses source in strict mode, aborting on the first
// syntax error.
func Parse(source string) (*ast.Script, error) {
	return parser.Parse(source)
}

// ParseResult is ParseWithRecovery's return shape.
type ParseResult struct {
	AST     *ast.Script
	Errors  []*parser.ParseError
	Success bool
}

// ParseWithRecovery parses source in error-recovery mode, collecting every
// syntax error and resynchronizing to the next statement rather than
// aborting on the first one.
func ParseWithRecovery(source string) ParseResult {
	script, errs, ok := parser.ParseWithRecovery(source)
	return ParseResult{AST: script, Errors: errs, Success: ok}
}

// Options configures a Context built by CreateContext, mirroring §6.2's
// host-provided option set.
type Options struct {
	Variables      map[string]value.Value
	HostFunctions  map[string]value.NativeFunc
	Methods        map[string]value.NativeFunc
	Callbacks      runtime.Callbacks
	Logger         *zap.Logger
	Timeout        time.Duration
	AutoExceptions []string
	Cancel         context.Context
}

// CreateContext builds a Context from Options: the closed built-in set is
// registered first, then host functions and host methods (which may
// override a built-in of the same name), then initial variables.
func CreateContext(opts Options) *Context {
	rcOpts := []runtime.Option{runtime.WithCallbacks(opts.Callbacks)}
	if opts.Logger != nil {
		rcOpts = append(rcOpts, runtime.WithLogger(opts.Logger))
	}
	if opts.Timeout > 0 {
		rcOpts = append(rcOpts, runtime.WithTimeout(opts.Timeout))
	}
	if opts.Cancel != nil {
		rcOpts = append(rcOpts, runtime.WithCancel(opts.Cancel))
	}
	if len(opts.AutoExceptions) > 0 {
		rcOpts = append(rcOpts, runtime.WithAutoExceptionPatterns(opts.AutoExceptions))
	}

	rc := runtime.New(rcOpts...)
	builtins.Register(rc)

	for name, fn := range opts.HostFunctions {
		rc.RegisterHostFunction(name, &value.Callable{Kind: value.HostCallable, Name: name, Native: fn})
	}
	for name, fn := range opts.Methods {
		rc.RegisterMethod(name, &value.Callable{Kind: value.HostCallable, Name: name, IsProperty: true, Native: fn})
	}
	for name, v := range opts.Variables {
		rc.Define(name, v)
	}

	return &Context{rc: rc}
}

// Context wraps a runtime.Context for external consumers, keeping the
// internal package boundary out of the public API.
type Context struct {
	rc *runtime.Context
}

// Variables snapshots the values bound to the given names after
// execution, for the `{value, variables}` result shape of §6.2. Names
// that are not bound are left out of the map.
func (c *Context) Variables(names []string) map[string]value.Value {
	out := make(map[string]value.Value, len(names))
	for _, n := range names {
		if v, ok := c.rc.Lookup(n); ok {
			out[n] = v
		}
	}
	return out
}

// Result is Execute's return shape: the script's final value plus the
// context it ran against, so the host can inspect bound variables.
type Result struct {
	Value   value.Value
	Context *Context
}

// Execute runs script against ctx to completion.
func Execute(script *ast.Script, ctx *Context) (Result, error) {
	v, err := eval.EvalScript(script, ctx.rc)
	return Result{Value: v, Context: ctx}, err
}

// Stepper runs a script one statement at a time, per §6.2's
// create_stepper contract.
type Stepper struct {
	script *ast.Script
	ctx    *Context
	index  int
	result value.Value
	done   bool
}

// CreateStepper builds a Stepper over script, not yet advanced.
func CreateStepper(script *ast.Script, ctx *Context) *Stepper {
	return &Stepper{script: script, ctx: ctx, result: value.Null}
}

// StepResult is one Step() outcome.
type StepResult struct {
	Value    value.Value
	Done     bool
	Index    int
	Total    int
	Captured bool
}

// Step evaluates the next statement and advances Index. Calling Step past
// the end of the script is a no-op that keeps returning Done=true.
func (s *Stepper) Step() (StepResult, error) {
	if s.done || s.index >= len(s.script.Statements) {
		s.done = true
		return StepResult{Value: s.result, Done: true, Index: s.index, Total: len(s.script.Statements)}, nil
	}
	stmt := s.script.Statements[s.index]
	v, err := eval.EvalStatement(stmt, s.ctx.rc)
	s.index++
	if err != nil {
		s.done = true
		return StepResult{Value: value.Null, Done: true, Index: s.index, Total: len(s.script.Statements)}, err
	}
	s.result = v
	if s.index >= len(s.script.Statements) {
		s.done = true
	}
	return StepResult{Value: v, Done: s.done, Index: s.index, Total: len(s.script.Statements)}, nil
}

// Done reports whether every statement has been stepped through.
func (s *Stepper) Done() bool { return s.done }

// Index reports the number of statements stepped so far.
func (s *Stepper) Index() int { return s.index }

// Total reports the script's statement count.
func (s *Stepper) Total() int { return len(s.script.Statements) }

// Context exposes the stepper's underlying context.
func (s *Stepper) Context() *Context { return s.ctx }

// GetResult returns the value produced by the most recently stepped
// statement, or Null if none has run yet.
func (s *Stepper) GetResult() value.Value { return s.result }

// ExitCode maps a script's final value to a process-style exit code and
// message, per §6.4's CLI contract.
func ExitCode(v value.Value) (code int, message string) {
	switch v.Kind() {
	case value.KindBool:
		if v.AsBool() {
			return 0, ""
		}
		return 1, ""
	case value.KindString:
		if v.AsString() == "" {
			return 1, ""
		}
		return 0, v.AsString()
	case value.KindTuple:
		elems := v.AsTuple()
		if len(elems) == 2 && elems[0].Kind() == value.KindNumber && elems[1].Kind() == value.KindString {
			n := int(elems[0].AsNumber())
			if n == 0 || n == 1 {
				return n, elems[1].AsString()
			}
		}
		return 0, ""
	case value.KindNull:
		return 1, ""
	default:
		return 0, ""
	}
}

// AsStructuredError reports whether err is a structured Rill error,
// exposing it without requiring the caller to import internal/rill/rillerr.
func AsStructuredError(err error) (*rillerr.Error, bool) {
	re, ok := err.(*rillerr.Error)
	return re, ok
}
