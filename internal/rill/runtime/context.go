// Package runtime implements the Rill RuntimeContext described in §3.5:
// scope stack, per-name type locks, host-function and method registries,
// the pipe-value slot, the annotation-frame stack, the call stack, and
// observability callbacks.
package runtime

import (
	"context"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/rill-lang/rill/internal/rill/rillerr"
	"github.com/rill-lang/rill/internal/rill/token"
	"github.com/rill-lang/rill/internal/rill/value"
)

// Scope is one lexical frame of named bindings. types records each name's
// first-assigned type tag, enforcing the §4.4/§8 "type lock" invariant: once
// a name has a recorded type, a later assignment that would change it fails.
type Scope struct {
	parent *Scope
	vars   map[string]value.Value
	types  map[string]value.Kind
}

func newScope(parent *Scope) *Scope {
	return &Scope{parent: parent, vars: map[string]value.Value{}, types: map[string]value.Kind{}}
}

func (s *Scope) lookup(name string) (value.Value, bool) {
	for sc := s; sc != nil; sc = sc.parent {
		if v, ok := sc.vars[name]; ok {
			return v, true
		}
	}
	return value.Null, false
}

func (s *Scope) define(name string, v value.Value) {
	s.vars[name] = v
	s.types[name] = v.Kind()
}

// set writes to the nearest scope that already defines name, or the
// current scope if none does (first write defines it there), matching
// the "variables are late-bound, reassignment is permitted" rule of §4.4.
// A name's type is locked on its first successful write; a later write
// carrying a different kind fails with a type error instead of silently
// overwriting it.
func (s *Scope) set(name string, v value.Value) error {
	for sc := s; sc != nil; sc = sc.parent {
		if locked, ok := sc.types[name]; ok {
			if locked != v.Kind() {
				return rillerr.TypeLockViolation(name, locked.String(), v.Kind().String())
			}
			sc.vars[name] = v
			return nil
		}
	}
	s.vars[name] = v
	s.types[name] = v.Kind()
	return nil
}

// CallFrame is one entry of the call stack (§3.5).
type CallFrame struct {
	Span         token.Span
	FunctionName string
	Note         string
}

// Callbacks are the observability hooks a host may install.
type Callbacks struct {
	OnStepStart    func(span token.Span)
	OnStepEnd      func(span token.Span, result value.Value)
	OnFunctionCall func(name string, args *value.Args)
	OnFunctionReturn func(name string, result value.Value, err error)
	OnCapture      func(name string, v value.Value)
	OnError        func(err error)
	OnLog          func(msg string)
	OnLogEvent     func(fields map[string]interface{})
}

// Context is the mutable state threaded through evaluation of a single
// Rill program run.
type Context struct {
	scope      *Scope
	pipeValue  value.Value
	hasPipe    bool

	hostFuncs  map[string]*value.Callable
	methods    map[string]*value.Callable

	annotationStack []*value.Dict

	callStack []CallFrame

	callbacks Callbacks
	logger    *zap.Logger

	autoExceptions []*regexp.Regexp

	timeout time.Duration
	cancel  context.Context
}

// Option configures a new Context.
type Option func(*Context)

// WithCallbacks installs observability hooks.
func WithCallbacks(cb Callbacks) Option {
	return func(c *Context) { c.callbacks = cb }
}

// WithLogger installs a zap logger backing the default on_log/on_log_event
// callbacks when the caller hasn't supplied its own.
func WithLogger(l *zap.Logger) Option {
	return func(c *Context) { c.logger = l }
}

// WithTimeout bounds every closure/host-function invocation (§4.5 step 9).
func WithTimeout(d time.Duration) Option {
	return func(c *Context) { c.timeout = d }
}

// WithCancel installs a cancellation signal checked before each statement
// and before each closure or host-function invocation.
func WithCancel(ctx context.Context) Option {
	return func(c *Context) { c.cancel = ctx }
}

// WithAutoExceptionPatterns compiles regexes checked against string values
// flowing through the pipe, per §7's auto-exception mechanism.
func WithAutoExceptionPatterns(patterns []string) Option {
	return func(c *Context) {
		for _, p := range patterns {
			if re, err := regexp.Compile(p); err == nil {
				c.autoExceptions = append(c.autoExceptions, re)
			}
		}
	}
}

// New builds a fresh Context with an empty root scope.
func New(opts ...Option) *Context {
	c := &Context{
		scope:     newScope(nil),
		hostFuncs: map[string]*value.Callable{},
		methods:   map[string]*value.Callable{},
	}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger, _ = zap.NewProduction()
	}
	return c
}

// PushScope enters a new lexical frame (closure invocation, block).
func (c *Context) PushScope() { c.scope = newScope(c.scope) }

// PopScope leaves the current lexical frame.
func (c *Context) PopScope() {
	if c.scope.parent != nil {
		c.scope = c.scope.parent
	}
}

// CaptureScope returns the current scope chain, to be stashed on a
// closure's DefiningScope at creation time (§4.4).
func (c *Context) CaptureScope() *Scope { return c.scope }

// PushScopeOn enters a new lexical frame layered on an arbitrary captured
// scope chain (a closure's DefiningScope), rather than the current one.
// The previously current scope is returned so the caller can restore it.
func (c *Context) PushScopeOn(defining *Scope) (restore *Scope) {
	restore = c.scope
	c.scope = newScope(defining)
	return restore
}

// RestoreScope sets the current scope back to a value returned by
// PushScopeOn, used on both normal and error exit from an invocation.
func (c *Context) RestoreScope(prev *Scope) { c.scope = prev }

func (c *Context) Lookup(name string) (value.Value, bool) { return c.scope.lookup(name) }
func (c *Context) Define(name string, v value.Value)      { c.scope.define(name, v) }

// Set assigns name in the nearest enclosing scope that already binds it
// (or the current scope, binding it there, if none does), enforcing the
// type lock recorded on that name's first assignment.
func (c *Context) Set(name string, v value.Value) error { return c.scope.set(name, v) }

// PipeValue returns the value currently flowing through a pipe chain, if
// any (§4.3's implicit `$` slot).
func (c *Context) PipeValue() (value.Value, bool) { return c.pipeValue, c.hasPipe }

func (c *Context) SetPipeValue(v value.Value) {
	c.pipeValue = v
	c.hasPipe = true
}

func (c *Context) ClearPipeValue() {
	c.pipeValue = value.Null
	c.hasPipe = false
}

// RegisterHostFunction installs a host or runtime-level function under a
// (possibly `ns::name`-namespaced) key.
func (c *Context) RegisterHostFunction(name string, fn *value.Callable) {
	c.hostFuncs[name] = fn
}

func (c *Context) LookupHostFunction(name string) (*value.Callable, bool) {
	fn, ok := c.hostFuncs[name]
	return fn, ok
}

// RegisterMethod installs a built-in or host-extended method.
func (c *Context) RegisterMethod(name string, fn *value.Callable) {
	c.methods[name] = fn
}

func (c *Context) LookupMethod(name string) (*value.Callable, bool) {
	fn, ok := c.methods[name]
	return fn, ok
}

// PushAnnotations enters a new annotation frame, merged over the
// innermost enclosing frame per §4.8.
func (c *Context) PushAnnotations(d *value.Dict) {
	if len(c.annotationStack) > 0 {
		d = c.annotationStack[len(c.annotationStack)-1].Merge(d)
	}
	c.annotationStack = append(c.annotationStack, d)
}

func (c *Context) PopAnnotations() {
	if len(c.annotationStack) > 0 {
		c.annotationStack = c.annotationStack[:len(c.annotationStack)-1]
	}
}

// CurrentAnnotations returns the effective (already-merged) annotation
// dict, or nil if no annotation frame is active.
func (c *Context) CurrentAnnotations() *value.Dict {
	if len(c.annotationStack) == 0 {
		return nil
	}
	return c.annotationStack[len(c.annotationStack)-1]
}

// PushCall enters a call frame, enforcing no hard depth limit in code
// (Go's own goroutine stack bounds recursion; §5 leaves this to the host).
func (c *Context) PushCall(frame CallFrame) {
	c.callStack = append(c.callStack, frame)
	if c.callbacks.OnFunctionCall != nil {
		c.callbacks.OnFunctionCall(frame.FunctionName, nil)
	}
}

func (c *Context) PopCall() {
	if len(c.callStack) == 0 {
		return
	}
	c.callStack = c.callStack[:len(c.callStack)-1]
}

func (c *Context) CallStack() []CallFrame {
	cp := make([]CallFrame, len(c.callStack))
	copy(cp, c.callStack)
	return cp
}

// Timeout returns the configured per-call timeout, or 0 if none.
func (c *Context) Timeout() time.Duration { return c.timeout }

// Cancelled reports whether the installed cancellation signal has fired.
func (c *Context) Cancelled() bool {
	if c.cancel == nil {
		return false
	}
	select {
	case <-c.cancel.Done():
		return true
	default:
		return false
	}
}

// CheckAutoException scans a string value against the configured
// auto-exception patterns, returning a structured error on the first
// match (§7).
func (c *Context) CheckAutoException(s string) error {
	for _, re := range c.autoExceptions {
		if m := re.FindString(s); m != "" {
			return rillerr.AutoException(re.String(), m)
		}
	}
	return nil
}

// Log emits a structured log line via the installed callback or, failing
// that, the zap logger.
func (c *Context) Log(msg string, fields map[string]interface{}) {
	if c.callbacks.OnLogEvent != nil {
		merged := map[string]interface{}{"message": msg}
		for k, v := range fields {
			merged[k] = v
		}
		c.callbacks.OnLogEvent(merged)
		return
	}
	if c.callbacks.OnLog != nil {
		c.callbacks.OnLog(msg)
		return
	}
	zf := make([]zap.Field, 0, len(fields))
	for k, v := range fields {
		zf = append(zf, zap.Any(k, v))
	}
	c.logger.Info(msg, zf...)
}

// Callbacks exposes the installed observability hooks to internal/rill/eval.
func (c *Context) Callbacks() Callbacks { return c.callbacks }

// EmitCapture fires the on_capture callback for a `-> => $name` terminator.
func (c *Context) EmitCapture(name string, v value.Value) {
	if c.callbacks.OnCapture != nil {
		c.callbacks.OnCapture(name, v)
	}
}

// EmitError fires the on_error callback.
func (c *Context) EmitError(err error) {
	if c.callbacks.OnError != nil {
		c.callbacks.OnError(err)
	}
}

// EmitStepStart/EmitStepEnd fire around each statement's PipeChain evaluation.
func (c *Context) EmitStepStart(span token.Span) {
	if c.callbacks.OnStepStart != nil {
		c.callbacks.OnStepStart(span)
	}
}

func (c *Context) EmitStepEnd(span token.Span, result value.Value) {
	if c.callbacks.OnStepEnd != nil {
		c.callbacks.OnStepEnd(span, result)
	}
}
