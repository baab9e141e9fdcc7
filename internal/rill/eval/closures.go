package eval

import (
	"fmt"
	"strings"
	"time"

	"github.com/rill-lang/rill/internal/rill/ast"
	"github.com/rill-lang/rill/internal/rill/rillerr"
	"github.com/rill-lang/rill/internal/rill/runtime"
	"github.com/rill-lang/rill/internal/rill/value"
)

// evalArgs builds a value.Args from a parsed argument list, applying
// spread expansion (§4.7's Spread, argument-list position).
func evalArgs(argNodes []ast.Arg, rc *runtime.Context) (*value.Args, error) {
	args := value.NewArgs()
	for _, a := range argNodes {
		v, err := evalExpr(a.Value, rc)
		if err != nil {
			return nil, err
		}
		if a.Spread {
			switch v.Kind() {
			case value.KindTuple:
				args.SpreadTuple(v.AsTuple())
			case value.KindDict:
				args.SpreadDict(v.AsDict())
			default:
				return nil, rillerr.InvalidSpread()
			}
			continue
		}
		if a.Name != "" {
			args.Named[a.Name] = v
		} else {
			args.Positional = append(args.Positional, v)
		}
	}
	return args, nil
}

// withTimeout races fn against the context's configured timeout (§4.5
// step 6). With no timeout configured, fn runs directly.
func withTimeout(rc *runtime.Context, name string, fn func() (value.Value, error)) (value.Value, error) {
	d := rc.Timeout()
	if d <= 0 {
		return fn()
	}
	type outcome struct {
		v   value.Value
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		v, err := fn()
		ch <- outcome{v, err}
	}()
	select {
	case o := <-ch:
		return o.v, o.err
	case <-time.After(d):
		return value.Null, rillerr.Timeout(name, int(d.Milliseconds()))
	}
}

func typeMatches(v value.Value, declared string) bool {
	switch declared {
	case "string":
		return v.Kind() == value.KindString
	case "number":
		return v.Kind() == value.KindNumber
	case "bool":
		return v.Kind() == value.KindBool
	default:
		return true
	}
}

// Invoke runs the full invocation contract of §4.5 over an already-built
// argument list (spread flattening has already happened in evalArgs).
// Per §4.5 step 6, cancellation is checked before every invocation, ahead
// of the call-stack push and timeout race.
func Invoke(c *value.Callable, args *value.Args, rc *runtime.Context) (value.Value, error) {
	if rc.Cancelled() {
		return value.Null, rillerr.Aborted()
	}

	positional := args.Positional
	if c.IsProperty && c.HasReceiver {
		positional = append([]value.Value{c.Receiver}, positional...)
	}
	bound := &value.Args{Positional: positional, Named: args.Named}

	switch c.Kind {
	case value.ScriptCallable:
		return invokeScript(c, bound, rc)
	default:
		return invokeNative(c, bound, rc)
	}
}

func invokeNative(c *value.Callable, args *value.Args, rc *runtime.Context) (value.Value, error) {
	if c.Native == nil {
		return value.Null, rillerr.TypeError(fmt.Sprintf("%s has no implementation", c.Name))
	}
	rc.PushCall(runtime.CallFrame{FunctionName: c.Name})
	defer rc.PopCall()

	v, err := withTimeout(rc, c.Name, func() (value.Value, error) {
		return c.Native(args, rc)
	})
	if cb := rc.Callbacks().OnFunctionReturn; cb != nil {
		cb(c.Name, v, err)
	}
	return v, err
}

func invokeScript(c *value.Callable, args *value.Args, rc *runtime.Context) (value.Value, error) {
	// Step 3: reject excess arguments before applying defaults.
	if len(args.Positional) > len(c.Params) {
		return value.Null, rillerr.ArityError(c.Name, len(args.Positional), len(c.Params))
	}
	knownNames := make(map[string]bool, len(c.Params))
	for _, p := range c.Params {
		knownNames[p.Name] = true
	}
	for name := range args.Named {
		if !knownNames[name] {
			return value.Null, rillerr.ArityError(c.Name, len(args.Positional)+len(args.Named), len(c.Params))
		}
	}

	defScope, _ := c.DefiningScope.(*runtime.Scope)
	prevScope := rc.PushScopeOn(defScope)
	defer rc.RestoreScope(prevScope)

	for i, p := range c.Params {
		var v value.Value
		if i < len(args.Positional) {
			v = args.Positional[i]
		} else if nv, ok := args.Named[p.Name]; ok {
			v = nv
		} else if p.Default != nil {
			dv, err := evalExpr(p.Default, rc)
			if err != nil {
				return value.Null, err
			}
			v = dv
		} else {
			v = value.Null
		}
		rc.Define(p.Name, v)
	}

	// Step 5: declared-type checks.
	for _, p := range c.Params {
		if p.Type == "" {
			continue
		}
		v, _ := rc.Lookup(p.Name)
		if !typeMatches(v, p.Type) {
			return value.Null, rillerr.TypeError(fmt.Sprintf("parameter %s expects %s", p.Name, p.Type))
		}
	}

	rc.PushCall(runtime.CallFrame{FunctionName: c.Name})
	defer rc.PopCall()

	v, err := withTimeout(rc, c.Name, func() (value.Value, error) {
		res, ferr := evalExpr(c.Body, rc)
		if ferr != nil {
			if ret, ok := asReturn(ferr); ok {
				return ret.Value, nil
			}
			return value.Null, ferr
		}
		return res, nil
	})
	if cb := rc.Callbacks().OnFunctionReturn; cb != nil {
		cb(c.Name, v, err)
	}
	return v, err
}

// invokeValue invokes a value known to be callable, or fails with a type
// error otherwise (used for `$(args)` and trailing `(args)` postfixes).
func invokeValue(v value.Value, argNodes []ast.Arg, rc *runtime.Context) (value.Value, error) {
	if v.Kind() != value.KindCallable {
		return value.Null, rillerr.TypeError(fmt.Sprintf("value of type %s is not callable", v.TypeName()))
	}
	args, err := evalArgs(argNodes, rc)
	if err != nil {
		return value.Null, err
	}
	return Invoke(v.AsCallable(), args, rc)
}

func evalHostCall(n *ast.HostCall, rc *runtime.Context) (value.Value, error) {
	fn, ok := rc.LookupHostFunction(n.Name)
	if !ok {
		return value.Null, rillerr.UndefinedFunction(n.Name)
	}
	args, err := evalArgs(n.Args, rc)
	if err != nil {
		return value.Null, err
	}
	return Invoke(fn, args, rc)
}

func evalClosureCall(n *ast.ClosureCall, rc *runtime.Context) (value.Value, error) {
	target, err := evalExpr(n.Target, rc)
	if err != nil {
		return value.Null, err
	}
	return invokeValue(target, n.Args, rc)
}

func evalPipeInvoke(n *ast.PipeInvoke, rc *runtime.Context) (value.Value, error) {
	v, ok := rc.PipeValue()
	if !ok {
		v = value.Null
	}
	return invokeValue(v, n.Args, rc)
}

// evalMethodCallStandalone handles `.name(args)` appearing directly as a
// pipe target, with the current pipe value as the receiver.
func evalMethodCallStandalone(n *ast.MethodCall, rc *runtime.Context) (value.Value, error) {
	receiver, ok := rc.PipeValue()
	if !ok {
		receiver = value.Null
	}
	return callMethod(n.Name, receiver, n.Args, rc)
}

// callMethod resolves name against the method registry (built-ins, then
// host-registered overrides win since they're registered under the same
// key) and invokes it bound to receiver.
func callMethod(name string, receiver value.Value, argNodes []ast.Arg, rc *runtime.Context) (value.Value, error) {
	m, ok := rc.LookupMethod(name)
	if !ok {
		return value.Null, rillerr.UndefinedMethod(name)
	}
	args, err := evalArgs(argNodes, rc)
	if err != nil {
		return value.Null, err
	}
	bound := m.Bind(receiver)
	return Invoke(bound, args, rc)
}

// evalPropertyChain handles `.a.b.c` appearing directly as a pipe target.
func evalPropertyChain(n *ast.PropertyChain, rc *runtime.Context) (value.Value, error) {
	root, ok := rc.PipeValue()
	if !ok {
		root = value.Null
	}
	return evalPropertyChainOn(root, n, rc)
}

func evalPropertyChainOn(root value.Value, n *ast.PropertyChain, rc *runtime.Context) (value.Value, error) {
	cur := root
	for _, hop := range n.Hops {
		v, err := propertyHop(cur, hop)
		if err != nil {
			return value.Null, err
		}
		cur = v
	}
	return cur, nil
}

func propertyHop(cur value.Value, hop ast.PropertyHop) (value.Value, error) {
	if cur.Kind() != value.KindDict {
		if hop.Safe {
			return value.Null, nil
		}
		return value.Null, rillerr.TypeError(fmt.Sprintf("cannot read property %s of %s", hop.Name, cur.TypeName()))
	}
	v, ok := cur.AsDict().Get(hop.Name)
	if !ok {
		if hop.Safe {
			return value.Null, nil
		}
		return value.Null, rillerr.KeyNotFound(hop.Name)
	}
	return v, nil
}

// evalPostfixExpr applies a primary's postfix operator chain (method
// calls, property chains, type operators, trailing invokes) in order,
// then the `?? default` fallback when the result is null.
func evalPostfixExpr(n *ast.PostfixExpr, rc *runtime.Context) (value.Value, error) {
	cur, err := evalExpr(n.Primary, rc)
	if err != nil {
		return value.Null, err
	}
	for _, op := range n.Ops {
		cur, err = applyPostfixOp(cur, op, rc)
		if err != nil {
			return value.Null, err
		}
	}
	if n.Default != nil && cur.IsNull() {
		return evalExpr(n.Default, rc)
	}
	return cur, nil
}

func applyPostfixOp(cur value.Value, op ast.Expr, rc *runtime.Context) (value.Value, error) {
	switch o := op.(type) {
	case *ast.MethodCall:
		return callMethod(o.Name, cur, o.Args, rc)
	case *ast.PropertyChain:
		return evalPropertyChainOn(cur, o, rc)
	case *ast.TypeOp:
		return applyTypeOp(cur, o)
	case *ast.InvokeOp:
		return invokeValue(cur, o.Args, rc)
	default:
		return value.Null, fmt.Errorf("eval: unhandled postfix op %T", op)
	}
}

func evalInvokeOpStandalone(n *ast.InvokeOp, rc *runtime.Context) (value.Value, error) {
	v, ok := rc.PipeValue()
	if !ok {
		v = value.Null
	}
	return invokeValue(v, n.Args, rc)
}

// evalTypeOp handles a bare `:T` / `:?T` appearing directly as a pipe
// target, operating on the current pipe value.
func evalTypeOp(n *ast.TypeOp, rc *runtime.Context) (value.Value, error) {
	v, ok := rc.PipeValue()
	if !ok {
		v = value.Null
	}
	return applyTypeOp(v, n)
}

func applyTypeOp(v value.Value, n *ast.TypeOp) (value.Value, error) {
	matches := strings.EqualFold(v.TypeName(), n.Type)
	if n.Assert {
		if !matches {
			return value.Null, rillerr.TypeError(fmt.Sprintf("expected %s, got %s", n.Type, v.TypeName()))
		}
		return v, nil
	}
	return value.Bool(matches), nil
}
