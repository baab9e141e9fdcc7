// Package eval implements the Rill tree-walking evaluator: dispatch over
// AST node kind, pipe-chain semantics, variable scoping, closures and
// invocation, collection and extraction operators, annotations, and
// control flow (§4.3–§4.10).
package eval

import (
	"fmt"

	"github.com/rill-lang/rill/internal/rill/ast"
	"github.com/rill-lang/rill/internal/rill/rillerr"
	"github.com/rill-lang/rill/internal/rill/runtime"
	"github.com/rill-lang/rill/internal/rill/value"
)

// EvalScript runs every statement of a parsed script in order and returns
// the value of the last statement (or Null for an empty script).
func EvalScript(script *ast.Script, rc *runtime.Context) (value.Value, error) {
	result := value.Null
	for _, stmt := range script.Statements {
		v, err := evalStmt(stmt, rc)
		if err != nil {
			if ret, ok := asReturn(err); ok {
				return ret.Value, nil
			}
			return value.Null, err
		}
		result = v
	}
	return result, nil
}

// EvalStatement runs a single top-level statement, used by the stepper
// API (§6.2's create_stepper) to advance a script one statement at a time.
func EvalStatement(stmt ast.Stmt, rc *runtime.Context) (value.Value, error) {
	v, err := evalStmt(stmt, rc)
	if err != nil {
		if ret, ok := asReturn(err); ok {
			return ret.Value, nil
		}
		return value.Null, err
	}
	return v, nil
}

func evalStmt(stmt ast.Stmt, rc *runtime.Context) (value.Value, error) {
	switch s := stmt.(type) {
	case *ast.Statement:
		return evalAnnotatedStatement(s, rc)
	case *ast.RecoveryError:
		return value.Null, rillerr.New("RILL-P999", rillerr.CategoryParse, s.Message)
	default:
		return value.Null, fmt.Errorf("eval: unhandled statement kind %T", stmt)
	}
}

func evalAnnotatedStatement(s *ast.Statement, rc *runtime.Context) (value.Value, error) {
	if len(s.Annotations) == 0 {
		return evalPipeChainStmt(s.Chain, rc)
	}
	d, err := buildAnnotationDict(s.Annotations, rc)
	if err != nil {
		return value.Null, err
	}
	rc.PushAnnotations(d)
	defer rc.PopAnnotations()
	return evalPipeChainStmt(s.Chain, rc)
}

func buildAnnotationDict(anns []ast.Annotation, rc *runtime.Context) (*value.Dict, error) {
	d := value.NewDict()
	for _, a := range anns {
		if a.Spread != nil {
			sv, err := evalExpr(a.Spread, rc)
			if err != nil {
				return nil, err
			}
			if sv.Kind() != value.KindDict {
				return nil, rillerr.InvalidSpread()
			}
			for _, k := range sv.AsDict().Keys() {
				v, _ := sv.AsDict().Get(k)
				d.Set(k, v)
			}
			continue
		}
		v, err := evalExpr(a.Value, rc)
		if err != nil {
			return nil, err
		}
		d.Set(a.Name, v)
	}
	return d, nil
}

// AnnotationLimit reads the effective `limit` annotation, defaulting to
// 10000 per §4.8.
func AnnotationLimit(rc *runtime.Context) int {
	const defaultLimit = 10000
	d := rc.CurrentAnnotations()
	if d == nil {
		return defaultLimit
	}
	v, ok := d.Get("limit")
	if !ok || v.Kind() != value.KindNumber || v.AsNumber() <= 0 {
		return defaultLimit
	}
	return int(v.AsNumber())
}

// evalPipeChainStmt evaluates a statement's pipe chain and applies the
// core-loop rules of §4.3: cancellation check, step callbacks, capture vs.
// pipe-value update, and auto-exception scanning.
func evalPipeChainStmt(chain *ast.PipeChain, rc *runtime.Context) (value.Value, error) {
	if rc.Cancelled() {
		return value.Null, rillerr.Aborted()
	}
	rc.EmitStepStart(chain.Span())

	v, err := evalPipeChain(chain, rc)
	if err != nil {
		rc.EmitError(err)
		return value.Null, err
	}

	switch chain.Terminator {
	case ast.CaptureTerm:
		if err := rc.Set(chain.CaptureTarget, v); err != nil {
			rc.EmitError(err)
			return value.Null, err
		}
		rc.EmitCapture(chain.CaptureTarget, v)
	case ast.BreakTerm:
		rc.EmitStepEnd(chain.Span(), v)
		return value.Null, &BreakSignal{Value: v}
	case ast.ReturnTerm:
		rc.EmitStepEnd(chain.Span(), v)
		return value.Null, &ReturnSignal{Value: v}
	default:
		rc.SetPipeValue(v)
	}

	if v.Kind() == value.KindString {
		if aerr := rc.CheckAutoException(v.AsString()); aerr != nil {
			rc.EmitError(aerr)
			return value.Null, aerr
		}
	}

	rc.EmitStepEnd(chain.Span(), v)
	return v, nil
}

// evalPipeChain evaluates the head, then threads the result through each
// pipe segment as the segment-local pipe value (§4.3.1).
func evalPipeChain(chain *ast.PipeChain, rc *runtime.Context) (value.Value, error) {
	v, err := evalExpr(chain.Head, rc)
	if err != nil {
		return value.Null, err
	}
	for _, seg := range chain.Segments {
		rc.SetPipeValue(v)
		v, err = evalPipeTarget(seg, v, rc)
		if err != nil {
			return value.Null, err
		}
	}
	return v, nil
}

// evalPipeTarget evaluates one pipe segment. The segment-local pipe value
// is already installed on rc by the caller; this additionally handles the
// dispatch-dict special case of §4.3.2, which needs the raw input value
// rather than reading it back off rc.
func evalPipeTarget(target ast.Expr, input value.Value, rc *runtime.Context) (value.Value, error) {
	if dl, ok := target.(*ast.DictLit); ok {
		return evalDispatchDict(dl, input, rc)
	}
	return evalExpr(target, rc)
}

// evalDispatchDict implements §4.3.2's dispatch-dict pipe target: the
// input, stringified for non-string keys, selects an entry; a callable
// entry is invoked with the input as its implicit `$`.
func evalDispatchDict(dl *ast.DictLit, input value.Value, rc *runtime.Context) (value.Value, error) {
	key := input.String()
	for _, entry := range dl.Entries {
		k := fmt.Sprint(entry.Key)
		if k != key {
			continue
		}
		if blk, ok := entry.Value.(*ast.Block); ok {
			rc.SetPipeValue(input)
			return evalBlock(blk, rc)
		}
		v, err := evalExpr(entry.Value, rc)
		if err != nil {
			return value.Null, err
		}
		if v.Kind() == value.KindCallable {
			return Invoke(v.AsCallable(), value.NewArgs(), rc)
		}
		return v, nil
	}
	return value.Null, rillerr.KeyNotFound(key)
}
