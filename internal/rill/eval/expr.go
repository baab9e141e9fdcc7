package eval

import (
	"fmt"

	"github.com/rill-lang/rill/internal/rill/ast"
	"github.com/rill-lang/rill/internal/rill/rillerr"
	"github.com/rill-lang/rill/internal/rill/runtime"
	"github.com/rill-lang/rill/internal/rill/value"
)

// evalExpr dispatches by concrete AST node kind. It is the single entry
// point for evaluating any expression node, whether reached as a plain
// sub-expression or as a pipe target (which installs the segment-local
// pipe value on rc before calling in).
func evalExpr(node ast.Expr, rc *runtime.Context) (value.Value, error) {
	switch n := node.(type) {
	case *ast.Literal:
		return evalLiteral(n), nil
	case *ast.InterpString:
		return evalInterpString(n, rc)
	case *ast.Ident:
		return value.String(n.Name), nil
	case *ast.Variable:
		return evalVariable(n, rc)
	case *ast.TupleLit:
		return evalTupleLit(n, rc)
	case *ast.DictLit:
		return evalDictLit(n, rc)
	case *ast.Closure:
		return evalClosureLit(n, rc), nil
	case *ast.Block:
		return evalBlock(n, rc)
	case *ast.GroupedExpr:
		return evalExpr(n.Inner, rc)
	case *ast.HostCall:
		return evalHostCall(n, rc)
	case *ast.ClosureCall:
		return evalClosureCall(n, rc)
	case *ast.PipeInvoke:
		return evalPipeInvoke(n, rc)
	case *ast.MethodCall:
		return evalMethodCallStandalone(n, rc)
	case *ast.PropertyChain:
		return evalPropertyChain(n, rc)
	case *ast.PostfixExpr:
		return evalPostfixExpr(n, rc)
	case *ast.Conditional:
		return evalConditional(n, rc)
	case *ast.WhileLoop:
		return evalWhileLoop(n, rc)
	case *ast.CollectionExpr:
		return evalCollection(n, rc)
	case *ast.Destructure:
		return evalDestructure(n, rc)
	case *ast.Slice:
		return evalSlice(n, rc)
	case *ast.Spread:
		return evalExpr(n.Value, rc)
	case *ast.BinaryExpr:
		return evalBinaryExpr(n, rc)
	case *ast.UnaryExpr:
		return evalUnaryExpr(n, rc)
	case *ast.TypeOp:
		return evalTypeOp(n, rc)
	case *ast.InvokeOp:
		return evalInvokeOpStandalone(n, rc)
	case *ast.PipeChain:
		return evalPipeChain(n, rc)
	default:
		return value.Null, fmt.Errorf("eval: unhandled expression kind %T", node)
	}
}

func evalLiteral(n *ast.Literal) value.Value {
	switch v := n.Value.(type) {
	case nil:
		return value.Null
	case bool:
		return value.Bool(v)
	case float64:
		return value.Number(v)
	case string:
		return value.String(v)
	default:
		return value.Null
	}
}

func evalInterpString(n *ast.InterpString, rc *runtime.Context) (value.Value, error) {
	out := ""
	for _, part := range n.Parts {
		if part.Expr == nil {
			out += part.Text
			continue
		}
		v, err := evalExpr(part.Expr, rc)
		if err != nil {
			return value.Null, err
		}
		out += v.String()
	}
	return value.String(out), nil
}

func evalVariable(n *ast.Variable, rc *runtime.Context) (value.Value, error) {
	switch n.Kind {
	case ast.VarPipe:
		v, ok := rc.PipeValue()
		if !ok {
			return value.Null, nil
		}
		return v, nil
	case ast.VarAccum:
		v, ok := rc.Lookup(accumKey)
		if !ok {
			return value.Null, nil
		}
		return v, nil
	default:
		v, ok := rc.Lookup(n.Name)
		if !ok {
			return value.Null, rillerr.UndefinedVariable(n.Name)
		}
		return v, nil
	}
}

// accumKey is the reserved scope-variable name backing `$@`.
const accumKey = "$@"

func evalTupleLit(n *ast.TupleLit, rc *runtime.Context) (value.Value, error) {
	var elems []value.Value
	for i, e := range n.Elements {
		v, err := evalExpr(e, rc)
		if err != nil {
			return value.Null, err
		}
		if i < len(n.Spreads) && n.Spreads[i] {
			if v.Kind() != value.KindTuple {
				return value.Null, rillerr.TypeError("spread in a list literal requires a tuple")
			}
			elems = append(elems, v.AsTuple()...)
			continue
		}
		elems = append(elems, v)
	}
	return value.Tuple(elems), nil
}

func evalDictLit(n *ast.DictLit, rc *runtime.Context) (value.Value, error) {
	d := value.NewDict()
	for _, entry := range n.Entries {
		key := fmt.Sprint(entry.Key)
		if blk, ok := entry.Value.(*ast.Block); ok {
			d.Set(key, value.CallableValue(&value.Callable{
				Kind:          value.ScriptCallable,
				Name:          key,
				Body:          blk,
				DefiningScope: rc.CaptureScope(),
			}))
			continue
		}
		v, err := evalExpr(entry.Value, rc)
		if err != nil {
			return value.Null, err
		}
		d.Set(key, v)
	}
	return value.DictValue(d), nil
}

func evalClosureLit(n *ast.Closure, rc *runtime.Context) value.Value {
	return value.CallableValue(&value.Callable{
		Kind:          value.ScriptCallable,
		Params:        n.Params,
		Body:          n.Body,
		DefiningScope: rc.CaptureScope(),
	})
}

func evalBlock(n *ast.Block, rc *runtime.Context) (value.Value, error) {
	rc.PushScope()
	defer rc.PopScope()
	result := value.Null
	for _, stmt := range n.Statements {
		v, err := evalStmt(stmt, rc)
		if err != nil {
			return value.Null, err
		}
		result = v
	}
	return result, nil
}
