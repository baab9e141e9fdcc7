package eval

import (
	"fmt"

	"github.com/rill-lang/rill/internal/rill/ast"
	"github.com/rill-lang/rill/internal/rill/rillerr"
	"github.com/rill-lang/rill/internal/rill/runtime"
	"github.com/rill-lang/rill/internal/rill/value"
)

func evalBinaryExpr(n *ast.BinaryExpr, rc *runtime.Context) (value.Value, error) {
	// Short-circuit boolean operators evaluate the right side lazily.
	if n.Op == ast.OpAnd || n.Op == ast.OpOr {
		l, err := evalExpr(n.Left, rc)
		if err != nil {
			return value.Null, err
		}
		if n.Op == ast.OpAnd && !l.Truthy() {
			return l, nil
		}
		if n.Op == ast.OpOr && l.Truthy() {
			return l, nil
		}
		return evalExpr(n.Right, rc)
	}

	l, err := evalExpr(n.Left, rc)
	if err != nil {
		return value.Null, err
	}
	r, err := evalExpr(n.Right, rc)
	if err != nil {
		return value.Null, err
	}

	switch n.Op {
	case ast.OpAdd:
		return applyAdd(l, r)
	case ast.OpSub, ast.OpMul, ast.OpDiv, ast.OpMod:
		return applyArith(n.Op, l, r)
	case ast.OpEq:
		return value.Bool(value.Equal(l, r)), nil
	case ast.OpNeq:
		return value.Bool(!value.Equal(l, r)), nil
	case ast.OpLt, ast.OpLe, ast.OpGt, ast.OpGe:
		return applyOrdering(n.Op, l, r)
	default:
		return value.Null, fmt.Errorf("eval: unhandled binary operator %v", n.Op)
	}
}

// applyAdd implements `+`: numeric addition, or string concatenation when
// either operand is a string (the receiver is coerced via String()).
func applyAdd(l, r value.Value) (value.Value, error) {
	if l.Kind() == value.KindNumber && r.Kind() == value.KindNumber {
		return value.Number(l.AsNumber() + r.AsNumber()), nil
	}
	if l.Kind() == value.KindString || r.Kind() == value.KindString {
		return value.String(l.String() + r.String()), nil
	}
	if l.Kind() == value.KindTuple && r.Kind() == value.KindTuple {
		return value.Tuple(append(append([]value.Value{}, l.AsTuple()...), r.AsTuple()...)), nil
	}
	return value.Null, rillerr.TypeError(fmt.Sprintf("cannot add %s and %s", l.TypeName(), r.TypeName()))
}

func applyArith(op ast.BinaryOp, l, r value.Value) (value.Value, error) {
	if l.Kind() != value.KindNumber || r.Kind() != value.KindNumber {
		return value.Null, rillerr.TypeError(fmt.Sprintf("arithmetic requires numbers, got %s and %s", l.TypeName(), r.TypeName()))
	}
	a, b := l.AsNumber(), r.AsNumber()
	switch op {
	case ast.OpSub:
		return value.Number(a - b), nil
	case ast.OpMul:
		return value.Number(a * b), nil
	case ast.OpDiv:
		if b == 0 {
			return value.Null, rillerr.DivisionByZero()
		}
		return value.Number(a / b), nil
	case ast.OpMod:
		if b == 0 {
			return value.Null, rillerr.DivisionByZero()
		}
		m := a - b*float64(int64(a/b))
		return value.Number(m), nil
	default:
		return value.Null, fmt.Errorf("eval: unhandled arithmetic operator %v", op)
	}
}

func applyOrdering(op ast.BinaryOp, l, r value.Value) (value.Value, error) {
	cmp, ok := value.Compare(l, r)
	if !ok {
		return value.Null, rillerr.TypeError(fmt.Sprintf("cannot order %s and %s", l.TypeName(), r.TypeName()))
	}
	switch op {
	case ast.OpLt:
		return value.Bool(cmp < 0), nil
	case ast.OpLe:
		return value.Bool(cmp <= 0), nil
	case ast.OpGt:
		return value.Bool(cmp > 0), nil
	case ast.OpGe:
		return value.Bool(cmp >= 0), nil
	default:
		return value.Null, fmt.Errorf("eval: unhandled ordering operator %v", op)
	}
}

func evalUnaryExpr(n *ast.UnaryExpr, rc *runtime.Context) (value.Value, error) {
	v, err := evalExpr(n.Operand, rc)
	if err != nil {
		return value.Null, err
	}
	switch n.Op {
	case ast.OpNeg:
		if v.Kind() != value.KindNumber {
			return value.Null, rillerr.TypeError(fmt.Sprintf("cannot negate %s", v.TypeName()))
		}
		return value.Number(-v.AsNumber()), nil
	case ast.OpNot:
		return value.Bool(!v.Truthy()), nil
	default:
		return value.Null, fmt.Errorf("eval: unhandled unary operator %v", n.Op)
	}
}
