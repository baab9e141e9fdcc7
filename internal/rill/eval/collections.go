package eval

import (
	"github.com/rill-lang/rill/internal/rill/ast"
	"github.com/rill-lang/rill/internal/rill/rillerr"
	"github.com/rill-lang/rill/internal/rill/runtime"
	"github.com/rill-lang/rill/internal/rill/value"
)

// iterableItems expands a pipe value into the item sequence the
// collection operators walk, per §4.6: tuple elements, dict `[key,
// value]` pairs, or individual string characters.
func iterableItems(v value.Value) ([]value.Value, error) {
	switch v.Kind() {
	case value.KindTuple:
		return v.AsTuple(), nil
	case value.KindDict:
		d := v.AsDict()
		out := make([]value.Value, 0, d.Len())
		for _, k := range d.Keys() {
			val, _ := d.Get(k)
			out = append(out, value.Tuple([]value.Value{value.String(k), val}))
		}
		return out, nil
	case value.KindString:
		runes := []rune(v.AsString())
		out := make([]value.Value, len(runes))
		for i, r := range runes {
			out[i] = value.String(string(r))
		}
		return out, nil
	default:
		return nil, rillerr.NonIterable(v.TypeName())
	}
}

// runCollectionBody evaluates a collection operator's body for one item.
// A Closure body receives the item as its first positional parameter; any
// other body form (Block, GroupedExpr, Variable, Spread, ...) receives it
// as the pipe value `$`, evaluated generically through evalExpr.
func runCollectionBody(body ast.Expr, item value.Value, rc *runtime.Context) (value.Value, error) {
	if cl, ok := body.(*ast.Closure); ok {
		callable := evalClosureLit(cl, rc).AsCallable()
		args := value.NewArgs()
		args.Positional = []value.Value{item}
		return Invoke(callable, args, rc)
	}
	rc.SetPipeValue(item)
	return evalExpr(body, rc)
}

func evalCollection(n *ast.CollectionExpr, rc *runtime.Context) (value.Value, error) {
	input, ok := rc.PipeValue()
	if !ok {
		input = value.Null
	}
	items, err := iterableItems(input)
	if err != nil {
		return value.Null, err
	}
	limit := AnnotationLimit(rc)
	if len(items) > limit {
		return value.Null, rillerr.IterationLimit(limit)
	}

	switch n.Kind {
	case ast.KindEach:
		return evalEach(n, items, rc)
	case ast.KindMap:
		return evalMap(n, items, rc)
	case ast.KindFold:
		return evalFold(n, items, rc)
	case ast.KindFilter:
		return evalFilter(n, items, rc)
	default:
		return value.Null, rillerr.TypeError("unknown collection operator")
	}
}

func evalEach(n *ast.CollectionExpr, items []value.Value, rc *runtime.Context) (value.Value, error) {
	if err := seedAccumulator(n.Init, rc); err != nil {
		return value.Null, err
	}
	var results []value.Value
	for _, item := range items {
		v, err := runCollectionBody(n.Body, item, rc)
		if err != nil {
			if _, broke := asBreak(err); broke {
				return value.Tuple(results), nil
			}
			return value.Null, err
		}
		results = append(results, v)
	}
	return value.Tuple(results), nil
}

func evalMap(n *ast.CollectionExpr, items []value.Value, rc *runtime.Context) (value.Value, error) {
	var results []value.Value
	for _, item := range items {
		v, err := runCollectionBody(n.Body, item, rc)
		if err != nil {
			if _, broke := asBreak(err); broke {
				return value.Null, rillerr.BreakInParallel()
			}
			return value.Null, err
		}
		results = append(results, v)
	}
	return value.Tuple(results), nil
}

func evalFold(n *ast.CollectionExpr, items []value.Value, rc *runtime.Context) (value.Value, error) {
	if err := seedAccumulator(n.Init, rc); err != nil {
		return value.Null, err
	}
	acc, _ := rc.Lookup(accumKey)
	for _, item := range items {
		v, err := runCollectionBody(n.Body, item, rc)
		if err != nil {
			if _, broke := asBreak(err); broke {
				return acc, nil
			}
			return value.Null, err
		}
		acc = v
		if err := rc.Set(accumKey, acc); err != nil {
			return value.Null, err
		}
	}
	return acc, nil
}

func evalFilter(n *ast.CollectionExpr, items []value.Value, rc *runtime.Context) (value.Value, error) {
	var kept []value.Value
	for _, item := range items {
		v, err := runCollectionBody(n.Body, item, rc)
		if err != nil {
			if _, broke := asBreak(err); broke {
				return value.Tuple(kept), nil
			}
			return value.Null, err
		}
		if v.Truthy() {
			kept = append(kept, item)
		}
	}
	return value.Tuple(kept), nil
}

func seedAccumulator(init ast.Expr, rc *runtime.Context) error {
	if init == nil {
		rc.Define(accumKey, value.Null)
		return nil
	}
	v, err := evalExpr(init, rc)
	if err != nil {
		return err
	}
	rc.Define(accumKey, v)
	return nil
}
