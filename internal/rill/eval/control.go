package eval

import (
	"fmt"

	"github.com/rill-lang/rill/internal/rill/ast"
	"github.com/rill-lang/rill/internal/rill/rillerr"
	"github.com/rill-lang/rill/internal/rill/runtime"
	"github.com/rill-lang/rill/internal/rill/value"
)

// evalConditional implements `input -> cond ? then ! else` (§4.9): cond
// and the chosen branch both see the current pipe value as `$`.
func evalConditional(n *ast.Conditional, rc *runtime.Context) (value.Value, error) {
	cond, err := evalExpr(n.Cond, rc)
	if err != nil {
		return value.Null, err
	}
	if cond.Truthy() {
		return evalExpr(n.Then, rc)
	}
	if n.Else != nil {
		return evalExpr(n.Else, rc)
	}
	return value.Null, nil
}

// evalWhileLoop implements both `@(cond) @ { body }` and its do-while
// counterpart (§4.9): `$` tracks the loop-carried value, starting at the
// pipe input and updated to each body result.
func evalWhileLoop(n *ast.WhileLoop, rc *runtime.Context) (value.Value, error) {
	cur, ok := rc.PipeValue()
	if !ok {
		cur = value.Null
	}
	limit := AnnotationLimit(rc)
	steps := 0

	runBody := func() (value.Value, bool, error) {
		rc.SetPipeValue(cur)
		v, err := evalExpr(n.Body, rc)
		if err != nil {
			if b, broke := asBreak(err); broke {
				return b.Value, true, nil
			}
			return value.Null, false, err
		}
		return v, false, nil
	}
	checkCond := func() (bool, error) {
		rc.SetPipeValue(cur)
		cv, err := evalExpr(n.Cond, rc)
		if err != nil {
			return false, err
		}
		return cv.Truthy(), nil
	}

	if n.DoWhile {
		v, broke, err := runBody()
		if err != nil {
			return value.Null, err
		}
		cur = v
		if broke {
			return cur, nil
		}
	}

	for {
		ok, err := checkCond()
		if err != nil {
			return value.Null, err
		}
		if !ok {
			break
		}
		steps++
		if steps > limit {
			return value.Null, rillerr.IterationLimit(limit)
		}
		v, broke, err := runBody()
		if err != nil {
			return value.Null, err
		}
		cur = v
		if broke {
			break
		}
	}
	return cur, nil
}

// evalDestructure implements `*< [pattern, ...]` (§4.7): it binds names in
// the current scope and passes the original tuple through unchanged.
func evalDestructure(n *ast.Destructure, rc *runtime.Context) (value.Value, error) {
	input, ok := rc.PipeValue()
	if !ok {
		input = value.Null
	}
	if input.Kind() != value.KindTuple {
		return value.Null, rillerr.TypeError(fmt.Sprintf("destructure requires a tuple, got %s", input.TypeName()))
	}
	if err := bindDestructPatterns(n.Patterns, input.AsTuple(), rc); err != nil {
		return value.Null, err
	}
	return input, nil
}

func bindDestructPatterns(patterns []ast.DestructPattern, elems []value.Value, rc *runtime.Context) error {
	i := 0
	for _, p := range patterns {
		if p.Rest {
			var rest []value.Value
			if i < len(elems) {
				rest = elems[i:]
			}
			if p.Name != "" {
				if err := rc.Set(p.Name, value.Tuple(rest)); err != nil {
					return err
				}
			}
			i = len(elems)
			continue
		}
		var cur value.Value
		if i < len(elems) {
			cur = elems[i]
			i++
		} else {
			cur = value.Null
		}
		if p.Skip {
			continue
		}
		if len(p.Nested) > 0 {
			if cur.Kind() != value.KindTuple {
				return rillerr.TypeError(fmt.Sprintf("nested destructure requires a tuple, got %s", cur.TypeName()))
			}
			if err := bindDestructPatterns(p.Nested, cur.AsTuple(), rc); err != nil {
				return err
			}
			continue
		}
		if p.Name != "" {
			if err := rc.Set(p.Name, cur); err != nil {
				return err
			}
		}
	}
	return nil
}

// evalSlice implements `/< [start:stop:step]` (§4.7) with Python-like
// bounds handling: negative indices count from the end, a negative step
// reverses the walk.
func evalSlice(n *ast.Slice, rc *runtime.Context) (value.Value, error) {
	input, ok := rc.PipeValue()
	if !ok {
		input = value.Null
	}

	step := 1
	if n.Step != nil {
		sv, err := evalExpr(n.Step, rc)
		if err != nil {
			return value.Null, err
		}
		if sv.Kind() != value.KindNumber {
			return value.Null, rillerr.TypeError("slice step must be a number")
		}
		step = int(sv.AsNumber())
		if step == 0 {
			return value.Null, rillerr.InvalidPattern("slice", "step cannot be zero")
		}
	}

	var length int
	switch input.Kind() {
	case value.KindTuple:
		length = len(input.AsTuple())
	case value.KindString:
		length = len([]rune(input.AsString()))
	default:
		return value.Null, rillerr.TypeError(fmt.Sprintf("cannot slice %s", input.TypeName()))
	}

	start, stop := sliceDefaults(length, step)
	if n.Start != nil {
		sv, err := evalExpr(n.Start, rc)
		if err != nil {
			return value.Null, err
		}
		start = normalizeSliceIndex(int(sv.AsNumber()), length)
	}
	if n.Stop != nil {
		sv, err := evalExpr(n.Stop, rc)
		if err != nil {
			return value.Null, err
		}
		stop = normalizeSliceIndex(int(sv.AsNumber()), length)
	}

	idxs := sliceIndices(start, stop, step, length)

	if input.Kind() == value.KindTuple {
		elems := input.AsTuple()
		out := make([]value.Value, 0, len(idxs))
		for _, i := range idxs {
			out = append(out, elems[i])
		}
		return value.Tuple(out), nil
	}
	runes := []rune(input.AsString())
	out := make([]rune, 0, len(idxs))
	for _, i := range idxs {
		out = append(out, runes[i])
	}
	return value.String(string(out)), nil
}

func sliceDefaults(length, step int) (start, stop int) {
	if step > 0 {
		return 0, length
	}
	return length - 1, -1
}

func normalizeSliceIndex(i, length int) int {
	if i < 0 {
		i += length
	}
	if i < 0 {
		i = 0
	}
	if i > length {
		i = length
	}
	return i
}

func sliceIndices(start, stop, step, length int) []int {
	var out []int
	if step > 0 {
		for i := start; i < stop && i < length; i += step {
			if i >= 0 {
				out = append(out, i)
			}
		}
	} else {
		for i := start; i > stop && i >= 0; i += step {
			if i < length {
				out = append(out, i)
			}
		}
	}
	return out
}
