package rill

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rill-lang/rill/internal/rill/value"
)

func run(t *testing.T, source string, opts Options) Result {
	t.Helper()
	script, err := Parse(source)
	require.NoError(t, err)
	ctx := CreateContext(opts)
	res, err := Execute(script, ctx)
	require.NoError(t, err)
	return res
}

func TestExecuteArithmeticAndPipe(t *testing.T) {
	res := run(t, "5 -> $ + 3 -> => $total", Options{})
	assert.Equal(t, float64(8), res.Value.AsNumber())
	assert.Equal(t, float64(8), res.Context.Variables([]string{"total"})["total"].AsNumber())
}

func TestCreateContextRegistersBuiltins(t *testing.T) {
	res := run(t, `"hello" -> .len()`, Options{})
	assert.Equal(t, float64(5), res.Value.AsNumber())
}

func TestHostFunctionOverridesBuiltin(t *testing.T) {
	opts := Options{
		HostFunctions: map[string]value.NativeFunc{
			"identity": func(a *value.Args, ctx interface{}) (value.Value, error) {
				return value.String("overridden"), nil
			},
		},
	}
	res := run(t, "identity(1)", opts)
	assert.Equal(t, "overridden", res.Value.AsString())
}

func TestHostFunctionCall(t *testing.T) {
	opts := Options{
		HostFunctions: map[string]value.NativeFunc{
			"math::double": func(a *value.Args, ctx interface{}) (value.Value, error) {
				n, _ := a.Get(0)
				return value.Number(n.AsNumber() * 2), nil
			},
		},
	}
	res := run(t, "math::double(21)", opts)
	assert.Equal(t, float64(42), res.Value.AsNumber())
}

func TestInitialVariables(t *testing.T) {
	opts := Options{Variables: map[string]value.Value{"seed": value.Number(10)}}
	res := run(t, "$seed -> $ + 1", opts)
	assert.Equal(t, float64(11), res.Value.AsNumber())
}

func TestParseWithRecoveryReportsErrors(t *testing.T) {
	result := ParseWithRecovery("5 -> -> ->")
	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Errors)
}

func TestStepperAdvancesOneStatementAtATime(t *testing.T) {
	script, err := Parse("1 -> => $a\n2 -> => $b\n3 -> => $c")
	require.NoError(t, err)
	ctx := CreateContext(Options{})
	stepper := CreateStepper(script, ctx)

	for i := 0; i < 3; i++ {
		assert.False(t, stepper.Done())
		step, err := stepper.Step()
		require.NoError(t, err)
		assert.Equal(t, float64(i+1), step.Value.AsNumber())
	}

	assert.True(t, stepper.Done())
	final, err := stepper.Step()
	require.NoError(t, err)
	assert.True(t, final.Done)

	bound := ctx.Variables([]string{"a", "b", "c"})
	assert.Equal(t, float64(1), bound["a"].AsNumber())
	assert.Equal(t, float64(3), bound["c"].AsNumber())
}

func TestExitCodeBoolean(t *testing.T) {
	code, msg := ExitCode(value.Bool(true))
	assert.Equal(t, 0, code)
	assert.Empty(t, msg)

	code, _ = ExitCode(value.Bool(false))
	assert.Equal(t, 1, code)
}

func TestExitCodeString(t *testing.T) {
	code, msg := ExitCode(value.String("done"))
	assert.Equal(t, 0, code)
	assert.Equal(t, "done", msg)

	code, _ = ExitCode(value.String(""))
	assert.Equal(t, 1, code)
}

func TestExitCodeTuple(t *testing.T) {
	code, msg := ExitCode(value.Tuple([]value.Value{value.Number(1), value.String("failed")}))
	assert.Equal(t, 1, code)
	assert.Equal(t, "failed", msg)
}

func TestExitCodeNull(t *testing.T) {
	code, _ := ExitCode(value.Null)
	assert.Equal(t, 1, code)
}

func TestAsStructuredErrorDistinguishesHostErrors(t *testing.T) {
	opts := Options{
		HostFunctions: map[string]value.NativeFunc{
			"boom": func(a *value.Args, ctx interface{}) (value.Value, error) {
				return value.Null, assertErr{}
			},
		},
	}
	script, err := Parse("boom()")
	require.NoError(t, err)
	ctx := CreateContext(opts)
	_, err = Execute(script, ctx)
	require.Error(t, err)
	_, ok := AsStructuredError(err)
	assert.False(t, ok)
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }

func TestCancelledBeforeCallIsObserved(t *testing.T) {
	cancelCtx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := Options{
		Cancel: cancelCtx,
		HostFunctions: map[string]value.NativeFunc{
			"noop": func(a *value.Args, ctx interface{}) (value.Value, error) {
				return value.Null, nil
			},
		},
	}
	script, err := Parse("noop()")
	require.NoError(t, err)
	ctx := CreateContext(opts)
	_, err = Execute(script, ctx)
	require.Error(t, err)
}

func TestCancelledMidCollectionIsObservedPerHostCall(t *testing.T) {
	cancelCtx, cancel := context.WithCancel(context.Background())
	calls := 0

	opts := Options{
		Cancel: cancelCtx,
		HostFunctions: map[string]value.NativeFunc{
			"tick": func(a *value.Args, ctx interface{}) (value.Value, error) {
				calls++
				if calls == 2 {
					cancel()
				}
				return value.Number(1), nil
			},
		},
	}
	script, err := Parse("[1, 2, 3, 4, 5] -> each |x| tick()")
	require.NoError(t, err)
	ctx := CreateContext(opts)
	_, err = Execute(script, ctx)
	require.Error(t, err)
	assert.Less(t, calls, 5, "cancellation should stop iteration before every item runs")
}
