package builtins

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rill-lang/rill/internal/rill/rillerr"
	"github.com/rill-lang/rill/internal/rill/runtime"
	"github.com/rill-lang/rill/internal/rill/value"
)

func newRegisteredContext(t *testing.T) *runtime.Context {
	t.Helper()
	rc := runtime.New()
	Register(rc)
	return rc
}

func callMethod(t *testing.T, rc *runtime.Context, name string, args ...value.Value) (value.Value, error) {
	t.Helper()
	fn, ok := rc.LookupMethod(name)
	require.True(t, ok, "method %q not registered", name)
	return fn.Native(&value.Args{Positional: args}, rc)
}

func callFunc(t *testing.T, rc *runtime.Context, name string, args ...value.Value) (value.Value, error) {
	t.Helper()
	fn, ok := rc.LookupHostFunction(name)
	require.True(t, ok, "function %q not registered", name)
	return fn.Native(&value.Args{Positional: args}, rc)
}

func TestIdentityReturnsItsArgument(t *testing.T) {
	rc := newRegisteredContext(t)
	v, err := callFunc(t, rc, "identity", value.Number(42))
	require.NoError(t, err)
	assert.Equal(t, float64(42), v.AsNumber())
}

func TestTypeReportsKindName(t *testing.T) {
	rc := newRegisteredContext(t)
	v, err := callFunc(t, rc, "type", value.String("hi"))
	require.NoError(t, err)
	assert.Equal(t, "string", v.AsString())
}

func TestJSONEncodesTuplesAndDicts(t *testing.T) {
	rc := newRegisteredContext(t)
	v, err := callFunc(t, rc, "json", value.Tuple([]value.Value{value.Number(1), value.String("a")}))
	require.NoError(t, err)
	assert.JSONEq(t, `[1, "a"]`, v.AsString())

	d := value.NewDict()
	d.Set("a", value.Number(1))
	v, err = callFunc(t, rc, "json", value.DictValue(d))
	require.NoError(t, err)
	assert.JSONEq(t, `{"a": 1}`, v.AsString())
}

func TestNumConvertsStringAndBool(t *testing.T) {
	rc := newRegisteredContext(t)

	v, err := callMethod(t, rc, "num", value.String(" 12.5 "))
	require.NoError(t, err)
	assert.Equal(t, 12.5, v.AsNumber())

	v, err = callMethod(t, rc, "num", value.Bool(true))
	require.NoError(t, err)
	assert.Equal(t, float64(1), v.AsNumber())

	_, err = callMethod(t, rc, "num", value.String("not a number"))
	assert.Error(t, err)
}

func TestLenRequiresSequenceType(t *testing.T) {
	rc := newRegisteredContext(t)

	v, err := callMethod(t, rc, "len", value.String("hello"))
	require.NoError(t, err)
	assert.Equal(t, float64(5), v.AsNumber())

	_, err = callMethod(t, rc, "len", value.Number(1))
	require.Error(t, err)
	rerr, ok := err.(*rillerr.Error)
	require.True(t, ok)
	assert.NotEmpty(t, rerr.ID)
}

func TestFirstAndLastOnTuple(t *testing.T) {
	rc := newRegisteredContext(t)
	tup := value.Tuple([]value.Value{value.Number(10), value.Number(20), value.Number(30)})

	first, err := callMethod(t, rc, "first", tup)
	require.NoError(t, err)
	assert.Equal(t, float64(10), first.AsNumber())

	last, err := callMethod(t, rc, "last", tup)
	require.NoError(t, err)
	assert.Equal(t, float64(30), last.AsNumber())
}

func TestAtSupportsNegativeIndexing(t *testing.T) {
	rc := newRegisteredContext(t)
	tup := value.Tuple([]value.Value{value.Number(10), value.Number(20), value.Number(30)})

	v, err := callMethod(t, rc, "at", tup, value.Number(-1))
	require.NoError(t, err)
	assert.Equal(t, float64(30), v.AsNumber())

	v, err = callMethod(t, rc, "at", tup, value.Number(-2))
	require.NoError(t, err)
	assert.Equal(t, float64(20), v.AsNumber())
}

func TestAtOutOfRangeReturnsNull(t *testing.T) {
	rc := newRegisteredContext(t)
	tup := value.Tuple([]value.Value{value.Number(1)})

	v, err := callMethod(t, rc, "at", tup, value.Number(5))
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestAtMissingIndexArgumentIsArityError(t *testing.T) {
	rc := newRegisteredContext(t)
	_, err := callMethod(t, rc, "at", value.Tuple(nil))
	assert.Error(t, err)
}

func TestSplitAndJoinRoundtrip(t *testing.T) {
	rc := newRegisteredContext(t)

	split, err := callMethod(t, rc, "split", value.String("a,b,c"), value.String(","))
	require.NoError(t, err)
	require.Len(t, split.AsTuple(), 3)

	joined, err := callMethod(t, rc, "join", split, value.String("-"))
	require.NoError(t, err)
	assert.Equal(t, "a-b-c", joined.AsString())
}

func TestContainsOnStringAndTuple(t *testing.T) {
	rc := newRegisteredContext(t)

	v, err := callMethod(t, rc, "contains", value.String("hello world"), value.String("world"))
	require.NoError(t, err)
	assert.True(t, v.AsBool())

	v, err = callMethod(t, rc, "contains", value.Tuple([]value.Value{value.Number(1), value.Number(2)}), value.Number(2))
	require.NoError(t, err)
	assert.True(t, v.AsBool())
}

func TestMatchesReturnsCaptureGroups(t *testing.T) {
	rc := newRegisteredContext(t)
	v, err := callMethod(t, rc, "matches", value.String("2026-08-01"), value.String(`(\d+)-(\d+)-(\d+)`))
	require.NoError(t, err)
	groups := v.AsTuple()
	require.Len(t, groups, 4)
	assert.Equal(t, "2026", groups[1].AsString())
}

func TestMatchesInvalidPatternIsError(t *testing.T) {
	rc := newRegisteredContext(t)
	_, err := callMethod(t, rc, "matches", value.String("x"), value.String("("))
	assert.Error(t, err)
}

func TestComparisonMethods(t *testing.T) {
	rc := newRegisteredContext(t)

	v, err := callMethod(t, rc, "lt", value.Number(1), value.Number(2))
	require.NoError(t, err)
	assert.True(t, v.AsBool())

	v, err = callMethod(t, rc, "eq", value.String("a"), value.String("a"))
	require.NoError(t, err)
	assert.True(t, v.AsBool())

	v, err = callMethod(t, rc, "ne", value.Number(1), value.Number(1))
	require.NoError(t, err)
	assert.False(t, v.AsBool())
}

func TestDictKeysValuesEntries(t *testing.T) {
	rc := newRegisteredContext(t)
	d := value.NewDict()
	d.Set("a", value.Number(1))
	d.Set("b", value.Number(2))
	dv := value.DictValue(d)

	keys, err := callMethod(t, rc, "keys", dv)
	require.NoError(t, err)
	assert.Len(t, keys.AsTuple(), 2)

	values, err := callMethod(t, rc, "values", dv)
	require.NoError(t, err)
	assert.Len(t, values.AsTuple(), 2)

	entries, err := callMethod(t, rc, "entries", dv)
	require.NoError(t, err)
	assert.Len(t, entries.AsTuple(), 2)
}

func TestEmptyChecksTruthiness(t *testing.T) {
	rc := newRegisteredContext(t)

	v, err := callMethod(t, rc, "empty", value.String(""))
	require.NoError(t, err)
	assert.True(t, v.AsBool())

	v, err = callMethod(t, rc, "empty", value.String("x"))
	require.NoError(t, err)
	assert.False(t, v.AsBool())
}
