package runtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rill-lang/rill/internal/rill/value"
)

func TestSetLocksTypeOnFirstAssignment(t *testing.T) {
	rc := New()
	require.NoError(t, rc.Set("x", value.Number(1)))
	require.NoError(t, rc.Set("x", value.Number(2)))

	err := rc.Set("x", value.String("oops"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "x")
}

func TestDefineLocksTypeLikeSet(t *testing.T) {
	rc := New()
	rc.Define("y", value.Bool(true))
	err := rc.Set("y", value.Number(1))
	assert.Error(t, err)
}

func TestSetAcrossEnclosingScopesRespectsLock(t *testing.T) {
	rc := New()
	require.NoError(t, rc.Set("acc", value.Number(0)))

	rc.PushScope()
	err := rc.Set("acc", value.String("nope"))
	rc.PopScope()

	assert.Error(t, err)
}

func TestSetSameKindAcrossScopesSucceeds(t *testing.T) {
	rc := New()
	require.NoError(t, rc.Set("total", value.Number(0)))

	rc.PushScope()
	err := rc.Set("total", value.Number(5))
	rc.PopScope()
	require.NoError(t, err)

	v, ok := rc.Lookup("total")
	require.True(t, ok)
	assert.Equal(t, float64(5), v.AsNumber())
}

func TestCancelledReportsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	rc := New(WithCancel(ctx))
	assert.False(t, rc.Cancelled())

	cancel()
	assert.True(t, rc.Cancelled())
}

func TestCancelledFalseWithNoCancelInstalled(t *testing.T) {
	rc := New()
	assert.False(t, rc.Cancelled())
}
