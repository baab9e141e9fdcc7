package cache

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rill-lang/rill/internal/rill/value"
)

func setupTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	return New(client, DefaultConfig()), mr
}

func TestCacheSetAndGet(t *testing.T) {
	c, mr := setupTestCache(t)
	defer mr.Close()

	args := value.NewArgs()
	args.Positional = []value.Value{value.String("greeting"), value.String("hello")}
	_, err := c.set(args, nil)
	require.NoError(t, err)

	getArgs := value.NewArgs()
	getArgs.Positional = []value.Value{value.String("greeting")}
	got, err := c.get(getArgs, nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", got.AsString())
}

func TestCacheGetMiss(t *testing.T) {
	c, mr := setupTestCache(t)
	defer mr.Close()

	args := value.NewArgs()
	args.Positional = []value.Value{value.String("missing")}
	got, err := c.get(args, nil)
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}

func TestCacheRoundTripsStructuredValues(t *testing.T) {
	c, mr := setupTestCache(t)
	defer mr.Close()

	d := value.NewDict()
	d.Set("count", value.Number(3))
	d.Set("ok", value.Bool(true))

	setArgs := value.NewArgs()
	setArgs.Positional = []value.Value{value.String("state"), value.DictValue(d)}
	_, err := c.set(setArgs, nil)
	require.NoError(t, err)

	getArgs := value.NewArgs()
	getArgs.Positional = []value.Value{value.String("state")}
	got, err := c.get(getArgs, nil)
	require.NoError(t, err)
	require.Equal(t, value.KindDict, got.Kind())
	v, ok := got.AsDict().Get("count")
	require.True(t, ok)
	assert.Equal(t, float64(3), v.AsNumber())
}

func TestCacheExistsAndDelete(t *testing.T) {
	c, mr := setupTestCache(t)
	defer mr.Close()

	setArgs := value.NewArgs()
	setArgs.Positional = []value.Value{value.String("k"), value.String("v")}
	_, err := c.set(setArgs, nil)
	require.NoError(t, err)

	existsArgs := value.NewArgs()
	existsArgs.Positional = []value.Value{value.String("k")}
	exists, err := c.exists(existsArgs, nil)
	require.NoError(t, err)
	assert.True(t, exists.AsBool())

	_, err = c.delete(existsArgs, nil)
	require.NoError(t, err)

	exists, err = c.exists(existsArgs, nil)
	require.NoError(t, err)
	assert.False(t, exists.AsBool())
}

func TestCacheIncr(t *testing.T) {
	c, mr := setupTestCache(t)
	defer mr.Close()

	args := value.NewArgs()
	args.Positional = []value.Value{value.String("counter")}
	n, err := c.incr(args, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(1), n.AsNumber())

	n, err = c.incr(args, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(2), n.AsNumber())
}
