package sqlkv

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rill-lang/rill/internal/rill/value"
)

func setupTestStore(t *testing.T) *Store {
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.db.Close() })
	return s
}

func TestStoreSetAndGet(t *testing.T) {
	s := setupTestStore(t)

	setArgs := value.NewArgs()
	setArgs.Positional = []value.Value{value.String("name"), value.String("rill")}
	_, err := s.set(setArgs, nil)
	require.NoError(t, err)

	getArgs := value.NewArgs()
	getArgs.Positional = []value.Value{value.String("name")}
	got, err := s.get(getArgs, nil)
	require.NoError(t, err)
	assert.Equal(t, "rill", got.AsString())
}

func TestStoreGetMissing(t *testing.T) {
	s := setupTestStore(t)

	args := value.NewArgs()
	args.Positional = []value.Value{value.String("missing")}
	got, err := s.get(args, nil)
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}

func TestStoreSetOverwrites(t *testing.T) {
	s := setupTestStore(t)

	for _, v := range []string{"first", "second"} {
		args := value.NewArgs()
		args.Positional = []value.Value{value.String("k"), value.String(v)}
		_, err := s.set(args, nil)
		require.NoError(t, err)
	}

	getArgs := value.NewArgs()
	getArgs.Positional = []value.Value{value.String("k")}
	got, err := s.get(getArgs, nil)
	require.NoError(t, err)
	assert.Equal(t, "second", got.AsString())
}

func TestStoreQueryAndExec(t *testing.T) {
	s := setupTestStore(t)

	createArgs := value.NewArgs()
	createArgs.Positional = []value.Value{value.String(`CREATE TABLE widgets (id INTEGER PRIMARY KEY, name TEXT)`)}
	_, err := s.exec(createArgs, nil)
	require.NoError(t, err)

	insertArgs := value.NewArgs()
	insertArgs.Positional = []value.Value{
		value.String(`INSERT INTO widgets (id, name) VALUES (?, ?)`),
		value.Number(1),
		value.String("sprocket"),
	}
	n, err := s.exec(insertArgs, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(1), n.AsNumber())

	queryArgs := value.NewArgs()
	queryArgs.Positional = []value.Value{value.String(`SELECT id, name FROM widgets`)}
	rows, err := s.query(queryArgs, nil)
	require.NoError(t, err)
	require.Equal(t, value.KindTuple, rows.Kind())
	require.Len(t, rows.AsTuple(), 1)

	row := rows.AsTuple()[0]
	require.Equal(t, value.KindDict, row.Kind())
	name, ok := row.AsDict().Get("name")
	require.True(t, ok)
	assert.Equal(t, "sprocket", name.AsString())
}

func TestStoreDelete(t *testing.T) {
	s := setupTestStore(t)

	setArgs := value.NewArgs()
	setArgs.Positional = []value.Value{value.String("k"), value.String("v")}
	_, err := s.set(setArgs, nil)
	require.NoError(t, err)

	delArgs := value.NewArgs()
	delArgs.Positional = []value.Value{value.String("k")}
	_, err = s.delete(delArgs, nil)
	require.NoError(t, err)

	got, err := s.get(delArgs, nil)
	require.NoError(t, err)
	assert.True(t, got.IsNull())
}
