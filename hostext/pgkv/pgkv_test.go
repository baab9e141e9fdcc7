package pgkv

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rill-lang/rill/internal/rill/value"
)

func setupTestDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return Wrap(db), mock
}

func TestQueryReturnsRowDicts(t *testing.T) {
	d, mock := setupTestDB(t)
	rows := sqlmock.NewRows([]string{"id", "name"}).
		AddRow(int64(1), "alice").
		AddRow(int64(2), "bob")
	mock.ExpectQuery(`SELECT id, name FROM users`).WillReturnRows(rows)

	args := value.NewArgs()
	args.Positional = []value.Value{value.String("SELECT id, name FROM users")}
	got, err := d.query(args, nil)
	require.NoError(t, err)
	require.Equal(t, value.KindTuple, got.Kind())
	require.Len(t, got.AsTuple(), 2)

	first := got.AsTuple()[0].AsDict()
	name, ok := first.Get("name")
	require.True(t, ok)
	assert.Equal(t, "alice", name.AsString())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExecReturnsAffectedRows(t *testing.T) {
	d, mock := setupTestDB(t)
	mock.ExpectExec(`UPDATE users SET name = \$1 WHERE id = \$2`).
		WithArgs("carol", float64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	args := value.NewArgs()
	args.Positional = []value.Value{
		value.String("UPDATE users SET name = $1 WHERE id = $2"),
		value.String("carol"),
		value.Number(3),
	}
	n, err := d.exec(args, nil)
	require.NoError(t, err)
	assert.Equal(t, float64(1), n.AsNumber())

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryPropagatesDriverError(t *testing.T) {
	d, mock := setupTestDB(t)
	mock.ExpectQuery(`SELECT \* FROM missing`).WillReturnError(assert.AnError)

	args := value.NewArgs()
	args.Positional = []value.Value{value.String("SELECT * FROM missing")}
	_, err := d.query(args, nil)
	assert.Error(t, err)
}
