// Package pgkv exposes a Postgres connection as Rill host functions:
// pgkv::query and pgkv::exec, for hosts embedding Rill against an
// existing Postgres database rather than sqlkv's embedded SQLite store.
package pgkv

import (
	"database/sql"

	_ "github.com/lib/pq"

	"github.com/rill-lang/rill/internal/rill/rillerr"
	"github.com/rill-lang/rill/internal/rill/runtime"
	"github.com/rill-lang/rill/internal/rill/value"
)

// DB wraps a *sql.DB opened against the postgres driver (or a sqlmock
// stand-in in tests, which speaks the same database/sql interface).
type DB struct {
	db *sql.DB
}

// Open connects to a Postgres database using a libpq connection string.
func Open(dsn string) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

// Wrap adapts an already-open *sql.DB, used to inject a sqlmock database
// in tests without dialing a real Postgres server.
func Wrap(db *sql.DB) *DB { return &DB{db: db} }

// Register installs pgkv::query/exec on rc.
func (d *DB) Register(rc *runtime.Context) {
	rc.RegisterHostFunction("pgkv::query", &value.Callable{Kind: value.HostCallable, Name: "pgkv::query", Native: d.query})
	rc.RegisterHostFunction("pgkv::exec", &value.Callable{Kind: value.HostCallable, Name: "pgkv::exec", Native: d.exec})
}

func (d *DB) query(a *value.Args, _ interface{}) (value.Value, error) {
	q, ok := a.Get(0)
	if !ok || q.Kind() != value.KindString {
		return value.Null, rillerr.ArityError("pgkv::query", a.Len(), 1)
	}
	rows, err := d.db.Query(q.AsString(), bindArgs(a)...)
	if err != nil {
		return value.Null, rillerr.TypeError("pgkv::query: " + err.Error())
	}
	defer rows.Close()
	return scanRows(rows)
}

func (d *DB) exec(a *value.Args, _ interface{}) (value.Value, error) {
	q, ok := a.Get(0)
	if !ok || q.Kind() != value.KindString {
		return value.Null, rillerr.ArityError("pgkv::exec", a.Len(), 1)
	}
	res, err := d.db.Exec(q.AsString(), bindArgs(a)...)
	if err != nil {
		return value.Null, rillerr.TypeError("pgkv::exec: " + err.Error())
	}
	n, err := res.RowsAffected()
	if err != nil {
		return value.Null, rillerr.TypeError("pgkv::exec: " + err.Error())
	}
	return value.Number(float64(n)), nil
}

func bindArgs(a *value.Args) []interface{} {
	rest := a.Positional
	if len(rest) > 0 {
		rest = rest[1:]
	}
	out := make([]interface{}, len(rest))
	for i, v := range rest {
		out[i] = toDriverValue(v)
	}
	return out
}

func toDriverValue(v value.Value) interface{} {
	switch v.Kind() {
	case value.KindNull:
		return nil
	case value.KindBool:
		return v.AsBool()
	case value.KindNumber:
		return v.AsNumber()
	default:
		return v.String()
	}
}

func scanRows(rows *sql.Rows) (value.Value, error) {
	cols, err := rows.Columns()
	if err != nil {
		return value.Null, rillerr.TypeError("pgkv: " + err.Error())
	}
	var out []value.Value
	for rows.Next() {
		dest := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return value.Null, rillerr.TypeError("pgkv: " + err.Error())
		}
		d := value.NewDict()
		for i, col := range cols {
			d.Set(col, fromDriverValue(dest[i]))
		}
		out = append(out, value.DictValue(d))
	}
	if err := rows.Err(); err != nil {
		return value.Null, rillerr.TypeError("pgkv: " + err.Error())
	}
	return value.Tuple(out), nil
}

func fromDriverValue(v interface{}) value.Value {
	switch t := v.(type) {
	case nil:
		return value.Null
	case bool:
		return value.Bool(t)
	case int64:
		return value.Number(float64(t))
	case float64:
		return value.Number(t)
	case []byte:
		return value.String(string(t))
	case string:
		return value.String(t)
	default:
		return value.String("")
	}
}
