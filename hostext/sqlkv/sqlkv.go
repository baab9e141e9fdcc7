// Package sqlkv exposes an embedded SQLite-backed key/value store and
// general query surface as Rill host functions: sqlkv::get, sqlkv::set,
// sqlkv::delete, sqlkv::query, sqlkv::exec.
package sqlkv

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rill-lang/rill/internal/rill/rillerr"
	"github.com/rill-lang/rill/internal/rill/runtime"
	"github.com/rill-lang/rill/internal/rill/value"
)

// Store wraps a *sql.DB opened against the sqlite3 driver, with a
// dedicated key/value table for the get/set/delete convenience functions.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database file at path and ensures the
// key/value table exists. Use ":memory:" for an ephemeral database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS rill_kv (key TEXT PRIMARY KEY, value TEXT)`); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// Register installs sqlkv::get/set/delete/query/exec on rc.
func (s *Store) Register(rc *runtime.Context) {
	rc.RegisterHostFunction("sqlkv::get", &value.Callable{Kind: value.HostCallable, Name: "sqlkv::get", Native: s.get})
	rc.RegisterHostFunction("sqlkv::set", &value.Callable{Kind: value.HostCallable, Name: "sqlkv::set", Native: s.set})
	rc.RegisterHostFunction("sqlkv::delete", &value.Callable{Kind: value.HostCallable, Name: "sqlkv::delete", Native: s.delete})
	rc.RegisterHostFunction("sqlkv::query", &value.Callable{Kind: value.HostCallable, Name: "sqlkv::query", Native: s.query})
	rc.RegisterHostFunction("sqlkv::exec", &value.Callable{Kind: value.HostCallable, Name: "sqlkv::exec", Native: s.exec})
}

func (s *Store) get(a *value.Args, _ interface{}) (value.Value, error) {
	k, ok := a.Get(0)
	if !ok || k.Kind() != value.KindString {
		return value.Null, rillerr.ArityError("sqlkv::get", a.Len(), 1)
	}
	var v string
	err := s.db.QueryRow(`SELECT value FROM rill_kv WHERE key = ?`, k.AsString()).Scan(&v)
	if err == sql.ErrNoRows {
		return value.Null, nil
	}
	if err != nil {
		return value.Null, rillerr.TypeError("sqlkv::get: " + err.Error())
	}
	return value.String(v), nil
}

func (s *Store) set(a *value.Args, _ interface{}) (value.Value, error) {
	k, ok := a.Get(0)
	v, vok := a.Get(1)
	if !ok || !vok || k.Kind() != value.KindString {
		return value.Null, rillerr.ArityError("sqlkv::set", a.Len(), 2)
	}
	_, err := s.db.Exec(
		`INSERT INTO rill_kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		k.AsString(), v.String(),
	)
	if err != nil {
		return value.Null, rillerr.TypeError("sqlkv::set: " + err.Error())
	}
	return value.Bool(true), nil
}

func (s *Store) delete(a *value.Args, _ interface{}) (value.Value, error) {
	k, ok := a.Get(0)
	if !ok || k.Kind() != value.KindString {
		return value.Null, rillerr.ArityError("sqlkv::delete", a.Len(), 1)
	}
	if _, err := s.db.Exec(`DELETE FROM rill_kv WHERE key = ?`, k.AsString()); err != nil {
		return value.Null, rillerr.TypeError("sqlkv::delete: " + err.Error())
	}
	return value.Bool(true), nil
}

// query runs an arbitrary SELECT and returns a tuple of row dicts.
func (s *Store) query(a *value.Args, _ interface{}) (value.Value, error) {
	q, ok := a.Get(0)
	if !ok || q.Kind() != value.KindString {
		return value.Null, rillerr.ArityError("sqlkv::query", a.Len(), 1)
	}
	rows, err := s.db.Query(q.AsString(), bindArgs(a)...)
	if err != nil {
		return value.Null, rillerr.TypeError("sqlkv::query: " + err.Error())
	}
	defer rows.Close()
	return scanRows(rows)
}

// exec runs an arbitrary mutation statement and returns the affected row
// count.
func (s *Store) exec(a *value.Args, _ interface{}) (value.Value, error) {
	q, ok := a.Get(0)
	if !ok || q.Kind() != value.KindString {
		return value.Null, rillerr.ArityError("sqlkv::exec", a.Len(), 1)
	}
	res, err := s.db.Exec(q.AsString(), bindArgs(a)...)
	if err != nil {
		return value.Null, rillerr.TypeError("sqlkv::exec: " + err.Error())
	}
	n, err := res.RowsAffected()
	if err != nil {
		return value.Null, rillerr.TypeError("sqlkv::exec: " + err.Error())
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
		return value.Null, rillerr.TypeError("sqlkv: " + err.Error())
	}
	var out []value.Value
	for rows.Next() {
		dest := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return value.Null, rillerr.TypeError("sqlkv: " + err.Error())
		}
		d := value.NewDict()
		for i, col := range cols {
			d.Set(col, fromDriverValue(dest[i]))
		}
		out = append(out, value.DictValue(d))
	}
	if err := rows.Err(); err != nil {
		return value.Null, rillerr.TypeError("sqlkv: " + err.Error())
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
