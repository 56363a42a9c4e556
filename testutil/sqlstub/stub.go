// Package sqlstub is a database/sql driver for the SQL mirror tests. It
// understands the statements the mirror issues (CREATE TABLE, unconditional
// DELETE, INSERT) and keeps the inserted rows per table.
package sqlstub

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
)

var seq atomic.Int64

// Conn records every statement and the rows the inserts produced.
type Conn struct {
	Statements []string
	Created    []string
	Rows       map[string][]map[string]any
	Commits    int
	Rollbacks  int
	// FailTables makes inserts into the named tables fail.
	FailTables map[string]bool
}

// NewStubDB registers a fresh driver and opens a sql.DB on it.
func NewStubDB() (*sql.DB, *Conn) {
	conn := &Conn{Rows: make(map[string][]map[string]any)}
	name := fmt.Sprintf("sqlstub-%d", seq.Add(1))
	sql.Register(name, stubDriver{conn: conn})
	db, err := sql.Open(name, "")
	if err != nil {
		panic(err)
	}
	return db, conn
}

type stubDriver struct{ conn *Conn }

func (d stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

// Prepare is not supported; statements run through ExecContext.
func (c *Conn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("sqlstub: prepare not supported")
}

func (c *Conn) Close() error { return nil }

func (c *Conn) Begin() (driver.Tx, error) { return stubTx{conn: c}, nil }

// ExecContext applies one mirror statement.
func (c *Conn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.Statements = append(c.Statements, query)
	verb, rest := splitVerb(query)
	switch verb {
	case "CREATE TABLE IF NOT EXISTS":
		name, _, _ := strings.Cut(rest, " ")
		c.Created = append(c.Created, name)
		return driver.RowsAffected(0), nil
	case "DELETE FROM":
		n := len(c.Rows[rest])
		delete(c.Rows, rest)
		return driver.RowsAffected(int64(n)), nil
	case "INSERT INTO":
		return c.insert(rest, args)
	}
	return nil, fmt.Errorf("sqlstub: unsupported statement %q", query)
}

func (c *Conn) insert(rest string, args []driver.NamedValue) (driver.Result, error) {
	name, cols, ok := strings.Cut(rest, " (")
	if !ok {
		return nil, fmt.Errorf("sqlstub: cannot parse insert into %q", rest)
	}
	if c.FailTables[name] {
		return nil, fmt.Errorf("sqlstub: insert into %s failed", name)
	}
	cols, _, _ = strings.Cut(cols, ")")
	names := strings.Split(cols, ",")
	if len(names) != len(args) {
		return nil, fmt.Errorf("sqlstub: %d columns, %d args", len(names), len(args))
	}
	row := make(map[string]any, len(names))
	for i, col := range names {
		row[strings.TrimSpace(col)] = args[i].Value
	}
	c.Rows[name] = append(c.Rows[name], row)
	return driver.RowsAffected(1), nil
}

func splitVerb(query string) (string, string) {
	for _, verb := range []string{"CREATE TABLE IF NOT EXISTS", "DELETE FROM", "INSERT INTO"} {
		if rest, ok := strings.CutPrefix(query, verb+" "); ok {
			return verb, strings.TrimSpace(rest)
		}
	}
	return "", query
}

type stubTx struct{ conn *Conn }

func (t stubTx) Commit() error {
	t.conn.Commits++
	return nil
}

func (t stubTx) Rollback() error {
	t.conn.Rollbacks++
	return nil
}
