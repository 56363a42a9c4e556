package export

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver
)

// Dialect selects placeholder syntax for a SQL mirror.
type Dialect int

const (
	// DialectSQLite uses ? placeholders.
	DialectSQLite Dialect = iota
	// DialectPostgres uses $n placeholders.
	DialectPostgres
)

const (
	sqliteDriver   = "sqlite"
	postgresDriver = "pgx"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// OpenSQLite opens (creating if needed) a SQLite database file.
func OpenSQLite(path string) (*sql.DB, error) {
	if path == "" {
		path = "sspdb.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	return open(context.Background(), sqliteDriver, path)
}

// OpenPostgres opens and pings a Postgres database through pgx.
func OpenPostgres(ctx context.Context, dsn string) (*sql.DB, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn required")
	}
	return open(ctx, postgresDriver, dsn)
}

func open(ctx context.Context, driver, dsn string) (*sql.DB, error) {
	openMu.Lock()
	db, err := sqlOpen(driver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return db, nil
}

// Mirror replaces the content of one SQL table per dataset with the dataset
// rows, inside a single transaction. Every column is TEXT; ID is the primary
// key. Tables are created when missing.
func Mirror(ctx context.Context, db *sql.DB, dialect Dialect, sets []Dataset) (retErr error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()
	for _, set := range sets {
		if _, err := tx.ExecContext(ctx, createTableSQL(set)); err != nil {
			return fmt.Errorf("create %s: %w", set.Table, err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+set.Table); err != nil {
			return fmt.Errorf("clear %s: %w", set.Table, err)
		}
		insert := insertSQL(dialect, set)
		for i, row := range set.Rows {
			args := make([]any, len(row))
			for j, v := range row {
				args[j] = v
			}
			if _, err := tx.ExecContext(ctx, insert, args...); err != nil {
				return fmt.Errorf("insert %s row %d: %w", set.Table, i+1, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func createTableSQL(set Dataset) string {
	cols := make([]string, len(set.Header))
	for i, name := range set.Header {
		col := strings.ToLower(name) + " TEXT"
		if name == "ID" {
			col += " PRIMARY KEY"
		}
		cols[i] = col
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (%s)", set.Table, strings.Join(cols, ", "))
}

func insertSQL(dialect Dialect, set Dataset) string {
	cols := make([]string, len(set.Header))
	marks := make([]string, len(set.Header))
	for i, name := range set.Header {
		cols[i] = strings.ToLower(name)
		if dialect == DialectPostgres {
			marks[i] = fmt.Sprintf("$%d", i+1)
		} else {
			marks[i] = "?"
		}
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", set.Table, strings.Join(cols, ","), strings.Join(marks, ","))
}
