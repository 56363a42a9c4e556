// Package export copies the entity tables into other formats: a SQLite or
// Postgres mirror, an XLSX workbook, or a PDF staff roster.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sspdb/internal/core"
)

// Format names an export target.
type Format string

const (
	FormatSQLite   Format = "sqlite"
	FormatPostgres Format = "postgres"
	FormatXLSX     Format = "xlsx"
	FormatPDF      Format = "pdf"
)

// Formats lists the supported formats.
func Formats() []Format { return []Format{FormatSQLite, FormatPostgres, FormatXLSX, FormatPDF} }

// ParseFormat matches s case-insensitively.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if strings.EqualFold(s, string(f)) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown export format %q", s)
}

// Dataset is the text content of one table.
type Dataset struct {
	Table  string
	Header []string
	Rows   [][]string
}

// Collect reads every view. When a file holds the same ID more than once only
// the first row is kept, matching what lookups by ID return.
func Collect(ctx context.Context, views []core.TableView) ([]Dataset, error) {
	out := make([]Dataset, 0, len(views))
	for _, v := range views {
		header, rows, err := v.Rows(ctx)
		if err != nil {
			return nil, err
		}
		key := -1
		for i, name := range header {
			if name == "ID" {
				key = i
			}
		}
		seen := make(map[string]bool, len(rows))
		kept := make([][]string, 0, len(rows))
		for _, row := range rows {
			if key >= 0 && key < len(row) {
				if seen[row[key]] {
					continue
				}
				seen[row[key]] = true
			}
			kept = append(kept, pad(row, len(header)))
		}
		out = append(out, Dataset{Table: v.Name(), Header: header, Rows: kept})
	}
	return out, nil
}

func pad(row []string, n int) []string {
	if len(row) >= n {
		return row[:n]
	}
	out := make([]string, n)
	copy(out, row)
	return out
}

// Metrics receives export outcomes.
type Metrics interface {
	ObserveExport(format string, success bool)
	AddExportRows(format, table string, n int)
}

// Options configures Run.
type Options struct {
	Format Format
	// Target is a file path for sqlite, xlsx and pdf, or a DSN for postgres.
	Target string
	// Out receives xlsx and pdf output when Target is empty.
	Out     io.Writer
	Now     func() time.Time
	Metrics Metrics
}

// Run exports every table of reg in the requested format.
func Run(ctx context.Context, reg *core.Registry, opts Options) (err error) {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	defer func() {
		if opts.Metrics != nil {
			opts.Metrics.ObserveExport(string(opts.Format), err == nil)
		}
	}()

	sets, err := Collect(ctx, reg.Tables())
	if err != nil {
		return err
	}
	switch opts.Format {
	case FormatSQLite, FormatPostgres:
		err = runMirror(ctx, opts, sets)
	case FormatXLSX:
		err = withOutput(opts, func(w io.Writer) error { return WriteWorkbook(w, sets) })
	case FormatPDF:
		var entries []RosterEntry
		entries, err = BuildRoster(ctx, reg.Staff)
		if err == nil {
			err = withOutput(opts, func(w io.Writer) error { return WriteRosterPDF(w, entries, opts.Now()) })
		}
	default:
		err = fmt.Errorf("unknown export format %q", opts.Format)
	}
	if err != nil {
		return err
	}
	if opts.Metrics != nil {
		for _, set := range sets {
			opts.Metrics.AddExportRows(string(opts.Format), set.Table, len(set.Rows))
		}
	}
	return nil
}

func runMirror(ctx context.Context, opts Options, sets []Dataset) error {
	dialect := DialectSQLite
	var (
		db  *sql.DB
		err error
	)
	if opts.Format == FormatPostgres {
		dialect = DialectPostgres
		db, err = OpenPostgres(ctx, opts.Target)
	} else {
		db, err = OpenSQLite(opts.Target)
	}
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	return Mirror(ctx, db, dialect, sets)
}

func withOutput(opts Options, write func(io.Writer) error) error {
	if opts.Target == "" {
		if opts.Out == nil {
			return fmt.Errorf("%s export needs a target path", opts.Format)
		}
		return write(opts.Out)
	}
	if err := os.MkdirAll(filepath.Dir(opts.Target), 0o750); err != nil {
		return fmt.Errorf("create dirs: %w", err)
	}
	f, err := os.Create(opts.Target)
	if err != nil {
		return fmt.Errorf("create %s: %w", opts.Target, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
