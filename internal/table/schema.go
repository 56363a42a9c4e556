// Package table maps typed records onto headered comma-separated files held
// in a blob store. One Table exists per entity type; every operation reads the
// whole file and mutations replace it.
package table

import (
	"fmt"
	"strings"
)

// KeyColumn is the identifier column every schema declares.
const KeyColumn = "ID"

// Row maps column names to their textual values.
type Row map[string]string

// Column pairs a column name with the accessors that move one field of T to
// and from its text form.
type Column[T any] struct {
	Name   string
	Encode func(T) string
	Decode func(*T, string) error
}

// Schema is the ordered list of columns for one entity type plus the hooks
// the store needs.
type Schema[T any] struct {
	// Table is the logical table name, also used in metrics and errors.
	Table string
	// File is the blob key holding the table.
	File    string
	Columns []Column[T]
	// ParseKey canonicalises a caller-supplied identifier. An error means the
	// identifier can never match a row.
	ParseKey func(string) (string, error)
	// Normalize puts a value in its stored form before it is validated and
	// written, so that a saved value decodes back unchanged.
	Normalize func(T) T
	// Validate runs before every write and after every column decoded
	// successfully.
	Validate func(T) error
}

// Header returns the column names in schema order.
func (s Schema[T]) Header() []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Name
	}
	return out
}

// Key renders the identifier of v the way it is stored in the ID column.
func (s Schema[T]) Key(v T) string {
	for _, c := range s.Columns {
		if c.Name == KeyColumn {
			return c.Encode(v)
		}
	}
	return ""
}

// Encode renders v as one field per column, in schema order.
func (s Schema[T]) Encode(v T) []string {
	out := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		out[i] = c.Encode(v)
	}
	return out
}

// EncodeRow renders v keyed by column name.
func (s Schema[T]) EncodeRow(v T) Row {
	row := make(Row, len(s.Columns))
	for _, c := range s.Columns {
		row[c.Name] = c.Encode(v)
	}
	return row
}

// Decode reads every declared column from row by name. Missing or unknown
// columns fail with ErrMalformedRecord; field level failures keep their own
// sentinel (ErrInvalidEnumValue, ErrInvalidDate, ErrMalformedRecord).
func (s Schema[T]) Decode(row Row) (T, error) {
	var v T
	for name := range row {
		if !s.has(name) {
			return v, fmt.Errorf("%w: unknown column %s", ErrMalformedRecord, name)
		}
	}
	for _, c := range s.Columns {
		raw, ok := row[c.Name]
		if !ok {
			return v, fmt.Errorf("%w: missing column %s", ErrMalformedRecord, c.Name)
		}
		if err := c.Decode(&v, raw); err != nil {
			return v, fmt.Errorf("column %s: %w", c.Name, err)
		}
	}
	if s.Validate != nil {
		if err := s.Validate(v); err != nil {
			return v, fmt.Errorf("%w: %w", ErrMalformedRecord, err)
		}
	}
	return v, nil
}

// CanonicalKey applies ParseKey, or trims id when the schema has none.
func (s Schema[T]) CanonicalKey(id string) (string, error) {
	if s.ParseKey == nil {
		return strings.TrimSpace(id), nil
	}
	return s.ParseKey(strings.TrimSpace(id))
}

// bindHeader normalises a file header and checks it names exactly the schema
// columns, in any order. It returns the normalised names.
func (s Schema[T]) bindHeader(header []string) ([]string, error) {
	if len(header) == 0 {
		return nil, fmt.Errorf("%w: missing header", ErrMalformedRecord)
	}
	names := make([]string, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		name := strings.ToUpper(strings.TrimSpace(h))
		if !s.has(name) {
			return nil, fmt.Errorf("%w: unknown column %q in header", ErrMalformedRecord, h)
		}
		if seen[name] {
			return nil, fmt.Errorf("%w: duplicate column %s in header", ErrMalformedRecord, name)
		}
		seen[name] = true
		names[i] = name
	}
	for _, c := range s.Columns {
		if !seen[c.Name] {
			return nil, fmt.Errorf("%w: header lacks column %s", ErrMalformedRecord, c.Name)
		}
	}
	return names, nil
}

func (s Schema[T]) has(name string) bool {
	for _, c := range s.Columns {
		if c.Name == name {
			return true
		}
	}
	return false
}
