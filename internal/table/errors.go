package table

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedRecord marks a row or header that does not fit the schema.
	ErrMalformedRecord = errors.New("malformed record")
	// ErrInvalidEnumValue marks an enum column holding an unknown symbolic name.
	ErrInvalidEnumValue = errors.New("invalid enum value")
	// ErrInvalidDate marks a date column that is not an ISO-8601 calendar date.
	ErrInvalidDate = errors.New("invalid date")
)

// RowError locates a decode failure inside a table file.
type RowError struct {
	Table string
	Line  int
	Err   error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.Table, e.Line, e.Err)
}

func (e *RowError) Unwrap() error { return e.Err }
