package core

import (
	"errors"
	"fmt"

	"sspdb/pkg/domain"
)

// ErrReferenceNotFound is returned when a record names a staff member that is
// not in the staff table.
var ErrReferenceNotFound = errors.New("referenced staff not found")

// ErrNotFound is returned by Get when no row carries the identifier.
type ErrNotFound struct {
	Entity domain.EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// IsNotFound reports whether err carries an ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}
