package domain

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Ref is an optional, non-owning reference to a staff identifier. The zero
// value means no association. It serializes as the canonical UUID string or
// as the empty string when absent.
type Ref struct {
	ID    uuid.UUID
	Valid bool
}

// RefTo returns a present reference to id.
func RefTo(id uuid.UUID) Ref { return Ref{ID: id, Valid: true} }

// ParseRef parses the textual form produced by String.
func ParseRef(s string) (Ref, error) {
	if s == "" {
		return Ref{}, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return Ref{}, fmt.Errorf("parse reference %q: %w", s, err)
	}
	return RefTo(id), nil
}

// String returns the canonical identifier or "" when the reference is absent.
func (r Ref) String() string {
	if !r.Valid {
		return ""
	}
	return r.ID.String()
}

// Is reports whether r points at id.
func (r Ref) Is(id uuid.UUID) bool { return r.Valid && r.ID == id }

func (r Ref) MarshalJSON() ([]byte, error) {
	if !r.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(r.ID.String())
}

func (r *Ref) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil {
		*r = Ref{}
		return nil
	}
	parsed, err := ParseRef(*s)
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
