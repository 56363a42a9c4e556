package table

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sspdb/pkg/domain"
)

// Default file names, one per entity type.
const (
	StaffFile   = "staff.csv"
	VehicleFile = "vehicle.csv"
	WeaponFile  = "weapon.csv"
)

// StaffSchema lays out ID,NAME,SEX,DOB,DOH,ROLE,SUPERVISOR_ID.
func StaffSchema() Schema[domain.Staff] {
	return Schema[domain.Staff]{
		Table: string(domain.EntityStaff),
		File:  StaffFile,
		Columns: []Column[domain.Staff]{
			uuidColumn(KeyColumn, func(s *domain.Staff) *uuid.UUID { return &s.ID }),
			textColumn("NAME", func(s *domain.Staff) *string { return &s.Name }),
			enumColumn("SEX", domain.ParseSex, func(s *domain.Staff) *domain.Sex { return &s.Sex }),
			dateColumn("DOB", func(s *domain.Staff) *time.Time { return &s.DateOfBirth }),
			dateColumn("DOH", func(s *domain.Staff) *time.Time { return &s.DateOfHire }),
			enumColumn("ROLE", domain.ParseRole, func(s *domain.Staff) *domain.Role { return &s.Role }),
			refColumn("SUPERVISOR_ID", func(s *domain.Staff) *domain.Ref { return &s.SupervisorID }),
		},
		ParseKey:  parseUUIDKey,
		Normalize: domain.Staff.Normalize,
		Validate:  domain.Staff.Validate,
	}
}

// VehicleSchema lays out ID,TYPE,MODEL,ZONE,DESCRIPTION,DRIVER_ID. The plate
// is the identifier.
func VehicleSchema() Schema[domain.Vehicle] {
	return Schema[domain.Vehicle]{
		Table: string(domain.EntityVehicle),
		File:  VehicleFile,
		Columns: []Column[domain.Vehicle]{
			textColumn(KeyColumn, func(v *domain.Vehicle) *string { return &v.Plate }),
			enumColumn("TYPE", domain.ParseVehicleType, func(v *domain.Vehicle) *domain.VehicleType { return &v.Type }),
			textColumn("MODEL", func(v *domain.Vehicle) *string { return &v.Model }),
			textColumn("ZONE", func(v *domain.Vehicle) *string { return &v.Zone }),
			textColumn("DESCRIPTION", func(v *domain.Vehicle) *string { return &v.Description }),
			refColumn("DRIVER_ID", func(v *domain.Vehicle) *domain.Ref { return &v.DriverID }),
		},
		ParseKey:  parsePlateKey,
		Normalize: domain.Vehicle.Normalize,
		Validate:  domain.Vehicle.Validate,
	}
}

// WeaponSchema lays out ID,TYPE,DESCRIPTION,USER_ID.
func WeaponSchema() Schema[domain.Weapon] {
	return Schema[domain.Weapon]{
		Table: string(domain.EntityWeapon),
		File:  WeaponFile,
		Columns: []Column[domain.Weapon]{
			uuidColumn(KeyColumn, func(w *domain.Weapon) *uuid.UUID { return &w.ID }),
			enumColumn("TYPE", domain.ParseWeaponType, func(w *domain.Weapon) *domain.WeaponType { return &w.Type }),
			textColumn("DESCRIPTION", func(w *domain.Weapon) *string { return &w.Description }),
			refColumn("USER_ID", func(w *domain.Weapon) *domain.Ref { return &w.UserID }),
		},
		ParseKey:  parseUUIDKey,
		Normalize: domain.Weapon.Normalize,
		Validate:  domain.Weapon.Validate,
	}
}

func parseUUIDKey(s string) (string, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func parsePlateKey(s string) (string, error) {
	if !domain.PlatePattern.MatchString(s) {
		return "", fmt.Errorf("%w: plate %q", ErrMalformedRecord, s)
	}
	return s, nil
}

func textColumn[T any](name string, field func(*T) *string) Column[T] {
	return Column[T]{
		Name:   name,
		Encode: func(v T) string { return *field(&v) },
		Decode: func(v *T, s string) error {
			*field(v) = s
			return nil
		},
	}
}

func uuidColumn[T any](name string, field func(*T) *uuid.UUID) Column[T] {
	return Column[T]{
		Name:   name,
		Encode: func(v T) string { return field(&v).String() },
		Decode: func(v *T, s string) error {
			id, err := uuid.Parse(s)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
			}
			*field(v) = id
			return nil
		},
	}
}

func refColumn[T any](name string, field func(*T) *domain.Ref) Column[T] {
	return Column[T]{
		Name:   name,
		Encode: func(v T) string { return field(&v).String() },
		Decode: func(v *T, s string) error {
			ref, err := domain.ParseRef(s)
			if err != nil {
				return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
			}
			*field(v) = ref
			return nil
		},
	}
}

func dateColumn[T any](name string, field func(*T) *time.Time) Column[T] {
	return Column[T]{
		Name: name,
		Encode: func(v T) string {
			t := *field(&v)
			if t.IsZero() {
				return ""
			}
			return domain.FormatDate(t)
		},
		Decode: func(v *T, s string) error {
			t, err := domain.ParseDate(s)
			if err != nil {
				return fmt.Errorf("%w: %q", ErrInvalidDate, s)
			}
			*field(v) = t
			return nil
		},
	}
}

func enumColumn[T any, E ~string](name string, parse func(string) (E, error), field func(*T) *E) Column[T] {
	return Column[T]{
		Name:   name,
		Encode: func(v T) string { return string(*field(&v)) },
		Decode: func(v *T, s string) error {
			e, err := parse(s)
			if errors.Is(err, domain.ErrUnknownEnum) {
				return fmt.Errorf("%w: %v", ErrInvalidEnumValue, err)
			}
			if err != nil {
				return err
			}
			*field(v) = e
			return nil
		},
	}
}
