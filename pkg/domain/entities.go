// Package domain defines the persisted record types (staff, vehicles and
// weapons), their enumerations and the validation rules every record must
// satisfy before it reaches a table.
package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// EntityType identifies the type of record stored by sspdb.
type EntityType string

// Supported entity type identifiers. Each one names a table.
const (
	// EntityStaff identifies a staff member.
	EntityStaff EntityType = "staff"
	// EntityVehicle identifies a vehicle, keyed by its plate.
	EntityVehicle EntityType = "vehicle"
	// EntityWeapon identifies a weapon assigned to a staff member.
	EntityWeapon EntityType = "weapon"
)

// EntityTypes lists every entity type in menu order.
func EntityTypes() []EntityType {
	return []EntityType{EntityStaff, EntityVehicle, EntityWeapon}
}

// Staff is a member of the personnel roster.
type Staff struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Sex          Sex       `json:"sex"`
	DateOfBirth  time.Time `json:"dob"`
	DateOfHire   time.Time `json:"doh"`
	Role         Role      `json:"role"`
	SupervisorID Ref       `json:"supervisor_id"`
}

// NewStaff builds a staff member with a freshly generated identifier and no
// supervisor.
func NewStaff(name string, sex Sex, dob, doh time.Time, role Role) (Staff, error) {
	s := Staff{
		ID:          uuid.New(),
		Name:        name,
		Sex:         sex,
		DateOfBirth: dob,
		DateOfHire:  doh,
		Role:        role,
	}.Normalize()
	if err := s.Validate(); err != nil {
		return Staff{}, err
	}
	return s, nil
}

// Normalize trims the name and truncates both dates to calendar days, the
// form in which a staff row is stored.
func (s Staff) Normalize() Staff {
	s.Name = strings.TrimSpace(s.Name)
	s.DateOfBirth = Day(s.DateOfBirth)
	s.DateOfHire = Day(s.DateOfHire)
	return s
}

// Validate reports the first field that breaks the staff invariants.
func (s Staff) Validate() error {
	switch {
	case s.ID == uuid.Nil:
		return requiredErr("id")
	case !NamePattern.MatchString(s.Name) || padded(s.Name):
		return invalidErr("name", "must be letters optionally separated by ',. - characters")
	case !s.Sex.Valid():
		return requiredErr("sex")
	case s.DateOfBirth.IsZero():
		return requiredErr("dob")
	case s.DateOfHire.IsZero():
		return requiredErr("doh")
	case !s.Role.Valid():
		return requiredErr("role")
	case s.SupervisorID.Valid && s.SupervisorID.ID == s.ID:
		return invalidErr("supervisor_id", "a staff member cannot supervise themselves")
	}
	return nil
}

// Age returns the whole years elapsed between the date of birth and now.
func (s Staff) Age(now time.Time) int { return YearsBetween(s.DateOfBirth, now) }

// Seniority returns the whole years elapsed between the date of hire and now.
func (s Staff) Seniority(now time.Time) int { return YearsBetween(s.DateOfHire, now) }

// Vehicle is a fleet unit identified by its plate.
type Vehicle struct {
	Plate       string      `json:"id"`
	Type        VehicleType `json:"type"`
	Model       string      `json:"model"`
	Zone        string      `json:"zone"`
	Description string      `json:"description"`
	DriverID    Ref         `json:"driver_id"`
}

// NewVehicle builds an unassigned vehicle with no zone.
func NewVehicle(plate string, typ VehicleType, model, description string) (Vehicle, error) {
	v := Vehicle{Plate: plate, Type: typ, Model: model, Description: description}.Normalize()
	if err := v.Validate(); err != nil {
		return Vehicle{}, err
	}
	return v, nil
}

// Normalize trims the free-text fields.
func (v Vehicle) Normalize() Vehicle {
	v.Plate = strings.TrimSpace(v.Plate)
	v.Model = strings.TrimSpace(v.Model)
	v.Zone = strings.TrimSpace(v.Zone)
	v.Description = strings.TrimSpace(v.Description)
	return v
}

// Validate reports the first field that breaks the vehicle invariants.
func (v Vehicle) Validate() error {
	switch {
	case !PlatePattern.MatchString(v.Plate):
		return invalidErr("id", "plates allow upper case letters, digits and single hyphens")
	case !v.Type.Valid():
		return requiredErr("type")
	case !lengthWithin(v.Model, 1, 280) || padded(v.Model):
		return invalidErr("model", "must be 1 to 280 characters")
	case v.Zone != "" && !PlatePattern.MatchString(v.Zone):
		return invalidErr("zone", "zones allow upper case letters, digits and single hyphens")
	case !lengthWithin(v.Description, 3, 280) || padded(v.Description):
		return invalidErr("description", "must be 3 to 280 characters")
	}
	return nil
}

// Weapon is an armament assigned to exactly one staff member.
type Weapon struct {
	ID          uuid.UUID  `json:"id"`
	Type        WeaponType `json:"type"`
	Description string     `json:"description"`
	UserID      Ref        `json:"user_id"`
}

// NewWeapon builds a weapon with a freshly generated identifier.
func NewWeapon(typ WeaponType, description string, userID uuid.UUID) (Weapon, error) {
	w := Weapon{ID: uuid.New(), Type: typ, Description: description, UserID: RefTo(userID)}.Normalize()
	if err := w.Validate(); err != nil {
		return Weapon{}, err
	}
	return w, nil
}

// Normalize trims the description.
func (w Weapon) Normalize() Weapon {
	w.Description = strings.TrimSpace(w.Description)
	return w
}

// Validate reports the first field that breaks the weapon invariants.
func (w Weapon) Validate() error {
	switch {
	case w.ID == uuid.Nil:
		return requiredErr("id")
	case !w.Type.Valid():
		return requiredErr("type")
	case !lengthWithin(w.Description, 3, 280) || padded(w.Description):
		return invalidErr("description", "must be 3 to 280 characters")
	case !w.UserID.Valid:
		return requiredErr("user_id")
	}
	return nil
}
