package domain

import (
	"fmt"
	"strings"
)

// Sex of a staff member.
type Sex string

const (
	SexFemale Sex = "FEMALE"
	SexMale   Sex = "MALE"
)

// Role is a staff rank. Ranks are ordered; see Rank.
type Role string

// Roles from lowest to highest rank.
const (
	RolePoliceman  Role = "POLICEMAN"
	RoleOfficer    Role = "OFFICER"
	RoleLieutenant Role = "LIEUTENANT"
)

// VehicleType classifies fleet units.
type VehicleType string

const (
	VehicleHelicopter VehicleType = "HELICOPTER"
	VehicleCar        VehicleType = "CAR"
	VehicleTruck      VehicleType = "TRUCK"
	VehicleMotorcycle VehicleType = "MOTORCYCLE"
)

// WeaponType classifies armament.
type WeaponType string

const (
	WeaponPistol     WeaponType = "PISTOL"
	WeaponMachineGun WeaponType = "MACHINE_GUN"
	WeaponGrenade    WeaponType = "GRENADE"
)

var (
	sexes        = []Sex{SexFemale, SexMale}
	roles        = []Role{RolePoliceman, RoleOfficer, RoleLieutenant}
	vehicleTypes = []VehicleType{VehicleHelicopter, VehicleCar, VehicleTruck, VehicleMotorcycle}
	weaponTypes  = []WeaponType{WeaponPistol, WeaponMachineGun, WeaponGrenade}
)

// Sexes returns every Sex value.
func Sexes() []Sex { return append([]Sex(nil), sexes...) }

// Roles returns every Role from lowest to highest rank.
func Roles() []Role { return append([]Role(nil), roles...) }

// VehicleTypes returns every VehicleType value.
func VehicleTypes() []VehicleType { return append([]VehicleType(nil), vehicleTypes...) }

// WeaponTypes returns every WeaponType value.
func WeaponTypes() []WeaponType { return append([]WeaponType(nil), weaponTypes...) }

func (s Sex) Valid() bool         { return indexOf(sexes, s) >= 0 }
func (r Role) Valid() bool        { return indexOf(roles, r) >= 0 }
func (t VehicleType) Valid() bool { return indexOf(vehicleTypes, t) >= 0 }
func (t WeaponType) Valid() bool  { return indexOf(weaponTypes, t) >= 0 }

// Rank orders roles; a higher rank may supervise a lower one. Unknown roles rank -1.
func (r Role) Rank() int { return indexOf(roles, r) }

// Outranks reports whether r is strictly above other.
func (r Role) Outranks(other Role) bool { return r.Rank() > other.Rank() }

// ParseSex matches s exactly against the symbolic names.
func ParseSex(s string) (Sex, error) { return parseEnum("sex", s, sexes) }

// ParseRole matches s exactly against the symbolic names.
func ParseRole(s string) (Role, error) { return parseEnum("role", s, roles) }

// ParseVehicleType matches s exactly against the symbolic names.
func ParseVehicleType(s string) (VehicleType, error) {
	return parseEnum("vehicle type", s, vehicleTypes)
}

// ParseWeaponType matches s exactly against the symbolic names.
func ParseWeaponType(s string) (WeaponType, error) { return parseEnum("weapon type", s, weaponTypes) }

// EnumPattern renders the values as a regular expression alternation.
func EnumPattern[T ~string](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = string(v)
	}
	return strings.Join(parts, "|")
}

func parseEnum[T ~string](kind, s string, values []T) (T, error) {
	for _, v := range values {
		if string(v) == s {
			return v, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %q is not a %s (want one of %s)", ErrUnknownEnum, s, kind, EnumPattern(values))
}

func indexOf[T comparable](values []T, v T) int {
	for i, candidate := range values {
		if candidate == v {
			return i
		}
	}
	return -1
}
