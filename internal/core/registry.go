package core

import (
	"context"

	"sspdb/internal/blob"
	"sspdb/internal/table"
	"sspdb/pkg/domain"
)

// TableView is the raw, schema-agnostic read side of a table.
type TableView interface {
	Name() string
	Key() string
	Rows(ctx context.Context) ([]string, [][]string, error)
}

type initializer interface {
	Key() string
	Init(ctx context.Context) (bool, error)
}

// Registry wires one table and one service per entity type over a blob store.
type Registry struct {
	Staff    *StaffService
	Vehicles *Service[domain.Vehicle]
	Weapons  *Service[domain.Weapon]

	views []TableView
	inits []initializer
}

// NewRegistry builds the three tables on store. tableOpts apply to every
// table and opts to every service.
func NewRegistry(store blob.Store, tableOpts []table.Option, opts ...Option) *Registry {
	staff := table.New(store, table.StaffSchema(), tableOpts...)
	vehicles := table.New(store, table.VehicleSchema(), tableOpts...)
	weapons := table.New(store, table.WeaponSchema(), tableOpts...)

	staffSvc := NewStaffService(staff, opts...)
	return &Registry{
		Staff:    staffSvc,
		Vehicles: NewService(domain.EntityVehicle, vehicles, vehicleKey, vehicleRefs, staffSvc.Exists, opts...),
		Weapons:  NewService(domain.EntityWeapon, weapons, weaponKey, weaponRefs, staffSvc.Exists, opts...),
		views:    []TableView{staff, vehicles, weapons},
		inits:    []initializer{staff, vehicles, weapons},
	}
}

// Init writes a header-only file for every missing table and returns the keys
// it created.
func (r *Registry) Init(ctx context.Context) ([]string, error) {
	var created []string
	for _, t := range r.inits {
		ok, err := t.Init(ctx)
		if err != nil {
			return created, err
		}
		if ok {
			created = append(created, t.Key())
		}
	}
	return created, nil
}

// Tables returns the raw views in entity menu order.
func (r *Registry) Tables() []TableView {
	return append([]TableView(nil), r.views...)
}
