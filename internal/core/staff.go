package core

import (
	"context"

	"sspdb/pkg/domain"
)

// StaffService adds the staff-only derived reads to Service.
type StaffService struct {
	*Service[domain.Staff]
}

// NewStaffService wraps a staff repository. The supervisor reference is
// checked against the same repository.
func NewStaffService(repo Repository[domain.Staff], opts ...Option) *StaffService {
	lookup := func(ctx context.Context, id string) (bool, error) {
		_, ok, err := repo.FindByID(ctx, id)
		return ok, err
	}
	return &StaffService{Service: NewService(domain.EntityStaff, repo, staffKey, staffRefs, lookup, opts...)}
}

// Exists reports whether a staff member with id is stored.
func (s *StaffService) Exists(ctx context.Context, id string) (bool, error) {
	_, ok, err := s.repo.FindByID(ctx, id)
	return ok, err
}

// SubordinatesOf returns, in file order, every staff member whose supervisor
// is boss.
func (s *StaffService) SubordinatesOf(ctx context.Context, boss domain.Staff) ([]domain.Staff, error) {
	all, err := s.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Staff
	for _, st := range all {
		if st.SupervisorID.Is(boss.ID) {
			out = append(out, st)
		}
	}
	return out, nil
}

// SupervisorCandidates returns the staff members that outrank s.
func (s *StaffService) SupervisorCandidates(ctx context.Context, of domain.Staff) ([]domain.Staff, error) {
	all, err := s.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	var out []domain.Staff
	for _, st := range all {
		if st.ID != of.ID && st.Role.Outranks(of.Role) {
			out = append(out, st)
		}
	}
	return out, nil
}

// Age returns the age in whole years of the staff member with id.
func (s *StaffService) Age(ctx context.Context, id string) (int, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return st.Age(s.Now()), nil
}

// Seniority returns the whole years served by the staff member with id.
func (s *StaffService) Seniority(ctx context.Context, id string) (int, error) {
	st, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return st.Seniority(s.Now()), nil
}

func staffKey(s domain.Staff) string { return s.ID.String() }

func staffRefs(s domain.Staff) []Reference {
	return []Reference{{Field: "supervisor_id", Ref: s.SupervisorID}}
}

func vehicleKey(v domain.Vehicle) string { return v.Plate }

func vehicleRefs(v domain.Vehicle) []Reference {
	return []Reference{{Field: "driver_id", Ref: v.DriverID}}
}

func weaponKey(w domain.Weapon) string { return w.ID.String() }

func weaponRefs(w domain.Weapon) []Reference {
	return []Reference{{Field: "user_id", Ref: w.UserID}}
}
