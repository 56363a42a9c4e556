package console

import (
	"context"
	"fmt"
	"regexp"

	"sspdb/internal/core"
	"sspdb/pkg/domain"
)

var (
	sexChoice  = whole(domain.EnumPattern(domain.Sexes()))
	roleChoice = whole(domain.EnumPattern(domain.Roles()))
	staffEdit  = regexp.MustCompile(`^(NAME|SEX|DOB|DOH|ROLE|SUPERVISOR_ID)$`)
)

// StaffWizard collects staff fields.
type StaffWizard struct {
	p   *Prompter
	svc *core.StaffService
}

// Create asks for every field and, optionally, a supervisor that outranks the
// new member. The record is not saved.
func (w *StaffWizard) Create(ctx context.Context) (domain.Staff, error) {
	w.p.Printf("Creating a new staff member.")
	name, err := w.name()
	if err != nil {
		return domain.Staff{}, err
	}
	sex, err := w.sex()
	if err != nil {
		return domain.Staff{}, err
	}
	dob, err := w.p.Date("Date of birth")
	if err != nil {
		return domain.Staff{}, err
	}
	doh, err := w.p.Date("Date of hire")
	if err != nil {
		return domain.Staff{}, err
	}
	role, err := w.role()
	if err != nil {
		return domain.Staff{}, err
	}
	s, err := domain.NewStaff(name, sex, dob, doh, role)
	if err != nil {
		return domain.Staff{}, err
	}
	add, err := w.p.YesNo("Add supervisor?")
	if err != nil {
		return domain.Staff{}, err
	}
	if add {
		if s.SupervisorID, err = w.supervisor(ctx, s); err != nil {
			return domain.Staff{}, err
		}
	}
	return s, nil
}

// Edit runs the column sub-panel on a copy of s and returns the result.
func (w *StaffWizard) Edit(ctx context.Context, s domain.Staff) (domain.Staff, error) {
	panel := &Panel{
		Title:    "STAFF:EDIT",
		Patterns: []*regexp.Regexp{staffEdit},
		Help: []HelpLine{
			{"NAME", "Edit the name."},
			{"SEX", "Edit the sex."},
			{"DOB", "Edit the date of birth."},
			{"DOH", "Edit the date of hire."},
			{"ROLE", "Edit the role."},
			{"SUPERVISOR_ID", "Edit the supervisor."},
			{exitCommand, "Back to the previous menu."},
		},
		Handle: func(ctx context.Context, cmd Command) error {
			var err error
			switch cmd.Name {
			case "NAME":
				w.p.Printf("Current name: %s", s.Name)
				s.Name, err = w.name()
			case "SEX":
				w.p.Printf("Current sex: %s", s.Sex)
				s.Sex, err = w.sex()
			case "DOB":
				w.p.Printf("Current date of birth: %s", domain.FormatDate(s.DateOfBirth))
				s.DateOfBirth, err = w.p.Date("Date of birth")
			case "DOH":
				w.p.Printf("Current date of hire: %s", domain.FormatDate(s.DateOfHire))
				s.DateOfHire, err = w.p.Date("Date of hire")
			case "ROLE":
				w.p.Printf("Current role: %s", s.Role)
				s.Role, err = w.role()
			case "SUPERVISOR_ID":
				w.p.Printf("Current supervisor: %s", refText(s.SupervisorID))
				var assign bool
				if assign, err = w.p.YesNo("Assign supervisor?"); err == nil {
					if assign {
						s.SupervisorID, err = w.supervisor(ctx, s)
					} else {
						s.SupervisorID = domain.Ref{}
					}
				}
			}
			return err
		},
	}
	err := panel.Run(ctx, w.p)
	return s, err
}

// supervisor picks among staff that outrank s; with no candidate it keeps
// the current reference.
func (w *StaffWizard) supervisor(ctx context.Context, s domain.Staff) (domain.Ref, error) {
	candidates, err := w.svc.SupervisorCandidates(ctx, s)
	if err != nil {
		return s.SupervisorID, err
	}
	if len(candidates) == 0 {
		w.p.Printf("No staff member can be assigned as supervisor.")
		return s.SupervisorID, nil
	}
	w.p.Printf("Select the supervisor by index:")
	for i, c := range candidates {
		w.p.Printf("%d\t%s\t%s\t%s", i, c.ID, c.Name, c.Role)
	}
	idx, err := w.p.Index("Supervisor", len(candidates))
	if err != nil {
		return s.SupervisorID, err
	}
	return domain.RefTo(candidates[idx].ID), nil
}

func (w *StaffWizard) name() (string, error) {
	return w.p.Match(domain.NamePattern, "Name", "Invalid name.")
}

func (w *StaffWizard) sex() (domain.Sex, error) {
	s, err := w.p.Match(sexChoice, "Sex", "Must be one of "+domain.EnumPattern(domain.Sexes()))
	return domain.Sex(s), err
}

func (w *StaffWizard) role() (domain.Role, error) {
	s, err := w.p.Match(roleChoice, "Role", "Must be one of "+domain.EnumPattern(domain.Roles()))
	return domain.Role(s), err
}

// pickStaff lists every staff member by index. It reports false when the
// table is empty.
func pickStaff(ctx context.Context, p *Prompter, svc *core.StaffService, prefix, what string) (domain.Ref, bool, error) {
	all, err := svc.FindAll(ctx)
	if err != nil {
		return domain.Ref{}, false, err
	}
	if len(all) == 0 {
		return domain.Ref{}, false, nil
	}
	p.Printf("Select the %s by index:", what)
	for i, s := range all {
		p.Printf("%d\t%s\t%s", i, s.ID, s.Name)
	}
	idx, err := p.Index(prefix, len(all))
	if err != nil {
		return domain.Ref{}, false, err
	}
	return domain.RefTo(all[idx].ID), true, nil
}

func refText(r domain.Ref) string {
	if !r.Valid {
		return "none"
	}
	return r.String()
}

func formatStaff(s domain.Staff) string {
	return fmt.Sprintf("Staff{id=%s, name=%s, sex=%s, dob=%s, doh=%s, role=%s, supervisor=%s}",
		s.ID, s.Name, s.Sex, domain.FormatDate(s.DateOfBirth), domain.FormatDate(s.DateOfHire), s.Role, refText(s.SupervisorID))
}
