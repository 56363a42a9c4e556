package console

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"sspdb/internal/core"
	"sspdb/pkg/domain"
)

var (
	weaponTypeChoice = whole(domain.EnumPattern(domain.WeaponTypes()))
	weaponEdit       = regexp.MustCompile(`^(TYPE|DESCRIPTION|USER_ID)$`)
)

var errNoStaff = errors.New("a weapon must be assigned to a staff member, but there is no staff")

// WeaponWizard collects weapon fields. Every weapon has a user.
type WeaponWizard struct {
	p     *Prompter
	staff *core.StaffService
}

// Create refuses to start when the staff table is empty.
func (w *WeaponWizard) Create(ctx context.Context) (domain.Weapon, error) {
	all, err := w.staff.FindAll(ctx)
	if err != nil {
		return domain.Weapon{}, err
	}
	if len(all) == 0 {
		return domain.Weapon{}, errNoStaff
	}
	w.p.Printf("Creating a new weapon.")
	typ, err := w.weaponType()
	if err != nil {
		return domain.Weapon{}, err
	}
	description, err := w.p.Length("Description", 3, 280)
	if err != nil {
		return domain.Weapon{}, err
	}
	user, ok, err := pickStaff(ctx, w.p, w.staff, "User", "user")
	if err != nil {
		return domain.Weapon{}, err
	}
	if !ok {
		return domain.Weapon{}, errNoStaff
	}
	return domain.NewWeapon(typ, description, user.ID)
}

// Edit runs the column sub-panel on a copy of wp and returns the result.
func (w *WeaponWizard) Edit(ctx context.Context, wp domain.Weapon) (domain.Weapon, error) {
	panel := &Panel{
		Title:    "WEAPON:EDIT",
		Patterns: []*regexp.Regexp{weaponEdit},
		Help: []HelpLine{
			{"TYPE", "Edit the type."},
			{"DESCRIPTION", "Edit the description."},
			{"USER_ID", "Edit the user."},
			{exitCommand, "Back to the previous menu."},
		},
		Handle: func(ctx context.Context, cmd Command) error {
			var err error
			switch cmd.Name {
			case "TYPE":
				w.p.Printf("Current type: %s", wp.Type)
				wp.Type, err = w.weaponType()
			case "DESCRIPTION":
				w.p.Printf("Current description: %s", wp.Description)
				wp.Description, err = w.p.Length("Description", 3, 280)
			case "USER_ID":
				w.p.Printf("Current user: %s", refText(wp.UserID))
				var (
					ref domain.Ref
					ok  bool
				)
				ref, ok, err = pickStaff(ctx, w.p, w.staff, "User", "user")
				if err == nil && !ok {
					err = errNoStaff
				}
				if err == nil {
					wp.UserID = ref
				}
			}
			return err
		},
	}
	err := panel.Run(ctx, w.p)
	return wp, err
}

func (w *WeaponWizard) weaponType() (domain.WeaponType, error) {
	s, err := w.p.Match(weaponTypeChoice, "Type", "Must be one of "+domain.EnumPattern(domain.WeaponTypes()))
	return domain.WeaponType(s), err
}

func formatWeapon(wp domain.Weapon) string {
	return fmt.Sprintf("Weapon{id=%s, type=%s, description=%s, user=%s}",
		wp.ID, wp.Type, wp.Description, refText(wp.UserID))
}
