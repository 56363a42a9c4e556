package console

import (
	"context"
	"errors"
	"io"
	"regexp"
	"strings"

	"sspdb/internal/core"
	"sspdb/pkg/domain"
)

// App is the interactive shell over a registry.
type App struct {
	reg *core.Registry
	p   *Prompter
}

// NewApp reads commands from in and writes to out.
func NewApp(reg *core.Registry, in io.Reader, out io.Writer) *App {
	return &App{reg: reg, p: NewPrompter(in, out)}
}

// Run serves the main panel until EXIT or end of input.
func (a *App) Run(ctx context.Context) error {
	a.p.Printf("Welcome to SSPDB.")
	menu := &Panel{
		Title:    "SSPDB",
		Patterns: []*regexp.Regexp{useCommand},
		Help: []HelpLine{
			{"USE <STAFF|VEHICLE|WEAPON>", "Open the panel of a table."},
			{exitCommand, "Quit."},
		},
		Handle: func(ctx context.Context, cmd Command) error {
			panel := a.panel(domain.EntityType(strings.ToLower(cmd.Name)))
			if panel == nil {
				return errors.New("unknown table " + cmd.Name)
			}
			return panel.Run(ctx, a.p)
		},
	}
	err := menu.Run(ctx, a.p)
	if errors.Is(err, ErrInputClosed) {
		return nil
	}
	if err == nil {
		a.p.Printf("Bye.")
	}
	return err
}

func (a *App) panel(entity domain.EntityType) *Panel {
	switch entity {
	case domain.EntityStaff:
		w := &StaffWizard{p: a.p, svc: a.reg.Staff}
		pl := tablePanel(a.p, entityUI[domain.Staff]{
			svc:    a.reg.Staff.Service,
			create: w.Create,
			edit:   w.Edit,
			format: formatStaff,
		})
		pl.Patterns = append(pl.Patterns, staffCommand)
		exit := pl.Help[len(pl.Help)-1]
		pl.Help = append(pl.Help[:len(pl.Help)-1:len(pl.Help)-1],
			HelpLine{`AGE "<id>"`, "Print the age of a staff member."},
			HelpLine{`SENIORITY "<id>"`, "Print the years of service of a staff member."},
			HelpLine{`SUBORDINATES "<id>"`, "List the staff supervised by a staff member."},
			exit,
		)
		base := pl.Handle
		pl.Handle = func(ctx context.Context, cmd Command) error {
			switch cmd.Name {
			case "AGE", "SENIORITY", "SUBORDINATES":
				return notFoundAsMessage(a.p, cmd.Arg, a.staffQuery(ctx, cmd))
			}
			return base(ctx, cmd)
		}
		return pl
	case domain.EntityVehicle:
		w := &VehicleWizard{p: a.p, staff: a.reg.Staff}
		return tablePanel(a.p, entityUI[domain.Vehicle]{
			svc:    a.reg.Vehicles,
			create: w.Create,
			edit:   w.Edit,
			format: formatVehicle,
		})
	case domain.EntityWeapon:
		w := &WeaponWizard{p: a.p, staff: a.reg.Staff}
		return tablePanel(a.p, entityUI[domain.Weapon]{
			svc:    a.reg.Weapons,
			create: w.Create,
			edit:   w.Edit,
			format: formatWeapon,
		})
	}
	return nil
}

func (a *App) staffQuery(ctx context.Context, cmd Command) error {
	svc := a.reg.Staff
	switch cmd.Name {
	case "AGE":
		age, err := svc.Age(ctx, cmd.Arg)
		if err != nil {
			return err
		}
		a.p.Printf("Age: %d", age)
	case "SENIORITY":
		years, err := svc.Seniority(ctx, cmd.Arg)
		if err != nil {
			return err
		}
		a.p.Printf("Seniority: %d years", years)
	case "SUBORDINATES":
		boss, err := svc.Get(ctx, cmd.Arg)
		if err != nil {
			return err
		}
		subs, err := svc.SubordinatesOf(ctx, boss)
		if err != nil {
			return err
		}
		if len(subs) == 0 {
			a.p.Printf("No subordinates.")
		}
		for _, s := range subs {
			a.p.Printf("%s", formatStaff(s))
		}
	}
	return nil
}

type entityUI[T any] struct {
	svc    *core.Service[T]
	create func(context.Context) (T, error)
	edit   func(context.Context, T) (T, error)
	format func(T) string
}

// tablePanel builds the CRUD panel shared by every table.
func tablePanel[T any](p *Prompter, ui entityUI[T]) *Panel {
	entity := ui.svc.Entity()
	return &Panel{
		Title:    strings.ToUpper(string(entity)),
		Patterns: []*regexp.Regexp{tableCommand, idCommand},
		Help: []HelpLine{
			{"LIST", "List every record."},
			{"NEW", "Create a record."},
			{`GET "<id>"`, "Print one record."},
			{`EDIT "<id>"`, "Edit one record."},
			{`DELETE "<id>"`, "Delete one record."},
			{exitCommand, "Back to the main menu."},
		},
		Handle: func(ctx context.Context, cmd Command) error {
			switch cmd.Name {
			case "LIST":
				rows, skipped, err := ui.svc.FindValid(ctx)
				if err != nil {
					return err
				}
				if len(rows) == 0 && len(skipped) == 0 {
					p.Printf("No records.")
				}
				for _, v := range rows {
					p.Printf("%s", ui.format(v))
				}
				for _, err := range skipped {
					p.Error(err.Error())
				}
			case "NEW":
				v, err := ui.create(ctx)
				if err != nil {
					return err
				}
				saved, err := ui.svc.Save(ctx, v)
				if err != nil {
					return err
				}
				p.Printf("Saved %s", ui.format(saved))
			case "GET":
				v, err := ui.svc.Get(ctx, cmd.Arg)
				if err != nil {
					return notFoundAsMessage(p, cmd.Arg, err)
				}
				p.Printf("%s", ui.format(v))
			case "EDIT":
				v, err := ui.svc.Get(ctx, cmd.Arg)
				if err != nil {
					return notFoundAsMessage(p, cmd.Arg, err)
				}
				p.Printf("%s", ui.format(v))
				edited, err := ui.edit(ctx, v)
				if err != nil {
					return err
				}
				saved, err := ui.svc.Save(ctx, edited)
				if err != nil {
					return err
				}
				p.Printf("Saved %s", ui.format(saved))
			case "DELETE":
				removed, err := ui.svc.DeleteByID(ctx, cmd.Arg)
				if err != nil {
					return err
				}
				if !removed {
					p.Printf("No record found with id %s", cmd.Arg)
					return nil
				}
				p.Printf("Deleted %s %s", entity, cmd.Arg)
			}
			return nil
		},
	}
}

// notFoundAsMessage prints a miss as a plain line and passes other errors on.
func notFoundAsMessage(p *Prompter, id string, err error) error {
	if core.IsNotFound(err) {
		p.Printf("No record found with id %s", id)
		return nil
	}
	return err
}
