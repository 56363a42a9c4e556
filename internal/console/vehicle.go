package console

import (
	"context"
	"fmt"
	"regexp"

	"sspdb/internal/core"
	"sspdb/pkg/domain"
)

var (
	vehicleTypeChoice = whole(domain.EnumPattern(domain.VehicleTypes()))
	vehicleEdit       = regexp.MustCompile(`^(TYPE|MODEL|ZONE|DESCRIPTION|DRIVER_ID)$`)
)

// VehicleWizard collects vehicle fields. Drivers are picked from all staff.
type VehicleWizard struct {
	p     *Prompter
	staff *core.StaffService
}

// Create asks for the plate, type, model, optional zone, description and
// optional driver.
func (w *VehicleWizard) Create(ctx context.Context) (domain.Vehicle, error) {
	w.p.Printf("Creating a new vehicle.")
	plate, err := w.p.Match(domain.PlatePattern, "Plate", "Invalid plate. Use upper case letters, digits and single hyphens.")
	if err != nil {
		return domain.Vehicle{}, err
	}
	typ, err := w.vehicleType()
	if err != nil {
		return domain.Vehicle{}, err
	}
	model, err := w.p.Length("Model", 1, 280)
	if err != nil {
		return domain.Vehicle{}, err
	}
	description, err := w.p.Length("Description", 3, 280)
	if err != nil {
		return domain.Vehicle{}, err
	}
	v, err := domain.NewVehicle(plate, typ, model, description)
	if err != nil {
		return domain.Vehicle{}, err
	}
	if v.Zone, err = w.zone(v.Zone); err != nil {
		return domain.Vehicle{}, err
	}
	if v.DriverID, err = w.driver(ctx, v.DriverID); err != nil {
		return domain.Vehicle{}, err
	}
	return v, nil
}

// Edit runs the column sub-panel on a copy of v and returns the result.
func (w *VehicleWizard) Edit(ctx context.Context, v domain.Vehicle) (domain.Vehicle, error) {
	panel := &Panel{
		Title:    "VEHICLE:EDIT",
		Patterns: []*regexp.Regexp{vehicleEdit},
		Help: []HelpLine{
			{"TYPE", "Edit the type."},
			{"MODEL", "Edit the model."},
			{"ZONE", "Edit the zone."},
			{"DESCRIPTION", "Edit the description."},
			{"DRIVER_ID", "Edit the driver."},
			{exitCommand, "Back to the previous menu."},
		},
		Handle: func(ctx context.Context, cmd Command) error {
			var err error
			switch cmd.Name {
			case "TYPE":
				w.p.Printf("Current type: %s", v.Type)
				v.Type, err = w.vehicleType()
			case "MODEL":
				w.p.Printf("Current model: %s", v.Model)
				v.Model, err = w.p.Length("Model", 1, 280)
			case "ZONE":
				w.p.Printf("Current zone: %s", orNone(v.Zone))
				v.Zone, err = w.zone(v.Zone)
			case "DESCRIPTION":
				w.p.Printf("Current description: %s", v.Description)
				v.Description, err = w.p.Length("Description", 3, 280)
			case "DRIVER_ID":
				w.p.Printf("Current driver: %s", refText(v.DriverID))
				v.DriverID, err = w.driver(ctx, v.DriverID)
			}
			return err
		},
	}
	err := panel.Run(ctx, w.p)
	return v, err
}

// zone asks whether to assign a zone; answering no clears it.
func (w *VehicleWizard) zone(current string) (string, error) {
	assign, err := w.p.YesNo("Assign zone?")
	if err != nil || !assign {
		return "", err
	}
	zone, err := w.p.Match(domain.PlatePattern, "Zone", "Invalid zone. Use upper case letters, digits and single hyphens.")
	if err != nil {
		return current, err
	}
	return zone, nil
}

// driver asks whether to assign a driver; answering no clears it.
func (w *VehicleWizard) driver(ctx context.Context, current domain.Ref) (domain.Ref, error) {
	assign, err := w.p.YesNo("Assign driver?")
	if err != nil || !assign {
		return domain.Ref{}, err
	}
	ref, ok, err := pickStaff(ctx, w.p, w.staff, "Driver", "driver")
	if err != nil {
		return current, err
	}
	if !ok {
		w.p.Printf("There is no staff to assign as driver.")
		return current, nil
	}
	return ref, nil
}

func (w *VehicleWizard) vehicleType() (domain.VehicleType, error) {
	s, err := w.p.Match(vehicleTypeChoice, "Type", "Must be one of "+domain.EnumPattern(domain.VehicleTypes()))
	return domain.VehicleType(s), err
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

func formatVehicle(v domain.Vehicle) string {
	return fmt.Sprintf("Vehicle{id=%s, type=%s, model=%s, zone=%s, description=%s, driver=%s}",
		v.Plate, v.Type, v.Model, orNone(v.Zone), v.Description, refText(v.DriverID))
}
