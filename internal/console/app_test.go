package console

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"sspdb/internal/blob"
	"sspdb/internal/core"
	"sspdb/pkg/domain"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date: %v", err)
	}
	return d
}

func newRegistry(t *testing.T, store blob.Store) *core.Registry {
	t.Helper()
	now := func() time.Time { return mustDate(t, "2024-06-15") }
	reg := core.NewRegistry(store, nil, core.WithClock(now))
	if _, err := reg.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	return reg
}

func seedStaff(t *testing.T, reg *core.Registry, name string, role domain.Role, dob, doh string) domain.Staff {
	t.Helper()
	s, err := domain.NewStaff(name, domain.SexFemale, mustDate(t, dob), mustDate(t, doh), role)
	if err != nil {
		t.Fatalf("NewStaff: %v", err)
	}
	saved, err := reg.Staff.Save(context.Background(), s)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	return saved
}

// runScript feeds lines to a fresh app and returns everything it printed.
func runScript(t *testing.T, reg *core.Registry, lines ...string) string {
	t.Helper()
	var out bytes.Buffer
	app := NewApp(reg, strings.NewReader(strings.Join(lines, "\n")+"\n"), &out)
	if err := app.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v\n%s", err, out.String())
	}
	return out.String()
}

func mustContain(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Fatalf("output missing %q:\n%s", w, out)
		}
	}
}

func TestParseCommand(t *testing.T) {
	cases := []struct {
		line string
		want Command
		ok   bool
	}{
		{"USE STAFF", Command{Name: "STAFF"}, true},
		{"  EXIT  ", Command{Name: exitCommand}, true},
		{"LIST", Command{Name: "LIST"}, true},
		{`GET "AB-1"`, Command{Name: "GET", Arg: "AB-1"}, true},
		{`AGE "x y"`, Command{Name: "AGE", Arg: "x y"}, true},
		{"GET AB-1", Command{}, false},
		{"LISTING", Command{}, false},
		{"use staff", Command{}, false},
	}
	for _, tc := range cases {
		got, ok := ParseCommand(tc.line, useCommand, tableCommand, idCommand, staffCommand)
		if ok != tc.ok || got != tc.want {
			t.Fatalf("ParseCommand(%q) = %+v, %v; want %+v, %v", tc.line, got, ok, tc.want, tc.ok)
		}
	}
}

func TestPrompterRepromptsUntilValid(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("2024-13-01\n2024-02-29\nmaybe\nSI\n7\n1\n"), &out)
	d, err := p.Date("Date")
	if err != nil || domain.FormatDate(d) != "2024-02-29" {
		t.Fatalf("Date = %v, %v", d, err)
	}
	yes, err := p.YesNo("Ok?")
	if err != nil || !yes {
		t.Fatalf("YesNo = %v, %v", yes, err)
	}
	idx, err := p.Index("Pick", 2)
	if err != nil || idx != 1 {
		t.Fatalf("Index = %d, %v", idx, err)
	}
	if _, err := p.Line("More"); err != ErrInputClosed {
		t.Fatalf("expected ErrInputClosed, got %v", err)
	}
	mustContain(t, out.String(),
		"Date>> ERROR: invalid date format: 2024-13-01. Must use YYYY-MM-DD",
		"ERROR: answer yes or no",
		"ERROR: choose an index between 0 and 1",
	)
}

func TestPrompterWholeMatchOnly(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("TRUCKS\nTRUCK\n"), &out)
	got, err := p.Match(vehicleTypeChoice, "Type", "bad type")
	if err != nil || got != "TRUCK" {
		t.Fatalf("Match = %q, %v", got, err)
	}
	if strings.Count(out.String(), "ERROR: bad type") != 1 {
		t.Fatalf("expected one rejection:\n%s", out.String())
	}
}

func TestAppCreatesStaffWithSupervisor(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, blob.NewMemory())
	julia := seedStaff(t, reg, "Julia", domain.RoleLieutenant, "1980-05-01", "2005-01-10")

	out := runScript(t, reg,
		"USE STAFF",
		"NEW",
		"Daniel 2",
		"Daniel",
		"MALE",
		"1990-02-01",
		"2015-03-01",
		"OFFICER",
		"yes",
		"0",
		"LIST",
		`SUBORDINATES "`+julia.ID.String()+`"`,
		"EXIT",
		"EXIT",
	)
	mustContain(t, out, "ERROR: Invalid name.", "Saved Staff{", "name=Daniel", "Bye.")

	subs, err := reg.Staff.SubordinatesOf(ctx, julia)
	if err != nil {
		t.Fatalf("SubordinatesOf: %v", err)
	}
	if len(subs) != 1 || subs[0].Name != "Daniel" || subs[0].Role != domain.RoleOfficer {
		t.Fatalf("unexpected subordinates %+v", subs)
	}
	if strings.Count(out, "name=Daniel") < 3 {
		t.Fatalf("expected Daniel in save, list and subordinates output:\n%s", out)
	}
}

func TestAppStaffQueries(t *testing.T) {
	reg := newRegistry(t, blob.NewMemory())
	julia := seedStaff(t, reg, "Julia", domain.RoleLieutenant, "1980-05-01", "2005-01-10")
	id := julia.ID.String()

	out := runScript(t, reg,
		"USE STAFF",
		`AGE "`+id+`"`,
		`SENIORITY "`+id+`"`,
		`SUBORDINATES "`+id+`"`,
		`AGE "missing"`,
		"EXIT",
		"EXIT",
	)
	mustContain(t, out,
		"Age: 44",
		"Seniority: 19 years",
		"No subordinates.",
		"No record found with id missing",
	)
}

func TestAppSupervisorWithoutCandidates(t *testing.T) {
	reg := newRegistry(t, blob.NewMemory())
	out := runScript(t, reg,
		"USE STAFF",
		"NEW",
		"Julia",
		"FEMALE",
		"1980-05-01",
		"2005-01-10",
		"LIEUTENANT",
		"si",
		"EXIT",
		"EXIT",
	)
	mustContain(t, out, "No staff member can be assigned as supervisor.", "supervisor=none")
}

func TestAppVehicleLifecycle(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, blob.NewMemory())
	daniel := seedStaff(t, reg, "Daniel", domain.RoleOfficer, "1990-02-01", "2015-03-01")

	out := runScript(t, reg,
		"USE VEHICLE",
		"NEW",
		"ab-1",
		"AB-1",
		"CAR",
		"Golf",
		"patrol car",
		"yes",
		"NORTH-1",
		"yes",
		"0",
		`EDIT "AB-1"`,
		"MODEL",
		"Polo",
		"ZONE",
		"no",
		"EXIT",
		`GET "AB-1"`,
		`GET "ZZ-9"`,
		"EXIT",
		"EXIT",
	)
	mustContain(t, out, "ERROR: Invalid plate.", "zone=NORTH-1", "No record found with id ZZ-9")

	got, err := reg.Vehicles.Get(ctx, "AB-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := domain.Vehicle{
		Plate:       "AB-1",
		Type:        domain.VehicleCar,
		Model:       "Polo",
		Description: "patrol car",
		DriverID:    domain.RefTo(daniel.ID),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("vehicle (-want +got):\n%s", diff)
	}

	out = runScript(t, reg, "USE VEHICLE", `DELETE "AB-1"`, `DELETE "AB-1"`, "LIST", "EXIT", "EXIT")
	mustContain(t, out, "Deleted vehicle AB-1", "No record found with id AB-1", "No records.")
}

func TestAppWeaponNeedsStaff(t *testing.T) {
	ctx := context.Background()
	reg := newRegistry(t, blob.NewMemory())
	out := runScript(t, reg, "USE WEAPON", "NEW", "EXIT", "EXIT")
	mustContain(t, out, "ERROR: a weapon must be assigned to a staff member, but there is no staff")

	julia := seedStaff(t, reg, "Julia", domain.RoleLieutenant, "1980-05-01", "2005-01-10")
	out = runScript(t, reg, "USE WEAPON", "NEW", "PISTOL", "ok", "service pistol", "0", "EXIT", "EXIT")
	mustContain(t, out, "ERROR: must be 3 to 280 characters", "Saved Weapon{")

	all, err := reg.Weapons.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 1 || !all[0].UserID.Is(julia.ID) || all[0].Type != domain.WeaponPistol {
		t.Fatalf("unexpected weapons %+v", all)
	}
}

func TestAppListSkipsMalformedRows(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	reg := newRegistry(t, store)
	seedStaff(t, reg, "Julia", domain.RoleLieutenant, "1980-05-01", "2005-01-10")

	_, rc, err := store.Get(ctx, "staff.csv")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(rc)
	_ = rc.Close()
	buf.WriteString("not-a-uuid,Bob,MALE,1990-01-01,2010-01-01,OFFICER,\n")
	if _, err := store.Put(ctx, "staff.csv", &buf, blob.PutOptions{}); err != nil {
		t.Fatalf("Put: %v", err)
	}

	out := runScript(t, reg, "USE STAFF", "LIST", "EXIT", "EXIT")
	mustContain(t, out, "name=Julia", "ERROR: staff.csv line 3:")
}

func TestAppRejectsInvalidInputAndStopsAtEOF(t *testing.T) {
	reg := newRegistry(t, blob.NewMemory())
	out := runScript(t, reg, "USE TANKS", "USE STAFF", "DROP TABLE")
	mustContain(t, out, "SSPDB>> ERROR: Invalid input.", "STAFF>> ERROR: Invalid input.")
	if strings.Contains(out, "Bye.") {
		t.Fatalf("end of input should not print the farewell:\n%s", out)
	}
}
