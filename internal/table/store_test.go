package table

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"sspdb/internal/blob"
	"sspdb/pkg/domain"
)

// rewriteOnly hides the Appender capability of the wrapped store.
type rewriteOnly struct{ blob.Store }

type observation struct {
	table, op string
	success   bool
}

type captureObserver struct{ calls []observation }

func (c *captureObserver) Observe(_ context.Context, table, op string, success bool, _ time.Duration) {
	c.calls = append(c.calls, observation{table: table, op: op, success: success})
}

func date(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := domain.ParseDate(s)
	if err != nil {
		t.Fatalf("parse date %s: %v", s, err)
	}
	return d
}

func newStaff(t *testing.T, name string, role domain.Role) domain.Staff {
	t.Helper()
	s, err := domain.NewStaff(name, domain.SexMale, date(t, "1985-03-02"), date(t, "2010-09-15"), role)
	if err != nil {
		t.Fatalf("NewStaff: %v", err)
	}
	return s
}

func newStaffTable(t *testing.T, store blob.Store, opts ...Option) *Table[domain.Staff] {
	t.Helper()
	tbl := New(store, StaffSchema(), opts...)
	created, err := tbl.Init(context.Background())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !created {
		t.Fatalf("expected Init to create %s", tbl.Key())
	}
	return tbl
}

func contents(t *testing.T, store blob.Store, key string) string {
	t.Helper()
	_, rc, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("get %s: %v", key, err)
	}
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read %s: %v", key, err)
	}
	return string(b)
}

func put(t *testing.T, store blob.Store, key, data string) {
	t.Helper()
	if _, err := store.Put(context.Background(), key, strings.NewReader(data), blob.PutOptions{}); err != nil {
		t.Fatalf("put %s: %v", key, err)
	}
}

func TestTableInitWritesHeaderOnce(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	tbl := newStaffTable(t, store)
	if got := contents(t, store, StaffFile); got != "ID,NAME,SEX,DOB,DOH,ROLE,SUPERVISOR_ID\n" {
		t.Fatalf("unexpected header-only file %q", got)
	}
	created, err := tbl.Init(ctx)
	if err != nil || created {
		t.Fatalf("second Init should be a no-op, got created=%v err=%v", created, err)
	}
}

func TestTableMissingFileFails(t *testing.T) {
	tbl := New(blob.NewMemory(), StaffSchema())
	if _, err := tbl.FindAll(context.Background()); !errors.Is(err, blob.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing file, got %v", err)
	}
	if _, err := tbl.Save(context.Background(), newStaff(t, "Daniel", domain.RoleOfficer)); err == nil {
		t.Fatalf("expected save against missing file to fail")
	}
}

func TestTableSaveFindRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, store := range map[string]blob.Store{
		"append":  blob.NewMemory(),
		"rewrite": rewriteOnly{blob.NewMemory()},
		"s3":      blob.NewMockS3ForTests(),
	} {
		t.Run(name, func(t *testing.T) {
			tbl := newStaffTable(t, store)
			julia := newStaff(t, "Julia", domain.RoleLieutenant)
			daniel := newStaff(t, "Daniel", domain.RoleOfficer)
			daniel.SupervisorID = domain.RefTo(julia.ID)

			for _, s := range []domain.Staff{julia, daniel} {
				saved, err := tbl.Save(ctx, s)
				if err != nil {
					t.Fatalf("Save %s: %v", s.Name, err)
				}
				if diff := cmp.Diff(s, saved); diff != "" {
					t.Fatalf("Save should return its input (-want +got):\n%s", diff)
				}
			}

			got, ok, err := tbl.FindByID(ctx, daniel.ID.String())
			if err != nil || !ok {
				t.Fatalf("FindByID: ok=%v err=%v", ok, err)
			}
			if diff := cmp.Diff(daniel, got); diff != "" {
				t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
			}

			all, err := tbl.FindAll(ctx)
			if err != nil {
				t.Fatalf("FindAll: %v", err)
			}
			if diff := cmp.Diff([]domain.Staff{julia, daniel}, all); diff != "" {
				t.Fatalf("FindAll mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestTableSaveAppendsNewRow(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	tbl := newStaffTable(t, store)
	before := contents(t, store, StaffFile)
	s := newStaff(t, "Daniel", domain.RoleOfficer)
	if _, err := tbl.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	after := contents(t, store, StaffFile)
	want := before + s.ID.String() + ",Daniel,MALE,1985-03-02,2010-09-15,OFFICER,\n"
	if after != want {
		t.Fatalf("append produced %q, want %q", after, want)
	}
}

func TestTableSaveIsIdempotentUpsert(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	tbl := newStaffTable(t, store)
	a := newStaff(t, "Daniel", domain.RoleOfficer)
	b := newStaff(t, "Julia", domain.RoleLieutenant)
	for _, s := range []domain.Staff{a, b, a} {
		if _, err := tbl.Save(ctx, s); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}
	once := contents(t, store, StaffFile)
	if _, err := tbl.Save(ctx, a); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if twice := contents(t, store, StaffFile); twice != once {
		t.Fatalf("saving the same value twice changed the file:\n%s\nvs\n%s", once, twice)
	}

	a.Role = domain.RoleLieutenant
	if _, err := tbl.Save(ctx, a); err != nil {
		t.Fatalf("Save updated: %v", err)
	}
	all, err := tbl.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 rows after upsert, got %d", len(all))
	}
	if all[1].ID != a.ID || all[1].Role != domain.RoleLieutenant {
		t.Fatalf("updated row should be written last with the new role, got %+v", all[1])
	}
}

func TestTableSaveCollapsesDuplicateRows(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	tbl := New(store, StaffSchema())
	s := newStaff(t, "Daniel", domain.RoleOfficer)
	row := s.ID.String() + ",Daniel,MALE,1985-03-02,2010-09-15,OFFICER,\n"
	put(t, store, StaffFile, "ID,NAME,SEX,DOB,DOH,ROLE,SUPERVISOR_ID\n"+row+row)

	s.Name = "Dan"
	if _, err := tbl.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	all, err := tbl.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 1 || all[0].Name != "Dan" {
		t.Fatalf("expected a single updated row, got %+v", all)
	}
}

func TestTableSaveRejectsInvalidEntity(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	tbl := newStaffTable(t, store)
	before := contents(t, store, StaffFile)
	bad := newStaff(t, "Daniel", domain.RoleOfficer)
	bad.Name = "D4niel"
	if _, err := tbl.Save(ctx, bad); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if after := contents(t, store, StaffFile); after != before {
		t.Fatalf("rejected save touched the file")
	}
}

func TestTableFindByIDMisses(t *testing.T) {
	ctx := context.Background()
	tbl := newStaffTable(t, blob.NewMemory())
	if _, err := tbl.Save(ctx, newStaff(t, "Daniel", domain.RoleOfficer)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	for _, id := range []string{"", "not-a-uuid", uuid.NewString()} {
		_, ok, err := tbl.FindByID(ctx, id)
		if err != nil || ok {
			t.Fatalf("FindByID(%q) expected a miss, got ok=%v err=%v", id, ok, err)
		}
	}
}

func TestTableFindByIDAcceptsNonCanonicalUUID(t *testing.T) {
	ctx := context.Background()
	tbl := newStaffTable(t, blob.NewMemory())
	s := newStaff(t, "Daniel", domain.RoleOfficer)
	if _, err := tbl.Save(ctx, s); err != nil {
		t.Fatalf("Save: %v", err)
	}
	_, ok, err := tbl.FindByID(ctx, "  "+strings.ToUpper(s.ID.String())+" ")
	if err != nil || !ok {
		t.Fatalf("expected upper-case id to resolve, got ok=%v err=%v", ok, err)
	}
}

func TestTableDeleteByID(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	tbl := newStaffTable(t, store)
	a := newStaff(t, "Daniel", domain.RoleOfficer)
	b := newStaff(t, "Julia", domain.RoleLieutenant)
	for _, s := range []domain.Staff{a, b} {
		if _, err := tbl.Save(ctx, s); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	before := contents(t, store, StaffFile)
	for _, id := range []string{uuid.NewString(), "garbage"} {
		removed, err := tbl.DeleteByID(ctx, id)
		if err != nil || removed {
			t.Fatalf("DeleteByID(%q) expected false, got %v err=%v", id, removed, err)
		}
	}
	if after := contents(t, store, StaffFile); after != before {
		t.Fatalf("deleting an absent id changed the file:\n%s\nvs\n%s", before, after)
	}

	removed, err := tbl.DeleteByID(ctx, a.ID.String())
	if err != nil || !removed {
		t.Fatalf("DeleteByID: removed=%v err=%v", removed, err)
	}
	if _, ok, _ := tbl.FindByID(ctx, a.ID.String()); ok {
		t.Fatalf("deleted row still found")
	}
	all, err := tbl.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if diff := cmp.Diff([]domain.Staff{b}, all); diff != "" {
		t.Fatalf("FindAll after delete (-want +got):\n%s", diff)
	}
}

func TestTableToleratesHeaderOrderAndCase(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	tbl := New(store, StaffSchema())
	id := uuid.New()
	put(t, store, StaffFile, "role, name ,id,sex,supervisor_id,doh,dob\nOFFICER,Daniel,"+id.String()+",MALE,,2010-09-15,1985-03-02\n")

	got, ok, err := tbl.FindByID(ctx, id.String())
	if err != nil || !ok {
		t.Fatalf("FindByID: ok=%v err=%v", ok, err)
	}
	if got.Name != "Daniel" || got.Role != domain.RoleOfficer {
		t.Fatalf("unexpected decode %+v", got)
	}

	got.Name = "Dan"
	if _, err := tbl.Save(ctx, got); err != nil {
		t.Fatalf("Save: %v", err)
	}
	want := "ROLE,NAME,ID,SEX,SUPERVISOR_ID,DOH,DOB\nOFFICER,Dan," + id.String() + ",MALE,,2010-09-15,1985-03-02\n"
	if body := contents(t, store, StaffFile); body != want {
		t.Fatalf("rewrite should keep the file's column order:\n%q\nwant\n%q", body, want)
	}
}

func TestTableRejectsBadHeaders(t *testing.T) {
	ctx := context.Background()
	cases := map[string]string{
		"empty":     "",
		"missing":   "ID,NAME,SEX,DOB,DOH,ROLE\n",
		"unknown":   "ID,NAME,SEX,DOB,DOH,ROLE,SUPERVISOR_ID,RANK\n",
		"duplicate": "ID,NAME,SEX,DOB,DOH,ROLE,SUPERVISOR_ID,NAME\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			store := blob.NewMemory()
			put(t, store, StaffFile, body)
			if _, err := New(store, StaffSchema()).FindAll(ctx); !errors.Is(err, ErrMalformedRecord) {
				t.Fatalf("expected ErrMalformedRecord, got %v", err)
			}
		})
	}
}

func TestTableSaveStoresTrimmedValues(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	vehicles := New(store, VehicleSchema())
	if _, err := vehicles.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}

	short := domain.Vehicle{Plate: "AB-12", Type: domain.VehicleCar, Model: "Golf", Description: "ab "}
	if _, err := vehicles.Save(ctx, short); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected trimmed description to fail validation, got %v", err)
	}
	padded := domain.Vehicle{Plate: "AB-12", Type: domain.VehicleCar, Model: " Golf", Description: "patrol car  "}
	saved, err := vehicles.Save(ctx, padded)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if saved.Model != "Golf" || saved.Description != "patrol car" {
		t.Fatalf("Save should return the stored form, got %+v", saved)
	}
	all, err := vehicles.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if diff := cmp.Diff([]domain.Vehicle{saved}, all); diff != "" {
		t.Fatalf("vehicle round trip (-want +got):\n%s", diff)
	}

	staff := newStaffTable(t, store)
	mary := newStaff(t, "Mary", domain.RoleOfficer)
	mary.Name = "Mary  "
	zone := time.FixedZone("UTC-5", -5*60*60)
	mary.DateOfBirth = time.Date(1985, 3, 2, 21, 15, 0, 0, zone)
	mary.DateOfHire = time.Date(2010, 9, 15, 6, 45, 0, 0, zone)
	savedMary, err := staff.Save(ctx, mary)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := staff.FindByID(ctx, mary.ID.String())
	if err != nil || !ok {
		t.Fatalf("FindByID: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(savedMary, got); diff != "" {
		t.Fatalf("staff round trip (-want +got):\n%s", diff)
	}
	if got.Name != "Mary" || domain.FormatDate(got.DateOfBirth) != "1985-03-02" {
		t.Fatalf("unexpected stored staff %+v", got)
	}
}

func TestTableMatchesStoredKeysCanonically(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	id := uuid.New()
	put(t, store, StaffFile, "ID,NAME,SEX,DOB,DOH,ROLE,SUPERVISOR_ID\n"+
		strings.ToUpper(id.String())+",Ann,FEMALE,1985-03-02,2010-09-15,OFFICER,\n")
	tbl := New(store, StaffSchema())

	all, err := tbl.FindAll(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("FindAll = %d rows, %v", len(all), err)
	}
	if _, ok, err := tbl.FindByID(ctx, id.String()); err != nil || !ok {
		t.Fatalf("FindByID should resolve the upper-case row, ok=%v err=%v", ok, err)
	}

	ann := all[0]
	ann.Role = domain.RoleLieutenant
	if _, err := tbl.Save(ctx, ann); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if n := strings.Count(contents(t, store, StaffFile), "\n"); n != 2 {
		t.Fatalf("re-save should replace the row, file has %d lines", n)
	}

	removed, err := tbl.DeleteByID(ctx, strings.ToUpper(id.String()))
	if err != nil || !removed {
		t.Fatalf("DeleteByID: removed=%v err=%v", removed, err)
	}
	if all, err := tbl.FindAll(ctx); err != nil || len(all) != 0 {
		t.Fatalf("expected empty table, got %d rows, %v", len(all), err)
	}
}

func TestTableMalformedRows(t *testing.T) {
	ctx := context.Background()
	good := uuid.NewString()
	header := "ID,NAME,SEX,DOB,DOH,ROLE,SUPERVISOR_ID\n"
	cases := []struct {
		name string
		row  string
		want error
	}{
		{"enum", uuid.NewString() + ",Ann,OTHER,1985-03-02,2010-09-15,OFFICER,\n", ErrInvalidEnumValue},
		{"date", uuid.NewString() + ",Ann,FEMALE,02/03/1985,2010-09-15,OFFICER,\n", ErrInvalidDate},
		{"short", uuid.NewString() + ",Ann,FEMALE\n", ErrMalformedRecord},
		{"reference", uuid.NewString() + ",Ann,FEMALE,1985-03-02,2010-09-15,OFFICER,nope\n", ErrMalformedRecord},
		{"invalid", uuid.NewString() + ",4nn,FEMALE,1985-03-02,2010-09-15,OFFICER,\n", ErrMalformedRecord},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			store := blob.NewMemory()
			put(t, store, StaffFile, header+good+",Bob,MALE,1980-01-01,2001-01-01,POLICEMAN,\n"+tc.row)
			tbl := New(store, StaffSchema())

			_, err := tbl.FindAll(ctx)
			var rowErr *RowError
			if !errors.As(err, &rowErr) {
				t.Fatalf("expected *RowError, got %v", err)
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			if rowErr.Line != 3 {
				t.Fatalf("expected failure on line 3, got %d", rowErr.Line)
			}

			seq, err := tbl.All(ctx)
			if err != nil {
				t.Fatalf("All: %v", err)
			}
			var ok, bad int
			for _, err := range seq {
				if err != nil {
					bad++
					continue
				}
				ok++
			}
			if ok != 1 || bad != 1 {
				t.Fatalf("All should yield one good and one bad row, got %d/%d", ok, bad)
			}

			if _, found, err := tbl.FindByID(ctx, good); err != nil || !found {
				t.Fatalf("good row should still resolve, found=%v err=%v", found, err)
			}
		})
	}
}

func TestTableSaveRewritesWhenFileLacksTrailingNewline(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	existing := uuid.NewString()
	put(t, store, StaffFile, "ID,NAME,SEX,DOB,DOH,ROLE,SUPERVISOR_ID\n"+existing+",Bob,MALE,1980-01-01,2001-01-01,POLICEMAN,")
	tbl := New(store, StaffSchema())
	if _, err := tbl.Save(ctx, newStaff(t, "Daniel", domain.RoleOfficer)); err != nil {
		t.Fatalf("Save: %v", err)
	}
	all, err := tbl.FindAll(ctx)
	if err != nil {
		t.Fatalf("FindAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(all))
	}
}

func TestTableQuotedFields(t *testing.T) {
	ctx := context.Background()
	store := blob.NewMemory()
	tbl := New(store, VehicleSchema())
	if _, err := tbl.Init(ctx); err != nil {
		t.Fatalf("Init: %v", err)
	}
	v, err := domain.NewVehicle("AB-123", domain.VehicleCar, "Model, \"S\"", "patrol car, north")
	if err != nil {
		t.Fatalf("NewVehicle: %v", err)
	}
	if _, err := tbl.Save(ctx, v); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, ok, err := tbl.FindByID(ctx, "AB-123")
	if err != nil || !ok {
		t.Fatalf("FindByID: ok=%v err=%v", ok, err)
	}
	if diff := cmp.Diff(v, got); diff != "" {
		t.Fatalf("quoted round trip (-want +got):\n%s", diff)
	}
	if _, ok, _ := tbl.FindByID(ctx, "ab 123"); ok {
		t.Fatalf("malformed plate should miss")
	}
}

func TestTableObserverSeesOperations(t *testing.T) {
	ctx := context.Background()
	obs := &captureObserver{}
	tbl := newStaffTable(t, blob.NewMemory(), WithObserver(obs))
	s := newStaff(t, "Daniel", domain.RoleOfficer)
	_, _ = tbl.Save(ctx, s)
	_, _, _ = tbl.FindByID(ctx, s.ID.String())
	_, _ = tbl.FindAll(ctx)
	_, _ = tbl.DeleteByID(ctx, s.ID.String())
	bad := s
	bad.Name = ""
	_, _ = tbl.Save(ctx, bad)

	want := []observation{
		{"staff", "save", true},
		{"staff", "find_by_id", true},
		{"staff", "find_all", true},
		{"staff", "delete", true},
		{"staff", "save", false},
	}
	if diff := cmp.Diff(want, obs.calls, cmp.AllowUnexported(observation{})); diff != "" {
		t.Fatalf("observer calls (-want +got):\n%s", diff)
	}
}

func TestTableWithKey(t *testing.T) {
	store := blob.NewMemory()
	tbl := New(store, WeaponSchema(), WithKey("armory/weapons.csv"))
	if _, err := tbl.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if got := contents(t, store, "armory/weapons.csv"); got != "ID,TYPE,DESCRIPTION,USER_ID\n" {
		t.Fatalf("unexpected weapon header %q", got)
	}
}
