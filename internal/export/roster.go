package export

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"sspdb/internal/core"
	"sspdb/pkg/domain"
)

// RosterEntry is one staff line of the PDF roster.
type RosterEntry struct {
	Staff        domain.Staff
	Supervisor   string
	Subordinates int
}

// BuildRoster lists every staff member with the supervisor's name and the
// number of direct subordinates.
func BuildRoster(ctx context.Context, staff *core.StaffService) ([]RosterEntry, error) {
	all, err := staff.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(all))
	counts := make(map[string]int, len(all))
	for _, s := range all {
		names[s.ID.String()] = s.Name
		if s.SupervisorID.Valid {
			counts[s.SupervisorID.String()]++
		}
	}
	out := make([]RosterEntry, 0, len(all))
	for _, s := range all {
		e := RosterEntry{Staff: s, Subordinates: counts[s.ID.String()]}
		if s.SupervisorID.Valid {
			e.Supervisor = names[s.SupervisorID.String()]
			if e.Supervisor == "" {
				e.Supervisor = s.SupervisorID.String()
			}
		}
		out = append(out, e)
	}
	return out, nil
}

// WriteRosterPDF renders entries as an A4 table with age and seniority as of
// now.
func WriteRosterPDF(w io.Writer, entries []RosterEntry, now time.Time) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Staff Roster")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated: %s", now.Format(time.RFC3339)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Staff: %d", len(entries)))
	pdf.Ln(8)

	widths := []float64{50, 20, 30, 15, 20, 60, 25}
	pdf.SetFont("Arial", "B", 10)
	for i, h := range []string{"Name", "Sex", "Role", "Age", "Seniority", "Supervisor", "Subordinates"} {
		pdf.CellFormat(widths[i], 6, h, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, e := range entries {
		s := e.Staff
		pdf.CellFormat(widths[0], 6, s.Name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, string(s.Sex), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[2], 6, string(s.Role), "1", 0, "C", false, 0, "")
		pdf.CellFormat(widths[3], 6, fmt.Sprintf("%d", s.Age(now)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[4], 6, fmt.Sprintf("%d", s.Seniority(now)), "1", 0, "R", false, 0, "")
		pdf.CellFormat(widths[5], 6, e.Supervisor, "1", 0, "L", false, 0, "")
		pdf.CellFormat(widths[6], 6, fmt.Sprintf("%d", e.Subordinates), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return fmt.Errorf("render roster: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}
