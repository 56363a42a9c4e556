package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook writes one sheet per dataset, named after its table, with the
// header on row 1.
func WriteWorkbook(w io.Writer, sets []Dataset) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	for i, set := range sets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", set.Table); err != nil {
				return fmt.Errorf("sheet %s: %w", set.Table, err)
			}
		} else if _, err := f.NewSheet(set.Table); err != nil {
			return fmt.Errorf("sheet %s: %w", set.Table, err)
		}
		if err := writeSheetRow(f, set.Table, 1, set.Header); err != nil {
			return err
		}
		for r, row := range set.Rows {
			if err := writeSheetRow(f, set.Table, r+2, row); err != nil {
				return err
			}
		}
	}
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return fmt.Errorf("sheet %s row %d: %w", sheet, row, err)
	}
	return nil
}
