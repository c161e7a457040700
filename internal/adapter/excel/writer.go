package excel

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// WriteWorkbook writes a single-sheet workbook with a two-row header. Cell
// values keep their Go type, so float64 cells are stored as numbers and
// strings as shared strings. A nil value leaves the cell blank.
func WriteWorkbook(path, sheet string, header [2][]string, rows [][]any) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	for r, labels := range header {
		for c, label := range labels {
			if label == "" {
				continue
			}
			if err := setCell(f, sheet, c, r, label); err != nil {
				return err
			}
		}
	}
	for r, row := range rows {
		for c, v := range row {
			if v == nil {
				continue
			}
			if err := setCell(f, sheet, c, r+2, v); err != nil {
				return err
			}
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func setCell(f *excelize.File, sheet string, col, row int, v any) error {
	ref, err := excelize.CoordinatesToCellName(col+1, row+1)
	if err != nil {
		return err
	}
	if err := f.SetCellValue(sheet, ref, v); err != nil {
		return fmt.Errorf("set %s: %w", ref, err)
	}
	return nil
}
