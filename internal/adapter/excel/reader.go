package excel

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/couchcryptid/hydrogen-tracker/internal/domain"
	"github.com/xuri/excelize/v2"
)

// Reader loads the projects worksheet from an IEA workbook.
// It implements pipeline.Extractor.
type Reader struct {
	path   string
	sheet  string
	logger *slog.Logger
}

// NewReader creates a Reader for the given workbook path and sheet name.
func NewReader(path, sheet string, logger *slog.Logger) *Reader {
	return &Reader{path: path, sheet: sheet, logger: logger}
}

// Extract reads the configured sheet with raw cell values. The first two
// rows become the header; the rest are data rows.
func (r *Reader) Extract(ctx context.Context) (domain.Sheet, error) {
	if _, err := os.Stat(r.path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.Sheet{}, fmt.Errorf("%w: %s", domain.ErrSourceNotFound, r.path)
		}
		return domain.Sheet{}, fmt.Errorf("%w: stat %s: %v", domain.ErrParse, r.path, err)
	}

	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return domain.Sheet{}, fmt.Errorf("%w: open workbook %s: %v", domain.ErrParse, r.path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			r.logger.Warn("close workbook", "path", r.path, "error", cerr)
		}
	}()

	if idx, err := f.GetSheetIndex(r.sheet); err != nil || idx < 0 {
		return domain.Sheet{}, fmt.Errorf("%w: %q in %s (have %v)", domain.ErrSheetNotFound, r.sheet, r.path, f.GetSheetList())
	}

	rows, err := f.GetRows(r.sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return domain.Sheet{}, fmt.Errorf("%w: read sheet %q: %v", domain.ErrParse, r.sheet, err)
	}
	if len(rows) < 2 {
		return domain.Sheet{}, fmt.Errorf("%w: sheet %q has %d rows, need a two-row header", domain.ErrParse, r.sheet, len(rows))
	}

	sheet := domain.Sheet{
		Name:   r.sheet,
		Header: [2][]string{rows[0], rows[1]},
		Rows:   make([][]domain.RawCell, 0, len(rows)-2),
	}
	for i, row := range rows[2:] {
		if err := ctx.Err(); err != nil {
			return domain.Sheet{}, err
		}
		cells, err := r.rawRow(f, i+3, row)
		if err != nil {
			return domain.Sheet{}, err
		}
		sheet.Rows = append(sheet.Rows, cells)
	}

	r.logger.Debug("workbook read", "path", r.path, "sheet", r.sheet, "rows", len(sheet.Rows))
	return sheet, nil
}

// rawRow tags each non-blank cell with whether the workbook stores it as a
// number. excelRow is the 1-based worksheet row.
func (r *Reader) rawRow(f *excelize.File, excelRow int, row []string) ([]domain.RawCell, error) {
	cells := make([]domain.RawCell, len(row))
	for col, v := range row {
		cells[col].Value = v
		if v == "" {
			continue
		}
		ref, err := excelize.CoordinatesToCellName(col+1, excelRow)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
		}
		typ, err := f.GetCellType(r.sheet, ref)
		if err != nil {
			return nil, fmt.Errorf("%w: cell %s: %v", domain.ErrParse, ref, err)
		}
		cells[col].Numeric = typ == excelize.CellTypeNumber || typ == excelize.CellTypeUnset
	}
	return cells, nil
}
