package domain

import (
	"strconv"
	"strings"
	"time"
)

// CleanReport summarizes per-cell coercion outcomes for one run.
type CleanReport struct {
	RowsRead int
	// RowsDropped counts rows without an identifier.
	RowsDropped int
	// Failures counts coercion failures per column name.
	Failures map[string]int
	Warnings []CoercionWarning
}

// FailureCount returns the total number of failed cells.
func (r CleanReport) FailureCount() int {
	n := 0
	for _, c := range r.Failures {
		n += c
	}
	return n
}

// ColumnKind decides how a column is coerced. The identifier is always text;
// numeric rules win over date rules.
func ColumnKind(col HeaderColumn) Kind {
	if col.Name == FieldProjectID {
		return KindText
	}
	name := strings.ToLower(col.Name)
	source := strings.ToLower(col.Source)
	switch {
	case col.Name == FieldInvestment,
		strings.Contains(name, "capacity"), strings.Contains(source, "capacity"),
		strings.Contains(name, "size"), strings.Contains(source, "size"):
		return KindNumber
	case strings.Contains(name, "date"):
		return KindDate
	default:
		return KindText
	}
}

// Clean coerces every retained column of the sheet to its kind. Rows with a
// blank identifier are dropped; every other failure degrades a single cell
// to null and is recorded in the report.
func Clean(sheet Sheet, schema Schema) (Table, CleanReport) {
	report := CleanReport{Failures: make(map[string]int)}
	table := Table{Columns: make([]Column, len(schema.Columns))}
	for i, hc := range schema.Columns {
		table.Columns[i] = Column{Name: hc.Name, Source: hc.Source, Kind: ColumnKind(hc)}
	}

	idIndex := schema.Columns[0].Index
	for r, raw := range sheet.Rows {
		report.RowsRead++
		if strings.TrimSpace(rawCellAt(raw, idIndex).Value) == "" {
			report.RowsDropped++
			continue
		}

		row := make([]Cell, len(schema.Columns))
		for j, hc := range schema.Columns {
			rc := rawCellAt(raw, hc.Index)
			cell, reason := coerceCell(rc, table.Columns[j].Kind)
			if reason != "" {
				report.Failures[hc.Name]++
				report.Warnings = append(report.Warnings, CoercionWarning{
					Row:    r,
					Column: hc.Name,
					Raw:    rc.Value,
					Reason: reason,
				})
			}
			row[j] = cell
		}
		table.Rows = append(table.Rows, row)
	}
	return table, report
}

// coerceCell returns the typed cell and, on failure, a non-empty reason.
// Blank input is a plain null, not a failure.
func coerceCell(rc RawCell, kind Kind) (Cell, string) {
	v := strings.TrimSpace(rc.Value)
	if v == "" {
		return Cell{}, ""
	}
	switch kind {
	case KindNumber:
		n, ok := ParseNumber(v)
		if !ok {
			return Cell{}, "not a number"
		}
		return NumberCell(n), ""
	case KindDate:
		d, ok := ParseDate(RawCell{Value: v, Numeric: rc.Numeric})
		if !ok {
			return Cell{}, "not a date"
		}
		return DateCell(d), ""
	default:
		return TextCell(v), ""
	}
}

// ParseNumber strips everything except digits and decimal points and parses
// the rest as a finite float32.
func ParseNumber(raw string) (float32, bool) {
	digits := strings.Map(func(r rune) rune {
		if r == '.' || (r >= '0' && r <= '9') {
			return r
		}
		return -1
	}, raw)
	if digits == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(digits, 32)
	if err != nil {
		return 0, false
	}
	return float32(v), true
}

// minTextSerial is the smallest bare number in a text cell read as an Excel
// serial (1927-05-18). Shorter numbers in text are years, not serials.
const minTextSerial = 10000

// ParseDate reads a numeric cell as an Excel serial and a text cell as an
// ISO date. Text holding a bare number of at least minTextSerial is treated
// as a serial too, since some exports store serials as strings.
func ParseDate(rc RawCell) (time.Time, bool) {
	v := strings.TrimSpace(rc.Value)
	if rc.Numeric {
		if serial, err := strconv.ParseFloat(v, 64); err == nil {
			return ExcelSerialToDate(serial)
		}
	}
	if t, ok := ParseISODate(v); ok {
		return t, true
	}
	if serial, err := strconv.ParseFloat(v, 64); err == nil && serial >= minTextSerial {
		return ExcelSerialToDate(serial)
	}
	return time.Time{}, false
}

func rawCellAt(row []RawCell, i int) RawCell {
	if i < len(row) {
		return row[i]
	}
	return RawCell{}
}
