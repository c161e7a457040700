package domain

import "time"

// Canonical field names used downstream regardless of source header wording.
const (
	FieldProjectID        = "project_id"
	FieldProjectName      = "project_name"
	FieldCountry          = "country"
	FieldTechnology       = "technology"
	FieldStatus           = "status"
	FieldInvestment       = "investment_amount"
	FieldDateOnline       = "date_online"
	FieldDecommissionDate = "decommission_date"
)

// RequiredFields must exist after header normalization. The mirror indexes
// the identifier, name and country columns, so all three are mandatory.
var RequiredFields = []string{FieldProjectID, FieldProjectName, FieldCountry}

// RawCell is a single unformatted worksheet value.
type RawCell struct {
	Value string
	// Numeric is true when the workbook stores the cell as a number,
	// which is how Excel stores dates.
	Numeric bool
}

// Sheet is a worksheet as read from the workbook: two header rows followed
// by data rows. Rows may be shorter than the header; missing cells are blank.
type Sheet struct {
	Name   string
	Header [2][]string
	Rows   [][]RawCell
}

// Kind is the storage type of a cleaned column.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindDate
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindDate:
		return "date"
	default:
		return "text"
	}
}

// Column describes one column of the cleaned table.
type Column struct {
	Name string
	// Source is the flattened header the column came from, before synonym
	// resolution. Empty for tables loaded back from storage.
	Source string
	Kind   Kind
}

// Cell is a nullable typed value. Only the field matching the column kind is
// meaningful; invalid cells carry zero values so equal tables compare equal.
type Cell struct {
	Text  string
	Num   float32
	Date  time.Time
	Valid bool
}

// TextCell returns a valid text cell.
func TextCell(s string) Cell { return Cell{Text: s, Valid: true} }

// NumberCell returns a valid numeric cell.
func NumberCell(v float32) Cell { return Cell{Num: v, Valid: true} }

// DateCell returns a valid date cell truncated to UTC midnight.
func DateCell(t time.Time) Cell {
	return Cell{Date: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), Valid: true}
}

// Table is the cleaned dataset, row-major with a shared column list.
type Table struct {
	Columns []Column
	Rows    [][]Cell
}

// ColumnIndex returns the position of the named column, or -1.
func (t Table) ColumnIndex(name string) int {
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Len returns the number of rows.
func (t Table) Len() int { return len(t.Rows) }
