package pipeline_test

import (
	"github.com/couchcryptid/hydrogen-tracker/internal/domain"
)

// ieaHeader mirrors the two-row layout of the IEA projects sheet: a group
// row ("DATABASE", "Capacity") over field labels.
func ieaHeader() [2][]string {
	return [2][]string{
		{"Ref", "DATABASE", "", "", "", "", "", "Capacity", ""},
		{"", "Project name", "Country", "Date online", "Status", "Technology", "Announced Size", "MWel", "Nm³ H₂/h"},
	}
}

func text(s string) domain.RawCell { return domain.RawCell{Value: s} }
func num(s string) domain.RawCell  { return domain.RawCell{Value: s, Numeric: true} }

// mockSheet returns a small sheet with one bad date, one row without an
// identifier and one duplicated identifier.
func mockSheet() domain.Sheet {
	return domain.Sheet{
		Name:   "Projects",
		Header: ieaHeader(),
		Rows: [][]domain.RawCell{
			{text("1"), text("Plant A"), text("Germany"), num("45000"), text("Operational"), text("PEM"), text("€1,200,000"), num("20"), num("4000")},
			{text("2"), text("Plant B"), text("France"), text("soon"), text("Concept"), text("ALK"), text(""), num("5.5"), text("")},
			{text(""), text("Orphan"), text("Spain"), num("44000"), text("FID"), text("PEM"), text(""), text(""), text("")},
			{text("1"), text("Plant A (dup)"), text("Germany"), num("45100"), text("Operational"), text("PEM"), text(""), num("30"), text("")},
			{text("3"), text("Plant C"), text("Chile"), text("2025-06-30"), text("Under construction"), text("SOEC"), text("300000"), text(""), num("100")},
		},
	}
}
