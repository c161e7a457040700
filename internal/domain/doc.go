// Package domain models the IEA hydrogen projects dataset and the rules that
// turn a raw workbook sheet into a clean, typed table.
//
// # Data Source
//
// The IEA publishes its hydrogen production and infrastructure project
// databases as Excel workbooks. The "Projects" sheet carries one project per
// row under a two-row header: the upper row holds group labels such as
// "DATABASE" (merged across the columns they cover), the lower row holds the
// field label ("Project name", "Country", "Date online", ...).
//
// # Header Conventions
//
// Flattened names join the two labels with an underscore:
//
//	"DATABASE" over "Project name"  →  "DATABASE_Project name"
//
// Blank upper cells inherit the label to their left (merged cells). Columns
// with no label in either row are spreadsheet padding; they get the
// placeholder "Unnamed: <index>" and are dropped. Header text often carries
// manual line breaks ("Announced\nSize"), which collapse to single spaces.
//
// Known header variants map onto canonical names through [Synonyms]. The
// first labeled column is always the project reference ("Ref") and becomes
// [FieldProjectID].
//
// # Cell Conventions
//
// Dates arrive either as Excel serial numbers (days since 1899-12-30) or as
// ISO text. Capacity, size and investment figures arrive as numbers or as
// text with units and thousands separators ("1,200 MW", "€ 35m"); every rune
// except digits and the decimal point is stripped before parsing.
//
// Unknown or blank cells are stored as nulls. Presentation defaults ("N/A"
// for text, 0 for numbers) are applied only by [ProjectsFromTable].
package domain
