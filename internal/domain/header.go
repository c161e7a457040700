package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// placeholderRe matches the label spreadsheet tools give columns without an
// explicit header, e.g. "Unnamed: 7" or "Unnamed: 7_level_0".
var placeholderRe = regexp.MustCompile(`^Unnamed:\s*\d+`)

// HeaderColumn is a source column retained after header normalization.
type HeaderColumn struct {
	Index  int    // position in the raw sheet row
	Source string // flattened two-row header
	Name   string // canonical or pass-through name
}

// Schema is the normalized header of a sheet.
type Schema struct {
	Columns []HeaderColumn
	// Dropped lists placeholder columns by their raw index.
	Dropped []int
	// Shadowed lists flattened headers whose synonym target was already
	// claimed by an earlier column; they keep their flattened name.
	Shadowed []string
}

// Names returns the final column names in order.
func (s Schema) Names() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// NormalizeHeader flattens a two-row header into one name per column, drops
// placeholder columns, resolves synonyms and names the identifier column.
func NormalizeHeader(header [2][]string) (Schema, error) {
	width := max(len(header[0]), len(header[1]))
	top := forwardFillTop(header[0], header[1], width)

	var schema Schema
	used := make(map[string]bool, width)
	for i := 0; i < width; i++ {
		flat := FlattenHeader(top[i], cellAt(header[1], i))
		if flat == "" {
			schema.Dropped = append(schema.Dropped, i)
			continue
		}

		col := HeaderColumn{Index: i, Source: flat}
		switch {
		case len(schema.Columns) == 0:
			col.Name = FieldProjectID
		default:
			name, matched := CanonicalName(flat)
			if matched && used[strings.ToLower(name)] {
				schema.Shadowed = append(schema.Shadowed, flat)
				name = flat
			}
			col.Name = uniqueName(name, used)
		}
		used[strings.ToLower(col.Name)] = true
		schema.Columns = append(schema.Columns, col)
	}

	if len(schema.Columns) == 0 {
		return Schema{}, fmt.Errorf("%w: no identifier column found", ErrSchema)
	}
	for _, req := range RequiredFields {
		if !used[req] {
			return Schema{}, fmt.Errorf("%w: required field %q not found in header", ErrSchema, req)
		}
	}
	return schema, nil
}

// FlattenHeader joins the labeled parts of a two-row header with an
// underscore and collapses whitespace runs. Placeholder labels count as
// blank; a column blank in both rows flattens to "".
func FlattenHeader(upper, lower string) string {
	parts := make([]string, 0, 2)
	for _, p := range []string{upper, lower} {
		p = collapseSpace(p)
		if p == "" || IsPlaceholder(p) {
			continue
		}
		parts = append(parts, p)
	}
	return strings.Join(parts, "_")
}

// IsPlaceholder reports whether a header label is a tool-generated
// placeholder for an unlabeled column.
func IsPlaceholder(label string) bool {
	return placeholderRe.MatchString(label)
}

// forwardFillTop carries merged group labels of the upper row rightwards,
// but only over columns that have a label of their own in the lower row so
// trailing padding columns stay unlabeled.
func forwardFillTop(upper, lower []string, width int) []string {
	out := make([]string, width)
	last := ""
	for i := 0; i < width; i++ {
		v := collapseSpace(cellAt(upper, i))
		if v != "" && !IsPlaceholder(v) {
			last = v
			out[i] = v
			continue
		}
		if collapseSpace(cellAt(lower, i)) != "" {
			out[i] = last
		}
	}
	return out
}

// uniqueName suffixes name with ".1", ".2", ... until it is free. used is
// keyed by lowercased name because SQL column names ignore case.
func uniqueName(name string, used map[string]bool) string {
	if !used[strings.ToLower(name)] {
		return name
	}
	for n := 1; ; n++ {
		candidate := fmt.Sprintf("%s.%d", name, n)
		if !used[strings.ToLower(candidate)] {
			return candidate
		}
	}
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func cellAt(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
