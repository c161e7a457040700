package domain

// DuplicateGroup reports one identifier that appeared more than once.
type DuplicateGroup struct {
	ID string
	// Discarded is the number of rows dropped after the first occurrence.
	Discarded int
}

// Dedupe keeps the first row per project_id in original order and returns
// one group per duplicated identifier, in order of first appearance.
func Dedupe(t Table) (Table, []DuplicateGroup) {
	idCol := t.ColumnIndex(FieldProjectID)
	if idCol < 0 {
		return t, nil
	}

	out := Table{Columns: t.Columns, Rows: make([][]Cell, 0, len(t.Rows))}
	seen := make(map[string]int, len(t.Rows))
	var order []string
	for _, row := range t.Rows {
		id := row[idCol].Text
		n, dup := seen[id]
		seen[id] = n + 1
		if dup {
			if n == 1 {
				order = append(order, id)
			}
			continue
		}
		out.Rows = append(out.Rows, row)
	}

	groups := make([]DuplicateGroup, 0, len(order))
	for _, id := range order {
		groups = append(groups, DuplicateGroup{ID: id, Discarded: seen[id] - 1})
	}
	return out, groups
}
