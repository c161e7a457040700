package domain

import "time"

// NotAvailable is the presentation default for missing text fields.
const NotAvailable = "N/A"

// Project is the presentation view of one cleaned row, with defaults applied.
type Project struct {
	ID               string             `json:"project_id"`
	Name             string             `json:"project_name"`
	Country          string             `json:"country"`
	Technology       string             `json:"technology"`
	Status           string             `json:"status"`
	Investment       float32            `json:"investment_amount"`
	DateOnline       *time.Time         `json:"date_online,omitempty"`
	DecommissionDate *time.Time         `json:"decommission_date,omitempty"`
	Measures         map[string]float32 `json:"measures,omitempty"`
	Extra            map[string]string  `json:"extra,omitempty"`
}

// ProjectsFromTable projects a cleaned table onto Project values. Missing
// text becomes "N/A", missing numbers become 0 and missing dates stay nil.
func ProjectsFromTable(t Table) []Project {
	projects := make([]Project, 0, len(t.Rows))
	for _, row := range t.Rows {
		p := Project{
			Name:       NotAvailable,
			Country:    NotAvailable,
			Technology: NotAvailable,
			Status:     NotAvailable,
		}
		for i, col := range t.Columns {
			assignField(&p, col, row[i])
		}
		projects = append(projects, p)
	}
	return projects
}

func assignField(p *Project, col Column, c Cell) {
	switch col.Name {
	case FieldProjectID:
		p.ID = c.Text
	case FieldProjectName:
		setText(&p.Name, c)
	case FieldCountry:
		setText(&p.Country, c)
	case FieldTechnology:
		setText(&p.Technology, c)
	case FieldStatus:
		setText(&p.Status, c)
	case FieldInvestment:
		if c.Valid {
			p.Investment = c.Num
		}
	case FieldDateOnline:
		p.DateOnline = datePtr(c)
	case FieldDecommissionDate:
		p.DecommissionDate = datePtr(c)
	default:
		if !c.Valid {
			return
		}
		switch col.Kind {
		case KindNumber:
			if p.Measures == nil {
				p.Measures = make(map[string]float32)
			}
			p.Measures[col.Name] = c.Num
		case KindDate:
			if p.Extra == nil {
				p.Extra = make(map[string]string)
			}
			p.Extra[col.Name] = c.Date.Format(time.DateOnly)
		default:
			if p.Extra == nil {
				p.Extra = make(map[string]string)
			}
			p.Extra[col.Name] = c.Text
		}
	}
}

func setText(dst *string, c Cell) {
	if c.Valid && c.Text != "" {
		*dst = c.Text
	}
}

func datePtr(c Cell) *time.Time {
	if !c.Valid {
		return nil
	}
	d := c.Date
	return &d
}
