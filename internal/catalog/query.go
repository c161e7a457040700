package catalog

import (
	"slices"
	"strings"

	"github.com/couchcryptid/hydrogen-tracker/internal/domain"
)

// DefaultPageSize fills a 3x3 card grid.
const DefaultPageSize = 9

// Filters restrict results to exact values. Fields combine with AND,
// values within a field with OR; an empty field does not restrict.
type Filters struct {
	Status     []string
	Technology []string
	Country    []string
}

// Query is one dashboard request.
type Query struct {
	Search   string
	Filters  Filters
	Page     int
	PageSize int
}

// Page is one slice of the filtered, sorted result.
type Page struct {
	Projects []domain.Project `json:"projects"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	Pages    int              `json:"pages"`
	PageSize int              `json:"page_size"`
}

// Run applies search, filters, ordering and pagination, in that order. The
// input slice is not modified.
func Run(projects []domain.Project, q Query) Page {
	matched := make([]domain.Project, 0, len(projects))
	needle := strings.ToLower(strings.TrimSpace(q.Search))
	for _, p := range projects {
		if needle != "" && !containsFold(p.Name, needle) && !containsFold(p.Country, needle) {
			continue
		}
		if !q.Filters.match(p) {
			continue
		}
		matched = append(matched, p)
	}

	SortByDateOnline(matched)
	return paginate(matched, q.Page, q.PageSize)
}

// SortByDateOnline orders projects newest first with undated ones last,
// keeping the original order among equal dates.
func SortByDateOnline(projects []domain.Project) {
	slices.SortStableFunc(projects, func(a, b domain.Project) int {
		switch {
		case a.DateOnline == nil && b.DateOnline == nil:
			return 0
		case a.DateOnline == nil:
			return 1
		case b.DateOnline == nil:
			return -1
		default:
			return b.DateOnline.Compare(*a.DateOnline)
		}
	})
}

// PageCount returns the number of pages for total items, at least one.
func PageCount(total, size int) int {
	if total <= 0 {
		return 1
	}
	return (total + size - 1) / size
}

func paginate(projects []domain.Project, page, size int) Page {
	if size <= 0 {
		size = DefaultPageSize
	}
	pages := PageCount(len(projects), size)
	page = min(max(page, 1), pages)

	start := min((page-1)*size, len(projects))
	end := min(start+size, len(projects))
	return Page{
		Projects: projects[start:end],
		Total:    len(projects),
		Page:     page,
		Pages:    pages,
		PageSize: size,
	}
}

func (f Filters) match(p domain.Project) bool {
	return allowed(f.Status, p.Status) &&
		allowed(f.Technology, p.Technology) &&
		allowed(f.Country, p.Country)
}

func allowed(values []string, v string) bool {
	return len(values) == 0 || slices.Contains(values, v)
}

// containsFold reports whether v contains the lowercased needle. Missing
// values are searched as their "N/A" default.
func containsFold(v, needle string) bool {
	return strings.Contains(strings.ToLower(v), needle)
}
