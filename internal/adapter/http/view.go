package http

import (
	"embed"
	"html/template"
	"net/url"
	"slices"

	"github.com/couchcryptid/hydrogen-tracker/internal/catalog"
	"github.com/couchcryptid/hydrogen-tracker/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var indexTemplate = template.Must(
	template.New("index.html.tmpl").
		Funcs(template.FuncMap{"selected": selected}).
		ParseFS(templateFS, "templates/index.html.tmpl"),
)

// card is one rendered project.
type card struct {
	Name       string
	Country    string
	Status     string
	Technology string
	Investment string
	DateOnline string
}

type indexView struct {
	Query   catalog.Query
	Notice  string
	Options catalog.Options
	Rows    [][]card
	Empty   bool

	PageLabel  string
	TotalLabel string
	PrevURL    string
	NextURL    string
}

const cardsPerRow = 3

func (v *indexView) fill(u *url.URL, page catalog.Page, opts catalog.Options) {
	v.Options = opts
	v.Empty = len(page.Projects) == 0
	v.PageLabel = catalog.PageLabel(page)
	v.TotalLabel = catalog.TotalLabel(page)
	if page.Page > 1 {
		v.PrevURL = pageURL(u, page.Page-1)
	}
	if page.Page < page.Pages {
		v.NextURL = pageURL(u, page.Page+1)
	}

	for chunk := range slices.Chunk(page.Projects, cardsPerRow) {
		row := make([]card, 0, len(chunk))
		for _, p := range chunk {
			row = append(row, newCard(p))
		}
		v.Rows = append(v.Rows, row)
	}
}

func newCard(p domain.Project) card {
	return card{
		Name:       p.Name,
		Country:    p.Country,
		Status:     p.Status,
		Technology: p.Technology,
		Investment: catalog.FormatInvestment(p.Investment),
		DateOnline: catalog.FormatMonth(p),
	}
}

func selected(values []string, v string) bool {
	return slices.Contains(values, v)
}
