package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/couchcryptid/hydrogen-tracker/internal/catalog"
	"github.com/couchcryptid/hydrogen-tracker/internal/domain"
)

const (
	noticeNoData     = "No snapshot has been published yet."
	noticeLoadFailed = "The project data could not be loaded."
)

// parseQuery reads q, status, technology, country (repeatable) and page.
// An unparsable page falls back to the first page.
func parseQuery(r *http.Request, pageSize int) catalog.Query {
	v := r.URL.Query()
	page, err := strconv.Atoi(v.Get("page"))
	if err != nil {
		page = 1
	}
	return catalog.Query{
		Search: v.Get("q"),
		Filters: catalog.Filters{
			Status:     nonEmpty(v["status"]),
			Technology: nonEmpty(v["technology"]),
			Country:    nonEmpty(v["country"]),
		},
		Page:     page,
		PageSize: pageSize,
	}
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if v != "" {
			out = append(out, v)
		}
	}
	return out
}

func (s *Server) runQuery(q catalog.Query, ds catalog.Dataset) catalog.Page {
	start := time.Now()
	page := catalog.Run(ds.Projects, q)
	s.metrics.QueryDuration.Observe(time.Since(start).Seconds())
	return page
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	q := parseQuery(r, s.pageSize)
	view := indexView{Query: q}

	ds, err := s.data.Get(r.Context())
	switch {
	case errors.Is(err, catalog.ErrNoData):
		view.Notice = noticeNoData
	case err != nil:
		s.logger.Error("load dataset", "error", err)
		view.Notice = noticeLoadFailed
	}

	page := s.runQuery(q, ds)
	view.fill(r.URL, page, ds.Options)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTemplate.Execute(w, view); err != nil {
		s.logger.Error("render index", "error", err)
	}
}

// projectsResponse is the JSON shape of one result page.
type projectsResponse struct {
	catalog.Page
	Source string `json:"source"`
}

func (s *Server) handleProjects(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	page := s.runQuery(parseQuery(r, s.pageSize), ds)
	if page.Projects == nil {
		page.Projects = []domain.Project{}
	}
	writeJSON(w, http.StatusOK, projectsResponse{Page: page, Source: ds.Source})
}

func (s *Server) handleOptions(w http.ResponseWriter, r *http.Request) {
	ds, ok := s.dataset(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, ds.Options)
}

// dataset loads the current dataset for API handlers, writing a 503 when
// nothing can be served.
func (s *Server) dataset(w http.ResponseWriter, r *http.Request) (catalog.Dataset, bool) {
	ds, err := s.data.Get(r.Context())
	switch {
	case errors.Is(err, catalog.ErrNoData):
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": noticeNoData})
		return catalog.Dataset{}, false
	case err != nil:
		s.logger.Error("load dataset", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": noticeLoadFailed})
		return catalog.Dataset{}, false
	}
	return ds, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}

// pageURL returns the current URL with the page parameter replaced.
func pageURL(u *url.URL, page int) string {
	v := u.Query()
	v.Set("page", strconv.Itoa(page))
	return "?" + v.Encode()
}
