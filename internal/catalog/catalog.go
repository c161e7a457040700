// Package catalog is the read side of the published snapshot: it loads the
// projects from the Parquet file or the SQLite mirror, caches them, and
// answers search, filter and pagination queries for the dashboard.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/couchcryptid/hydrogen-tracker/internal/domain"
)

// ErrNoData means neither the snapshot nor the mirror has been published.
var ErrNoData = errors.New("no published dataset")

// Source is a published copy of the cleaned table.
type Source interface {
	// Name identifies the source in logs and metrics.
	Name() string
	// Path is the file backing the source; its identity keys the cache.
	Path() string
	ReadTable(ctx context.Context) (domain.Table, error)
}

// Dataset is the loaded project list plus the filter options derived from it.
type Dataset struct {
	Projects []domain.Project
	Options  Options
	Source   string
	LoadedAt time.Time
}

// Options are the distinct values offered by the dashboard filters.
type Options struct {
	Status     []string `json:"status"`
	Technology []string `json:"technology"`
	Country    []string `json:"country"`
}

// Load reads from the first source whose file exists, falling back to the
// next one when a read fails. It returns ErrNoData when no file exists.
func Load(ctx context.Context, logger *slog.Logger, sources ...Source) (Dataset, error) {
	var lastErr error
	for _, src := range sources {
		if _, err := os.Stat(src.Path()); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		t, err := src.ReadTable(ctx)
		if err != nil {
			logger.Warn("dataset source unreadable, trying next", "source", src.Name(), "path", src.Path(), "error", err)
			lastErr = err
			continue
		}
		projects := domain.ProjectsFromTable(t)
		return Dataset{
			Projects: projects,
			Options:  BuildOptions(projects),
			Source:   src.Name(),
		}, nil
	}
	if lastErr != nil {
		return Dataset{}, fmt.Errorf("load dataset: %w", lastErr)
	}
	return Dataset{}, ErrNoData
}

// BuildOptions collects the sorted distinct status, technology and country
// values, skipping missing ones.
func BuildOptions(projects []domain.Project) Options {
	return Options{
		Status:     distinct(projects, func(p domain.Project) string { return p.Status }),
		Technology: distinct(projects, func(p domain.Project) string { return p.Technology }),
		Country:    distinct(projects, func(p domain.Project) string { return p.Country }),
	}
}

func distinct(projects []domain.Project, field func(domain.Project) string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, p := range projects {
		v := field(p)
		if v == "" || v == domain.NotAvailable || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	slices.Sort(out)
	return out
}
