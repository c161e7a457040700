package pipeline

import (
	"log/slog"

	"github.com/couchcryptid/hydrogen-tracker/internal/domain"
)

// Report summarizes what the transform stage did to the sheet.
type Report struct {
	RowsRead        int
	RowsDropped     int
	Duplicates      []domain.DuplicateGroup
	Clean           domain.CleanReport
	DroppedColumns  []int
	ShadowedHeaders []string
}

// DuplicateRows returns the number of rows removed by deduplication.
func (r Report) DuplicateRows() int {
	n := 0
	for _, g := range r.Duplicates {
		n += g.Discarded
	}
	return n
}

// Transformer turns a raw worksheet into the cleaned, deduplicated table
// using the domain normalization and cleaning rules.
type Transformer struct {
	logger *slog.Logger
}

// NewTransformer creates a Transformer that logs per-cell and per-identifier
// findings to logger.
func NewTransformer(logger *slog.Logger) *Transformer {
	return &Transformer{logger: logger}
}

// Transform normalizes the header, coerces every cell and drops duplicate
// identifiers. Only a header without usable columns is an error; cell level
// problems are logged and reported.
func (t *Transformer) Transform(sheet domain.Sheet) (domain.Table, Report, error) {
	schema, err := domain.NormalizeHeader(sheet.Header)
	if err != nil {
		return domain.Table{}, Report{}, err
	}
	for _, h := range schema.Shadowed {
		t.logger.Warn("header resolves to a field already taken, keeping its own name", "header", h)
	}
	if len(schema.Dropped) > 0 {
		t.logger.Debug("unlabeled columns dropped", "indexes", schema.Dropped)
	}

	table, cleanReport := domain.Clean(sheet, schema)
	for _, w := range cleanReport.Warnings {
		t.logger.Warn("cell coercion failed, storing null",
			"row", w.Row,
			"column", w.Column,
			"raw", w.Raw,
			"reason", w.Reason,
		)
	}
	if cleanReport.RowsDropped > 0 {
		t.logger.Info("rows without identifier dropped", "count", cleanReport.RowsDropped)
	}

	table, groups := domain.Dedupe(table)
	for _, g := range groups {
		t.logger.Warn("duplicate project id, keeping first occurrence", "project_id", g.ID, "discarded", g.Discarded)
	}

	return table, Report{
		RowsRead:        cleanReport.RowsRead,
		RowsDropped:     cleanReport.RowsDropped,
		Duplicates:      groups,
		Clean:           cleanReport,
		DroppedColumns:  schema.Dropped,
		ShadowedHeaders: schema.Shadowed,
	}, nil
}
