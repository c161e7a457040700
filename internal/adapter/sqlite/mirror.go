package sqlite

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/hydrogen-tracker/internal/domain"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

// TableName is the mirror table rebuilt on every run.
const TableName = "projects"

// indexedColumns get a secondary index after each rebuild.
var indexedColumns = []string{domain.FieldProjectID, domain.FieldProjectName, domain.FieldCountry}

// Mirror is the relational copy of the snapshot in a SQLite database.
type Mirror struct {
	path   string
	db     *sqlx.DB
	logger *slog.Logger
}

// Open opens (creating if needed) the SQLite database at path.
func Open(path string, logger *slog.Logger) (*Mirror, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", domain.ErrPersist, filepath.Dir(path), err)
	}
	db, err := sqlx.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("%w: open mirror %s: %v", domain.ErrPersist, path, err)
	}
	db.SetMaxOpenConns(1)
	return &Mirror{path: path, db: db, logger: logger}, nil
}

// dsn builds a file: URI for path. The path is percent-escaped so '?', '#'
// and '%' in it are not read as URI syntax.
func dsn(path string) string {
	return "file:" + (&url.URL{Path: path}).EscapedPath() + "?_pragma=busy_timeout(5000)"
}

// OpenExisting opens the mirror only if the database file is already there.
// Readers use it so a missing mirror is not silently created.
func OpenExisting(path string, logger *slog.Logger) (*Mirror, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return Open(path, logger)
}

// Path returns the database file path.
func (m *Mirror) Path() string { return m.path }

// Close releases the database handle.
func (m *Mirror) Close() error { return m.db.Close() }

// Ping checks that the database is reachable.
func (m *Mirror) Ping(ctx context.Context) error { return m.db.PingContext(ctx) }

// Replace drops and rebuilds the projects table from t in one transaction.
// On any failure the transaction rolls back and the previous table survives.
func (m *Mirror) Replace(ctx context.Context, t domain.Table) error {
	tx, err := m.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %v", domain.ErrPersist, err)
	}
	if err := replaceTable(ctx, tx, t); err != nil {
		if rerr := tx.Rollback(); rerr != nil {
			m.logger.Error("mirror rollback failed", "error", rerr)
		}
		return fmt.Errorf("%w: rebuild %s: %v", domain.ErrPersist, TableName, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %v", domain.ErrPersist, err)
	}
	m.logger.Debug("mirror replaced", "path", m.path, "rows", t.Len())
	return nil
}

func replaceTable(ctx context.Context, tx *sqlx.Tx, t domain.Table) error {
	if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS `+quote(TableName)); err != nil {
		return err
	}

	defs := make([]string, len(t.Columns))
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = quote(c.Name)
		defs[i] = names[i] + " " + sqlType(c.Kind)
	}
	if _, err := tx.ExecContext(ctx, `CREATE TABLE `+quote(TableName)+` (`+strings.Join(defs, ", ")+`)`); err != nil {
		return err
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ")
	stmt, err := tx.PreparexContext(ctx,
		`INSERT INTO `+quote(TableName)+` (`+strings.Join(names, ", ")+`) VALUES (`+placeholders+`)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	args := make([]any, len(t.Columns))
	for _, row := range t.Rows {
		for j, c := range t.Columns {
			args[j] = sqlValue(c.Kind, row[j])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return err
		}
	}

	for _, col := range indexedColumns {
		idx := "idx_" + TableName + "_" + col
		if _, err := tx.ExecContext(ctx,
			`CREATE INDEX `+quote(idx)+` ON `+quote(TableName)+` (`+quote(col)+`)`); err != nil {
			return err
		}
	}
	return nil
}

// Load reads the projects table back in insertion order. Column kinds come
// from the declared SQL types.
func (m *Mirror) Load(ctx context.Context) (domain.Table, error) {
	rows, err := m.db.QueryxContext(ctx, `SELECT * FROM `+quote(TableName)+` ORDER BY rowid`)
	if err != nil {
		return domain.Table{}, fmt.Errorf("query mirror: %w", err)
	}
	defer rows.Close()

	types, err := rows.ColumnTypes()
	if err != nil {
		return domain.Table{}, fmt.Errorf("mirror columns: %w", err)
	}
	out := domain.Table{Columns: make([]domain.Column, len(types))}
	for i, ct := range types {
		out.Columns[i] = domain.Column{Name: ct.Name(), Kind: kindOf(ct.DatabaseTypeName())}
	}

	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return domain.Table{}, fmt.Errorf("scan mirror row: %w", err)
		}
		row := make([]domain.Cell, len(vals))
		for j, v := range vals {
			row[j], err = cellFrom(out.Columns[j].Kind, v)
			if err != nil {
				return domain.Table{}, fmt.Errorf("mirror column %q: %w", out.Columns[j].Name, err)
			}
		}
		out.Rows = append(out.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return domain.Table{}, fmt.Errorf("read mirror: %w", err)
	}
	return out, nil
}

// Indexes lists the index names defined on the projects table.
func (m *Mirror) Indexes(ctx context.Context) ([]string, error) {
	var names []string
	err := m.db.SelectContext(ctx, &names,
		`SELECT name FROM sqlite_master WHERE type = 'index' AND tbl_name = ? ORDER BY name`, TableName)
	return names, err
}

func sqlType(k domain.Kind) string {
	switch k {
	case domain.KindNumber:
		return "REAL"
	case domain.KindDate:
		return "DATE"
	default:
		return "TEXT"
	}
}

func kindOf(declared string) domain.Kind {
	switch strings.ToUpper(declared) {
	case "REAL":
		return domain.KindNumber
	case "DATE":
		return domain.KindDate
	default:
		return domain.KindText
	}
}

func sqlValue(k domain.Kind, c domain.Cell) any {
	if !c.Valid {
		return nil
	}
	switch k {
	case domain.KindNumber:
		return float64(c.Num)
	case domain.KindDate:
		return c.Date.Format(time.DateOnly)
	default:
		return c.Text
	}
}

// cellFrom converts a scanned value. The driver returns DATE columns either
// as text or already parsed, depending on the stored value.
func cellFrom(k domain.Kind, v any) (domain.Cell, error) {
	if v == nil {
		return domain.Cell{}, nil
	}
	switch k {
	case domain.KindNumber:
		switch n := v.(type) {
		case float64:
			return domain.NumberCell(float32(n)), nil
		case int64:
			return domain.NumberCell(float32(n)), nil
		}
	case domain.KindDate:
		switch d := v.(type) {
		case time.Time:
			return domain.DateCell(d), nil
		case string:
			if t, ok := domain.ParseISODate(d); ok {
				return domain.DateCell(t), nil
			}
		}
	default:
		switch s := v.(type) {
		case string:
			return domain.TextCell(s), nil
		case []byte:
			return domain.TextCell(string(s)), nil
		}
	}
	return domain.Cell{}, fmt.Errorf("unexpected %T value for %s column", v, k)
}

func quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

// Source reads the mirror table on demand, opening the database per read.
// It implements catalog.Source.
type Source struct {
	path   string
	logger *slog.Logger
}

// NewSource returns a catalog source over the database at path.
func NewSource(path string, logger *slog.Logger) *Source {
	return &Source{path: path, logger: logger}
}

func (s *Source) Name() string { return "mirror" }

func (s *Source) Path() string { return s.path }

func (s *Source) ReadTable(ctx context.Context) (domain.Table, error) {
	m, err := OpenExisting(s.path, s.logger)
	if err != nil {
		return domain.Table{}, err
	}
	defer m.Close()
	return m.Load(ctx)
}
