package parquet

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/apache/arrow/go/v18/arrow"
	"github.com/apache/arrow/go/v18/arrow/array"
	"github.com/apache/arrow/go/v18/arrow/memory"
	pq "github.com/apache/arrow/go/v18/parquet"
	"github.com/apache/arrow/go/v18/parquet/compress"
	"github.com/apache/arrow/go/v18/parquet/pqarrow"
	"github.com/couchcryptid/hydrogen-tracker/internal/domain"
)

// Store publishes the cleaned table as a snappy-compressed Parquet snapshot.
// Writes are staged to a temporary file in the target directory and moved
// into place by Commit, so readers never observe a partial file.
type Store struct {
	path   string
	logger *slog.Logger
}

// NewStore creates a Store for the snapshot at path.
func NewStore(path string, logger *slog.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Path returns the published snapshot path.
func (s *Store) Path() string { return s.path }

// Staged is a fully written snapshot that has not been published yet.
type Staged struct {
	tmp    string
	target string
}

// Stage encodes the table and writes it next to the published path.
func (s *Store) Stage(t domain.Table) (domain.Staged, error) {
	data, err := Encode(t)
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: create %s: %v", domain.ErrPersist, dir, err)
	}
	f, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*")
	if err != nil {
		return nil, fmt.Errorf("%w: stage snapshot: %v", domain.ErrPersist, err)
	}
	tmp := f.Name()
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return nil, fmt.Errorf("%w: write %s: %v", domain.ErrPersist, tmp, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return nil, fmt.Errorf("%w: close %s: %v", domain.ErrPersist, tmp, err)
	}

	s.logger.Debug("snapshot staged", "path", tmp, "bytes", len(data))
	return &Staged{tmp: tmp, target: s.path}, nil
}

// Commit atomically replaces the published snapshot with the staged file.
func (st *Staged) Commit() error {
	if err := os.Rename(st.tmp, st.target); err != nil {
		return fmt.Errorf("%w: publish %s: %v", domain.ErrPersist, st.target, err)
	}
	return nil
}

// Discard removes the staged file. It is safe to call after Commit.
func (st *Staged) Discard() error {
	if err := os.Remove(st.tmp); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Schema maps table columns onto nullable Arrow fields.
func Schema(cols []domain.Column) *arrow.Schema {
	fields := make([]arrow.Field, len(cols))
	for i, c := range cols {
		fields[i] = arrow.Field{Name: c.Name, Type: arrowType(c.Kind), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(k domain.Kind) arrow.DataType {
	switch k {
	case domain.KindNumber:
		return arrow.PrimitiveTypes.Float32
	case domain.KindDate:
		return arrow.FixedWidthTypes.Date32
	default:
		return arrow.BinaryTypes.String
	}
}

// Encode serializes the table to Parquet bytes. Equal tables encode to
// identical bytes.
func Encode(t domain.Table) ([]byte, error) {
	schema := Schema(t.Columns)
	rec := buildRecord(schema, t)
	defer rec.Release()

	var buf bytes.Buffer
	props := pq.NewWriterProperties(pq.WithCompression(compress.Codecs.Snappy))
	fw, err := pqarrow.NewFileWriter(schema, &buf, props, pqarrow.NewArrowWriterProperties(pqarrow.WithStoreSchema()))
	if err != nil {
		return nil, fmt.Errorf("%w: parquet writer: %v", domain.ErrPersist, err)
	}
	if err := fw.Write(rec); err != nil {
		fw.Close()
		return nil, fmt.Errorf("%w: write record: %v", domain.ErrPersist, err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("%w: finish parquet file: %v", domain.ErrPersist, err)
	}
	return buf.Bytes(), nil
}

func buildRecord(schema *arrow.Schema, t domain.Table) arrow.Record {
	b := array.NewRecordBuilder(memory.DefaultAllocator, schema)
	defer b.Release()

	for j, col := range t.Columns {
		fb := b.Field(j)
		for _, row := range t.Rows {
			c := row[j]
			if !c.Valid {
				fb.AppendNull()
				continue
			}
			switch col.Kind {
			case domain.KindNumber:
				fb.(*array.Float32Builder).Append(c.Num)
			case domain.KindDate:
				fb.(*array.Date32Builder).Append(arrow.Date32FromTime(c.Date))
			default:
				fb.(*array.StringBuilder).Append(c.Text)
			}
		}
	}
	return b.NewRecord()
}

// Read loads a snapshot back into a table. Column kinds come from the
// Arrow types; Source names are not stored.
func Read(ctx context.Context, path string) (domain.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.Table{}, err
	}
	defer f.Close()

	tbl, err := pqarrow.ReadTable(ctx, f, nil, pqarrow.ArrowReadProperties{}, memory.DefaultAllocator)
	if err != nil {
		return domain.Table{}, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	defer tbl.Release()

	schema := tbl.Schema()
	out := domain.Table{
		Columns: make([]domain.Column, schema.NumFields()),
		Rows:    make([][]domain.Cell, 0, tbl.NumRows()),
	}
	for i, field := range schema.Fields() {
		kind, err := kindOf(field.Type)
		if err != nil {
			return domain.Table{}, fmt.Errorf("snapshot column %q: %w", field.Name, err)
		}
		out.Columns[i] = domain.Column{Name: field.Name, Kind: kind}
	}

	tr := array.NewTableReader(tbl, 0)
	defer tr.Release()
	for tr.Next() {
		rec := tr.Record()
		for r := 0; r < int(rec.NumRows()); r++ {
			row := make([]domain.Cell, rec.NumCols())
			for j, arr := range rec.Columns() {
				row[j] = cellAt(arr, r)
			}
			out.Rows = append(out.Rows, row)
		}
	}
	if err := tr.Err(); err != nil {
		return domain.Table{}, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return out, nil
}

func kindOf(dt arrow.DataType) (domain.Kind, error) {
	switch dt.ID() {
	case arrow.STRING:
		return domain.KindText, nil
	case arrow.FLOAT32:
		return domain.KindNumber, nil
	case arrow.DATE32:
		return domain.KindDate, nil
	default:
		return 0, fmt.Errorf("unsupported type %s", dt)
	}
}

func cellAt(arr arrow.Array, i int) domain.Cell {
	if arr.IsNull(i) {
		return domain.Cell{}
	}
	switch a := arr.(type) {
	case *array.Float32:
		return domain.NumberCell(a.Value(i))
	case *array.Date32:
		return domain.DateCell(a.Value(i).ToTime())
	case *array.String:
		return domain.TextCell(a.Value(i))
	default:
		return domain.Cell{}
	}
}

// Snapshot reads the published file. It implements catalog.Source.
type Snapshot struct {
	path string
}

// NewSnapshot returns a reader for the snapshot at path.
func NewSnapshot(path string) *Snapshot { return &Snapshot{path: path} }

func (s *Snapshot) Name() string { return "parquet" }

func (s *Snapshot) Path() string { return s.path }

func (s *Snapshot) ReadTable(ctx context.Context) (domain.Table, error) {
	return Read(ctx, s.path)
}
