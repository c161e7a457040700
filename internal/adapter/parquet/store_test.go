package parquet

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/hydrogen-tracker/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleTable() domain.Table {
	online := time.Date(2023, 3, 15, 0, 0, 0, 0, time.UTC)
	return domain.Table{
		Columns: []domain.Column{
			{Name: domain.FieldProjectID, Kind: domain.KindText},
			{Name: domain.FieldProjectName, Kind: domain.KindText},
			{Name: domain.FieldCountry, Kind: domain.KindText},
			{Name: domain.FieldInvestment, Kind: domain.KindNumber},
			{Name: domain.FieldDateOnline, Kind: domain.KindDate},
		},
		Rows: [][]domain.Cell{
			{domain.TextCell("P-1"), domain.TextCell("Plant A"), domain.TextCell("Germany"), domain.NumberCell(1.5e6), domain.DateCell(online)},
			{domain.TextCell("P-2"), domain.TextCell("Plant B"), {}, {}, {}},
			{domain.TextCell("P-3"), {}, domain.TextCell("Chile"), domain.NumberCell(0), domain.DateCell(time.Date(1899, 12, 30, 0, 0, 0, 0, time.UTC))},
		},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed", "cleaned.parquet")
	store := NewStore(path, discardLogger())

	staged, err := store.Stage(sampleTable())
	require.NoError(t, err)
	require.NoError(t, staged.Commit())

	got, err := Read(context.Background(), path)
	require.NoError(t, err)
	if diff := cmp.Diff(sampleTable(), got, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_EmptyTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaned.parquet")
	empty := domain.Table{Columns: sampleTable().Columns}

	staged, err := NewStore(path, discardLogger()).Stage(empty)
	require.NoError(t, err)
	require.NoError(t, staged.Commit())

	got, err := Read(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, empty.Columns, got.Columns)
	assert.Zero(t, got.Len())
}

func TestEncode_Deterministic(t *testing.T) {
	first, err := Encode(sampleTable())
	require.NoError(t, err)
	second, err := Encode(sampleTable())
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStaged_DiscardKeepsPublishedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cleaned.parquet")
	store := NewStore(path, discardLogger())

	staged, err := store.Stage(sampleTable())
	require.NoError(t, err)
	require.NoError(t, staged.Commit())
	before, err := os.ReadFile(path)
	require.NoError(t, err)

	next := sampleTable()
	next.Rows = next.Rows[:1]
	staged, err = store.Stage(next)
	require.NoError(t, err)
	require.NoError(t, staged.Discard())

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "staged file should be removed")
}

func TestStaged_DiscardAfterCommit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cleaned.parquet")
	staged, err := NewStore(path, discardLogger()).Stage(sampleTable())
	require.NoError(t, err)
	require.NoError(t, staged.Commit())
	assert.NoError(t, staged.Discard())
	assert.FileExists(t, path)
}

func TestStore_StageFailsOnUnwritableDir(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o600))

	_, err := NewStore(filepath.Join(blocker, "cleaned.parquet"), discardLogger()).Stage(sampleTable())
	require.ErrorIs(t, err, domain.ErrPersist)
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(context.Background(), filepath.Join(t.TempDir(), "absent.parquet"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
