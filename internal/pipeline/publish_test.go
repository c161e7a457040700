package pipeline_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/hydrogen-tracker/internal/adapter/excel"
	"github.com/couchcryptid/hydrogen-tracker/internal/adapter/parquet"
	"github.com/couchcryptid/hydrogen-tracker/internal/adapter/sqlite"
	"github.com/couchcryptid/hydrogen-tracker/internal/domain"
	"github.com/couchcryptid/hydrogen-tracker/internal/pipeline"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeWorkbook(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "iea.xlsx")
	rows := [][]any{
		{"1", "Plant A", "Germany", 45000.0, "Operational", "PEM", "€1,200,000", 20.0, 4000.0},
		{"2", "Plant B", "France", "soon", "Concept", "ALK", nil, 5.5, nil},
		{nil, "Orphan", "Spain", 44000.0, "FID", "PEM", nil, nil, nil},
		{"1", "Plant A (dup)", "Germany", 45100.0, "Operational", "PEM", nil, 30.0, nil},
		{"3", "Plant C", "Chile", "2025-06-30", "Under construction", "SOEC", "300000", nil, 100.0},
	}
	require.NoError(t, excel.WriteWorkbook(path, "Projects", ieaHeader(), rows))
	return path
}

type published struct {
	snapshot string
	mirror   *sqlite.Mirror
	pipeline *pipeline.Pipeline
}

func newPublished(t *testing.T) published {
	t.Helper()
	dir := t.TempDir()
	logger := discardLogger()

	mirror, err := sqlite.Open(filepath.Join(dir, "projects.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { mirror.Close() })

	snapshot := filepath.Join(dir, "processed", "cleaned.parquet")
	p := pipeline.New(
		excel.NewReader(writeWorkbook(t, dir), "Projects", logger),
		parquet.NewStore(snapshot, logger),
		mirror,
		logger,
		newTestMetrics(),
	)
	return published{snapshot: snapshot, mirror: mirror, pipeline: p}
}

func TestPublish_SnapshotMatchesMirror(t *testing.T) {
	pub := newPublished(t)
	ctx := context.Background()

	res, err := pub.pipeline.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Rows)

	snap, err := parquet.Read(ctx, pub.snapshot)
	require.NoError(t, err)
	mirrored, err := pub.mirror.Load(ctx)
	require.NoError(t, err)

	if diff := cmp.Diff(snap, mirrored, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("snapshot and mirror differ (-parquet +sqlite):\n%s", diff)
	}

	indexes, err := pub.mirror.Indexes(ctx)
	require.NoError(t, err)
	assert.Len(t, indexes, 3)

	projects := domain.ProjectsFromTable(snap)
	require.Len(t, projects, 3)
	assert.Equal(t, "Plant A", projects[0].Name)
	assert.InDelta(t, 1_200_000, projects[0].Investment, 0)
	assert.Nil(t, projects[1].DateOnline)
}

func TestPublish_RerunIsByteIdentical(t *testing.T) {
	pub := newPublished(t)
	ctx := context.Background()

	_, err := pub.pipeline.Run(ctx)
	require.NoError(t, err)
	first, err := os.ReadFile(pub.snapshot)
	require.NoError(t, err)

	_, err = pub.pipeline.Run(ctx)
	require.NoError(t, err)
	second, err := os.ReadFile(pub.snapshot)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	entries, err := os.ReadDir(filepath.Dir(pub.snapshot))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no staged files left behind")
}

func TestPublish_FailedRunKeepsPreviousOutput(t *testing.T) {
	pub := newPublished(t)
	ctx := context.Background()

	_, err := pub.pipeline.Run(ctx)
	require.NoError(t, err)
	before, err := os.ReadFile(pub.snapshot)
	require.NoError(t, err)

	// A later run against a workbook without the projects sheet aborts
	// before anything is written.
	dir := t.TempDir()
	other := filepath.Join(dir, "other.xlsx")
	require.NoError(t, excel.WriteWorkbook(other, "Infrastructure", ieaHeader(), nil))
	failing := pipeline.New(
		excel.NewReader(other, "Projects", discardLogger()),
		parquet.NewStore(pub.snapshot, discardLogger()),
		pub.mirror,
		discardLogger(),
		newTestMetrics(),
	)
	_, err = failing.Run(ctx)
	require.ErrorIs(t, err, domain.ErrSheetNotFound)

	after, err := os.ReadFile(pub.snapshot)
	require.NoError(t, err)
	assert.Equal(t, before, after)

	mirrored, err := pub.mirror.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, mirrored.Len())
}

func TestPublish_HeadersDifferingOnlyInCase(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()
	logger := discardLogger()

	source := filepath.Join(dir, "iea.xlsx")
	header := [2][]string{
		{"", "", "", "", ""},
		{"Ref", "Project name", "Country", "Technology", "TECHNOLOGY"},
	}
	require.NoError(t, excel.WriteWorkbook(source, "Projects", header, [][]any{
		{"1", "Plant A", "Germany", "PEM", "pem"},
	}))

	mirror, err := sqlite.Open(filepath.Join(dir, "projects.db"), logger)
	require.NoError(t, err)
	t.Cleanup(func() { mirror.Close() })

	snapshot := filepath.Join(dir, "cleaned.parquet")
	p := pipeline.New(
		excel.NewReader(source, "Projects", logger),
		parquet.NewStore(snapshot, logger),
		mirror,
		logger,
		newTestMetrics(),
	)

	res, err := p.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Rows)

	mirrored, err := mirror.Load(ctx)
	require.NoError(t, err)
	names := make([]string, len(mirrored.Columns))
	for i, c := range mirrored.Columns {
		names[i] = c.Name
	}
	assert.Equal(t, []string{
		domain.FieldProjectID, domain.FieldProjectName, domain.FieldCountry,
		domain.FieldTechnology, "TECHNOLOGY.1",
	}, names)
}
