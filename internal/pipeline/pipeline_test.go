package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/hydrogen-tracker/internal/domain"
	"github.com/couchcryptid/hydrogen-tracker/internal/observability"
	"github.com/couchcryptid/hydrogen-tracker/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockExtractor struct {
	sheet domain.Sheet
	err   error
}

func (m *mockExtractor) Extract(_ context.Context) (domain.Sheet, error) {
	return m.sheet, m.err
}

// recorder collects the order of persistence calls across mocks.
type recorder struct {
	calls []string
}

type mockStaged struct {
	rec       *recorder
	commitErr error
}

func (s *mockStaged) Commit() error {
	s.rec.calls = append(s.rec.calls, "commit")
	return s.commitErr
}

func (s *mockStaged) Discard() error {
	s.rec.calls = append(s.rec.calls, "discard")
	return nil
}

type mockStore struct {
	rec       *recorder
	stageErr  error
	commitErr error
	staged    domain.Table
}

func (m *mockStore) Stage(t domain.Table) (domain.Staged, error) {
	m.rec.calls = append(m.rec.calls, "stage")
	if m.stageErr != nil {
		return nil, m.stageErr
	}
	m.staged = t
	return &mockStaged{rec: m.rec, commitErr: m.commitErr}, nil
}

func (m *mockStore) Path() string { return "out/cleaned.parquet" }

type mockMirror struct {
	rec      *recorder
	err      error
	replaced domain.Table
}

func (m *mockMirror) Replace(_ context.Context, t domain.Table) error {
	m.rec.calls = append(m.rec.calls, "replace")
	if m.err != nil {
		return m.err
	}
	m.replaced = t
	return nil
}

func (m *mockMirror) Path() string { return "out/projects.db" }

type mockPublisher struct {
	events []domain.SnapshotPublished
	err    error
}

func (m *mockPublisher) Publish(_ context.Context, e domain.SnapshotPublished) error {
	m.events = append(m.events, e)
	return m.err
}

type mockUploader struct {
	paths []string
	err   error
}

func (m *mockUploader) Upload(_ context.Context, path string) error {
	m.paths = append(m.paths, path)
	return m.err
}

func newTestMetrics() *observability.Metrics {
	// Use a fresh registry to avoid "already registered" panics in tests.
	return observability.NewMetricsForTesting()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	rec     *recorder
	store   *mockStore
	mirror  *mockMirror
	metrics *observability.Metrics
}

func newFixture() *fixture {
	rec := &recorder{}
	return &fixture{
		rec:     rec,
		store:   &mockStore{rec: rec},
		mirror:  &mockMirror{rec: rec},
		metrics: newTestMetrics(),
	}
}

func (f *fixture) pipeline(ext pipeline.Extractor, opts ...pipeline.Option) *pipeline.Pipeline {
	return pipeline.New(ext, f.store, f.mirror, discardLogger(), f.metrics, opts...)
}

// --- tests ---

func TestPipeline_Run_HappyPath(t *testing.T) {
	f := newFixture()
	pub := &mockPublisher{}
	up := &mockUploader{}
	p := f.pipeline(&mockExtractor{sheet: mockSheet()}, pipeline.WithPublisher(pub), pipeline.WithUploader(up))

	res, err := p.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"stage", "replace", "commit"}, f.rec.calls)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 3, res.Rows)
	assert.Equal(t, 9, res.Columns)
	assert.Equal(t, 5, res.Report.RowsRead)
	assert.Equal(t, 1, res.Report.RowsDropped)
	assert.Equal(t, []domain.DuplicateGroup{{ID: "1", Discarded: 1}}, res.Report.Duplicates)
	assert.Equal(t, map[string]int{domain.FieldDateOnline: 1}, res.Report.Clean.Failures)

	assert.Equal(t, f.store.staged, f.mirror.replaced, "snapshot and mirror get the same table")

	require.Len(t, pub.events, 1)
	assert.Equal(t, res.RunID, pub.events[0].RunID)
	assert.Equal(t, "out/cleaned.parquet", pub.events[0].SnapshotPath)
	assert.Equal(t, "out/projects.db", pub.events[0].MirrorPath)
	assert.Equal(t, 3, pub.events[0].Rows)
	assert.Equal(t, []string{"out/cleaned.parquet"}, up.paths)

	assert.InDelta(t, 5, testutil.ToFloat64(f.metrics.RowsRead), 0)
	assert.InDelta(t, 3, testutil.ToFloat64(f.metrics.RowsWritten), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(f.metrics.RowsDropped), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.DuplicateIDs), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.CoercionFailures.WithLabelValues(domain.FieldDateOnline)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Notifications.WithLabelValues("success")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Uploads.WithLabelValues("success")), 0)
}

func TestPipeline_Run_OutputInvariants(t *testing.T) {
	f := newFixture()
	_, err := f.pipeline(&mockExtractor{sheet: mockSheet()}).Run(context.Background())
	require.NoError(t, err)

	table := f.store.staged
	idCol := table.ColumnIndex(domain.FieldProjectID)
	require.GreaterOrEqual(t, idCol, 0)

	seen := map[string]bool{}
	for _, row := range table.Rows {
		id := row[idCol]
		require.True(t, id.Valid)
		assert.NotEmpty(t, id.Text)
		assert.False(t, seen[id.Text], "duplicate id %q", id.Text)
		seen[id.Text] = true
	}
	for _, col := range table.Columns {
		assert.NotContains(t, col.Name, "Unnamed")
		assert.NotContains(t, col.Name, "\n")
		assert.NotContains(t, col.Name, "  ")
	}

	inv := table.ColumnIndex(domain.FieldInvestment)
	require.GreaterOrEqual(t, inv, 0)
	assert.Equal(t, domain.KindNumber, table.Columns[inv].Kind)
	assert.InDelta(t, 1_200_000, table.Rows[0][inv].Num, 0)

	online := table.ColumnIndex(domain.FieldDateOnline)
	assert.Equal(t, "2023-03-15", table.Rows[0][online].Date.Format(time.DateOnly))
	assert.False(t, table.Rows[1][online].Valid, "unparsable date is null")
	assert.Equal(t, "2025-06-30", table.Rows[2][online].Date.Format(time.DateOnly))
}

func TestPipeline_Run_ExtractError(t *testing.T) {
	f := newFixture()
	p := f.pipeline(&mockExtractor{err: domain.ErrSheetNotFound})

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrSheetNotFound)
	assert.Empty(t, f.rec.calls)
}

func TestPipeline_Run_SchemaError(t *testing.T) {
	f := newFixture()
	sheet := domain.Sheet{Header: [2][]string{{"Ref", "Status"}, nil}}
	p := f.pipeline(&mockExtractor{sheet: sheet})

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrSchema)
	assert.Empty(t, f.rec.calls, "nothing is persisted")
}

func TestPipeline_Run_StageFailure(t *testing.T) {
	f := newFixture()
	f.store.stageErr = domain.ErrPersist
	pub := &mockPublisher{}
	p := f.pipeline(&mockExtractor{sheet: mockSheet()}, pipeline.WithPublisher(pub))

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrPersist)
	assert.Equal(t, []string{"stage"}, f.rec.calls)
	assert.Empty(t, pub.events)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.PersistErrors), 0)
}

func TestPipeline_Run_MirrorFailureDiscardsSnapshot(t *testing.T) {
	f := newFixture()
	f.mirror.err = domain.ErrPersist
	p := f.pipeline(&mockExtractor{sheet: mockSheet()})

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrPersist)
	assert.Equal(t, []string{"stage", "replace", "discard"}, f.rec.calls)
}

func TestPipeline_Run_CommitFailure(t *testing.T) {
	f := newFixture()
	f.store.commitErr = domain.ErrPersist
	p := f.pipeline(&mockExtractor{sheet: mockSheet()})

	_, err := p.Run(context.Background())
	require.ErrorIs(t, err, domain.ErrPersist)
	assert.Equal(t, []string{"stage", "replace", "commit", "discard"}, f.rec.calls)
	assert.Zero(t, testutil.ToFloat64(f.metrics.RowsWritten))
}

func TestPipeline_Run_AnnounceFailuresAreNotFatal(t *testing.T) {
	f := newFixture()
	pub := &mockPublisher{err: errors.New("broker down")}
	up := &mockUploader{err: errors.New("bucket missing")}
	p := f.pipeline(&mockExtractor{sheet: mockSheet()}, pipeline.WithPublisher(pub), pipeline.WithUploader(up))

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.Len(t, pub.events, 1)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Notifications.WithLabelValues("error")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Uploads.WithLabelValues("error")), 0)
}

func TestPipeline_Run_RecordsLastSuccess(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC))
	f := newFixture()
	p := f.pipeline(&mockExtractor{sheet: mockSheet()}, pipeline.WithClock(clock))

	_, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, float64(clock.Now().Unix()), testutil.ToFloat64(f.metrics.LastSuccess), 0)
}

func TestPipeline_Run_UniqueRunIDs(t *testing.T) {
	f := newFixture()
	p := f.pipeline(&mockExtractor{sheet: mockSheet()})

	first, err := p.Run(context.Background())
	require.NoError(t, err)
	second, err := p.Run(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestTransformer_Transform(t *testing.T) {
	table, report, err := pipeline.NewTransformer(discardLogger()).Transform(mockSheet())
	require.NoError(t, err)

	assert.Equal(t, 3, table.Len())
	assert.Equal(t, 1, report.DuplicateRows())
	assert.Empty(t, report.ShadowedHeaders)

	names := make([]string, len(table.Columns))
	for i, c := range table.Columns {
		names[i] = c.Name
	}
	assert.Equal(t, []string{
		domain.FieldProjectID,
		domain.FieldProjectName,
		domain.FieldCountry,
		domain.FieldDateOnline,
		domain.FieldStatus,
		domain.FieldTechnology,
		domain.FieldInvestment,
		"Capacity_MWel",
		"Capacity_Nm³ H₂/h",
	}, names)
}
