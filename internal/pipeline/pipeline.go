package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/hydrogen-tracker/internal/domain"
	"github.com/couchcryptid/hydrogen-tracker/internal/observability"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// Extractor reads the source worksheet.
type Extractor interface {
	Extract(ctx context.Context) (domain.Sheet, error)
}

// SnapshotStore writes the columnar snapshot in two phases.
type SnapshotStore interface {
	Stage(t domain.Table) (domain.Staged, error)
	Path() string
}

// Mirror replaces the relational copy of the table atomically.
type Mirror interface {
	Replace(ctx context.Context, t domain.Table) error
	Path() string
}

// Publisher announces a published snapshot to other processes.
type Publisher interface {
	Publish(ctx context.Context, event domain.SnapshotPublished) error
}

// Uploader copies the published snapshot to remote storage.
type Uploader interface {
	Upload(ctx context.Context, path string) error
}

// Result describes one successful run.
type Result struct {
	RunID   string
	Rows    int
	Columns int
	Report  Report
}

// Pipeline runs extract, transform and publish once per Run call.
type Pipeline struct {
	extractor Extractor
	snapshots SnapshotStore
	mirror    Mirror
	publisher Publisher
	uploader  Uploader
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
}

// Option configures optional pipeline collaborators.
type Option func(*Pipeline)

// WithPublisher sends a SnapshotPublished event after each successful run.
func WithPublisher(p Publisher) Option { return func(pl *Pipeline) { pl.publisher = p } }

// WithUploader copies the snapshot to remote storage after each successful run.
func WithUploader(u Uploader) Option { return func(pl *Pipeline) { pl.uploader = u } }

// WithClock overrides the clock used for run timing.
func WithClock(c clockwork.Clock) Option { return func(pl *Pipeline) { pl.clock = c } }

// New creates a Pipeline with the given stages and observability.
func New(e Extractor, s SnapshotStore, m Mirror, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		extractor: e,
		snapshots: s,
		mirror:    m,
		logger:    logger,
		metrics:   metrics,
		clock:     clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run performs one complete pass. Structural failures are returned and leave
// the previously published snapshot and mirror untouched. Notification and
// upload failures are logged only.
func (p *Pipeline) Run(ctx context.Context) (Result, error) {
	runID := uuid.NewString()
	logger := p.logger.With("run_id", runID)
	start := p.clock.Now()
	logger.Info("pipeline run started")

	sheet, err := p.extractor.Extract(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("extract: %w", err)
	}

	table, report, err := NewTransformer(logger).Transform(sheet)
	if err != nil {
		return Result{}, fmt.Errorf("transform: %w", err)
	}
	p.recordTransform(report)

	if err := p.persist(ctx, logger, table); err != nil {
		p.metrics.PersistErrors.Inc()
		return Result{}, err
	}

	p.metrics.RowsWritten.Add(float64(table.Len()))
	p.metrics.RunDuration.Observe(p.clock.Since(start).Seconds())
	p.metrics.LastSuccess.Set(float64(p.clock.Now().Unix()))
	logger.Info("pipeline run finished",
		"rows_read", report.RowsRead,
		"rows_written", table.Len(),
		"columns", len(table.Columns),
		"rows_without_id", report.RowsDropped,
		"duplicate_rows", report.DuplicateRows(),
		"coercion_failures", report.Clean.FailureCount(),
		"duration", p.clock.Since(start),
	)

	p.announce(ctx, logger, domain.NewSnapshotPublished(runID, p.snapshots.Path(), p.mirror.Path(), table))

	return Result{RunID: runID, Rows: table.Len(), Columns: len(table.Columns), Report: report}, nil
}

// persist stages the snapshot, replaces the mirror, then commits the
// snapshot. The mirror replace is transactional and the commit is a rename,
// so a failure before the rename leaves both outputs as they were.
func (p *Pipeline) persist(ctx context.Context, logger *slog.Logger, table domain.Table) error {
	staged, err := p.snapshots.Stage(table)
	if err != nil {
		return fmt.Errorf("stage snapshot: %w", err)
	}

	if err := p.mirror.Replace(ctx, table); err != nil {
		if derr := staged.Discard(); derr != nil {
			logger.Warn("discard staged snapshot", "error", derr)
		}
		return fmt.Errorf("replace mirror: %w", err)
	}

	if err := staged.Commit(); err != nil {
		logger.Error("mirror updated but snapshot not published", "snapshot", p.snapshots.Path(), "error", err)
		if derr := staged.Discard(); derr != nil {
			logger.Warn("discard staged snapshot", "error", derr)
		}
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

func (p *Pipeline) recordTransform(r Report) {
	p.metrics.RowsRead.Add(float64(r.RowsRead))
	p.metrics.RowsDropped.Add(float64(r.RowsDropped + r.DuplicateRows()))
	p.metrics.DuplicateIDs.Add(float64(len(r.Duplicates)))
	for col, n := range r.Clean.Failures {
		p.metrics.CoercionFailures.WithLabelValues(col).Add(float64(n))
	}
}

func (p *Pipeline) announce(ctx context.Context, logger *slog.Logger, event domain.SnapshotPublished) {
	if p.uploader != nil {
		if err := p.uploader.Upload(ctx, event.SnapshotPath); err != nil {
			p.metrics.Uploads.WithLabelValues("error").Inc()
			logger.Error("snapshot upload failed", "error", err)
		} else {
			p.metrics.Uploads.WithLabelValues("success").Inc()
		}
	}
	if p.publisher != nil {
		if err := p.publisher.Publish(ctx, event); err != nil {
			p.metrics.Notifications.WithLabelValues("error").Inc()
			logger.Error("snapshot notification failed", "error", err)
		} else {
			p.metrics.Notifications.WithLabelValues("success").Inc()
		}
	}
}
