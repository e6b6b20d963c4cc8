package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/reverse-r-etl/internal/domain"
	"github.com/couchcryptid/reverse-r-etl/internal/observability"
)

// SnapshotSource returns every daily snapshot, ordered by report date.
type SnapshotSource interface {
	ReadSnapshots(ctx context.Context) ([]domain.Snapshot, error)
}

// Transformer turns the snapshot sequence into per-region tables.
type Transformer interface {
	Transform(ctx context.Context, snapshots []domain.Snapshot) (Batch, error)
}

// TableSink writes a complete set of region tables to a destination.
type TableSink interface {
	Name() string
	WriteTables(ctx context.Context, tables []domain.RegionTable) error
}

// Batch is the output of one transform: the tables plus ingestion counters.
type Batch struct {
	Tables []domain.RegionTable
	Stats  domain.BuildStats
}

// GapWindows sums the gap-flagged smoothing windows across all tables.
func (b Batch) GapWindows() int {
	n := 0
	for _, t := range b.Tables {
		n += t.GapWindows
	}
	return n
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithClock replaces the clock driving run timing and the rebuild ticker.
func WithClock(c clockwork.Clock) Option {
	return func(p *Pipeline) { p.clock = c }
}

// Pipeline orchestrates the read-estimate-write cycle.
type Pipeline struct {
	source      SnapshotSource
	transformer Transformer
	sink        TableSink
	logger      *slog.Logger
	metrics     *observability.Metrics
	clock       clockwork.Clock
	ready       atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(source SnapshotSource, t Transformer, sink TableSink, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Pipeline {
	p := &Pipeline{
		source:      source,
		transformer: t,
		sink:        sink,
		logger:      logger,
		metrics:     metrics,
		clock:       clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CheckReadiness returns nil once a run has completed successfully, or an
// error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no successful estimation run yet")
	}
	return nil
}

// RunOnce rebuilds every region table from scratch and writes them to the sink.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	start := p.clock.Now()

	snapshots, err := p.source.ReadSnapshots(ctx)
	if err != nil {
		return fmt.Errorf("read snapshots: %w", err)
	}
	p.metrics.SnapshotsRead.Add(float64(len(snapshots)))

	batch, err := p.transformer.Transform(ctx, snapshots)
	if err != nil {
		return fmt.Errorf("estimate: %w", err)
	}
	p.metrics.RowsParsed.Add(float64(batch.Stats.RowsParsed))
	p.metrics.RowsDropped.Add(float64(batch.Stats.RowsDropped))
	p.metrics.Regions.Set(float64(len(batch.Tables)))
	p.metrics.GapWindows.Add(float64(batch.GapWindows()))

	if err := p.sink.WriteTables(ctx, batch.Tables); err != nil {
		return fmt.Errorf("write tables: %w", err)
	}

	elapsed := p.clock.Since(start)
	p.metrics.RunDuration.Observe(elapsed.Seconds())
	p.metrics.LastSuccess.Set(float64(p.clock.Now().Unix()))
	p.ready.Store(true)

	p.logger.Info("estimation run complete",
		"snapshots", len(snapshots),
		"rows", batch.Stats.RowsParsed,
		"dropped", batch.Stats.RowsDropped,
		"regions", len(batch.Tables),
		"duration", elapsed,
	)
	return nil
}

// Run rebuilds immediately and then once per interval until the context is
// cancelled. Failed runs are retried with exponential backoff capped at the
// interval.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return errors.New("rebuild interval must be positive")
	}
	p.logger.Info("pipeline started", "interval", interval)
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	backoff := initialBackoff
	for {
		wait := interval
		if err := p.RunOnce(ctx); err != nil {
			if ctx.Err() != nil {
				p.logger.Info("pipeline stopping", "reason", ctx.Err())
				return nil
			}
			p.logger.Error("estimation run failed", "error", err, "retry_in", backoff)
			wait = backoff
			backoff = retry.NextBackoff(backoff, interval)
		} else {
			backoff = initialBackoff
		}

		select {
		case <-ctx.Done():
			p.logger.Info("pipeline stopping", "reason", ctx.Err())
			return nil
		case <-p.clock.After(wait):
		}
	}
}

const initialBackoff = time.Second
