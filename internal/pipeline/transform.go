package pipeline

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/reverse-r-etl/internal/domain"
)

// CurveTransformer implements Transformer: it builds the per-region
// database sequentially, then estimates regions in parallel.
type CurveTransformer struct {
	normalizer *domain.Normalizer
	errata     []domain.Erratum
	estimator  *domain.Estimator
	workers    int
	logger     *slog.Logger
}

// NewTransformer creates a CurveTransformer. workers bounds the number of
// regions estimated concurrently.
func NewTransformer(normalizer *domain.Normalizer, errata []domain.Erratum, estimator *domain.Estimator, workers int, logger *slog.Logger) *CurveTransformer {
	if workers <= 0 {
		workers = 1
	}
	return &CurveTransformer{
		normalizer: normalizer,
		errata:     errata,
		estimator:  estimator,
		workers:    workers,
		logger:     logger,
	}
}

// BuildDatabase feeds the snapshots through a fresh SeriesBuilder. Errata
// are applied before the database is returned.
func (t *CurveTransformer) BuildDatabase(snapshots []domain.Snapshot) (*domain.Database, domain.BuildStats, error) {
	b := domain.NewSeriesBuilder(t.normalizer, t.errata, t.logger)
	for _, snap := range snapshots {
		if err := b.Add(snap); err != nil {
			return nil, b.Stats(), err
		}
	}
	return b.Build(), b.Stats(), nil
}

func (t *CurveTransformer) Transform(ctx context.Context, snapshots []domain.Snapshot) (Batch, error) {
	db, stats, err := t.BuildDatabase(snapshots)
	if err != nil {
		return Batch{Stats: stats}, err
	}

	regions := db.Regions()
	tables := make([]domain.RegionTable, len(regions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(t.workers)
	for i, region := range regions {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			s, _ := db.Series(region)
			tables[i] = t.estimator.Estimate(s)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Batch{Stats: stats}, err
	}

	return Batch{Tables: tables, Stats: stats}, nil
}
