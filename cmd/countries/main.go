// Command countries prints the canonical name of every region found in the
// snapshot directory, one per line, in sorted order.
//
// Usage:
//
//	SNAPSHOT_DIR=csse_covid_19_daily_reports go run ./cmd/countries
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/couchcryptid/reverse-r-etl/internal/adapter/snapshotdir"
	"github.com/couchcryptid/reverse-r-etl/internal/config"
	"github.com/couchcryptid/reverse-r-etl/internal/domain"
	"github.com/couchcryptid/reverse-r-etl/internal/pipeline"
)

func main() {
	// stdout carries the region list; diagnostics go to stderr.
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	if err := run(logger); err != nil {
		logger.Error("list countries failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	overrides, err := config.LoadOverrides(cfg.OverridesFile)
	if err != nil {
		return err
	}
	errata, err := overrides.ErrataList()
	if err != nil {
		return err
	}

	snapshots, err := snapshotdir.NewReader(cfg.SnapshotDir, logger).ReadSnapshots(context.Background())
	if err != nil {
		return err
	}

	normalizer := domain.NewNormalizer(overrides.NormalizerOptions(cfg.Cutover))
	transformer := pipeline.NewTransformer(normalizer, errata, nil, cfg.Workers, logger)
	db, _, err := transformer.BuildDatabase(snapshots)
	if err != nil {
		return err
	}

	for _, region := range db.Regions() {
		fmt.Println(region)
	}
	return nil
}
