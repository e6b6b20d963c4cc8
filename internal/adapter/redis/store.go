package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/reverse-r-etl/internal/domain"
)

const (
	tableKeyFormat = "region_table_v1:%s"
	regionIndexKey = "regions_v1"
)

// Store keeps each region's latest table as JSON in Redis, plus an index of
// region names. It implements pipeline.TableSink.
type Store struct {
	client Client
	logger *slog.Logger
}

// NewStore creates a Store on client.
func NewStore(client Client, logger *slog.Logger) *Store {
	return &Store{client: client, logger: logger}
}

func (s *Store) Name() string { return "redis" }

// WriteTables stores every table, rewrites the index, and removes tables
// of regions that disappeared since the previous write.
func (s *Store) WriteTables(ctx context.Context, tables []domain.RegionTable) error {
	previous, err := s.Regions(ctx)
	if err != nil {
		return err
	}

	current := make(map[string]struct{}, len(tables))
	regions := make([]string, 0, len(tables))
	for _, t := range tables {
		data, err := json.Marshal(t)
		if err != nil {
			return fmt.Errorf("marshal region table %q: %w", t.Region, err)
		}
		if err := s.client.Set(ctx, tableKey(t.Region), string(data)); err != nil {
			return fmt.Errorf("set region table %q: %w", t.Region, err)
		}
		current[t.Region] = struct{}{}
		regions = append(regions, t.Region)
	}

	index, err := json.Marshal(regions)
	if err != nil {
		return fmt.Errorf("marshal region index: %w", err)
	}
	if err := s.client.Set(ctx, regionIndexKey, string(index)); err != nil {
		return fmt.Errorf("set region index: %w", err)
	}

	var stale []string
	for _, r := range previous {
		if _, ok := current[r]; !ok {
			stale = append(stale, tableKey(r))
		}
	}
	if len(stale) > 0 {
		if err := s.client.Del(ctx, stale...); err != nil {
			return fmt.Errorf("delete stale tables: %w", err)
		}
		s.logger.Info("removed stale region tables", "count", len(stale))
	}
	return nil
}

// Regions returns the stored region index, empty when nothing was written yet.
func (s *Store) Regions(ctx context.Context) ([]string, error) {
	raw, err := s.client.Get(ctx, regionIndexKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get region index: %w", err)
	}
	var regions []string
	if err := json.Unmarshal([]byte(raw), &regions); err != nil {
		return nil, fmt.Errorf("unmarshal region index: %w", err)
	}
	return regions, nil
}

// Table returns the stored table for region. Missing regions yield ErrNotFound.
func (s *Store) Table(ctx context.Context, region string) (domain.RegionTable, error) {
	raw, err := s.client.Get(ctx, tableKey(region))
	if err != nil {
		return domain.RegionTable{}, fmt.Errorf("get region table %q: %w", region, err)
	}
	var t domain.RegionTable
	if err := json.Unmarshal([]byte(raw), &t); err != nil {
		return domain.RegionTable{}, fmt.Errorf("unmarshal region table %q: %w", region, err)
	}
	return t, nil
}

// CheckReadiness pings the server.
func (s *Store) CheckReadiness(ctx context.Context) error {
	return s.client.Ping(ctx)
}

func tableKey(region string) string {
	return fmt.Sprintf(tableKeyFormat, region)
}
