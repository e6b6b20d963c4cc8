package pipeline

import (
	"context"
	"sync"

	"github.com/couchcryptid/reverse-r-etl/internal/domain"
)

// TableStore keeps the tables of the latest successful run in memory for
// the HTTP API. Each write replaces the whole set.
type TableStore struct {
	mu      sync.RWMutex
	tables  map[string]domain.RegionTable
	regions []string
}

// NewTableStore creates an empty TableStore.
func NewTableStore() *TableStore {
	return &TableStore{tables: make(map[string]domain.RegionTable)}
}

func (s *TableStore) Name() string { return "memory" }

func (s *TableStore) WriteTables(_ context.Context, tables []domain.RegionTable) error {
	next := make(map[string]domain.RegionTable, len(tables))
	regions := make([]string, 0, len(tables))
	for _, t := range tables {
		next[t.Region] = t
		regions = append(regions, t.Region)
	}

	s.mu.Lock()
	s.tables = next
	s.regions = regions
	s.mu.Unlock()
	return nil
}

// Regions lists the stored regions in write order.
func (s *TableStore) Regions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.regions))
	copy(out, s.regions)
	return out
}

// Table returns the stored table for region.
func (s *TableStore) Table(region string) (domain.RegionTable, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tables[region]
	return t, ok
}
