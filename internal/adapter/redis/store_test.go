package redis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/reverse-r-etl/internal/domain"
)

// mockClient simulates Redis with a map.
type mockClient struct {
	mu      sync.RWMutex
	data    map[string]string
	setErr  error
	pingErr error
}

func newMockClient() *mockClient {
	return &mockClient{data: make(map[string]string)}
}

func (m *mockClient) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

func (m *mockClient) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (m *mockClient) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

func (m *mockClient) Ping(_ context.Context) error { return m.pingErr }

func (m *mockClient) Close() error { return nil }

func (m *mockClient) keys() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.data))
	for k := range m.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func newTestStore(c Client) *Store {
	return NewStore(c, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestStore_WriteAndRead(t *testing.T) {
	client := newMockClient()
	store := newTestStore(client)
	ctx := context.Background()

	generated := time.Date(2020, time.May, 1, 0, 0, 0, 0, time.UTC)
	tables := []domain.RegionTable{
		{Region: "Germany", GeneratedAt: generated, Rows: []domain.TableRow{{Date: "2020-04-01", TotalCases: 77872, EstimatedR: domain.Float(1.1)}}},
		{Region: "Italy", GeneratedAt: generated},
	}

	require.NoError(t, store.WriteTables(ctx, tables))
	assert.Equal(t, []string{"region_table_v1:Germany", "region_table_v1:Italy", "regions_v1"}, client.keys())

	regions, err := store.Regions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Germany", "Italy"}, regions)

	got, err := store.Table(ctx, "Germany")
	require.NoError(t, err)
	assert.Equal(t, tables[0], got)
}

func TestStore_RemovesStaleRegions(t *testing.T) {
	client := newMockClient()
	store := newTestStore(client)
	ctx := context.Background()

	require.NoError(t, store.WriteTables(ctx, []domain.RegionTable{{Region: "Germany"}, {Region: "Others"}}))
	require.NoError(t, store.WriteTables(ctx, []domain.RegionTable{{Region: "Germany"}}))

	assert.Equal(t, []string{"region_table_v1:Germany", "regions_v1"}, client.keys())
	_, err := store.Table(ctx, "Others")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestStore_EmptyIndex(t *testing.T) {
	store := newTestStore(newMockClient())
	regions, err := store.Regions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, regions)
}

func TestStore_SetError(t *testing.T) {
	client := newMockClient()
	client.setErr = errors.New("READONLY")
	store := newTestStore(client)

	err := store.WriteTables(context.Background(), []domain.RegionTable{{Region: "Germany"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Germany")
	assert.Contains(t, err.Error(), "READONLY")
}

func TestStore_CheckReadiness(t *testing.T) {
	client := newMockClient()
	store := newTestStore(client)
	assert.Equal(t, "redis", store.Name())
	assert.NoError(t, store.CheckReadiness(context.Background()))

	client.pingErr = errors.New("connection refused")
	assert.Error(t, store.CheckReadiness(context.Background()))
}
