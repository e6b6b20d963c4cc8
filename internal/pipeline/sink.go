package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/reverse-r-etl/internal/domain"
	"github.com/couchcryptid/reverse-r-etl/internal/observability"
)

// MultiSink fans a batch out to every configured sink. A failing sink does
// not stop the others; all failures are returned joined.
type MultiSink struct {
	sinks   []TableSink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewMultiSink creates a MultiSink writing to sinks in order.
func NewMultiSink(logger *slog.Logger, metrics *observability.Metrics, sinks ...TableSink) *MultiSink {
	return &MultiSink{sinks: sinks, logger: logger, metrics: metrics}
}

func (m *MultiSink) Name() string { return "multi" }

// Len reports the number of sinks.
func (m *MultiSink) Len() int { return len(m.sinks) }

func (m *MultiSink) WriteTables(ctx context.Context, tables []domain.RegionTable) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.WriteTables(ctx, tables); err != nil {
			m.logger.Error("sink write failed", "sink", s.Name(), "error", err)
			m.metrics.SinkErrors.WithLabelValues(s.Name()).Inc()
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		m.metrics.TablesWritten.WithLabelValues(s.Name()).Add(float64(len(tables)))
		m.logger.Debug("sink written", "sink", s.Name(), "tables", len(tables))
	}
	return errors.Join(errs...)
}
