package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.RowsParsed.Add(3)
	a.TablesWritten.WithLabelValues("csv").Inc()

	assert.InDelta(t, 3.0, testutil.ToFloat64(a.RowsParsed), 0)
	assert.InDelta(t, 0.0, testutil.ToFloat64(b.RowsParsed), 0)
	assert.InDelta(t, 1.0, testutil.ToFloat64(a.TablesWritten.WithLabelValues("csv")), 0)
}
