package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/reverse-r-etl/internal/domain"
)

const defaultSnapshotDir = "COVID-19/csse_covid_19_data/csse_covid_19_daily_reports"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, defaultSnapshotDir, cfg.SnapshotDir)
	assert.Equal(t, "processed-data", cfg.OutputDir)
	assert.Empty(t, cfg.ChartDir)
	assert.Equal(t, domain.DefaultKernelParams(), cfg.Kernel)
	assert.Equal(t, domain.DefaultSmoothingParams(), cfg.Smoothing)
	assert.Equal(t, domain.DefaultRThresholds(), cfg.Thresholds)
	assert.Equal(t, domain.DefaultDeathEstimateParams(), cfg.DeathEstimate)
	assert.Equal(t, domain.DefaultSchemaCutover, cfg.Cutover)
	assert.Empty(t, cfg.OverridesFile)
	assert.Equal(t, 4, cfg.Workers)
	assert.Empty(t, cfg.KafkaBrokers)
	assert.Equal(t, "region-curves", cfg.KafkaTopic)
	assert.Empty(t, cfg.RedisAddr)
	assert.Zero(t, cfg.RedisDB)
	assert.Empty(t, cfg.HTTPAddr)
	assert.Zero(t, cfg.RebuildInterval)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("SNAPSHOT_DIR", "/data/reports")
	t.Setenv("OUTPUT_DIR", "/data/out")
	t.Setenv("CHART_DIR", "/data/charts")
	t.Setenv("KERNEL_WINDOW_LENGTH", "20")
	t.Setenv("KERNEL_OFFSET", "-12")
	t.Setenv("KERNEL_CENTER", "14")
	t.Setenv("SMOOTHING_WINDOW", "5")
	t.Setenv("SMOOTHING_OFFSET", "2")
	t.Setenv("R_MIN_TOTAL_CASES", "50")
	t.Setenv("R_MIN_WEIGHT", "0.001")
	t.Setenv("DEATH_ESTIMATE_SCALE", "100")
	t.Setenv("DEATH_ESTIMATE_LAG", "10")
	t.Setenv("SCHEMA_CUTOVER_DATE", "2020-03-23")
	t.Setenv("OVERRIDES_FILE", "/etc/reverse-r/overrides.yaml")
	t.Setenv("WORKERS", "8")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_TOPIC", "curves")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("REBUILD_INTERVAL", "6h")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/reports", cfg.SnapshotDir)
	assert.Equal(t, "/data/out", cfg.OutputDir)
	assert.Equal(t, "/data/charts", cfg.ChartDir)
	assert.Equal(t, domain.KernelParams{WindowLength: 20, Offset: -12, Center: 14}, cfg.Kernel)
	assert.Equal(t, domain.SmoothingParams{Window: 5, Offset: 2}, cfg.Smoothing)
	assert.Equal(t, domain.RThresholds{MinTotalCases: 50, MinWeight: 0.001}, cfg.Thresholds)
	assert.Equal(t, domain.DeathEstimateParams{Scale: 100, Lag: 10}, cfg.DeathEstimate)
	assert.Equal(t, time.Date(2020, time.March, 23, 0, 0, 0, 0, time.UTC), cfg.Cutover)
	assert.Equal(t, "/etc/reverse-r/overrides.yaml", cfg.OverridesFile)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "curves", cfg.KafkaTopic)
	assert.Equal(t, "localhost:6379", cfg.RedisAddr)
	assert.Equal(t, 2, cfg.RedisDB)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, 6*time.Hour, cfg.RebuildInterval)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_EmptyOutputDirDisablesCSV(t *testing.T) {
	t.Setenv("OUTPUT_DIR", "")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Empty(t, cfg.OutputDir)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
		want  string
	}{
		{"SHUTDOWN_TIMEOUT", "not-a-duration", "SHUTDOWN_TIMEOUT"},
		{"SHUTDOWN_TIMEOUT", "-1s", "SHUTDOWN_TIMEOUT"},
		{"KERNEL_WINDOW_LENGTH", "sixteen", "KERNEL_WINDOW_LENGTH"},
		{"KERNEL_WINDOW_LENGTH", "0", "KERNEL_WINDOW_LENGTH"},
		{"KERNEL_CENTER", "17", "KERNEL_CENTER"},
		{"KERNEL_OFFSET", "x", "KERNEL_OFFSET"},
		{"SMOOTHING_WINDOW", "0", "SMOOTHING_WINDOW"},
		{"SMOOTHING_OFFSET", "1.5", "SMOOTHING_OFFSET"},
		{"R_MIN_TOTAL_CASES", "many", "R_MIN_TOTAL_CASES"},
		{"R_MIN_WEIGHT", "-1", "R_MIN_WEIGHT"},
		{"DEATH_ESTIMATE_SCALE", "abc", "DEATH_ESTIMATE_SCALE"},
		{"DEATH_ESTIMATE_LAG", "-3", "DEATH_ESTIMATE_LAG"},
		{"SCHEMA_CUTOVER_DATE", "03-22-2020", "SCHEMA_CUTOVER_DATE"},
		{"WORKERS", "0", "WORKERS"},
		{"REDIS_DB", "one", "REDIS_DB"},
		{"REBUILD_INTERVAL", "-5m", "REBUILD_INTERVAL"},
	}

	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_RebuildIntervalRequiresHTTP(t *testing.T) {
	t.Setenv("REBUILD_INTERVAL", "1h")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP_ADDR")
}

func writeOverrides(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "overrides.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadOverrides_Empty(t *testing.T) {
	o, err := LoadOverrides("")
	require.NoError(t, err)

	errata, err := o.ErrataList()
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultErrata(), errata)

	opts := o.NormalizerOptions(domain.DefaultSchemaCutover)
	assert.Equal(t, domain.DefaultNameRules(), opts.Rules)
	assert.Equal(t, domain.DefaultDenylist(), opts.Denylist)
}

func TestLoadOverrides_File(t *testing.T) {
	path := writeOverrides(t, `
errata:
  - region: Spain
    date: 2020-04-24
    field: deaths
name_rules:
  - pattern: Burma
    canonical: Myanmar
    exact: true
denylist:
  - Recovered
`)

	o, err := LoadOverrides(path)
	require.NoError(t, err)

	errata, err := o.ErrataList()
	require.NoError(t, err)
	assert.Equal(t, []domain.Erratum{{
		Region: "Spain",
		Date:   time.Date(2020, time.April, 24, 0, 0, 0, 0, time.UTC),
		Field:  domain.FieldDeaths,
	}}, errata)

	opts := o.NormalizerOptions(domain.DefaultSchemaCutover)
	require.NotEmpty(t, opts.Rules)
	assert.Equal(t, domain.NameRule{Pattern: "Burma", Canonical: "Myanmar", Exact: true}, opts.Rules[0])
	assert.Len(t, opts.Rules, len(domain.DefaultNameRules())+1)
	assert.Contains(t, opts.Denylist, "Recovered")
	assert.Contains(t, opts.Denylist, "Others")

	n := domain.NewNormalizer(opts)
	got, ok := n.Canonical("Burma")
	require.True(t, ok)
	assert.Equal(t, "Myanmar", got)
	_, ok = n.Canonical("Recovered")
	assert.False(t, ok)
}

func TestLoadOverrides_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"bad yaml", "errata: [", "decode overrides"},
		{"bad date", "errata:\n  - region: Italy\n    date: 12/03/2020\n    field: cases\n", "invalid date"},
		{"bad field", "errata:\n  - region: Italy\n    date: 2020-03-12\n    field: recovered\n", "unknown erratum field"},
		{"missing region", "errata:\n  - date: 2020-03-12\n    field: cases\n", "region is required"},
		{"empty rule", "name_rules:\n  - pattern: Burma\n", "name_rules"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadOverrides(writeOverrides(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadOverrides_MissingFile(t *testing.T) {
	_, err := LoadOverrides(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read overrides")
}
