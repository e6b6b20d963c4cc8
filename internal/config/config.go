package config

import (
	"errors"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/reverse-r-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	SnapshotDir string
	OutputDir   string
	ChartDir    string

	Kernel        domain.KernelParams
	Smoothing     domain.SmoothingParams
	Thresholds    domain.RThresholds
	DeathEstimate domain.DeathEstimateParams
	Cutover       time.Time
	OverridesFile string
	Workers       int

	KafkaBrokers []string
	KafkaTopic   string
	RedisAddr    string
	RedisDB      int

	HTTPAddr        string
	RebuildInterval time.Duration
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	defKernel := domain.DefaultKernelParams()
	windowLength, err := intEnv("KERNEL_WINDOW_LENGTH", defKernel.WindowLength)
	if err != nil {
		return nil, err
	}
	kernelOffset, err := intEnv("KERNEL_OFFSET", defKernel.Offset)
	if err != nil {
		return nil, err
	}
	kernelCenter, err := intEnv("KERNEL_CENTER", defKernel.Center)
	if err != nil {
		return nil, err
	}
	kernel := domain.KernelParams{WindowLength: windowLength, Offset: kernelOffset, Center: kernelCenter}
	if err := kernel.Validate(); err != nil {
		return nil, errors.New("invalid KERNEL_WINDOW_LENGTH/KERNEL_CENTER: " + err.Error())
	}

	defSmooth := domain.DefaultSmoothingParams()
	smoothWindow, err := intEnv("SMOOTHING_WINDOW", defSmooth.Window)
	if err != nil {
		return nil, err
	}
	if smoothWindow <= 0 {
		return nil, errors.New("invalid SMOOTHING_WINDOW")
	}
	smoothOffset, err := intEnv("SMOOTHING_OFFSET", defSmooth.Offset)
	if err != nil {
		return nil, err
	}

	defTh := domain.DefaultRThresholds()
	minCases, err := intEnv("R_MIN_TOTAL_CASES", int(defTh.MinTotalCases))
	if err != nil {
		return nil, err
	}
	minWeight, err := floatEnv("R_MIN_WEIGHT", defTh.MinWeight)
	if err != nil {
		return nil, err
	}

	defDeath := domain.DefaultDeathEstimateParams()
	deathScale, err := floatEnv("DEATH_ESTIMATE_SCALE", defDeath.Scale)
	if err != nil {
		return nil, err
	}
	deathLag, err := intEnv("DEATH_ESTIMATE_LAG", defDeath.Lag)
	if err != nil {
		return nil, err
	}
	if deathLag < 0 {
		return nil, errors.New("invalid DEATH_ESTIMATE_LAG")
	}

	cutover := domain.DefaultSchemaCutover
	if s := os.Getenv("SCHEMA_CUTOVER_DATE"); s != "" {
		cutover, err = time.Parse(time.DateOnly, s)
		if err != nil {
			return nil, errors.New("invalid SCHEMA_CUTOVER_DATE")
		}
	}

	workers, err := intEnv("WORKERS", 4)
	if err != nil {
		return nil, err
	}
	if workers <= 0 {
		return nil, errors.New("invalid WORKERS")
	}

	redisDB, err := intEnv("REDIS_DB", 0)
	if err != nil {
		return nil, err
	}

	rebuild, err := time.ParseDuration(sharedcfg.EnvOrDefault("REBUILD_INTERVAL", "0s"))
	if err != nil || rebuild < 0 {
		return nil, errors.New("invalid REBUILD_INTERVAL")
	}

	var brokers []string
	if s := os.Getenv("KAFKA_BROKERS"); s != "" {
		brokers = sharedcfg.ParseBrokers(s)
	}

	cfg := &Config{
		SnapshotDir: sharedcfg.EnvOrDefault("SNAPSHOT_DIR", "COVID-19/csse_covid_19_data/csse_covid_19_daily_reports"),
		OutputDir:   envOrEmpty("OUTPUT_DIR", "processed-data"),
		ChartDir:    os.Getenv("CHART_DIR"),

		Kernel:        kernel,
		Smoothing:     domain.SmoothingParams{Window: smoothWindow, Offset: smoothOffset},
		Thresholds:    domain.RThresholds{MinTotalCases: int64(minCases), MinWeight: minWeight},
		DeathEstimate: domain.DeathEstimateParams{Scale: deathScale, Lag: deathLag},
		Cutover:       cutover,
		OverridesFile: os.Getenv("OVERRIDES_FILE"),
		Workers:       workers,

		KafkaBrokers: brokers,
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "region-curves"),
		RedisAddr:    os.Getenv("REDIS_ADDR"),
		RedisDB:      redisDB,

		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		RebuildInterval: rebuild,
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.SnapshotDir == "" {
		return nil, errors.New("SNAPSHOT_DIR is required")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaTopic == "" {
		return nil, errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.RebuildInterval > 0 && cfg.HTTPAddr == "" {
		return nil, errors.New("HTTP_ADDR is required when REBUILD_INTERVAL is set")
	}

	return cfg, nil
}

// envOrEmpty is EnvOrDefault that lets an explicitly empty value through,
// so a sink with a default location can still be switched off.
func envOrEmpty(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return def
}

func intEnv(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, errors.New("invalid " + key)
	}
	return n, nil
}

func floatEnv(key string, def float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return 0, errors.New("invalid " + key)
	}
	return f, nil
}
