package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Config holds all ingestion service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string
	KafkaSourceTopic string
	KafkaSinkTopic   string // optional; empty disables the Kafka sink
	KafkaGroupID     string
	HTTPAddr         string
	LogLevel         string
	LogFormat        string
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Sinks for flattened rows.
	TablePath  string // CSV table read by the analysis CLI
	SQLitePath string // optional; empty disables the SQLite sink
	RowLimit   int    // 0 means unlimited

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	mapboxTimeoutStr := sharedcfg.EnvOrDefault("MAPBOX_TIMEOUT", "5s")
	mapboxTimeout, err2 := time.ParseDuration(mapboxTimeoutStr)
	if err2 != nil || mapboxTimeout <= 0 {
		return nil, errors.New("invalid MAPBOX_TIMEOUT")
	}

	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}

	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	rowLimit, err := parseNonNegativeInt("OUTPUT_ROW_LIMIT", 0)
	if err != nil {
		return nil, err
	}

	mapboxCacheSize := parseMapboxCacheSize()

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "f1-race-sessions"),
		KafkaSinkTopic:     os.Getenv("KAFKA_SINK_TOPIC"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "f1-weather-etl"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		TablePath:  sharedcfg.EnvOrDefault("OUTPUT_CSV_PATH", "data/race_results.csv"),
		SQLitePath: os.Getenv("SQLITE_PATH"),
		RowLimit:   rowLimit,

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: mapboxCacheSize,
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.TablePath == "" {
		return nil, errors.New("OUTPUT_CSV_PATH is required")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// Analysis holds defaults for the analysis CLI. Command-line flags override them.
type Analysis struct {
	TablePath   string
	TopN        int
	OverlayMode string
	Format      string
	Strict      bool
	LogLevel    string
	LogFormat   string
}

// LoadAnalysis reads the analysis CLI defaults from environment variables.
func LoadAnalysis() (*Analysis, error) {
	topN, err := parseNonNegativeInt("F1_TOP_N", 5)
	if err != nil {
		return nil, err
	}
	if topN == 0 {
		return nil, errors.New("F1_TOP_N must be positive")
	}

	strict := false
	if v := os.Getenv("F1_NORMALIZE_STRICT"); v != "" {
		strict, err = strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("invalid F1_NORMALIZE_STRICT %q: %w", v, err)
		}
	}

	return &Analysis{
		TablePath:   sharedcfg.EnvOrDefault("F1_TABLE", "data/race_results.csv"),
		TopN:        topN,
		OverlayMode: sharedcfg.EnvOrDefault("F1_OVERLAY_MODE", "union"),
		Format:      sharedcfg.EnvOrDefault("F1_FORMAT", "table"),
		Strict:      strict,
		LogLevel:    sharedcfg.EnvOrDefault("LOG_LEVEL", "warn"),
		LogFormat:   sharedcfg.EnvOrDefault("LOG_FORMAT", "text"),
	}, nil
}

func parseNonNegativeInt(key string, def int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a non-negative integer", key, s)
	}
	return n, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
