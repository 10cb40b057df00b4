package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
// A .env file in the working directory is loaded first when present.
type Config struct {
	DataDir        string
	MaxRowsPerFile int

	// Row-level filters applied while loading price CSVs.
	PriceOutlierBound float64
	RecencyCutoffYear int

	// Postcode lookup table configuration.
	PostcodeCachePath       string
	PostcodeDatasetURL      string
	PostcodeDownloadTimeout time.Duration

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Export sinks, all disabled by default.
	KafkaEnabled   bool
	KafkaBrokers   []string
	KafkaSinkTopic string
	PostgresDSN    string
	ExportCSVPath  string
}

// Load reads configuration from the environment, applying defaults where unset.
func Load() (*Config, error) {
	// Missing .env is the normal case in deployed environments.
	_ = godotenv.Load()

	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	downloadTimeout, err := parseDuration("POSTCODE_DOWNLOAD_TIMEOUT", "5m")
	if err != nil {
		return nil, err
	}
	maxRows, err := parseInt("MAX_ROWS_PER_FILE", 150000)
	if err != nil {
		return nil, err
	}
	outlierBound, err := parseFloat("PRICE_OUTLIER_BOUND", 50000)
	if err != nil {
		return nil, err
	}
	cutoffYear, err := parseInt("RECENCY_CUTOFF_YEAR", 2024)
	if err != nil {
		return nil, err
	}

	kafkaEnabled := false
	if v := os.Getenv("KAFKA_ENABLED"); v != "" {
		kafkaEnabled = v == "true"
	}

	cfg := &Config{
		DataDir:        envOrDefault("PRICE_DATA_DIR", "data"),
		MaxRowsPerFile: maxRows,

		PriceOutlierBound: outlierBound,
		RecencyCutoffYear: cutoffYear,

		PostcodeCachePath:       envOrDefault("POSTCODE_CACHE_PATH", "data/postcodes/lookup.gob"),
		PostcodeDatasetURL:      envOrDefault("POSTCODE_DATASET_URL", "https://www.doogal.co.uk/files/postcodes.zip"),
		PostcodeDownloadTimeout: downloadTimeout,

		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		KafkaEnabled:   kafkaEnabled,
		KafkaBrokers:   parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "district-aggregates"),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),
		ExportCSVPath:  envOrDefault("EXPORT_CSV_PATH", "output/district_aggregates.csv"),
	}

	if cfg.DataDir == "" {
		return nil, errors.New("PRICE_DATA_DIR is required")
	}
	if cfg.PostcodeCachePath == "" {
		return nil, errors.New("POSTCODE_CACHE_PATH is required")
	}
	if cfg.PriceOutlierBound <= 0 {
		return nil, errors.New("PRICE_OUTLIER_BOUND must be positive")
	}
	if cfg.MaxRowsPerFile <= 0 {
		return nil, errors.New("MAX_ROWS_PER_FILE must be positive")
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_BROKERS is not set")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_ENABLED is true but KAFKA_SINK_TOPIC is not set")
		}
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return n, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return f, nil
}

func parseBrokers(s string) []string {
	parts := strings.Split(s, ",")
	brokers := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			brokers = append(brokers, p)
		}
	}
	return brokers
}
