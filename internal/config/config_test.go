package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "data", cfg.DataDir)
	assert.Equal(t, 150000, cfg.MaxRowsPerFile)
	assert.Equal(t, 50000.0, cfg.PriceOutlierBound)
	assert.Equal(t, 2024, cfg.RecencyCutoffYear)
	assert.Equal(t, "data/postcodes/lookup.gob", cfg.PostcodeCachePath)
	assert.Equal(t, "https://www.doogal.co.uk/files/postcodes.zip", cfg.PostcodeDatasetURL)
	assert.Equal(t, 5*time.Minute, cfg.PostcodeDownloadTimeout)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.False(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "district-aggregates", cfg.KafkaSinkTopic)
	assert.Empty(t, cfg.PostgresDSN)
	assert.Equal(t, "output/district_aggregates.csv", cfg.ExportCSVPath)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("PRICE_DATA_DIR", "/srv/prices")
	t.Setenv("MAX_ROWS_PER_FILE", "500")
	t.Setenv("PRICE_OUTLIER_BOUND", "25000")
	t.Setenv("RECENCY_CUTOFF_YEAR", "2020")
	t.Setenv("POSTCODE_CACHE_PATH", "/var/cache/lookup.gob")
	t.Setenv("POSTCODE_DATASET_URL", "http://localhost:9000/postcodes.zip")
	t.Setenv("POSTCODE_DOWNLOAD_TIMEOUT", "30s")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("POSTGRES_DSN", "postgres://hp:hp@localhost/prices?sslmode=disable")
	t.Setenv("EXPORT_CSV_PATH", "/tmp/out.csv")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/srv/prices", cfg.DataDir)
	assert.Equal(t, 500, cfg.MaxRowsPerFile)
	assert.Equal(t, 25000.0, cfg.PriceOutlierBound)
	assert.Equal(t, 2020, cfg.RecencyCutoffYear)
	assert.Equal(t, "/var/cache/lookup.gob", cfg.PostcodeCachePath)
	assert.Equal(t, "http://localhost:9000/postcodes.zip", cfg.PostcodeDatasetURL)
	assert.Equal(t, 30*time.Second, cfg.PostcodeDownloadTimeout)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "postgres://hp:hp@localhost/prices?sslmode=disable", cfg.PostgresDSN)
	assert.Equal(t, "/tmp/out.csv", cfg.ExportCSVPath)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_NegativeDownloadTimeout(t *testing.T) {
	t.Setenv("POSTCODE_DOWNLOAD_TIMEOUT", "-1s")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTCODE_DOWNLOAD_TIMEOUT")
}

func TestLoad_InvalidOutlierBound(t *testing.T) {
	t.Setenv("PRICE_OUTLIER_BOUND", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PRICE_OUTLIER_BOUND")
}

func TestLoad_InvalidMaxRows(t *testing.T) {
	t.Setenv("MAX_ROWS_PER_FILE", "abc")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAX_ROWS_PER_FILE")
}

func TestLoad_KafkaEnabledWithoutBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", " ")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "KAFKA_BROKERS")
}
