package postcodes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernhall/house-price-map-service/internal/config"
	"github.com/fernhall/house-price-map-service/internal/observability"
)

func openConfig(url, cachePath string) *config.Config {
	return &config.Config{
		PostcodeCachePath:       cachePath,
		PostcodeDatasetURL:      url,
		PostcodeDownloadTimeout: 5 * time.Second,
	}
}

func TestOpen_DownloadsAndCaches(t *testing.T) {
	archive := zipArchive(t, "postcodes.csv", datasetCSV)
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits++
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	cachePath := filepath.Join(t.TempDir(), "lookup.gob")
	cfg := openConfig(srv.URL, cachePath)
	metrics := observability.NewMetricsForTesting()

	table := Open(context.Background(), cfg, discardLogger(), metrics)
	require.Equal(t, 3, table.Len())
	assert.Equal(t, 1, hits)

	// Second open must come from the cache artifact, not the network.
	table = Open(context.Background(), cfg, discardLogger(), metrics)
	require.Equal(t, 3, table.Len())
	assert.Equal(t, 1, hits)
}

func TestOpen_DownloadFailureDegradesToEmptyTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := openConfig(srv.URL, filepath.Join(t.TempDir(), "lookup.gob"))
	table := Open(context.Background(), cfg, discardLogger(), observability.NewMetricsForTesting())

	assert.Equal(t, 0, table.Len())

	// Lookups still answer with fallback coordinates.
	coord, outcome := table.Resolve("SW1A 1AA")
	assert.Equal(t, OutcomeRegion, outcome)
	assert.NotZero(t, coord.Lat)
}
