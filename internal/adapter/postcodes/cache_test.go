package postcodes

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernhall/house-price-map-service/internal/domain"
)

func TestCache_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "lookup.gob")
	entries := map[string]domain.Coordinate{
		"N2 9QL":   {Lat: 51.5922, Lon: -0.1715},
		"SW1A 1AA": {Lat: 51.5010, Lon: -0.1416},
	}

	require.NoError(t, SaveCache(path, entries))

	loaded, err := LoadCache(path)
	require.NoError(t, err)
	assert.Equal(t, entries, loaded)
}

func TestLoadCache_Missing(t *testing.T) {
	_, err := LoadCache(filepath.Join(t.TempDir(), "absent.gob"))
	assert.ErrorIs(t, err, errCacheMissing)
}

func TestLoadCache_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookup.gob")
	require.NoError(t, os.WriteFile(path, []byte("not gob data"), 0o644))

	_, err := LoadCache(path)
	require.Error(t, err)
	assert.NotErrorIs(t, err, errCacheMissing)
}

func TestSaveCache_ReplacesExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lookup.gob")

	require.NoError(t, SaveCache(path, map[string]domain.Coordinate{"N2 9QL": {Lat: 1, Lon: 2}}))
	require.NoError(t, SaveCache(path, map[string]domain.Coordinate{"E1 6AN": {Lat: 3, Lon: 4}}))

	loaded, err := LoadCache(path)
	require.NoError(t, err)
	assert.Len(t, loaded, 1)
	assert.Contains(t, loaded, "E1 6AN")
}
