package postcodes

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernhall/house-price-map-service/internal/domain"
)

const datasetCSV = `Postcode,Latitude,Longitude,In Use?
N2 9QL,51.5922,-0.1715,Yes
SW1A 1AA,51.5010,-0.1416,Yes
EC1A 1BB,51.5200,-0.0970,Yes
BADROW,,not-a-number,Yes
,51.0,0.0,Yes
`

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func zipArchive(t *testing.T, name, contents string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(contents))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestParseDataset(t *testing.T) {
	entries, err := ParseDataset(strings.NewReader(datasetCSV))
	require.NoError(t, err)

	assert.Len(t, entries, 3, "rows without valid coordinates or postcode are skipped")
	assert.Equal(t, domain.Coordinate{Lat: 51.5922, Lon: -0.1715}, entries["N2 9QL"])
	assert.Equal(t, domain.Coordinate{Lat: 51.5010, Lon: -0.1416}, entries["SW1A 1AA"])
}

func TestParseDataset_MissingColumns(t *testing.T) {
	_, err := ParseDataset(strings.NewReader("Postcode,Easting,Northing\nN2 9QL,1,2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Latitude")
}

func TestFetchDataset(t *testing.T) {
	archive := zipArchive(t, "postcodes.csv", datasetCSV)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/zip")
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	d := NewDownloader(srv.URL, 5*time.Second, discardLogger())
	entries, err := d.FetchDataset(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 3)
}

func TestFetchDataset_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	d := NewDownloader(srv.URL, 5*time.Second, discardLogger())
	_, err := d.FetchDataset(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")
}

func TestFetchDataset_NotAZip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("plain text, not an archive"))
	}))
	defer srv.Close()

	d := NewDownloader(srv.URL, 5*time.Second, discardLogger())
	_, err := d.FetchDataset(context.Background())
	require.Error(t, err)
}

func TestFetchDataset_ArchiveWithoutCSV(t *testing.T) {
	archive := zipArchive(t, "readme.txt", "no data here")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(archive)
	}))
	defer srv.Close()

	d := NewDownloader(srv.URL, 5*time.Second, discardLogger())
	_, err := d.FetchDataset(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no CSV")
}
