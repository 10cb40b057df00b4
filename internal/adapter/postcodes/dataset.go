package postcodes

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/fernhall/house-price-map-service/internal/domain"
)

// Downloader fetches the postcode dataset archive over HTTP.
type Downloader struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewDownloader creates a dataset downloader.
func NewDownloader(url string, timeout time.Duration, logger *slog.Logger) *Downloader {
	return &Downloader{
		url: url,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// FetchDataset downloads the zip archive, extracts the postcode CSV, and
// parses it into a lookup map. The archive is expected to contain a CSV with
// Postcode, Latitude, and Longitude columns (Doogal/ONS layout).
func (d *Downloader) FetchDataset(ctx context.Context) (map[string]domain.Coordinate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	d.logger.Info("downloading postcode dataset", "url", d.url)
	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download postcode dataset: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download postcode dataset: status %d", resp.StatusCode)
	}

	archive, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read dataset archive: %w", err)
	}

	csvReader, err := openArchiveCSV(archive)
	if err != nil {
		return nil, err
	}
	return ParseDataset(csvReader)
}

// openArchiveCSV finds the postcode CSV inside the zip archive, preferring a
// file named postcodes.csv and falling back to the first .csv entry.
func openArchiveCSV(archive []byte) (io.Reader, error) {
	zr, err := zip.NewReader(bytes.NewReader(archive), int64(len(archive)))
	if err != nil {
		return nil, fmt.Errorf("open dataset archive: %w", err)
	}

	var chosen *zip.File
	for _, f := range zr.File {
		name := strings.ToLower(f.Name)
		if !strings.HasSuffix(name, ".csv") {
			continue
		}
		if strings.HasSuffix(name, "postcodes.csv") {
			chosen = f
			break
		}
		if chosen == nil {
			chosen = f
		}
	}
	if chosen == nil {
		return nil, fmt.Errorf("dataset archive contains no CSV file")
	}

	rc, err := chosen.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s in archive: %w", chosen.Name, err)
	}
	defer rc.Close()

	// Archives decompress to a few hundred MB at most; buffering keeps the
	// zip reader lifetime out of the parser.
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", chosen.Name, err)
	}
	return bytes.NewReader(data), nil
}

// ParseDataset reads a postcode CSV into a lookup map. Keys keep the
// dataset's own spacing, trimmed and uppercased; rows without valid
// coordinates are skipped.
func ParseDataset(r io.Reader) (map[string]domain.Coordinate, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}

	cols := indexColumns(header)
	pcIdx, ok := cols["postcode"]
	if !ok {
		return nil, fmt.Errorf("dataset missing Postcode column, got %v", header)
	}
	latIdx, ok := cols["latitude"]
	if !ok {
		return nil, fmt.Errorf("dataset missing Latitude column, got %v", header)
	}
	lonIdx, ok := cols["longitude"]
	if !ok {
		return nil, fmt.Errorf("dataset missing Longitude column, got %v", header)
	}

	entries := make(map[string]domain.Coordinate)
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read dataset row: %w", err)
		}
		if pcIdx >= len(row) || latIdx >= len(row) || lonIdx >= len(row) {
			continue
		}

		postcode := strings.ToUpper(strings.TrimSpace(row[pcIdx]))
		if postcode == "" {
			continue
		}
		lat, errLat := strconv.ParseFloat(strings.TrimSpace(row[latIdx]), 64)
		lon, errLon := strconv.ParseFloat(strings.TrimSpace(row[lonIdx]), 64)
		if errLat != nil || errLon != nil {
			continue
		}
		entries[postcode] = domain.Coordinate{Lat: lat, Lon: lon}
	}
	return entries, nil
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}
