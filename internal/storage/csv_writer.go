package storage

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fernhall/house-price-map-service/internal/domain"
)

// CSVWriter exports district aggregates to a CSV file, rewriting the file on
// every publish so it always reflects the latest snapshot.
type CSVWriter struct {
	path string
}

// NewCSVWriter creates a CSV export writer. Intermediate directories are
// created on the first publish.
func NewCSVWriter(path string) *CSVWriter {
	return &CSVWriter{path: path}
}

func (w *CSVWriter) PublishAggregates(_ context.Context, snapshot *domain.Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0o755); err != nil {
		return fmt.Errorf("csv export: create output dir: %w", err)
	}

	f, err := os.Create(w.path)
	if err != nil {
		return fmt.Errorf("csv export: create %q: %w", w.path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	header := []string{"snapshot_id", "generated_at", "district", "mean_price", "sample_count", "lat", "lon", "area"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("csv export: write header: %w", err)
	}

	generatedAt := snapshot.GeneratedAt.Format(time.RFC3339)
	for _, agg := range snapshot.Districts {
		row := []string{
			snapshot.ID,
			generatedAt,
			agg.District,
			strconv.FormatFloat(agg.MeanPrice, 'f', 2, 64),
			strconv.Itoa(agg.SampleCount),
			strconv.FormatFloat(agg.Centroid.Lat, 'f', 6, 64),
			strconv.FormatFloat(agg.Centroid.Lon, 'f', 6, 64),
			agg.Area,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("csv export: write row: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv export: flush: %w", err)
	}
	return nil
}

func (w *CSVWriter) Close() error {
	return nil
}
