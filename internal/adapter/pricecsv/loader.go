// Package pricecsv loads house-price transaction records from per-area CSV
// extracts on local disk.
package pricecsv

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/fernhall/house-price-map-service/internal/config"
	"github.com/fernhall/house-price-map-service/internal/domain"
	"github.com/fernhall/house-price-map-service/internal/observability"
)

// filePattern matches per-area extract files, e.g. "Camden_link_26122024.csv".
const filePattern = "*_link_*.csv"

// areaLabelRe strips the "_link_<date>.csv" suffix from an extract filename.
var areaLabelRe = regexp.MustCompile(`^(.+)_link_.*\.csv$`)

// transferDateLayouts are tried in order when parsing the dateoftransfer
// column; extracts are inconsistent across publication years.
var transferDateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"02/01/2006",
}

// Loader reads price records from a directory of CSV extracts, applying the
// row filters as it goes. File-level failures are logged and skipped.
type Loader struct {
	dataDir string
	maxRows int
	filter  domain.RecordFilter
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewLoader creates a Loader from service config.
func NewLoader(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	return &Loader{
		dataDir: cfg.DataDir,
		maxRows: cfg.MaxRowsPerFile,
		filter: domain.RecordFilter{
			MaxPrice: cfg.PriceOutlierBound,
			MinYear:  cfg.RecencyCutoffYear,
		},
		logger:  logger,
		metrics: metrics,
	}
}

// LoadRecords reads every extract file in the data directory. Missing or
// unparseable files degrade to fewer records, never to an error; the only
// error case is an unusable data directory pattern.
func (l *Loader) LoadRecords(ctx context.Context) ([]domain.PriceRecord, error) {
	paths, err := filepath.Glob(filepath.Join(l.dataDir, filePattern))
	if err != nil {
		return nil, fmt.Errorf("glob price files: %w", err)
	}
	if len(paths) == 0 {
		l.logger.Warn("no price extract files found", "dir", l.dataDir, "pattern", filePattern)
		return nil, nil
	}

	var records []domain.PriceRecord
	for _, path := range paths {
		if ctx.Err() != nil {
			return records, ctx.Err()
		}

		fileRecords, err := l.loadFile(path)
		if err != nil {
			l.logger.Warn("skipping price extract", "file", filepath.Base(path), "error", err)
			l.metrics.FileErrors.Inc()
			continue
		}
		l.metrics.FilesProcessed.Inc()
		records = append(records, fileRecords...)
	}

	l.metrics.RecordsLoaded.Add(float64(len(records)))
	l.logger.Info("price extracts loaded", "files", len(paths), "records", len(records))
	return records, nil
}

func (l *Loader) loadFile(path string) ([]domain.PriceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)

	pcIdx, ok := cols["postcode"]
	if !ok {
		return nil, fmt.Errorf("missing postcode column")
	}
	priceIdx, ok := cols["priceper"]
	if !ok {
		return nil, fmt.Errorf("missing priceper column")
	}
	yearIdx, hasYear := cols["year"]
	dateIdx, hasDate := cols["dateoftransfer"]
	if !hasYear && !hasDate {
		return nil, fmt.Errorf("missing year and dateoftransfer columns")
	}

	area := AreaLabel(path)

	var records []domain.PriceRecord
	for len(records) < l.maxRows {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			// A malformed row is a row problem, not a file problem.
			l.logger.Debug("malformed row", "file", filepath.Base(path), "error", err)
			continue
		}
		if pcIdx >= len(row) || priceIdx >= len(row) {
			continue
		}

		rec := domain.PriceRecord{
			Postcode:    strings.TrimSpace(row[pcIdx]),
			PricePerSqm: parseFloatOrZero(row[priceIdx]),
			Area:        area,
		}
		if hasYear && yearIdx < len(row) {
			rec.Year = parseIntOrZero(row[yearIdx])
		}
		if hasDate && dateIdx < len(row) {
			rec.TransferDate = parseTransferDate(row[dateIdx])
		}

		if reason, ok := l.filter.Check(rec); !ok {
			l.metrics.RecordsDropped.WithLabelValues(reason).Inc()
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}

// AreaLabel recovers the human-readable area name from an extract filename:
// "Kingston_upon_Thames_link_26122024.csv" → "Kingston upon Thames".
func AreaLabel(path string) string {
	base := filepath.Base(path)
	if m := areaLabelRe.FindStringSubmatch(base); len(m) == 2 {
		return strings.ReplaceAll(m[1], "_", " ")
	}
	return strings.ReplaceAll(strings.TrimSuffix(base, ".csv"), "_", " ")
}

func parseFloatOrZero(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

func parseIntOrZero(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return v
}

func parseTransferDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range transferDateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

func indexColumns(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return cols
}
