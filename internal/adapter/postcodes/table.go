// Package postcodes resolves UK postcodes to coordinates through an
// in-memory lookup table built from a downloadable dataset and persisted as
// a local cache artifact between runs.
package postcodes

import (
	"context"
	"log/slog"
	"time"

	"github.com/fernhall/house-price-map-service/internal/config"
	"github.com/fernhall/house-price-map-service/internal/domain"
	"github.com/fernhall/house-price-map-service/internal/observability"
)

// Lookup outcomes, used as metric labels and mapped to domain.GeoSource.
const (
	OutcomeExact    = "exact"
	OutcomeVariant  = "variant"
	OutcomeRegion   = "region"
	OutcomeFallback = "fallback"
)

// CentralLondon is the fixed fallback coordinate substituted when every
// lookup strategy misses.
var CentralLondon = domain.Coordinate{Lat: 51.5074, Lon: -0.1278}

// Table maps postcodes to coordinates. Entries keep the spacing used by the
// source dataset; lookups try the normalized form first and then the common
// spacing variants. The zero-entry table is valid: every lookup degrades to
// the regional or fixed fallback.
type Table struct {
	entries  map[string]domain.Coordinate
	regions  map[string]domain.Coordinate
	fallback domain.Coordinate
}

// NewTable builds a lookup table over the given entries.
func NewTable(entries map[string]domain.Coordinate) *Table {
	if entries == nil {
		entries = map[string]domain.Coordinate{}
	}
	return &Table{
		entries:  entries,
		regions:  regionCentroids(),
		fallback: CentralLondon,
	}
}

// Len reports the number of postcodes in the table.
func (t *Table) Len() int {
	return len(t.entries)
}

// Lookup returns the coordinate for a free-form postcode, or false when the
// postcode is absent in every supported spacing. It never fails on malformed
// input.
func (t *Table) Lookup(postcode string) (domain.Coordinate, bool) {
	coord, outcome := t.lookup(postcode)
	return coord, outcome == OutcomeExact || outcome == OutcomeVariant
}

// Resolve runs the full resolution ladder and always returns a coordinate:
// table match, postcode-area centroid, or the fixed fallback. The outcome is
// one of the Outcome* constants.
func (t *Table) Resolve(postcode string) (domain.Coordinate, string) {
	if coord, outcome := t.lookup(postcode); outcome != "" {
		return coord, outcome
	}
	if centroid, ok := t.regions[domain.Area(postcode)]; ok {
		return centroid, OutcomeRegion
	}
	return t.fallback, OutcomeFallback
}

func (t *Table) lookup(postcode string) (domain.Coordinate, string) {
	normalized := domain.NormalizePostcode(postcode)
	if normalized == "" {
		return domain.Coordinate{}, ""
	}
	if coord, ok := t.entries[normalized]; ok {
		return coord, OutcomeExact
	}
	for _, variant := range domain.SpacingVariants(normalized) {
		if coord, ok := t.entries[variant]; ok {
			return coord, OutcomeVariant
		}
	}
	return domain.Coordinate{}, ""
}

// GeoSourceFor maps a Resolve outcome to the record-level geo source.
func GeoSourceFor(outcome string) string {
	switch outcome {
	case OutcomeExact, OutcomeVariant:
		return domain.GeoSourceLookup
	case OutcomeRegion:
		return domain.GeoSourceRegion
	default:
		return domain.GeoSourceFallback
	}
}

// Open loads the lookup table: cache artifact first, otherwise download the
// dataset, build the table, and write the cache for subsequent runs. Every
// failure is a soft degradation to an empty table — callers still get
// fallback coordinates for all lookups.
func Open(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Table {
	start := time.Now()
	if entries, err := LoadCache(cfg.PostcodeCachePath); err == nil {
		metrics.CacheLoadDuration.Observe(time.Since(start).Seconds())
		metrics.TableSize.Set(float64(len(entries)))
		logger.Info("postcode cache loaded", "path", cfg.PostcodeCachePath, "entries", len(entries))
		return NewTable(entries)
	} else if err != errCacheMissing {
		logger.Warn("postcode cache unreadable, rebuilding", "path", cfg.PostcodeCachePath, "error", err)
	}

	downloader := NewDownloader(cfg.PostcodeDatasetURL, cfg.PostcodeDownloadTimeout, logger)

	downloadStart := time.Now()
	entries, err := downloader.FetchDataset(ctx)
	if err != nil {
		logger.Error("postcode dataset download failed, all lookups will use fallback coordinates", "error", err)
		metrics.TableSize.Set(0)
		return NewTable(nil)
	}
	metrics.DatasetDownload.Observe(time.Since(downloadStart).Seconds())
	metrics.TableSize.Set(float64(len(entries)))
	logger.Info("postcode dataset built", "entries", len(entries))

	if err := SaveCache(cfg.PostcodeCachePath, entries); err != nil {
		logger.Warn("postcode cache write failed", "path", cfg.PostcodeCachePath, "error", err)
	}

	return NewTable(entries)
}
