// Package pipeline orchestrates the load → geocode → aggregate batch run and
// holds the resulting snapshot for the HTTP layer.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/fernhall/house-price-map-service/internal/adapter/postcodes"
	"github.com/fernhall/house-price-map-service/internal/domain"
	"github.com/fernhall/house-price-map-service/internal/observability"
)

// RecordLoader reads price records from the configured sources.
type RecordLoader interface {
	LoadRecords(ctx context.Context) ([]domain.PriceRecord, error)
}

// CoordinateResolver resolves a postcode to a coordinate, always answering.
// The outcome is one of the postcodes.Outcome* constants.
type CoordinateResolver interface {
	Resolve(postcode string) (domain.Coordinate, string)
}

// AggregatePublisher exports a finished snapshot to an external sink.
type AggregatePublisher interface {
	PublishAggregates(ctx context.Context, snapshot *domain.Snapshot) error
}

// Pipeline runs the batch ETL and retains the latest snapshot. A run is
// synchronous and single-threaded; the only shared state is the atomically
// swapped snapshot pointer read by HTTP handlers.
type Pipeline struct {
	loader     RecordLoader
	resolver   CoordinateResolver
	publishers []AggregatePublisher
	logger     *slog.Logger
	metrics    *observability.Metrics
	clock      clockwork.Clock

	snapshot atomic.Pointer[domain.Snapshot]
}

// New creates a Pipeline. Pass a real clock in production; tests inject a
// fake for deterministic snapshot timestamps.
func New(loader RecordLoader, resolver CoordinateResolver, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Pipeline {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Pipeline{
		loader:   loader,
		resolver: resolver,
		logger:   logger,
		metrics:  metrics,
		clock:    clock,
	}
}

// AddPublisher registers an export sink invoked after each successful run.
// Publisher failures are logged, never fatal.
func (p *Pipeline) AddPublisher(pub AggregatePublisher) {
	p.publishers = append(p.publishers, pub)
}

// CheckReadiness returns nil once at least one snapshot has been built.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if p.snapshot.Load() == nil {
		return errors.New("no snapshot built yet")
	}
	return nil
}

// Snapshot returns the latest snapshot, or nil before the first run.
func (p *Pipeline) Snapshot() *domain.Snapshot {
	return p.snapshot.Load()
}

// Run executes one load-geocode-aggregate cycle and swaps in the new
// snapshot.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)

	records, err := p.loader.LoadRecords(ctx)
	if err != nil {
		return fmt.Errorf("load records: %w", err)
	}

	p.geocode(records)

	snapshot := &domain.Snapshot{
		ID:          uuid.NewString(),
		GeneratedAt: p.clock.Now().UTC(),
		Records:     records,
		Districts:   domain.AggregateByDistrict(records),
		Stats:       domain.Summarize(records),
		Geocoding:   domain.TallyGeocoding(records),
	}
	p.snapshot.Store(snapshot)

	p.metrics.DistrictsAggregated.Set(float64(len(snapshot.Districts)))
	p.metrics.SnapshotTimestamp.Set(float64(snapshot.GeneratedAt.Unix()))
	p.metrics.PipelineRunDuration.Observe(time.Since(start).Seconds())

	p.logger.Info("pipeline run complete",
		"snapshot_id", snapshot.ID,
		"records", len(records),
		"districts", len(snapshot.Districts),
		"geocoded", snapshot.Geocoding.Lookup,
		"region_estimates", snapshot.Geocoding.Region,
		"fallbacks", snapshot.Geocoding.Fallback,
	)

	p.publish(ctx, snapshot)
	return nil
}

// geocode attaches a coordinate to every record via the resolution ladder.
func (p *Pipeline) geocode(records []domain.PriceRecord) {
	for i := range records {
		coord, outcome := p.resolver.Resolve(records[i].Postcode)
		records[i].Geo = coord
		records[i].GeoSource = postcodes.GeoSourceFor(outcome)
		p.metrics.LookupResults.WithLabelValues(outcome).Inc()
	}
}

func (p *Pipeline) publish(ctx context.Context, snapshot *domain.Snapshot) {
	for _, pub := range p.publishers {
		if err := pub.PublishAggregates(ctx, snapshot); err != nil {
			p.logger.Error("aggregate export failed", "error", err)
		}
	}
}
