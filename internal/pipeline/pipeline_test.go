package pipeline_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernhall/house-price-map-service/internal/adapter/postcodes"
	"github.com/fernhall/house-price-map-service/internal/domain"
	"github.com/fernhall/house-price-map-service/internal/observability"
	"github.com/fernhall/house-price-map-service/internal/pipeline"
)

// --- mocks ---

type mockLoader struct {
	records []domain.PriceRecord
	err     error
}

func (m *mockLoader) LoadRecords(_ context.Context) ([]domain.PriceRecord, error) {
	return m.records, m.err
}

type mockResolver struct {
	known map[string]domain.Coordinate
}

func (m *mockResolver) Resolve(postcode string) (domain.Coordinate, string) {
	if coord, ok := m.known[domain.NormalizePostcode(postcode)]; ok {
		return coord, postcodes.OutcomeExact
	}
	return postcodes.CentralLondon, postcodes.OutcomeFallback
}

type mockPublisher struct {
	published []*domain.Snapshot
	err       error
}

func (m *mockPublisher) PublishAggregates(_ context.Context, s *domain.Snapshot) error {
	m.published = append(m.published, s)
	return m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRecords() []domain.PriceRecord {
	return []domain.PriceRecord{
		{Postcode: "N2 9QL", PricePerSqm: 6000, Area: "Barnet", Year: 2024},
		{Postcode: "N2 8AB", PricePerSqm: 7000, Area: "Barnet", Year: 2024},
		{Postcode: "N2 7CD", PricePerSqm: 8000, Area: "Barnet", Year: 2024},
		{Postcode: "ZZ1 1ZZ", PricePerSqm: 9000, Area: "Nowhere", Year: 2024},
	}
}

func newPipeline(loader *mockLoader, now time.Time) (*pipeline.Pipeline, *mockResolver) {
	resolver := &mockResolver{known: map[string]domain.Coordinate{
		"N29QL": {Lat: 51.59, Lon: -0.17},
		"N28AB": {Lat: 51.60, Lon: -0.18},
		"N27CD": {Lat: 51.61, Lon: -0.16},
	}}
	p := pipeline.New(loader, resolver, discardLogger(), observability.NewMetricsForTesting(), clockwork.NewFakeClockAt(now))
	return p, resolver
}

// --- tests ---

func TestPipeline_Run_BuildsSnapshot(t *testing.T) {
	now := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)
	p, _ := newPipeline(&mockLoader{records: testRecords()}, now)

	require.NoError(t, p.Run(context.Background()))

	snapshot := p.Snapshot()
	require.NotNil(t, snapshot)
	assert.NotEmpty(t, snapshot.ID)
	assert.Equal(t, now, snapshot.GeneratedAt)
	assert.Len(t, snapshot.Records, 4)
	assert.Equal(t, 4, snapshot.Stats.TotalRecords)

	// Three N2 records clear the threshold; the single ZZ1 record does not.
	require.Len(t, snapshot.Districts, 1)
	assert.Equal(t, "N2", snapshot.Districts[0].District)
	assert.Equal(t, 3, snapshot.Districts[0].SampleCount)
	assert.InDelta(t, 7000, snapshot.Districts[0].MeanPrice, 0.001)
}

func TestPipeline_Run_AttachesGeoSources(t *testing.T) {
	p, _ := newPipeline(&mockLoader{records: testRecords()}, time.Now())

	require.NoError(t, p.Run(context.Background()))

	snapshot := p.Snapshot()
	assert.Equal(t, 3, snapshot.Geocoding.Lookup)
	assert.Equal(t, 1, snapshot.Geocoding.Fallback)

	for _, rec := range snapshot.Records {
		assert.False(t, rec.Geo.IsZero(), "every record gets a coordinate")
		assert.NotEmpty(t, rec.GeoSource)
	}
}

func TestPipeline_Readiness(t *testing.T) {
	p, _ := newPipeline(&mockLoader{records: testRecords()}, time.Now())

	require.Error(t, p.CheckReadiness(context.Background()))
	assert.Nil(t, p.Snapshot())

	require.NoError(t, p.Run(context.Background()))
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_LoaderErrorIsFatal(t *testing.T) {
	p, _ := newPipeline(&mockLoader{err: errors.New("disk gone")}, time.Now())

	err := p.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "load records")
	assert.Nil(t, p.Snapshot())
}

func TestPipeline_Run_PublisherErrorIsSoft(t *testing.T) {
	p, _ := newPipeline(&mockLoader{records: testRecords()}, time.Now())
	failing := &mockPublisher{err: errors.New("sink down")}
	working := &mockPublisher{}
	p.AddPublisher(failing)
	p.AddPublisher(working)

	require.NoError(t, p.Run(context.Background()))

	assert.Len(t, failing.published, 1)
	assert.Len(t, working.published, 1, "later publishers still run after a failure")
}

func TestPipeline_Run_EmptyLoadStillSnapshots(t *testing.T) {
	p, _ := newPipeline(&mockLoader{}, time.Now())

	require.NoError(t, p.Run(context.Background()))

	snapshot := p.Snapshot()
	require.NotNil(t, snapshot)
	assert.Empty(t, snapshot.Districts)
	assert.Equal(t, domain.Stats{}, snapshot.Stats)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_Run_ReplacesSnapshot(t *testing.T) {
	loader := &mockLoader{records: testRecords()}
	p, _ := newPipeline(loader, time.Now())

	require.NoError(t, p.Run(context.Background()))
	first := p.Snapshot().ID

	require.NoError(t, p.Run(context.Background()))
	assert.NotEqual(t, first, p.Snapshot().ID)
}
