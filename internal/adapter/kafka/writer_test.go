package kafka

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fernhall/house-price-map-service/internal/domain"
)

func TestSerializeToMessage(t *testing.T) {
	snapshot := &domain.Snapshot{
		ID:          "snap-1",
		GeneratedAt: time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC),
	}
	agg := domain.DistrictAggregate{
		District:    "N2",
		MeanPrice:   7000,
		SampleCount: 3,
		Centroid:    domain.Coordinate{Lat: 51.6, Lon: -0.17},
		Area:        "Barnet",
	}

	msg, err := serializeToMessage(snapshot, agg)
	require.NoError(t, err)

	assert.Equal(t, []byte("N2"), msg.Key)

	var decoded domain.DistrictAggregate
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, agg, decoded)

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "snap-1", headers["snapshot_id"])
	assert.Equal(t, "2026-08-29T12:00:00Z", headers["generated_at"])
}
