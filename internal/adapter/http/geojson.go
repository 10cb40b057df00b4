package http

import "github.com/fernhall/house-price-map-service/internal/domain"

// FeatureCollection is a standard GeoJSON feature collection.
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single GeoJSON feature with point geometry.
type Feature struct {
	Type       string         `json:"type"`
	Geometry   Geometry       `json:"geometry"`
	Properties map[string]any `json:"properties"`
}

// Geometry holds a Point geometry. Coordinates are in GeoJSON [lon, lat] order.
type Geometry struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// maxHeatWeight caps the influence of very dense districts so a handful of
// high-volume areas cannot wash out the rest of the map.
const maxHeatWeight = 3.0

// BuildHeatmap converts district aggregates into a GeoJSON FeatureCollection
// for the client-side heat layer.
func BuildHeatmap(districts []domain.DistrictAggregate) FeatureCollection {
	features := make([]Feature, 0, len(districts))
	for _, agg := range districts {
		features = append(features, Feature{
			Type: "Feature",
			Geometry: Geometry{
				Type:        "Point",
				Coordinates: []float64{agg.Centroid.Lon, agg.Centroid.Lat},
			},
			Properties: map[string]any{
				"district":     agg.District,
				"mean_price":   agg.MeanPrice,
				"sample_count": agg.SampleCount,
				"area":         agg.Area,
				"weight":       heatWeight(agg.SampleCount),
			},
		})
	}
	return FeatureCollection{Type: "FeatureCollection", Features: features}
}

// heatWeight scales a district's heat contribution by sample count:
// one unit per five samples, floored at 1 and capped at maxHeatWeight.
func heatWeight(sampleCount int) float64 {
	w := float64(sampleCount) / 5
	if w < 1 {
		return 1
	}
	if w > maxHeatWeight {
		return maxHeatWeight
	}
	return w
}
