package domain

import "time"

// GeoSource identifies which rung of the resolution ladder produced a
// record's coordinate.
const (
	GeoSourceLookup   = "lookup"   // exact or spacing-variant table match
	GeoSourceRegion   = "region"   // postcode-area centroid estimate
	GeoSourceFallback = "fallback" // fixed city-centre coordinate
)

// Coordinate is a WGS-84 latitude/longitude pair.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// IsZero reports whether the coordinate is the zero value. (0,0) is in the
// Gulf of Guinea, not the UK, so it doubles as the "unset" sentinel.
func (c Coordinate) IsZero() bool {
	return c.Lat == 0 && c.Lon == 0
}

// PriceRecord is one house-price transaction loaded from a source CSV.
// Immutable once loaded; coordinate fields are attached during geocoding.
type PriceRecord struct {
	Postcode     string    `json:"postcode"`
	PricePerSqm  float64   `json:"price_per_sqm"`
	Year         int       `json:"year"`
	TransferDate time.Time `json:"transfer_date,omitempty"`
	Area         string    `json:"area"`

	Geo       Coordinate `json:"geo"`
	GeoSource string     `json:"geo_source,omitempty"`
}

// DistrictAggregate is the per-district summary derived from filtered
// records. Recomputed per filter change, never persisted.
type DistrictAggregate struct {
	District    string     `json:"district"`
	MeanPrice   float64    `json:"mean_price"`
	SampleCount int        `json:"sample_count"`
	Centroid    Coordinate `json:"centroid"`
	Area        string     `json:"area"`
}

// Stats summarizes a set of price records.
type Stats struct {
	TotalRecords    int     `json:"total_records"`
	UniquePostcodes int     `json:"unique_postcodes"`
	MinPrice        float64 `json:"min_price"`
	MaxPrice        float64 `json:"max_price"`
	MeanPrice       float64 `json:"mean_price"`
	MedianPrice     float64 `json:"median_price"`
}

// GeocodeTally counts how records resolved across the coordinate ladder.
type GeocodeTally struct {
	Lookup   int `json:"lookup"`
	Region   int `json:"region"`
	Fallback int `json:"fallback"`
}

// Snapshot is the immutable result of one pipeline run. The HTTP layer
// re-filters and re-aggregates from it per request.
type Snapshot struct {
	ID          string              `json:"id"`
	GeneratedAt time.Time           `json:"generated_at"`
	Records     []PriceRecord       `json:"-"`
	Districts   []DistrictAggregate `json:"districts"`
	Stats       Stats               `json:"stats"`
	Geocoding   GeocodeTally        `json:"geocoding"`
}
