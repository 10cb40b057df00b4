package domain

import "sort"

// Summarize computes dataset statistics over a set of price records.
// Returns the zero Stats for an empty input.
func Summarize(records []PriceRecord) Stats {
	if len(records) == 0 {
		return Stats{}
	}

	prices := make([]float64, 0, len(records))
	postcodes := make(map[string]struct{}, len(records))
	sum := 0.0
	for _, rec := range records {
		prices = append(prices, rec.PricePerSqm)
		sum += rec.PricePerSqm
		postcodes[NormalizePostcode(rec.Postcode)] = struct{}{}
	}
	sort.Float64s(prices)

	return Stats{
		TotalRecords:    len(records),
		UniquePostcodes: len(postcodes),
		MinPrice:        prices[0],
		MaxPrice:        prices[len(prices)-1],
		MeanPrice:       sum / float64(len(prices)),
		MedianPrice:     median(prices),
	}
}

// median expects a sorted slice.
func median(sorted []float64) float64 {
	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Areas returns the distinct area labels present in the records, sorted.
func Areas(records []PriceRecord) []string {
	seen := make(map[string]struct{})
	for _, rec := range records {
		if rec.Area != "" {
			seen[rec.Area] = struct{}{}
		}
	}
	areas := make([]string, 0, len(seen))
	for area := range seen {
		areas = append(areas, area)
	}
	sort.Strings(areas)
	return areas
}

// TallyGeocoding counts records per coordinate source.
func TallyGeocoding(records []PriceRecord) GeocodeTally {
	var tally GeocodeTally
	for _, rec := range records {
		switch rec.GeoSource {
		case GeoSourceLookup:
			tally.Lookup++
		case GeoSourceRegion:
			tally.Region++
		case GeoSourceFallback:
			tally.Fallback++
		}
	}
	return tally
}
