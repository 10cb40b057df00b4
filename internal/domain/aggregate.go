package domain

import "sort"

// MinDistrictSamples is the reliability threshold: districts with fewer
// records are dropped rather than reported with an unstable mean.
const MinDistrictSamples = 3

// AggregateByDistrict groups records by postal district and summarizes each
// group: mean price, sample count, centroid (mean of member coordinates),
// and the first-seen area label. Records with no extractable district are
// skipped. Results are sorted by district code for deterministic output.
func AggregateByDistrict(records []PriceRecord) []DistrictAggregate {
	type bucket struct {
		priceSum float64
		latSum   float64
		lonSum   float64
		count    int
		area     string
	}

	buckets := make(map[string]*bucket)
	for _, rec := range records {
		district := District(rec.Postcode)
		if district == "" {
			continue
		}
		b, ok := buckets[district]
		if !ok {
			b = &bucket{area: rec.Area}
			buckets[district] = b
		}
		b.priceSum += rec.PricePerSqm
		b.latSum += rec.Geo.Lat
		b.lonSum += rec.Geo.Lon
		b.count++
	}

	aggregates := make([]DistrictAggregate, 0, len(buckets))
	for district, b := range buckets {
		if b.count < MinDistrictSamples {
			continue
		}
		n := float64(b.count)
		aggregates = append(aggregates, DistrictAggregate{
			District:    district,
			MeanPrice:   b.priceSum / n,
			SampleCount: b.count,
			Centroid:    Coordinate{Lat: b.latSum / n, Lon: b.lonSum / n},
			Area:        b.area,
		})
	}

	sort.Slice(aggregates, func(i, j int) bool {
		return aggregates[i].District < aggregates[j].District
	})
	return aggregates
}

// FilterRecords returns the records within the given price bounds and area.
// Zero bounds and an empty area mean "no constraint". Used by the HTTP layer
// to re-aggregate per request without mutating the snapshot.
func FilterRecords(records []PriceRecord, minPrice, maxPrice float64, area string) []PriceRecord {
	out := make([]PriceRecord, 0, len(records))
	for _, rec := range records {
		if minPrice > 0 && rec.PricePerSqm < minPrice {
			continue
		}
		if maxPrice > 0 && rec.PricePerSqm > maxPrice {
			continue
		}
		if area != "" && rec.Area != area {
			continue
		}
		out = append(out, rec)
	}
	return out
}
