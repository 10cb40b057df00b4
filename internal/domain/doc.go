// Package domain models UK house-price transaction data and its postal geography.
//
// # Data Source
//
// Price records come from per-area CSV extracts derived from HM Land Registry
// price-paid data, one file per local authority (e.g. "Camden_link_26122024.csv").
// Each row carries the sold property's postcode, the price per square metre
// ("priceper"), and the transaction date as a "year" column, a "dateoftransfer"
// column, or both. The area label shown to users is recovered from the
// filename (underscores become spaces, the "_link_<date>" suffix is dropped).
//
// # UK Postcode Conventions
//
// A full postcode has an outward and an inward part separated by a space:
//
//	"SW1A 1AA"  →  outward "SW1A", inward "1AA"
//
// Source data spaces postcodes inconsistently ("N2 9QL", "N29QL", "n2  9ql"),
// so lookups normalize first: trim, uppercase, remove all internal spaces.
// When a normalized postcode misses the lookup table, the common formatting
// ambiguity is covered by re-inserting a space before the last 3 characters,
// then before the last 2, and retrying ("N29QL" → "N2 9QL" → "N29 QL").
// See [NormalizePostcode] and [SpacingVariants].
//
// The postal district is the outward prefix that identifies a coarse
// geographic area: the leading letters plus the first digit group of the
// normalized postcode ("SW1A1AA" → "SW1", "N29QL" → "N2"). See [District].
//
// # Coordinate Resolution
//
// Coordinates are looked up, never computed. The resolution ladder is:
//
//	1. exact match in the postcode lookup table (any supported spacing)
//	2. approximate centroid of the postcode area (letter prefix, e.g. "SW")
//	3. fixed fallback coordinate: central London (51.5074, -0.1278)
//
// Each record tracks which rung resolved it via GeoSource ("lookup",
// "region", "fallback") so aggregates can report geocoding quality.
//
// # District Aggregation
//
// Filtered records group by postal district. Each group yields the arithmetic
// mean price, the sample count, a centroid (mean of member coordinates), and
// a representative area label (first seen wins). Districts with fewer than
// [MinDistrictSamples] records are dropped: a mean over one or two sales is
// noise, not a price signal.
package domain
