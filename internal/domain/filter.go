package domain

// Drop reasons reported by RecordFilter.Check, used as metric labels.
const (
	DropMissingPostcode = "missing_postcode"
	DropNonPositive     = "non_positive_price"
	DropOutlier         = "outlier_price"
	DropStale           = "stale"
)

// RecordFilter holds the row-level acceptance rules applied while loading
// source CSVs.
type RecordFilter struct {
	// MaxPrice is the exclusive upper outlier bound on price per sqm.
	MaxPrice float64
	// MinYear is the earliest accepted transaction year. Records carrying
	// only a transfer date use its year.
	MinYear int
}

// Check returns ("", true) when the record passes every rule, or the drop
// reason and false otherwise.
func (f RecordFilter) Check(rec PriceRecord) (string, bool) {
	if NormalizePostcode(rec.Postcode) == "" {
		return DropMissingPostcode, false
	}
	if rec.PricePerSqm <= 0 {
		return DropNonPositive, false
	}
	if f.MaxPrice > 0 && rec.PricePerSqm >= f.MaxPrice {
		return DropOutlier, false
	}
	if f.MinYear > 0 && transactionYear(rec) < f.MinYear {
		return DropStale, false
	}
	return "", true
}

// transactionYear prefers the explicit year column, falling back to the
// transfer date when the year is absent.
func transactionYear(rec PriceRecord) int {
	if rec.Year > 0 {
		return rec.Year
	}
	if !rec.TransferDate.IsZero() {
		return rec.TransferDate.Year()
	}
	return 0
}
