package domain

import (
	"regexp"
	"strings"
)

// districtRe captures the postal district from an outward code: one or two
// leading letters followed by the first digit group, e.g. "SW1A" → "SW1",
// "EC1A" → "EC1", "N2" → "N2".
var districtRe = regexp.MustCompile(`^([A-Z]{1,2}[0-9]{1,2})`)

// NormalizePostcode canonicalizes a free-form postcode for table lookups:
// trim, uppercase, remove all internal whitespace. "n2  9ql" → "N29QL".
func NormalizePostcode(postcode string) string {
	postcode = strings.ToUpper(strings.TrimSpace(postcode))
	return strings.ReplaceAll(postcode, " ", "")
}

// SpacingVariants returns the spaced forms of a normalized postcode to retry
// after an exact-match miss. UK inward codes are 3 characters, so the space
// goes before the last 3 first, then before the last 2 for legacy formats:
// "N29QL" → ["N2 9QL", "N29 QL"]. Postcodes too short to split return nil.
func SpacingVariants(normalized string) []string {
	if len(normalized) < 5 {
		return nil
	}
	return []string{
		normalized[:len(normalized)-3] + " " + normalized[len(normalized)-3:],
		normalized[:len(normalized)-2] + " " + normalized[len(normalized)-2:],
	}
}

// District extracts the postal district from a free-form postcode.
// The inward code is always 3 characters, so a full postcode is split there
// before matching; "N2 9QL" and "N29QL" both yield "N2", never "N29".
// Returns "" when the input does not start with a letter/digit outward code.
func District(postcode string) string {
	outward := NormalizePostcode(postcode)
	if len(outward) >= 5 {
		outward = outward[:len(outward)-3]
	}
	m := districtRe.FindStringSubmatch(outward)
	if len(m) != 2 {
		return ""
	}
	return m[1]
}

// Area extracts the postcode area, the leading letter prefix of the district
// ("SW1" → "SW"). Used for the regional fallback centroid estimate.
func Area(postcode string) string {
	normalized := NormalizePostcode(postcode)
	i := 0
	for i < len(normalized) && normalized[i] >= 'A' && normalized[i] <= 'Z' {
		i++
	}
	if i == 0 || i > 2 {
		return ""
	}
	return normalized[:i]
}
