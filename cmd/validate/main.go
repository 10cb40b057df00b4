// Command validate performs integrity checks across the local data inputs:
// price extract CSVs, the postcode cache artifact, and the aggregation
// pipeline output. It verifies column presence, filter survival rates,
// postcode lookup coverage, and district sample thresholds.
//
// Usage:
//
//	go run ./cmd/validate -data-dir data -cache data/postcodes/lookup.gob
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/fernhall/house-price-map-service/internal/adapter/postcodes"
	"github.com/fernhall/house-price-map-service/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "data", "directory containing price extract CSVs")
	cachePath := flag.String("cache", "data/postcodes/lookup.gob", "path to the postcode cache artifact")
	maxPrice := flag.Float64("max-price", 50000, "upper outlier bound for price per square metre")
	minYear := flag.Int("min-year", 2024, "oldest transaction year accepted")
	flag.Parse()

	if code := run(*dataDir, *cachePath, *maxPrice, *minYear); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir, cachePath string, maxPrice float64, minYear int) int {
	fmt.Println("=== House Price Data Integrity Validation ===")
	fmt.Println()

	rows, err := loadExtracts(dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load extracts: %v\n", err)
		return 1
	}

	entries, err := postcodes.LoadCache(cachePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load postcode cache: %v\n", err)
		return 1
	}
	table := postcodes.NewTable(entries)

	filter := domain.RecordFilter{MaxPrice: maxPrice, MinYear: minYear}
	records, dropReasons := applyFilters(rows, filter)

	phases := []*phase{
		validateStructure(rows),
		validateFilterSurvival(rows, records, dropReasons),
		validateLookupCoverage(records, table),
		validateDistrictThresholds(records),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Rows: %d loaded, %d accepted, %d postcodes cached\n",
		len(rows), len(records), table.Len())

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// extractRow is a parsed CSV row with the source file and line retained for
// error reporting.
type extractRow struct {
	file    string
	lineNum int
	fields  map[string]string
}

var requiredColumns = []string{"postcode", "priceper"}

func loadExtracts(dir string) ([]extractRow, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*_link_*.csv"))
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no extract files matching *_link_*.csv in %s", dir)
	}

	var rows []extractRow
	for _, path := range paths {
		fileRows, err := loadCSV(path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		rows = append(rows, fileRows...)
	}
	return rows, nil
}

func loadCSV(path string) ([]extractRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(all) < 2 {
		return nil, fmt.Errorf("no data rows")
	}

	header := make([]string, len(all[0]))
	for i, h := range all[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}

	name := filepath.Base(path)
	rows := make([]extractRow, 0, len(all)-1)
	for i, row := range all[1:] {
		fields := make(map[string]string, len(header))
		for j, h := range header {
			if j < len(row) {
				fields[h] = strings.TrimSpace(row[j])
			}
		}
		rows = append(rows, extractRow{file: name, lineNum: i + 2, fields: fields})
	}
	return rows, nil
}

// applyFilters converts rows to records and applies the pipeline's row
// filters, returning the survivors and a tally of drop reasons.
func applyFilters(rows []extractRow, filter domain.RecordFilter) ([]domain.PriceRecord, map[string]int) {
	var records []domain.PriceRecord
	dropReasons := map[string]int{}

	for _, row := range rows {
		price, _ := strconv.ParseFloat(row.fields["priceper"], 64)
		year, _ := strconv.Atoi(row.fields["year"])
		rec := domain.PriceRecord{
			Postcode:    row.fields["postcode"],
			PricePerSqm: price,
			Year:        year,
		}
		if reason, ok := filter.Check(rec); !ok {
			dropReasons[reason]++
			continue
		}
		records = append(records, rec)
	}
	return records, dropReasons
}

// ── Phase 1: Extract Structure ──

func validateStructure(rows []extractRow) *phase {
	p := &phase{name: "Phase 1: Extract Structure (CSV columns)"}

	seen := map[string]bool{}
	for _, row := range rows {
		if seen[row.file] {
			continue
		}
		seen[row.file] = true
		for _, col := range requiredColumns {
			if _, ok := row.fields[col]; !ok {
				p.errorf("%s: missing required column %q", row.file, col)
			}
		}
		if _, hasYear := row.fields["year"]; !hasYear {
			if _, hasDate := row.fields["dateoftransfer"]; !hasDate {
				p.errorf("%s: has neither year nor dateoftransfer column", row.file)
			}
		}
	}
	return p
}

// ── Phase 2: Filter Survival ──
// A healthy extract should not lose most of its rows to the filters.

func validateFilterSurvival(rows []extractRow, records []domain.PriceRecord, dropReasons map[string]int) *phase {
	p := &phase{name: "Phase 2: Filter Survival (row filters)"}

	if len(records) == 0 {
		p.errorf("all %d rows were dropped by the filters", len(rows))
		return p
	}

	survival := float64(len(records)) / float64(len(rows))
	if survival < 0.5 {
		p.errorf("only %.0f%% of rows survived the filters", survival*100)
		for reason, n := range dropReasons {
			p.errorf("  dropped %d: %s", n, reason)
		}
	}
	return p
}

// ── Phase 3: Lookup Coverage ──
// Most accepted postcodes should resolve from the table, not the fallbacks.

func validateLookupCoverage(records []domain.PriceRecord, table *postcodes.Table) *phase {
	p := &phase{name: "Phase 3: Lookup Coverage (postcode cache)"}

	if len(records) == 0 {
		return p
	}

	hits := 0
	for i := range records {
		if _, ok := table.Lookup(records[i].Postcode); ok {
			hits++
		}
	}
	coverage := float64(hits) / float64(len(records))
	fmt.Printf("  Note: postcode lookup coverage %.1f%% (%d/%d)\n", coverage*100, hits, len(records))
	if coverage < 0.8 {
		p.errorf("lookup coverage %.1f%% is below 80%%, most points will use estimated coordinates", coverage*100)
	}
	return p
}

// ── Phase 4: District Thresholds ──
// Every accepted record should parse to a district, and enough districts
// should clear the minimum sample count to produce a usable map.

func validateDistrictThresholds(records []domain.PriceRecord) *phase {
	p := &phase{name: "Phase 4: District Thresholds (aggregation)"}

	counts := map[string]int{}
	unparseable := 0
	for i := range records {
		d := domain.District(records[i].Postcode)
		if d == "" {
			unparseable++
			continue
		}
		counts[d]++
	}
	if unparseable > 0 {
		p.errorf("%d accepted records have postcodes with no parseable district", unparseable)
	}

	qualified := 0
	for _, n := range counts {
		if n >= domain.MinDistrictSamples {
			qualified++
		}
	}
	if qualified == 0 && len(counts) > 0 {
		p.errorf("no district reaches %d samples, the map would be empty", domain.MinDistrictSamples)
	}
	fmt.Printf("  Note: %d/%d districts reach the %d-sample threshold\n", qualified, len(counts), domain.MinDistrictSamples)
	return p
}
