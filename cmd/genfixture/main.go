// Command genfixture generates sample price extract CSVs and a matching
// postcode cache for local development, using the actual domain package so
// the fixtures survive the pipeline's row filters.
//
// Usage:
//
//	go run ./cmd/genfixture -data-dir data -cache data/postcodes/lookup.gob
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fernhall/house-price-map-service/internal/adapter/postcodes"
	"github.com/fernhall/house-price-map-service/internal/domain"
)

// areaDef describes one generated extract: an area label, its postcode
// districts, and a base price level the samples scatter around.
type areaDef struct {
	area      string
	districts []districtDef
	basePrice float64
}

type districtDef struct {
	prefix string
	lat    float64
	lon    float64
}

var areas = []areaDef{
	{
		area:      "Barnet",
		basePrice: 6500,
		districts: []districtDef{
			{prefix: "N2", lat: 51.590, lon: -0.168},
			{prefix: "N3", lat: 51.601, lon: -0.193},
			{prefix: "NW4", lat: 51.588, lon: -0.227},
		},
	},
	{
		area:      "Camden",
		basePrice: 9800,
		districts: []districtDef{
			{prefix: "NW1", lat: 51.535, lon: -0.145},
			{prefix: "NW3", lat: 51.550, lon: -0.176},
			{prefix: "WC1", lat: 51.522, lon: -0.122},
		},
	},
	{
		area:      "Westminster",
		basePrice: 13500,
		districts: []districtDef{
			{prefix: "SW1", lat: 51.497, lon: -0.137},
			{prefix: "W1", lat: 51.515, lon: -0.147},
		},
	},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	dataDir := flag.String("data-dir", "data", "output directory for price extract CSVs")
	cachePath := flag.String("cache", "data/postcodes/lookup.gob", "output path for the postcode cache")
	perDistrict := flag.Int("per-district", 12, "sales to generate per district")
	seed := flag.Int64("seed", 1, "RNG seed for reproducible fixtures")
	flag.Parse()

	rng := rand.New(rand.NewSource(*seed))
	lookup := map[string]domain.Coordinate{}

	for _, def := range areas {
		path := filepath.Join(*dataDir, def.area+"_link_26122024.csv")
		n, err := writeExtract(path, def, *perDistrict, rng, lookup)
		if err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		log.Printf("%s: %d rows", path, n)
	}

	if err := postcodes.SaveCache(*cachePath, lookup); err != nil {
		return fmt.Errorf("writing cache: %w", err)
	}
	log.Printf("%s: %d postcodes", *cachePath, len(lookup))
	return nil
}

func writeExtract(path string, def areaDef, perDistrict int, rng *rand.Rand, lookup map[string]domain.Coordinate) (int, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"postcode", "priceper", "year", "dateoftransfer"}); err != nil {
		return 0, err
	}

	rows := 0
	for _, d := range def.districts {
		for i := 0; i < perDistrict; i++ {
			pc := fmt.Sprintf("%s %d%c%c", d.prefix, 1+rng.Intn(9), letter(rng), letter(rng))
			lookup[domain.NormalizePostcode(pc)] = domain.Coordinate{
				Lat: d.lat + rng.Float64()*0.01 - 0.005,
				Lon: d.lon + rng.Float64()*0.01 - 0.005,
			}

			price := def.basePrice * (0.8 + rng.Float64()*0.4)
			month := 1 + rng.Intn(12)
			day := 1 + rng.Intn(28)
			row := []string{
				pc,
				strconv.FormatFloat(price, 'f', 2, 64),
				"2024",
				fmt.Sprintf("2024-%02d-%02d", month, day),
			}
			if err := w.Write(row); err != nil {
				return rows, err
			}
			rows++
		}
	}

	w.Flush()
	return rows, w.Error()
}

func letter(rng *rand.Rand) byte {
	// Skip letters that never appear in the inward code.
	const alphabet = "ABDEFGHJLNPQRSTUWXYZ"
	return alphabet[rng.Intn(len(alphabet))]
}
