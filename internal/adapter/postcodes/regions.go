package postcodes

import (
	_ "embed"
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/fernhall/house-price-map-service/internal/domain"
)

//go:embed regions.yaml
var regionsYAML []byte

type regionsFile struct {
	Regions map[string]struct {
		Lat float64 `yaml:"lat"`
		Lon float64 `yaml:"lon"`
	} `yaml:"regions"`
}

// regionCentroids parses the embedded postcode-area centroid table.
// The file ships with the binary, so a parse failure is a build defect.
func regionCentroids() map[string]domain.Coordinate {
	var parsed regionsFile
	if err := yaml.Unmarshal(regionsYAML, &parsed); err != nil {
		panic(fmt.Sprintf("postcodes: embedded regions.yaml invalid: %v", err))
	}

	centroids := make(map[string]domain.Coordinate, len(parsed.Regions))
	for area, c := range parsed.Regions {
		centroids[area] = domain.Coordinate{Lat: c.Lat, Lon: c.Lon}
	}
	return centroids
}
