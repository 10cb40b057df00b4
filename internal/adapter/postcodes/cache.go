package postcodes

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fernhall/house-price-map-service/internal/domain"
)

// errCacheMissing distinguishes "no cache yet" (build from the dataset) from
// a corrupt or unreadable artifact (log and rebuild).
var errCacheMissing = errors.New("postcode cache missing")

// LoadCache reads the gob cache artifact into a lookup map.
func LoadCache(path string) (map[string]domain.Coordinate, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errCacheMissing
		}
		return nil, fmt.Errorf("open postcode cache: %w", err)
	}
	defer f.Close()

	var entries map[string]domain.Coordinate
	if err := gob.NewDecoder(f).Decode(&entries); err != nil {
		return nil, fmt.Errorf("decode postcode cache: %w", err)
	}
	return entries, nil
}

// SaveCache writes the lookup map as a gob artifact, creating intermediate
// directories. The write goes through a temp file and rename so a crash
// cannot leave a truncated cache.
func SaveCache(path string, entries map[string]domain.Coordinate) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "lookup-*.gob")
	if err != nil {
		return fmt.Errorf("create cache temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := gob.NewEncoder(tmp).Encode(entries); err != nil {
		tmp.Close()
		return fmt.Errorf("encode postcode cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close cache temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace postcode cache: %w", err)
	}
	return nil
}
