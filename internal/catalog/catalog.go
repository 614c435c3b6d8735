// Package catalog loads the watched-location reference data. The catalog is
// read once at startup and is immutable for the process lifetime; without it
// the pipeline cannot geofence, so a missing or empty catalog is fatal.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/couchcryptid/lightning-alert-service/internal/domain"
)

// Location is one watched place with a fixed position.
type Location struct {
	Name string  `json:"name"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

// Coordinate returns the location's position as a domain coordinate.
func (l Location) Coordinate() domain.Coordinate {
	return domain.Coordinate{Lat: l.Lat, Lon: l.Lon}
}

// Catalog is an immutable, ordered set of watched locations. Iteration order
// is file order, which fixes the order location names appear in alerts.
type Catalog struct {
	locations []Location
}

// Load reads and validates the catalog file: a JSON array of
// {"name", "lat", "lon"} records with unique, non-empty names.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}

	var locations []Location
	if err := json.Unmarshal(data, &locations); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(locations) == 0 {
		return nil, fmt.Errorf("catalog %s contains no locations", path)
	}

	seen := make(map[string]struct{}, len(locations))
	for i, loc := range locations {
		if loc.Name == "" {
			return nil, fmt.Errorf("catalog %s: entry %d has no name", path, i)
		}
		if _, dup := seen[loc.Name]; dup {
			return nil, fmt.Errorf("catalog %s: duplicate location %q", path, loc.Name)
		}
		seen[loc.Name] = struct{}{}
	}

	return &Catalog{locations: locations}, nil
}

// Locations returns the watched locations in catalog order. The returned
// slice is shared and must not be mutated.
func (c *Catalog) Locations() []Location {
	return c.locations
}

// Len returns the number of watched locations.
func (c *Catalog) Len() int {
	return len(c.locations)
}
