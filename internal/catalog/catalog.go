// Package catalog loads the fixed set of named report locations from a
// GeoJSON FeatureCollection. Loading is all-or-nothing: a malformed entry
// fails the whole catalog so a run never starts with a partial location set.
package catalog

import (
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"

	"github.com/couchcryptid/precip-data-etl/internal/domain"
)

// nameProperties are the feature properties checked, in order, for the
// location name. NM_MUN is the IBGE municipality-name attribute carried by
// Brazilian boundary files.
var nameProperties = []string{"name", "NM_MUN"}

// Load reads a GeoJSON FeatureCollection and returns its locations in file
// order. Point features are used directly; polygonal features are reduced
// to their area centroid. Names must be unique and non-empty, coordinates
// must be valid geographic values.
func Load(path string) ([]domain.Location, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates catalog GeoJSON. See Load.
func Parse(data []byte) ([]domain.Location, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("load catalog: parse geojson: %w", err)
	}
	if len(fc.Features) == 0 {
		return nil, fmt.Errorf("load catalog: no features")
	}

	locations := make([]domain.Location, 0, len(fc.Features))
	seen := make(map[string]bool, len(fc.Features))

	for i, f := range fc.Features {
		name := featureName(f)
		if name == "" {
			return nil, fmt.Errorf("load catalog: feature %d has no name property", i)
		}
		if seen[name] {
			return nil, fmt.Errorf("load catalog: duplicate location %q", name)
		}
		seen[name] = true

		point, err := featurePoint(f)
		if err != nil {
			return nil, fmt.Errorf("load catalog: location %q: %w", name, err)
		}

		lon := domain.NormalizeLon(point.Lon())
		lat := point.Lat()
		if lat < -90 || lat > 90 {
			return nil, fmt.Errorf("load catalog: location %q: latitude %v out of range", name, lat)
		}

		locations = append(locations, domain.Location{Name: name, Lat: lat, Lon: lon})
	}
	return locations, nil
}

func featureName(f *geojson.Feature) string {
	for _, key := range nameProperties {
		if v, ok := f.Properties[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// featurePoint reduces a feature geometry to a single representative point.
func featurePoint(f *geojson.Feature) (orb.Point, error) {
	switch g := f.Geometry.(type) {
	case orb.Point:
		return g, nil
	case orb.Polygon, orb.MultiPolygon:
		centroid, _ := planar.CentroidArea(g)
		return centroid, nil
	case nil:
		return orb.Point{}, fmt.Errorf("missing geometry")
	default:
		return orb.Point{}, fmt.Errorf("unsupported geometry type %q", g.GeoJSONType())
	}
}
