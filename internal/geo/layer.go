// Package geo loads the neighborhood polygon layer and answers
// point-in-polygon queries against it through a grid spatial index.
package geo

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/xy"
)

// Zone is one neighborhood polygon with its identifying properties.
type Zone struct {
	Code     string
	Name     string
	Geometry geom.T
	bounds   *geom.Bounds
}

// Layer is the polygon reference layer, loaded once per run and injected
// into the spatial assignment stage.
type Layer struct {
	zones []Zone
	index *gridIndex
}

// LoadLayer reads a GeoJSON FeatureCollection whose features carry the zone
// code and name under the given property keys. Geometries must be Polygon
// or MultiPolygon in the layer's planar CRS.
func LoadLayer(path, codeProperty, nameProperty string) (*Layer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("geo: reading layer %s: %w", path, err)
	}
	return parseLayer(data, codeProperty, nameProperty)
}

func parseLayer(data []byte, codeProperty, nameProperty string) (*Layer, error) {
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("geo: decoding feature collection: %w", err)
	}

	zones := make([]Zone, 0, len(fc.Features))
	for i, feature := range fc.Features {
		switch feature.Geometry.(type) {
		case *geom.Polygon, *geom.MultiPolygon:
		default:
			return nil, fmt.Errorf("geo: feature %d: unsupported geometry %T", i, feature.Geometry)
		}
		zones = append(zones, Zone{
			Code:     propertyString(feature.Properties, codeProperty),
			Name:     propertyString(feature.Properties, nameProperty),
			Geometry: feature.Geometry,
			bounds:   feature.Geometry.Bounds(),
		})
	}

	return NewLayer(zones), nil
}

// NewLayer builds a layer (and its spatial index) from already-decoded
// zones. Zone order is significant: ties at shared boundaries resolve to
// the earliest zone.
func NewLayer(zones []Zone) *Layer {
	for i := range zones {
		if zones[i].bounds == nil && zones[i].Geometry != nil {
			zones[i].bounds = zones[i].Geometry.Bounds()
		}
	}
	return &Layer{
		zones: zones,
		index: newGridIndex(zones),
	}
}

// Len returns the number of zones in the layer.
func (l *Layer) Len() int { return len(l.zones) }

// Locate returns the first zone containing the planar point (x, y), in zone
// insertion order. ok is false when the point falls outside every polygon;
// that is expected for border, coastal, and data-gap cases.
func (l *Layer) Locate(x, y float64) (Zone, bool) {
	for _, idx := range l.index.candidates(x, y) {
		zone := &l.zones[idx]
		if !boundsContain(zone.bounds, x, y) {
			continue
		}
		if geometryContains(zone.Geometry, x, y) {
			return *zone, true
		}
	}
	return Zone{}, false
}

func propertyString(props map[string]interface{}, key string) string {
	if v, ok := props[key].(string); ok {
		return v
	}
	return ""
}

func boundsContain(b *geom.Bounds, x, y float64) bool {
	return b != nil &&
		x >= b.Min(0) && x <= b.Max(0) &&
		y >= b.Min(1) && y <= b.Max(1)
}

// geometryContains tests point-in-polygon membership: inside the exterior
// ring and outside every hole, for any member polygon.
func geometryContains(g geom.T, x, y float64) bool {
	switch geometry := g.(type) {
	case *geom.Polygon:
		return polygonContains(geometry, x, y)
	case *geom.MultiPolygon:
		for i := 0; i < geometry.NumPolygons(); i++ {
			if polygonContains(geometry.Polygon(i), x, y) {
				return true
			}
		}
	}
	return false
}

func polygonContains(p *geom.Polygon, x, y float64) bool {
	if p.NumLinearRings() == 0 {
		return false
	}
	point := geom.Coord{x, y}
	if !xy.IsPointInRing(p.Layout(), point, p.LinearRing(0).FlatCoords()) {
		return false
	}
	for i := 1; i < p.NumLinearRings(); i++ {
		if xy.IsPointInRing(p.Layout(), point, p.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}
