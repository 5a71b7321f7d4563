package present

import "encoding/json"

// Minimal GeoJSON output types. The map renderer consumes these directly;
// nothing here ever carries markup.

const (
	typeFeatureCollection = "FeatureCollection"
	typeFeature           = "Feature"
	typePoint             = "Point"
	typeLineString        = "LineString"
)

type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

type Feature struct {
	Type       string         `json:"type"`
	Geometry   any            `json:"geometry"`
	Properties map[string]any `json:"properties,omitempty"`
}

type Geometry struct {
	Type        string `json:"type"`
	Coordinates any    `json:"coordinates"`
}

func newCollection(features []Feature) FeatureCollection {
	if features == nil {
		features = []Feature{}
	}
	return FeatureCollection{Type: typeFeatureCollection, Features: features}
}

func pointFeature(lon, lat float64, props map[string]any) Feature {
	return Feature{
		Type:       typeFeature,
		Geometry:   Geometry{Type: typePoint, Coordinates: []float64{lon, lat}},
		Properties: props,
	}
}

func rawGeometryFeature(geom json.RawMessage, props map[string]any) Feature {
	return Feature{Type: typeFeature, Geometry: geom, Properties: props}
}
