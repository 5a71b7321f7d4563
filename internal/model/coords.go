package model

import "encoding/json"

// Coordinate extraction over loosely shaped backend records. The backend is
// not consistent about where it puts a position, so extraction is an ordered
// list of strategies tried in sequence, stopping at the first success:
// named-field lookup, GeoJSON Point lookup, bare two-element pair.

type LatLon struct {
	Lat float64
	Lon float64
}

type coordStrategy func(v any) (LatLon, bool)

var coordStrategies = []coordStrategy{
	fromNamedFields,
	fromGeoJSONPoint,
	fromBarePair,
}

// ExtractLatLon probes v for a latitude/longitude pair.
func ExtractLatLon(v any) (LatLon, bool) {
	for _, s := range coordStrategies {
		if ll, ok := s(v); ok {
			return ll, true
		}
	}
	return LatLon{}, false
}

var latKeys = []string{"latitude", "lat", "center_latitude", "detection_lat"}
var lonKeys = []string{"longitude", "lon", "lng", "center_longitude", "detection_lon"}

func fromNamedFields(v any) (LatLon, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return LatLon{}, false
	}
	lat, ok := firstNumber(m, latKeys)
	if !ok {
		return LatLon{}, false
	}
	lon, ok := firstNumber(m, lonKeys)
	if !ok {
		return LatLon{}, false
	}
	return LatLon{Lat: lat, Lon: lon}, true
}

// GeoJSON stores [lon, lat]; the geometry may sit at the top level or under
// a "geometry" key.
func fromGeoJSONPoint(v any) (LatLon, bool) {
	m, ok := v.(map[string]any)
	if !ok {
		return LatLon{}, false
	}
	if g, ok := m["geometry"].(map[string]any); ok {
		m = g
	}
	t, _ := m["type"].(string)
	if t != "Point" {
		return LatLon{}, false
	}
	pair, ok := twoNumbers(m["coordinates"])
	if !ok {
		return LatLon{}, false
	}
	return LatLon{Lat: pair[1], Lon: pair[0]}, true
}

// Bare pairs are [lat, lon], matching the backend's route point arrays.
func fromBarePair(v any) (LatLon, bool) {
	pair, ok := twoNumbers(v)
	if !ok {
		return LatLon{}, false
	}
	return LatLon{Lat: pair[0], Lon: pair[1]}, true
}

func firstNumber(m map[string]any, keys []string) (float64, bool) {
	for _, k := range keys {
		if n, ok := asNumber(m[k]); ok {
			return n, true
		}
	}
	return 0, false
}

func twoNumbers(v any) ([2]float64, bool) {
	var out [2]float64
	arr, ok := v.([]any)
	if !ok {
		if ff, ok := v.([]float64); ok && len(ff) >= 2 {
			return [2]float64{ff[0], ff[1]}, true
		}
		return out, false
	}
	if len(arr) < 2 {
		return out, false
	}
	a, ok := asNumber(arr[0])
	if !ok {
		return out, false
	}
	b, ok := asNumber(arr[1])
	if !ok {
		return out, false
	}
	return [2]float64{a, b}, true
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
