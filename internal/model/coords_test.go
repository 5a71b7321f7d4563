package model

import "testing"

func TestExtractLatLon_NamedFields(t *testing.T) {
	cases := []map[string]any{
		{"latitude": -12.5, "longitude": 130.1},
		{"lat": -12.5, "lon": 130.1},
		{"lat": -12.5, "lng": 130.1},
		{"center_latitude": -12.5, "center_longitude": 130.1},
	}
	for _, m := range cases {
		ll, ok := ExtractLatLon(m)
		if !ok || ll.Lat != -12.5 || ll.Lon != 130.1 {
			t.Errorf("ExtractLatLon(%v) = %v, %v", m, ll, ok)
		}
	}
}

func TestExtractLatLon_GeoJSONPoint(t *testing.T) {
	// GeoJSON stores [lon, lat]
	direct := map[string]any{"type": "Point", "coordinates": []any{130.1, -12.5}}
	nested := map[string]any{"geometry": map[string]any{"type": "Point", "coordinates": []any{130.1, -12.5}}}

	for _, m := range []map[string]any{direct, nested} {
		ll, ok := ExtractLatLon(m)
		if !ok || ll.Lat != -12.5 || ll.Lon != 130.1 {
			t.Errorf("ExtractLatLon(%v) = %v, %v", m, ll, ok)
		}
	}
}

func TestExtractLatLon_BarePair(t *testing.T) {
	// bare pairs are [lat, lon], matching route point arrays
	ll, ok := ExtractLatLon([]any{-12.5, 130.1})
	if !ok || ll.Lat != -12.5 || ll.Lon != 130.1 {
		t.Fatalf("ExtractLatLon bare pair = %v, %v", ll, ok)
	}
	ll, ok = ExtractLatLon([]float64{-12.5, 130.1})
	if !ok || ll.Lat != -12.5 {
		t.Fatalf("ExtractLatLon []float64 = %v, %v", ll, ok)
	}
}

func TestExtractLatLon_StrategyOrder(t *testing.T) {
	// Named fields win over an embedded GeoJSON geometry.
	m := map[string]any{
		"lat": -12.5, "lon": 130.1,
		"geometry": map[string]any{"type": "Point", "coordinates": []any{0.0, 0.0}},
	}
	ll, ok := ExtractLatLon(m)
	if !ok || ll.Lat != -12.5 {
		t.Fatalf("named fields did not take precedence: %v, %v", ll, ok)
	}
}

func TestExtractLatLon_NoMatch(t *testing.T) {
	for _, v := range []any{nil, "12,34", map[string]any{"x": 1.0}, []any{1.0}, []any{"a", "b"}} {
		if _, ok := ExtractLatLon(v); ok {
			t.Errorf("ExtractLatLon(%v) unexpectedly succeeded", v)
		}
	}
}
