// Package present converts backend records into the typed GeoJSON layers the
// map renderer consumes. Rendering itself (tiles, Leaflet wiring, popups) is
// an external collaborator; this package only hands it well-typed features.
package present

import (
	"math"

	h3 "github.com/uber/h3-go/v4"

	"github.com/marisklase/darkwatch/internal/model"
)

// ClusterCellRes is the H3 resolution used to key cluster markers. Res 6
// cells are a few kilometers across, matching the 5 km proximity threshold,
// so one cell holds at most a handful of clusters.
const ClusterCellRes = 6

// DetectionsFC builds the primary detection layer. Records without a typed
// position fall back to the coordinate extraction chain over their raw
// properties; records with no extractable position are dropped.
func DetectionsFC(detections []model.Detection) FeatureCollection {
	features := make([]Feature, 0, len(detections))
	for _, d := range detections {
		lat, lon := d.Lat, d.Lon
		if lat == 0 && lon == 0 {
			ll, ok := model.ExtractLatLon(d.Properties)
			if !ok {
				continue
			}
			lat, lon = ll.Lat, ll.Lon
		}
		features = append(features, pointFeature(lon, lat, map[string]any{
			"id":        d.ID,
			"date":      d.Date,
			"matched":   d.Matched,
			"vessel_id": d.VesselID,
		}))
	}
	return newCollection(features)
}

// ClustersFC builds the proximity-cluster layer. Each feature carries the
// rendered circle radius and a stable H3 cell key for the marker.
func ClustersFC(clusters []model.ProximityCluster) FeatureCollection {
	features := make([]Feature, 0, len(clusters))
	for _, c := range clusters {
		props := map[string]any{
			"vessel_count":    c.VesselCount,
			"risk_indicator":  c.RiskIndicator,
			"date":            c.Date,
			"max_distance_km": c.MaxDistanceKm,
			"radius_km":       ClusterRadiusKm(c),
		}
		if cell, err := h3.LatLngToCell(h3.LatLng{Lat: c.CenterLat, Lng: c.CenterLon}, ClusterCellRes); err == nil {
			props["cell"] = cell.String()
		}
		features = append(features, pointFeature(c.CenterLon, c.CenterLat, props))
	}
	return newCollection(features)
}

// ClusterRadiusKm sizes the rendered circle: the planar distance from the
// center to the farthest member detection, floored at half the backend's
// clustering threshold so single-member clusters stay visible.
func ClusterRadiusKm(c model.ProximityCluster) float64 {
	floor := c.MaxDistanceKm / 2
	radius := floor
	for _, d := range c.Detections {
		lat, lon := d.Lat, d.Lon
		if lat == 0 && lon == 0 {
			ll, ok := model.ExtractLatLon(d.Properties)
			if !ok {
				continue
			}
			lat, lon = ll.Lat, ll.Lon
		}
		if dist := planarDistanceKm(c.CenterLat, c.CenterLon, lat, lon); dist > radius {
			radius = dist
		}
	}
	return radius
}

// planarDistanceKm is an equirectangular approximation, fine at cluster
// scale (a few km).
func planarDistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	const kmPerDegLat = 110.574
	const kmPerDegLon = 111.320
	midLat := (lat1 + lat2) / 2 * math.Pi / 180
	dy := (lat2 - lat1) * kmPerDegLat
	dx := (lon2 - lon1) * kmPerDegLon * math.Cos(midLat)
	return math.Hypot(dx, dy)
}

// RoutesFC builds the predicted-route layer as LineStrings. Route points
// arrive as [lat, lon] pairs and GeoJSON wants [lon, lat].
func RoutesFC(routes []model.PredictedRoute) FeatureCollection {
	features := make([]Feature, 0, len(routes))
	for _, r := range routes {
		coords := make([][]float64, 0, len(r.Points))
		for _, p := range r.Points {
			ll, ok := model.ExtractLatLon(p)
			if !ok {
				continue
			}
			coords = append(coords, []float64{ll.Lon, ll.Lat})
		}
		if len(coords) < 2 {
			continue
		}
		features = append(features, Feature{
			Type:     typeFeature,
			Geometry: Geometry{Type: typeLineString, Coordinates: coords},
			Properties: map[string]any{
				"confidence":        r.Confidence,
				"vessel_id":         r.VesselID,
				"total_distance_km": r.TotalDistanceKm,
				"duration_hours":    r.DurationHours,
			},
		})
	}
	return newCollection(features)
}

// BoundariesFC wraps EEZ boundary geometries unchanged.
func BoundariesFC(boundaries []model.Boundary) FeatureCollection {
	features := make([]Feature, 0, len(boundaries))
	for _, b := range boundaries {
		if len(b.Geometry) == 0 {
			continue
		}
		features = append(features, rawGeometryFeature(b.Geometry, map[string]any{
			"eez_id": b.EEZID,
		}))
	}
	return newCollection(features)
}
