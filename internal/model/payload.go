package model

// Parsed response bodies from the analysis backend.

type DetectionsPayload struct {
	DarkVessels DarkVessels      `json:"dark_vessels"`
	Clusters    *ClustersPayload `json:"clusters,omitempty"`
	Routes      *RoutesPayload   `json:"routes,omitempty"`
	Statistics  map[string]any   `json:"statistics,omitempty"`
	Summaries   []EEZSummary     `json:"summaries,omitempty"`
}

type ClustersPayload struct {
	Clusters               []ProximityCluster `json:"clusters"`
	TotalClusters          int                `json:"total_clusters"`
	TotalVesselsInClusters int                `json:"total_vessels_in_clusters"`
}

type RoutesPayload struct {
	Routes []PredictedRoute `json:"routes"`
}

type EEZSummary struct {
	EEZID   string         `json:"eez_id"`
	Summary map[string]any `json:"summary,omitempty"`
	Error   string         `json:"error,omitempty"`
}

type BoundariesPayload struct {
	Boundaries []Boundary `json:"boundaries"`
}

// Association reports what share of SAR detections matched an AIS broadcast.
type Association struct {
	Totals AssociationTotals `json:"totals"`
}

type AssociationTotals struct {
	MatchedDetectionsPct float64 `json:"matched_detections_pct"`
}
