// Package model defines the domain types shared across the console.
package model

import (
	"encoding/json"
	"time"
)

// Detection is a single SAR detection as returned by the analysis backend.
// Vessels with Matched=false are "dark": detected by radar but not
// broadcasting AIS.
type Detection struct {
	ID         string         `json:"id,omitempty"`
	Lat        float64        `json:"lat"`
	Lon        float64        `json:"lon"`
	Date       string         `json:"date,omitempty"`
	Matched    bool           `json:"matched,omitempty"`
	VesselID   string         `json:"vessel_id,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

type DetectionSummary struct {
	Total   int `json:"total"`
	Dark    int `json:"dark"`
	Matched int `json:"matched"`
}

type DarkVessels struct {
	Detections []Detection      `json:"sar_detections"`
	Summary    DetectionSummary `json:"summary"`
}

// ProximityCluster groups detections the backend found within a proximity
// threshold on the same date. The console only renders these.
type ProximityCluster struct {
	CenterLat     float64     `json:"center_latitude"`
	CenterLon     float64     `json:"center_longitude"`
	VesselCount   int         `json:"vessel_count"`
	RiskIndicator string      `json:"risk_indicator"`
	MaxDistanceKm float64     `json:"max_distance_km"`
	Date          string      `json:"date"`
	Detections    []Detection `json:"detections"`
}

// PredictedRoute is a backend-predicted movement track. Points are
// [lat, lon] pairs in order.
type PredictedRoute struct {
	Points          [][]float64 `json:"points"`
	Confidence      float64     `json:"confidence"`
	VesselID        string      `json:"vessel_id,omitempty"`
	TotalDistanceKm float64     `json:"total_distance_km"`
	DurationHours   float64     `json:"duration_hours"`
}

type Boundary struct {
	EEZID    string          `json:"eez_id"`
	Geometry json.RawMessage `json:"geometry"`
}

// OptionFlags are the named toggles carried on each submitted query.
type OptionFlags struct {
	IncludeClusters bool `json:"include_clusters"`
	IncludeRoutes   bool `json:"include_routes"`
	IncludeStats    bool `json:"include_stats"`
}

// FilterState is the last successfully submitted query. It is immutable once
// created; the next apply supersedes it with a fresh value.
type FilterState struct {
	RequestID   string      `json:"request_id"`
	EEZIDs      []string    `json:"eez_ids"`
	StartDate   string      `json:"start_date"`
	EndDate     string      `json:"end_date"`
	Flags       OptionFlags `json:"flags"`
	SubmittedAt time.Time   `json:"submitted_at"`
}

// Clone returns a deep copy so a superseded state can never be mutated
// through a stale reference.
func (f FilterState) Clone() FilterState {
	out := f
	out.EEZIDs = append([]string(nil), f.EEZIDs...)
	return out
}

// DateFormat is the calendar date layout used on the wire.
const DateFormat = "2006-01-02"
