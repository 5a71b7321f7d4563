// Package upstream is the typed REST client for the dark-vessel analysis
// backend. All geospatial analysis (clustering, route prediction, risk
// scoring) happens there; the console only renders what it returns.
package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/marisklase/darkwatch/internal/eez"
	"github.com/marisklase/darkwatch/internal/model"
	"github.com/marisklase/darkwatch/internal/observability"
)

// ConfigsPayload is the /api/configs response.
type ConfigsPayload struct {
	EEZData       map[string]eez.Entry `json:"EEZ_DATA"`
	ISO3ToCountry map[string]string    `json:"ISO3_TO_COUNTRY"`
	BackendURL    string               `json:"backendUrl,omitempty"`
}

type Client struct {
	logger *slog.Logger
	http   *http.Client
	base   *url.URL

	// Vessel detail responses are small and immutable for a given id, so a
	// lookaside cache spares repeat popup opens a round trip.
	vessels *lru.Cache[string, json.RawMessage]
}

func New(logger *slog.Logger, httpClient *http.Client, baseURL string, vesselCacheSize int) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse upstream url: %w", err)
	}
	if vesselCacheSize <= 0 {
		vesselCacheSize = 512
	}
	vc, err := lru.New[string, json.RawMessage](vesselCacheSize)
	if err != nil {
		return nil, fmt.Errorf("vessel cache: %w", err)
	}
	return &Client{logger: logger, http: httpClient, base: u, vessels: vc}, nil
}

// get issues one GET and returns the raw 2xx body. Failures map onto the
// transport/http error taxonomy; bodies of failed responses are truncated.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values) ([]byte, error) {
	u := *c.base
	u.Path = path
	u.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	observability.ObserveUpstreamLatency(endpoint, time.Since(start).Seconds())
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 8<<10))
		reason := resp.Status
		if len(reason) > 4 {
			reason = reason[4:] // strip the "503 " prefix
		}
		return nil, &HTTPError{Status: resp.StatusCode, Reason: reason}
	}

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Cause: err}
	}
	return b, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	b, err := c.get(ctx, endpoint, path, params)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, out); err != nil {
		return &ParseError{Endpoint: endpoint, Cause: err}
	}
	return nil
}

// Configs fetches the EEZ dictionary and country mapping.
func (c *Client) Configs(ctx context.Context) (*ConfigsPayload, error) {
	var out ConfigsPayload
	if err := c.getJSON(ctx, "configs", "/api/configs", url.Values{}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// FetchDetections is the primary query. Implements coordinator.Fetcher.
func (c *Client) FetchDetections(ctx context.Context, eezIDs []string, startDate, endDate string, flags model.OptionFlags) (*model.DetectionsPayload, error) {
	var out model.DetectionsPayload
	params := detectionsParams(eezIDs, startDate, endDate, flags)
	if err := c.getJSON(ctx, "detections", "/api/detections", params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Boundaries fetches EEZ boundary geometries for the selected ids.
func (c *Client) Boundaries(ctx context.Context, eezIDs []string) (*model.BoundariesPayload, error) {
	v := url.Values{}
	v.Set("eez_ids", EncodeEEZIDs(eezIDs))
	var out model.BoundariesPayload
	if err := c.getJSON(ctx, "eez_boundaries", "/api/eez-boundaries", v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ProximityClusters fetches same-date clusters within the fixed 5 km radius.
func (c *Client) ProximityClusters(ctx context.Context, eezIDs []string, startDate, endDate string) (*model.ClustersPayload, error) {
	v := windowParams(eezIDs, startDate, endDate)
	v.Set("max_distance_km", proximityMaxDistanceKm)
	v.Set("same_date_only", proximitySameDateOnly)
	var out model.ClustersPayload
	if err := c.getJSON(ctx, "proximity_clusters", "/api/detections/proximity-clusters", v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Routes fetches predicted movement routes for the window.
func (c *Client) Routes(ctx context.Context, eezIDs []string, startDate, endDate string) (*model.RoutesPayload, error) {
	v := windowParams(eezIDs, startDate, endDate)
	v.Set("max_time_hours", routeMaxTimeHours)
	v.Set("max_distance_km", routeMaxDistanceKm)
	v.Set("min_route_length", routeMinLength)
	var out model.RoutesPayload
	if err := c.getJSON(ctx, "routes", "/api/detections/routes", v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Association fetches the SAR/AIS matched percentage for the window.
func (c *Client) Association(ctx context.Context, eezIDs []string, startDate, endDate string) (*model.Association, error) {
	var out model.Association
	if err := c.getJSON(ctx, "association", "/api/detections/sar-ais-association", windowParams(eezIDs, startDate, endDate), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Vessel fetches one vessel's detail record, served from the lookaside cache
// when possible. The body is opaque passthrough for the popup renderer.
func (c *Client) Vessel(ctx context.Context, vesselID, includes string) (json.RawMessage, error) {
	key := vesselID + "?" + includes
	if raw, ok := c.vessels.Get(key); ok {
		observability.IncCacheHit()
		return raw, nil
	}
	observability.IncCacheMiss()

	v := url.Values{}
	if includes != "" {
		v.Set("includes", includes)
	}
	b, err := c.get(ctx, "vessel", "/api/vessels/"+vesselID, v)
	if err != nil {
		return nil, err
	}
	if !json.Valid(b) {
		return nil, &ParseError{Endpoint: "vessel", Cause: fmt.Errorf("invalid json body")}
	}
	raw := json.RawMessage(b)
	c.vessels.Add(key, raw)
	return raw, nil
}

// VesselTimeline fetches a vessel's event timeline. Opaque passthrough.
func (c *Client) VesselTimeline(ctx context.Context, vesselID string, params url.Values) (json.RawMessage, error) {
	b, err := c.get(ctx, "vessel_timeline", "/api/vessels/"+vesselID+"/timeline", params)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

// RiskScore fetches a vessel's analytics risk score. Opaque passthrough.
func (c *Client) RiskScore(ctx context.Context, vesselID string, params url.Values) (json.RawMessage, error) {
	b, err := c.get(ctx, "risk_score", "/api/analytics/risk-score/"+vesselID, params)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}

// Events fetches AIS gap/loitering events. Opaque passthrough.
func (c *Client) Events(ctx context.Context, params url.Values) (json.RawMessage, error) {
	b, err := c.get(ctx, "events", "/api/events", params)
	if err != nil {
		return nil, err
	}
	return json.RawMessage(b), nil
}
