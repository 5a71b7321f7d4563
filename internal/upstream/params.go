package upstream

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/marisklase/darkwatch/internal/model"
)

// Fixed analysis parameters. The backend chunks queries into 30-day windows
// and accepts all array parameters as JSON-array-encoded strings; distances
// and durations go over the wire as decimal strings, booleans as the literal
// strings "true"/"false".
const (
	intervalDay = "DAY"

	// matched=false means dark vessels only.
	matchedFilter = "false"

	proximityMaxDistanceKm = "5"
	proximitySameDateOnly  = "true"

	routeMaxTimeHours  = "48"
	routeMaxDistanceKm = "100"
	routeMinLength     = "2"
)

// EncodeEEZIDs serializes ids as a JSON array string, the only array encoding
// the backend accepts.
func EncodeEEZIDs(ids []string) string {
	b, _ := json.Marshal(ids)
	return string(b)
}

// ParseEEZIDs accepts the three encodings the console tolerates on its own
// surface: a JSON array string, a comma-separated list, or repeated params.
func ParseEEZIDs(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	if len(values) == 1 {
		single := strings.TrimSpace(values[0])
		if strings.HasPrefix(single, "[") && strings.HasSuffix(single, "]") {
			var arr []any
			if err := json.Unmarshal([]byte(single), &arr); err == nil {
				out := make([]string, 0, len(arr))
				for _, v := range arr {
					switch x := v.(type) {
					case string:
						out = append(out, x)
					case float64:
						out = append(out, strconv.FormatFloat(x, 'f', -1, 64))
					}
				}
				return out
			}
			return nil
		}
		if strings.Contains(single, ",") {
			return splitTrim(single)
		}
		if single == "" {
			return nil
		}
		return []string{single}
	}
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func splitTrim(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func detectionsParams(eezIDs []string, startDate, endDate string, flags model.OptionFlags) url.Values {
	v := url.Values{}
	v.Set("eez_ids", EncodeEEZIDs(eezIDs))
	v.Set("start_date", startDate)
	v.Set("end_date", endDate)
	v.Set("interval", intervalDay)
	v.Set("temporal_aggregation", "false")
	v.Set("matched", matchedFilter)
	v.Set("include_clusters", boolString(flags.IncludeClusters))
	v.Set("include_routes", boolString(flags.IncludeRoutes))
	v.Set("include_stats", boolString(flags.IncludeStats))
	v.Set("max_distance_km", proximityMaxDistanceKm)
	v.Set("same_date_only", proximitySameDateOnly)
	v.Set("max_time_hours", routeMaxTimeHours)
	v.Set("max_distance_km_route", routeMaxDistanceKm)
	v.Set("min_route_length", routeMinLength)
	return v
}

func windowParams(eezIDs []string, startDate, endDate string) url.Values {
	v := url.Values{}
	v.Set("eez_ids", EncodeEEZIDs(eezIDs))
	v.Set("start_date", startDate)
	v.Set("end_date", endDate)
	return v
}
