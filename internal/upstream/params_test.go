package upstream

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/marisklase/darkwatch/internal/model"
)

func TestEncodeEEZIDs(t *testing.T) {
	if got := EncodeEEZIDs([]string{"8316", "8492"}); got != `["8316","8492"]` {
		t.Fatalf("EncodeEEZIDs=%s", got)
	}
	if got := EncodeEEZIDs(nil); got != "null" && got != "[]" {
		// Marshal of a nil slice yields null; the backend treats both as empty.
		t.Fatalf("EncodeEEZIDs(nil)=%s", got)
	}
}

func TestParseEEZIDs(t *testing.T) {
	cases := []struct {
		name string
		in   []string
		want []string
	}{
		{"json array", []string{`["8316","8492"]`}, []string{"8316", "8492"}},
		{"json array of numbers", []string{`[8316, 8492]`}, []string{"8316", "8492"}},
		{"comma separated", []string{"8316, 8492,8341"}, []string{"8316", "8492", "8341"}},
		{"repeated params", []string{"8316", "8492"}, []string{"8316", "8492"}},
		{"single id", []string{"8316"}, []string{"8316"}},
		{"empty", nil, nil},
		{"bad json", []string{`[8316`}, []string{"[8316"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if diff := cmp.Diff(tc.want, ParseEEZIDs(tc.in)); diff != "" {
				t.Fatalf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDetectionsParams_FixedAnalysisParameters(t *testing.T) {
	v := detectionsParams([]string{"8316"}, "2025-10-01", "2025-10-08",
		model.OptionFlags{IncludeClusters: true, IncludeStats: true})

	want := map[string]string{
		"eez_ids":               `["8316"]`,
		"start_date":            "2025-10-01",
		"end_date":              "2025-10-08",
		"interval":              "DAY",
		"temporal_aggregation":  "false",
		"matched":               "false",
		"include_clusters":      "true",
		"include_routes":        "false",
		"include_stats":         "true",
		"max_distance_km":       "5",
		"same_date_only":        "true",
		"max_time_hours":        "48",
		"max_distance_km_route": "100",
		"min_route_length":      "2",
	}
	for k, w := range want {
		if got := v.Get(k); got != w {
			t.Errorf("param %s=%q want %q", k, got, w)
		}
	}
}
