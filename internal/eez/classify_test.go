package eez

import "testing"

func TestClassify(t *testing.T) {
	cases := []struct {
		label string
		want  Claim
	}{
		{"Overlapping claim Falkland / Malvinas Islands", ClaimOverlapping},
		{"Joint regime area Colombia / Jamaica", ClaimJoint},
		{"Sovereign waters of Spain", ClaimSovereign},
		{"Portugal", ClaimUnknown},
	}
	for _, tc := range cases {
		if got := Classify(tc.label); got != tc.want {
			t.Errorf("Classify(%q)=%s want %s", tc.label, got, tc.want)
		}
	}
}

func TestCountryNames_ExcludesDisputedClaims(t *testing.T) {
	names := CountryNames(map[string]Entry{
		"1": {Label: "France", ISO3Codes: []string{"FRA"}},
		"2": {Label: "France", ISO3Codes: []string{"FRA"}},
		"3": {Label: "Overlapping claim France / UK", ISO3Codes: []string{"FRA"}},
		"4": {Label: "New Caledonia", ISO3Codes: []string{"FRA"}},
	})
	if names["FRA"] != "France" {
		t.Fatalf("canonical name for FRA = %q, want France", names["FRA"])
	}
}
