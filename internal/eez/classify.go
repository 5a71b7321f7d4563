package eez

import "strings"

// Claim classification follows the EEZ naming conventions used by the
// upstream dictionary.
type Claim string

const (
	ClaimOverlapping Claim = "overlapping"
	ClaimJoint       Claim = "joint"
	ClaimSovereign   Claim = "sovereign"
	ClaimUnknown     Claim = "unknown"
)

func Classify(label string) Claim {
	l := strings.ToLower(label)
	switch {
	case strings.Contains(l, "overlapping claim"):
		return ClaimOverlapping
	case strings.Contains(l, "joint regime"):
		return ClaimJoint
	case strings.Contains(l, "sovereign"):
		return ClaimSovereign
	default:
		return ClaimUnknown
	}
}

// CountryNames builds an ISO3 -> canonical country name mapping from the
// dictionary, picking the most frequent label per code. Overlapping and joint
// regime claims never contribute a canonical name.
func CountryNames(entries map[string]Entry) map[string]string {
	counts := map[string]map[string]int{}
	for _, e := range entries {
		if strings.TrimSpace(e.Label) == "" || len(e.ISO3Codes) == 0 {
			continue
		}
		switch Classify(e.Label) {
		case ClaimOverlapping, ClaimJoint:
			continue
		}
		iso3 := e.ISO3Codes[0]
		if counts[iso3] == nil {
			counts[iso3] = map[string]int{}
		}
		counts[iso3][e.Label]++
	}

	out := make(map[string]string, len(counts))
	for iso3, labels := range counts {
		best, bestN := "", -1
		for label, n := range labels {
			if n > bestN || (n == bestN && label < best) {
				best, bestN = label, n
			}
		}
		out[iso3] = best
	}
	return out
}
