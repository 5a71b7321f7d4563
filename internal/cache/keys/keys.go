// Package keys builds the Redis key space for cached upstream responses.
package keys

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"
)

const prefix = "dw"

// Configs caches the /api/configs payload.
func Configs() string {
	return prefix + ":configs"
}

// Boundary caches one EEZ's boundary geometry. Per-EEZ keys let an
// invalidation event flush exactly the affected zones.
func Boundary(eezID string) string {
	return prefix + ":boundary:" + sanitize(eezID)
}

// Window keys a query-window-scoped payload (association totals, stats) by a
// stable hash of the sorted EEZ set plus the date range.
func Window(kind string, eezIDs []string, startDate, endDate string) string {
	ids := append([]string(nil), eezIDs...)
	sort.Strings(ids)
	canonical := strings.Join(ids, ",") + "|" + startDate + "|" + endDate
	return fmt.Sprintf("%s:%s:%016x", prefix, sanitize(kind), xxhash.Sum64String(canonical))
}

// sanitize keeps keys printable: whitespace collapses to '_', anything
// outside [A-Za-z0-9:_-] becomes '-'.
func sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	var prev rune
	for _, r := range s {
		out := r
		switch {
		case r == ' ' || r == '\t' || r == '\n' || r == '\r':
			out = '_'
		case isAlphaNum(r) || r == ':' || r == '_' || r == '-':
		default:
			out = '-'
		}
		if (out == '_' || out == '-') && out == prev {
			continue
		}
		b.WriteRune(out)
		prev = out
	}
	return b.String()
}

func isAlphaNum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}
