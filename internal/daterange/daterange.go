// Package daterange validates the start/end date pair of a filter query.
package daterange

import "time"

// Reason identifies why a date range was rejected.
type Reason string

const (
	OK            Reason = ""
	MissingDate   Reason = "missing_date"
	EndTooRecent  Reason = "end_too_recent"
	StartAfterEnd Reason = "start_after_end"
	RangeTooLong  Reason = "range_too_long"
)

const (
	// Source data lags by up to a week, so the end date must be at least
	// this far in arrears.
	LatencyDays = 7
	// Longest span a single query may cover.
	MaxSpanDays = 30

	layout = "2006-01-02"
)

type Result struct {
	Valid  bool
	Reason Reason
}

// Validate checks a start/end pair against recency and span constraints.
// Pure: no clock access, no side effects.
func Validate(start, end string, now time.Time) Result {
	if start == "" || end == "" {
		return Result{Reason: MissingDate}
	}
	s, err := time.Parse(layout, start)
	if err != nil {
		return Result{Reason: MissingDate}
	}
	e, err := time.Parse(layout, end)
	if err != nil {
		return Result{Reason: MissingDate}
	}

	cutoff := now.UTC().Truncate(24 * time.Hour).AddDate(0, 0, -LatencyDays)
	if e.After(cutoff) {
		return Result{Reason: EndTooRecent}
	}
	if s.After(e) {
		return Result{Reason: StartAfterEnd}
	}
	if DaysBetween(start, end) > MaxSpanDays {
		return Result{Reason: RangeTooLong}
	}
	return Result{Valid: true}
}

// DaysBetween returns the whole-day difference end-start. Malformed input
// yields 0; callers validate first.
func DaysBetween(start, end string) int {
	s, err1 := time.Parse(layout, start)
	e, err2 := time.Parse(layout, end)
	if err1 != nil || err2 != nil {
		return 0
	}
	return int(e.Sub(s).Hours() / 24)
}
