package daterange

import (
	"testing"
	"time"
)

var now = time.Date(2025, 10, 15, 12, 30, 0, 0, time.UTC)

func TestValidate(t *testing.T) {
	cases := []struct {
		name       string
		start, end string
		want       Reason
	}{
		{"missing start", "", "2025-10-01", MissingDate},
		{"missing end", "2025-10-01", "", MissingDate},
		{"malformed date", "01/10/2025", "2025-10-08", MissingDate},
		{"end six days ago", "2025-10-01", "2025-10-09", EndTooRecent},
		{"end exactly seven days ago", "2025-10-01", "2025-10-08", OK},
		{"start after end", "2025-10-08", "2025-10-01", StartAfterEnd},
		{"thirty day span allowed", "2025-09-08", "2025-10-08", OK},
		{"thirty seven day span rejected", "2025-09-01", "2025-10-08", RangeTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Validate(tc.start, tc.end, now)
			if got.Reason != tc.want {
				t.Fatalf("Validate(%q,%q) reason=%q want %q", tc.start, tc.end, got.Reason, tc.want)
			}
			if got.Valid != (tc.want == OK) {
				t.Fatalf("Valid=%v inconsistent with reason %q", got.Valid, got.Reason)
			}
		})
	}
}

func TestDaysBetween(t *testing.T) {
	if d := DaysBetween("2025-10-01", "2025-10-08"); d != 7 {
		t.Fatalf("DaysBetween=%d want 7", d)
	}
	if d := DaysBetween("2025-09-01", "2025-10-15"); d != 44 {
		t.Fatalf("DaysBetween=%d want 44", d)
	}
	if d := DaysBetween("bad", "2025-10-15"); d != 0 {
		t.Fatalf("DaysBetween malformed=%d want 0", d)
	}
}
