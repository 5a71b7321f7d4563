package history

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/marisklase/darkwatch/internal/model"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

func filterState(id string, at time.Time) model.FilterState {
	return model.FilterState{
		RequestID:   id,
		EEZIDs:      []string{"8316", "8492"},
		StartDate:   "2025-10-01",
		EndDate:     "2025-10-08",
		Flags:       model.OptionFlags{IncludeClusters: true},
		SubmittedAt: at,
	}
}

func TestRecordAndRecent(t *testing.T) {
	s := openTemp(t)
	base := time.Date(2025, 10, 15, 10, 0, 0, 0, time.UTC)

	if err := s.RecordOutcome(filterState("r1", base), "succeeded", "", 120, 3*time.Second); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}
	if err := s.RecordOutcome(filterState("r2", base.Add(time.Minute)), "timed_out",
		"query timed out after 5 min (45 days x 2 EEZs); try a narrower range", 0, 280*time.Second); err != nil {
		t.Fatalf("RecordOutcome: %v", err)
	}

	recs, err := s.Recent(10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("records=%d want 2", len(recs))
	}
	if recs[0].RequestID != "r2" {
		t.Fatalf("newest first expected, got %s", recs[0].RequestID)
	}
	if recs[1].Outcome != "succeeded" || recs[1].Detections != 120 {
		t.Fatalf("record=%+v", recs[1])
	}
	if recs[0].EEZIDs != `["8316","8492"]` {
		t.Fatalf("eez_ids=%s", recs[0].EEZIDs)
	}
}

func TestRecent_Limit(t *testing.T) {
	s := openTemp(t)
	base := time.Date(2025, 10, 15, 10, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := s.RecordOutcome(filterState(id, base.Add(time.Duration(i)*time.Minute)), "succeeded", "", 1, time.Second); err != nil {
			t.Fatalf("RecordOutcome: %v", err)
		}
	}
	recs, err := s.Recent(2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(recs) != 2 || recs[0].RequestID != "c" {
		t.Fatalf("recs=%+v", recs)
	}
}
