// Package invalidation consumes detection-batch events and flushes the
// response cache for the affected EEZs.
package invalidation

import (
	"fmt"
	"time"
)

// Event announces that the upstream finished ingesting a new detection batch
// for a set of EEZs. Cached configs and boundaries for those zones are stale
// once it arrives.
type Event struct {
	Version   int       `json:"version"`
	EEZIDs    []string  `json:"eez_ids"`
	StartDate string    `json:"start_date,omitempty"`
	EndDate   string    `json:"end_date,omitempty"`
	TS        time.Time `json:"ts"`
	Source    string    `json:"source,omitempty"`
}

func (e Event) Validate() error {
	if e.Version != 1 {
		return fmt.Errorf("version must be 1")
	}
	if len(e.EEZIDs) == 0 {
		return fmt.Errorf("eez_ids is required")
	}
	if e.TS.IsZero() {
		return fmt.Errorf("ts is required")
	}
	const layout = "2006-01-02"
	if e.StartDate != "" {
		if _, err := time.Parse(layout, e.StartDate); err != nil {
			return fmt.Errorf("start_date: %w", err)
		}
	}
	if e.EndDate != "" {
		if _, err := time.Parse(layout, e.EndDate); err != nil {
			return fmt.Errorf("end_date: %w", err)
		}
	}
	return nil
}
