package coordinator

import (
	"errors"
	"fmt"
	"time"
)

// ErrBusy rejects a Submit while a previous lifecycle is still pending.
var ErrBusy = errors.New("a filter request is already in flight")

// ValidationError blocks submission before any network call is made.
type ValidationError struct {
	Field string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid filter submission: %s", e.Field)
}

// TimeoutError is raised when the coordinator's own timer aborts the call.
// The message carries the computed budget and the query size so the user can
// judge whether to retry with a narrower query.
type TimeoutError struct {
	Timeout  time.Duration
	Days     int
	EEZCount int
}

func (e *TimeoutError) Error() string {
	mins := int((e.Timeout + 30*time.Second) / time.Minute)
	return fmt.Sprintf("query timed out after %d min (%d days x %d EEZs); try a narrower range",
		mins, e.Days, e.EEZCount)
}
