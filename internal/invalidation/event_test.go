package invalidation

import (
	"context"
	"testing"
	"time"

	"github.com/IBM/sarama"

	"github.com/marisklase/darkwatch/internal/config"
)

func validEvent() Event {
	return Event{
		Version:   1,
		EEZIDs:    []string{"8316"},
		StartDate: "2025-10-01",
		EndDate:   "2025-10-08",
		TS:        time.Date(2025, 10, 9, 4, 0, 0, 0, time.UTC),
		Source:    "ingest",
	}
}

func TestEventValidate(t *testing.T) {
	if err := validEvent().Validate(); err != nil {
		t.Fatalf("valid event rejected: %v", err)
	}

	ev := validEvent()
	ev.Version = 2
	if ev.Validate() == nil {
		t.Fatal("wrong version accepted")
	}

	ev = validEvent()
	ev.EEZIDs = nil
	if ev.Validate() == nil {
		t.Fatal("empty eez_ids accepted")
	}

	ev = validEvent()
	ev.TS = time.Time{}
	if ev.Validate() == nil {
		t.Fatal("zero ts accepted")
	}

	ev = validEvent()
	ev.StartDate = "01/10/2025"
	if ev.Validate() == nil {
		t.Fatal("malformed start_date accepted")
	}
}

type recordingInvalidator struct {
	calls [][]string
}

func (r *recordingInvalidator) Invalidate(_ context.Context, ids []string) error {
	r.calls = append(r.calls, ids)
	return nil
}

func TestProcessOne(t *testing.T) {
	inv := &recordingInvalidator{}
	c := NewConsumer(configFor(t), nil, inv)

	msg := &sarama.ConsumerMessage{Value: []byte(
		`{"version":1,"eez_ids":["8316","8492"],"ts":"2025-10-09T04:00:00Z"}`)}
	if err := c.ProcessOne(context.Background(), msg); err != nil {
		t.Fatalf("ProcessOne: %v", err)
	}
	if len(inv.calls) != 1 || len(inv.calls[0]) != 2 {
		t.Fatalf("invalidate calls=%v", inv.calls)
	}

	// Undecodable and invalid events are skipped, never fatal.
	for _, bad := range []string{`{`, `{"version":1,"eez_ids":[],"ts":"2025-10-09T04:00:00Z"}`} {
		if err := c.ProcessOne(context.Background(), &sarama.ConsumerMessage{Value: []byte(bad)}); err != nil {
			t.Fatalf("bad event surfaced error: %v", err)
		}
	}
	if len(inv.calls) != 1 {
		t.Fatalf("bad events reached the cache: %v", inv.calls)
	}
}

func configFor(t *testing.T) config.InvalidationCfg {
	t.Helper()
	return config.InvalidationCfg{
		Topic:   "detection-batches",
		Brokers: "localhost:9092",
		GroupID: "test",
	}
}
