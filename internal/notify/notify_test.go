package notify

import (
	"testing"
	"time"
)

func TestPush_ReplacesPrevious(t *testing.T) {
	n := New(time.Minute)
	n.Push(Error, "query failed")
	n.Push(Success, "showing 120 detections")

	cur := n.Current()
	if cur == nil || cur.Level != Success {
		t.Fatalf("current=%+v want latest toast", cur)
	}
}

func TestCurrent_AutoDismissesAfterTTL(t *testing.T) {
	n := New(5 * time.Second)
	base := time.Date(2025, 10, 15, 10, 0, 0, 0, time.UTC)
	n.now = func() time.Time { return base }

	n.Push(Info, "loading")
	if n.Current() == nil {
		t.Fatal("toast missing immediately after push")
	}

	base = base.Add(5 * time.Second)
	if n.Current() != nil {
		t.Fatal("toast survived past its ttl")
	}
}

func TestDismiss(t *testing.T) {
	n := New(time.Minute)
	n.Push(Info, "loading")
	n.Dismiss()
	if n.Current() != nil {
		t.Fatal("toast survived dismiss")
	}
}
