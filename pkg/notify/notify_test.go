package notify

import (
	"testing"
	"time"
)

func TestCenterAutoDismiss(t *testing.T) {
	center := NewCenter(20 * time.Millisecond)

	center.Notify(Notification{Message: "Welcome back, alice", Severity: SeveritySuccess})

	got := center.Current()
	if got == nil || got.Message != "Welcome back, alice" {
		t.Fatalf("expected active notification, got %v", got)
	}

	deadline := time.Now().Add(time.Second)
	for center.Current() != nil {
		if time.Now().After(deadline) {
			t.Fatal("notification was not auto-dismissed")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestCenterStickyPersists(t *testing.T) {
	center := NewCenter(10 * time.Millisecond)

	center.Notify(Notification{Message: "Backend URL missing", Severity: SeverityCritical, Sticky: true})
	time.Sleep(50 * time.Millisecond)

	got := center.Current()
	if got == nil || !got.Sticky {
		t.Fatal("sticky notification should persist past the dismiss delay")
	}

	center.Notify(Notification{Message: "Session Terminated", Severity: SeverityInfo})
	got = center.Current()
	if got == nil || got.Message != "Session Terminated" {
		t.Fatalf("expected replacement notification, got %v", got)
	}
}

func TestCenterReplaceCancelsPendingDismiss(t *testing.T) {
	center := NewCenter(30 * time.Millisecond)

	center.Notify(Notification{Message: "first", Severity: SeverityInfo})
	center.Notify(Notification{Message: "second", Severity: SeverityInfo})

	// The first notification's timer must not clear the second.
	time.Sleep(10 * time.Millisecond)
	if got := center.Current(); got == nil || got.Message != "second" {
		t.Fatalf("expected second notification to remain, got %v", got)
	}
}

func TestCenterDismiss(t *testing.T) {
	center := NewCenter(time.Minute)
	center.Notify(Notification{Message: "x", Severity: SeverityInfo})
	center.Dismiss()
	if center.Current() != nil {
		t.Fatal("expected dismissed notification")
	}
}

func TestRecorder(t *testing.T) {
	rec := &Recorder{}
	rec.Notify(Notification{Message: "a"})
	rec.Notify(Notification{Message: "b"})

	if got := rec.Last(); got == nil || got.Message != "b" {
		t.Fatalf("unexpected last notification %v", got)
	}
	if got := len(rec.All()); got != 2 {
		t.Fatalf("expected 2 notifications, got %d", got)
	}
	rec.Reset()
	if rec.Last() != nil {
		t.Fatal("expected reset recorder to be empty")
	}
}
