package threshold

import (
	"context"
	"testing"
	"time"

	"alertengine/internal/store"
)

func TestTrackerGateReachesTriggerCount(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tracker := NewTracker(store.NewMemoryThresholdStore(), func() time.Time { return now })

	for i := 0; i < 2; i++ {
		if err := tracker.Record(context.Background(), "uei.down", "rk", "t1", now, time.Minute); err != nil {
			t.Fatalf("record: %v", err)
		}
		met, err := tracker.IsMet(context.Background(), "rk", "t1", 3)
		if err != nil {
			t.Fatalf("is met: %v", err)
		}
		if met {
			t.Fatalf("expected threshold unmet after %d events", i+1)
		}
	}

	if err := tracker.Record(context.Background(), "uei.down", "rk", "t1", now, time.Minute); err != nil {
		t.Fatalf("record: %v", err)
	}
	met, err := tracker.IsMet(context.Background(), "rk", "t1", 3)
	if err != nil || !met {
		t.Fatalf("expected threshold met on 3rd event, met=%v err=%v", met, err)
	}
}

func TestTrackerIgnoresExpiredOccurrences(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := now
	tracker := NewTracker(store.NewMemoryThresholdStore(), func() time.Time { return current })

	if err := tracker.Record(context.Background(), "uei.down", "rk", "t1", now, time.Minute); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := tracker.Record(context.Background(), "uei.down", "rk", "t1", now.Add(90*time.Second), time.Minute); err != nil {
		t.Fatalf("record: %v", err)
	}

	// First occurrence expired, only the second remains in the window.
	current = now.Add(2 * time.Minute)
	met, err := tracker.IsMet(context.Background(), "rk", "t1", 2)
	if err != nil {
		t.Fatalf("is met: %v", err)
	}
	if met {
		t.Fatalf("expected threshold unmet after expiry")
	}
}

func TestTrackerZeroWindowNeverExpires(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	current := now
	tracker := NewTracker(store.NewMemoryThresholdStore(), func() time.Time { return current })

	if err := tracker.Record(context.Background(), "uei.down", "rk", "t1", now, 0); err != nil {
		t.Fatalf("record: %v", err)
	}

	current = now.AddDate(100, 0, 0)
	met, err := tracker.IsMet(context.Background(), "rk", "t1", 1)
	if err != nil || !met {
		t.Fatalf("expected occurrence to count after 100 years, met=%v err=%v", met, err)
	}
}

func TestNoExpiryWindowIsRepresentable(t *testing.T) {
	t.Parallel()

	if noExpiryWindow <= 0 {
		t.Fatalf("no-expiry sentinel overflowed to %d", int64(noExpiryWindow))
	}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if expiry := now.Add(noExpiryWindow); !expiry.After(now.AddDate(100, 0, 0)) {
		t.Fatalf("no-expiry sentinel yields expiry %v, wanted beyond a century", expiry)
	}
}
