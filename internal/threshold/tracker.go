package threshold

import (
	"context"
	"fmt"
	"time"

	"alertengine/internal/domain"
	"alertengine/internal/store"
)

// noExpiryWindow stands in for "always counts" when no overtime is
// configured. 200 years keeps the expiry far beyond any alert's lifetime
// while staying well inside the int64 nanosecond range of time.Duration.
const noExpiryWindow = 200 * 365 * 24 * time.Hour

// Tracker records thresholded occurrences and answers trigger-count queries.
// Params: threshold store backend and clock.
// Returns: threshold gate used by the reducer.
type Tracker struct {
	store store.ThresholdStore
	now   func() time.Time
}

// NewTracker creates a tracker on top of a threshold store.
// Params: backend store and now function (defaults to time.Now when nil).
// Returns: initialized tracker.
func NewTracker(thresholds store.ThresholdStore, now func() time.Time) *Tracker {
	if now == nil {
		now = time.Now
	}
	return &Tracker{store: thresholds, now: now}
}

// Record persists one triggering occurrence with its expiry.
// Params: event UEI, reduction key, tenant, event time, and overtime window.
// Returns: store error.
func (t *Tracker) Record(ctx context.Context, uei, reductionKey, tenantID string, eventTime time.Time, window time.Duration) error {
	if window <= 0 {
		window = noExpiryWindow
	}
	event := domain.ThresholdedEvent{
		UEI:          uei,
		ReductionKey: reductionKey,
		TenantID:     tenantID,
		CreateTime:   eventTime,
		ExpiryTime:   eventTime.Add(window),
	}
	if err := t.store.Save(ctx, event); err != nil {
		return fmt.Errorf("record thresholded event: %w", err)
	}
	return nil
}

// IsMet reports whether the trigger count is reached within the window.
// Params: reduction key, tenant, and configured trigger count.
// Returns: true when unexpired occurrences reach the trigger count.
func (t *Tracker) IsMet(ctx context.Context, reductionKey, tenantID string, triggerCount int32) (bool, error) {
	count, err := t.store.CountActive(ctx, tenantID, reductionKey, t.now())
	if err != nil {
		return false, fmt.Errorf("count thresholded events: %w", err)
	}
	return count >= int(triggerCount), nil
}
