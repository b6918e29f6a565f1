package lifecycle

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"alertengine/internal/clock"
	"alertengine/internal/domain"
	"alertengine/internal/listener"
	"alertengine/internal/store"
)

type fixture struct {
	service  *Service
	alerts   *store.MemoryAlertStore
	registry *listener.Registry
	clock    *clock.Fake
	changes  *[]domain.Change
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fakeClock := clock.NewFake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	alerts := store.NewMemoryAlertStore()
	logger := slog.New(slog.NewTextHandler(discardWriter{}, nil))
	registry := listener.NewRegistry(logger)
	changes := &[]domain.Change{}
	registry.Subscribe("capture", func(change domain.Change) error {
		*changes = append(*changes, change)
		return nil
	})
	return &fixture{
		service:  New(alerts, registry, fakeClock, logger),
		alerts:   alerts,
		registry: registry,
		clock:    fakeClock,
		changes:  changes,
	}
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func (f *fixture) seed(t *testing.T, alert domain.Alert) domain.Alert {
	t.Helper()
	if err := f.alerts.Save(context.Background(), &alert); err != nil {
		t.Fatalf("seed alert: %v", err)
	}
	return alert
}

func TestClearCascadesToAssociatedAlerts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	child := f.seed(t, domain.Alert{
		TenantID:     "t1",
		ReductionKey: "rk-child",
		Severity:     domain.SeverityMinor,
	})
	parent := f.seed(t, domain.Alert{
		TenantID:           "t1",
		ReductionKey:       "rk-parent",
		Severity:           domain.SeverityMajor,
		AssociatedAlertIDs: []string{child.ID},
	})

	cleared, err := f.service.Clear(context.Background(), "t1", parent.ID)
	if err != nil {
		t.Fatalf("clear: %v", err)
	}
	if cleared == nil || cleared.Severity != domain.SeverityCleared {
		t.Fatalf("expected cleared parent, got %+v", cleared)
	}
	clearedChild, err := f.alerts.FindByID(context.Background(), "t1", child.ID)
	if err != nil {
		t.Fatalf("find child: %v", err)
	}
	if clearedChild.Severity != domain.SeverityCleared {
		t.Fatalf("expected cascade to clear child, got %v", clearedChild.Severity)
	}
	if cleared.FirstAutomationTime == nil || cleared.LastAutomationTime == nil {
		t.Fatalf("expected automation timestamps set")
	}
	if len(*f.changes) != 2 {
		t.Fatalf("expected 2 severity notifications, got %d", len(*f.changes))
	}
	if (*f.changes)[0].PreviousSeverity != domain.SeverityMajor {
		t.Fatalf("expected previous severity in notification, got %v", (*f.changes)[0].PreviousSeverity)
	}
}

func TestClearBreaksAssociationCycles(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	a := f.seed(t, domain.Alert{TenantID: "t1", ReductionKey: "rk-a", Severity: domain.SeverityMajor})
	b := f.seed(t, domain.Alert{TenantID: "t1", ReductionKey: "rk-b", Severity: domain.SeverityMajor, AssociatedAlertIDs: []string{a.ID}})
	a.AssociatedAlertIDs = []string{b.ID}
	f.seed(t, a)

	if _, err := f.service.Clear(context.Background(), "t1", a.ID); err != nil {
		t.Fatalf("clear cycle: %v", err)
	}
	for _, id := range []string{a.ID, b.ID} {
		alert, err := f.alerts.FindByID(context.Background(), "t1", id)
		if err != nil {
			t.Fatalf("find %s: %v", id, err)
		}
		if alert.Severity != domain.SeverityCleared {
			t.Fatalf("expected %s cleared, got %v", id, alert.Severity)
		}
	}
}

func TestUnclearRestoresLastEventSeverity(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	alert := f.seed(t, domain.Alert{
		TenantID:          "t1",
		ReductionKey:      "rk",
		Severity:          domain.SeverityCleared,
		LastEventSeverity: domain.SeverityMinor,
	})

	restored, err := f.service.Unclear(context.Background(), "t1", alert.ID)
	if err != nil {
		t.Fatalf("unclear: %v", err)
	}
	if restored.Severity != domain.SeverityMinor {
		t.Fatalf("expected last event severity restored, got %v", restored.Severity)
	}
}

func TestEscalateSaturatesAtCritical(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	alert := f.seed(t, domain.Alert{TenantID: "t1", ReductionKey: "rk", Severity: domain.SeverityMajor})

	for i := 0; i < 4; i++ {
		escalated, err := f.service.Escalate(context.Background(), "t1", alert.ID)
		if err != nil {
			t.Fatalf("escalate %d: %v", i+1, err)
		}
		if escalated == nil {
			t.Fatalf("expected alert, got nil")
		}
	}
	final, err := f.alerts.FindByID(context.Background(), "t1", alert.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if final.Severity != domain.SeverityCritical {
		t.Fatalf("expected saturation at critical, got %v", final.Severity)
	}
}

func TestFirstAutomationTimeSetOnlyOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	alert := f.seed(t, domain.Alert{TenantID: "t1", ReductionKey: "rk", Severity: domain.SeverityMinor})

	first, err := f.service.Escalate(context.Background(), "t1", alert.ID)
	if err != nil {
		t.Fatalf("escalate: %v", err)
	}
	f.clock.Advance(time.Hour)
	second, err := f.service.Escalate(context.Background(), "t1", alert.ID)
	if err != nil {
		t.Fatalf("escalate again: %v", err)
	}
	if !second.FirstAutomationTime.Equal(*first.FirstAutomationTime) {
		t.Fatalf("first automation time must not move")
	}
	if !second.LastAutomationTime.After(*first.LastAutomationTime) {
		t.Fatalf("last automation time must advance")
	}
}

func TestAcknowledgePairAndUnacknowledge(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	alert := f.seed(t, domain.Alert{TenantID: "t1", ReductionKey: "rk", Severity: domain.SeverityMinor})

	acked, err := f.service.Acknowledge(context.Background(), "t1", alert.ID, "operator")
	if err != nil {
		t.Fatalf("acknowledge: %v", err)
	}
	if !acked.IsAcknowledged() || acked.AcknowledgedBy != "operator" {
		t.Fatalf("expected ack pair set, got %+v", acked)
	}

	unacked, err := f.service.Unacknowledge(context.Background(), "t1", alert.ID)
	if err != nil {
		t.Fatalf("unacknowledge: %v", err)
	}
	if unacked.IsAcknowledged() || unacked.AcknowledgedBy != "" || unacked.AcknowledgedAt != nil {
		t.Fatalf("expected ack pair cleared, got %+v", unacked)
	}
}

func TestSetSeverityCarriesPreviousInNotification(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	alert := f.seed(t, domain.Alert{TenantID: "t1", ReductionKey: "rk", Severity: domain.SeverityWarning})

	updated, err := f.service.SetSeverity(context.Background(), "t1", alert.ID, domain.SeverityCritical)
	if err != nil {
		t.Fatalf("set severity: %v", err)
	}
	if updated.Severity != domain.SeverityCritical {
		t.Fatalf("expected critical, got %v", updated.Severity)
	}
	last := (*f.changes)[len(*f.changes)-1]
	if last.Kind != domain.ChangeSeverity || last.PreviousSeverity != domain.SeverityWarning {
		t.Fatalf("unexpected notification %+v", last)
	}
}

func TestStickyMemoUpdateAndIdempotentRemove(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	alert := f.seed(t, domain.Alert{TenantID: "t1", ReductionKey: "rk", Severity: domain.SeverityMinor})

	withMemo, err := f.service.UpdateStickyMemo(context.Background(), "t1", alert.ID, "checked by netops", "operator")
	if err != nil {
		t.Fatalf("update memo: %v", err)
	}
	if withMemo.StickyMemo == nil || withMemo.StickyMemo.Body != "checked by netops" {
		t.Fatalf("expected memo attached, got %+v", withMemo.StickyMemo)
	}
	created := withMemo.StickyMemo.Created

	f.clock.Advance(time.Minute)
	edited, err := f.service.UpdateStickyMemo(context.Background(), "t1", alert.ID, "escalated to vendor", "operator")
	if err != nil {
		t.Fatalf("edit memo: %v", err)
	}
	if !edited.StickyMemo.Created.Equal(created) {
		t.Fatalf("memo created time must not move on edit")
	}
	if !edited.StickyMemo.Updated.After(created) {
		t.Fatalf("memo updated time must advance on edit")
	}

	notifications := len(*f.changes)
	removed, err := f.service.RemoveStickyMemo(context.Background(), "t1", alert.ID)
	if err != nil {
		t.Fatalf("remove memo: %v", err)
	}
	if removed.StickyMemo != nil {
		t.Fatalf("expected memo removed")
	}
	// Removing again is a no-op and must not notify.
	if _, err := f.service.RemoveStickyMemo(context.Background(), "t1", alert.ID); err != nil {
		t.Fatalf("remove memo again: %v", err)
	}
	if len(*f.changes) != notifications+1 {
		t.Fatalf("expected exactly one memo-removed notification, got %d extra", len(*f.changes)-notifications)
	}
}

func TestDeleteDetachesFromSituationsBeforeNotifying(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	child := f.seed(t, domain.Alert{TenantID: "t1", ReductionKey: "rk-child", Severity: domain.SeverityMinor})
	other := f.seed(t, domain.Alert{TenantID: "t1", ReductionKey: "rk-other", Severity: domain.SeverityMinor})
	situation := f.seed(t, domain.Alert{
		TenantID:        "t1",
		ReductionKey:    "rk-situation",
		Severity:        domain.SeverityMajor,
		RelatedAlertIDs: []string{child.ID, other.ID},
	})

	deleted, err := f.service.Delete(context.Background(), "t1", child.ID)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted == nil || deleted.ID != child.ID {
		t.Fatalf("expected deleted child snapshot, got %+v", deleted)
	}
	if _, err := f.alerts.FindByID(context.Background(), "t1", child.ID); err != store.ErrNotFound {
		t.Fatalf("expected child gone, got %v", err)
	}

	parent, err := f.alerts.FindByID(context.Background(), "t1", situation.ID)
	if err != nil {
		t.Fatalf("find situation: %v", err)
	}
	if len(parent.RelatedAlertIDs) != 1 || parent.RelatedAlertIDs[0] != other.ID {
		t.Fatalf("expected child detached from situation, got %v", parent.RelatedAlertIDs)
	}

	changes := *f.changes
	if len(changes) != 2 {
		t.Fatalf("expected related-updated then deleted, got %d notifications", len(changes))
	}
	if changes[0].Kind != domain.ChangeRelatedUpdated {
		t.Fatalf("expected related-updated first, got %v", changes[0].Kind)
	}
	if len(changes[0].PreviousRelated) != 2 {
		t.Fatalf("expected previous related set of 2, got %v", changes[0].PreviousRelated)
	}
	if changes[1].Kind != domain.ChangeDeleted || changes[1].Alert.ID != child.ID {
		t.Fatalf("expected deleted notification last, got %+v", changes[1])
	}
}

func TestOperationsOnMissingAlertReturnNil(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	operations := map[string]func() (*domain.Alert, error){
		"clear":         func() (*domain.Alert, error) { return f.service.Clear(context.Background(), "t1", "missing") },
		"unclear":       func() (*domain.Alert, error) { return f.service.Unclear(context.Background(), "t1", "missing") },
		"escalate":      func() (*domain.Alert, error) { return f.service.Escalate(context.Background(), "t1", "missing") },
		"acknowledge":   func() (*domain.Alert, error) { return f.service.Acknowledge(context.Background(), "t1", "missing", "op") },
		"unacknowledge": func() (*domain.Alert, error) { return f.service.Unacknowledge(context.Background(), "t1", "missing") },
		"delete":        func() (*domain.Alert, error) { return f.service.Delete(context.Background(), "t1", "missing") },
	}
	for name, operation := range operations {
		alert, err := operation()
		if err != nil {
			t.Fatalf("%s: unexpected error %v", name, err)
		}
		if alert != nil {
			t.Fatalf("%s: expected nil for missing alert, got %+v", name, alert)
		}
	}
}
