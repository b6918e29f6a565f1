package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"alertengine/internal/domain"
)

func TestMemoryAlertStoreSaveAssignsIDAndIndexesKey(t *testing.T) {
	t.Parallel()

	s := NewMemoryAlertStore()
	alert := domain.Alert{TenantID: "t1", ReductionKey: "t1:uei.down:5", Severity: domain.SeverityMajor}

	if err := s.Save(context.Background(), &alert); err != nil {
		t.Fatalf("save: %v", err)
	}
	if alert.ID == "" {
		t.Fatalf("expected assigned id")
	}

	loaded, err := s.FindByReductionKey(context.Background(), "t1", "t1:uei.down:5")
	if err != nil {
		t.Fatalf("find by reduction key: %v", err)
	}
	if loaded.ID != alert.ID || loaded.Severity != domain.SeverityMajor {
		t.Fatalf("unexpected alert: %+v", loaded)
	}
}

func TestMemoryAlertStoreRejectsDuplicateReductionKey(t *testing.T) {
	t.Parallel()

	s := NewMemoryAlertStore()
	first := domain.Alert{TenantID: "t1", ReductionKey: "t1:uei.down:5"}
	if err := s.Save(context.Background(), &first); err != nil {
		t.Fatalf("save first: %v", err)
	}

	second := domain.Alert{TenantID: "t1", ReductionKey: "t1:uei.down:5"}
	if err := s.Save(context.Background(), &second); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}

	// Same key in another tenant is an independent bucket.
	other := domain.Alert{TenantID: "t2", ReductionKey: "t1:uei.down:5"}
	if err := s.Save(context.Background(), &other); err != nil {
		t.Fatalf("save other tenant: %v", err)
	}
}

func TestMemoryAlertStoreReductionKeyRewriteReleasesOldKey(t *testing.T) {
	t.Parallel()

	s := NewMemoryAlertStore()
	alert := domain.Alert{TenantID: "t1", ReductionKey: "t1:uei.down:5"}
	if err := s.Save(context.Background(), &alert); err != nil {
		t.Fatalf("save: %v", err)
	}

	alert.ReductionKey = "archive:t1:uei.down:5:" + alert.ID
	if err := s.Save(context.Background(), &alert); err != nil {
		t.Fatalf("rewrite keys: %v", err)
	}

	if _, err := s.FindByReductionKey(context.Background(), "t1", "t1:uei.down:5"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected released key, got %v", err)
	}
	fresh := domain.Alert{TenantID: "t1", ReductionKey: "t1:uei.down:5"}
	if err := s.Save(context.Background(), &fresh); err != nil {
		t.Fatalf("expected key reuse after rewrite, got %v", err)
	}
}

func TestMemoryAlertStoreDeleteAndClearKeyLookup(t *testing.T) {
	t.Parallel()

	s := NewMemoryAlertStore()
	alert := domain.Alert{TenantID: "t1", ReductionKey: "rk", ClearKey: "ck"}
	if err := s.Save(context.Background(), &alert); err != nil {
		t.Fatalf("save: %v", err)
	}

	byClear, err := s.FindByClearKey(context.Background(), "t1", "ck")
	if err != nil || byClear.ID != alert.ID {
		t.Fatalf("find by clear key: %v %+v", err, byClear)
	}

	if err := s.Delete(context.Background(), "t1", alert.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(context.Background(), "t1", alert.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
	if _, err := s.FindByID(context.Background(), "t1", alert.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestMemoryAlertStoreSaveAllAtomicConflictCheck(t *testing.T) {
	t.Parallel()

	s := NewMemoryAlertStore()
	existing := domain.Alert{TenantID: "t1", ReductionKey: "rk1"}
	if err := s.Save(context.Background(), &existing); err != nil {
		t.Fatalf("save existing: %v", err)
	}

	fresh := domain.Alert{TenantID: "t1", ReductionKey: "rk2"}
	conflicting := domain.Alert{TenantID: "t1", ReductionKey: "rk1"}
	err := s.SaveAll(context.Background(), []*domain.Alert{&fresh, &conflicting})
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected duplicate key error, got %v", err)
	}
	// The batch must not be partially applied.
	if _, err := s.FindByReductionKey(context.Background(), "t1", "rk2"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected rk2 absent after failed batch, got %v", err)
	}
}

func TestMemoryThresholdStoreCountsUnexpired(t *testing.T) {
	t.Parallel()

	s := NewMemoryThresholdStore()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	save := func(expiry time.Time) {
		err := s.Save(context.Background(), domain.ThresholdedEvent{
			UEI:          "uei.down",
			ReductionKey: "rk",
			TenantID:     "t1",
			CreateTime:   now.Add(-time.Minute),
			ExpiryTime:   expiry,
		})
		if err != nil {
			t.Fatalf("save: %v", err)
		}
	}
	save(now.Add(-time.Second))
	save(now)
	save(now.Add(time.Minute))

	count, err := s.CountActive(context.Background(), "t1", "rk", now)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 unexpired events, got %d", count)
	}

	count, err = s.CountActive(context.Background(), "t2", "rk", now)
	if err != nil || count != 0 {
		t.Fatalf("expected empty tenant count, got %d err=%v", count, err)
	}
}

func TestMemoryDefinitionStoreUpsert(t *testing.T) {
	t.Parallel()

	s := NewMemoryDefinitionStore()
	definition := domain.AlertDefinition{
		TenantID:     "t1",
		UEI:          "uei.down",
		ReductionKey: "%s:%s:%d",
		Type:         domain.AlertTypeAlarm,
	}
	if err := s.Save(context.Background(), definition); err != nil {
		t.Fatalf("save: %v", err)
	}

	found, err := s.FindByTenantAndUEI(context.Background(), "t1", "uei.down")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(found) != 1 || found[0].ID == 0 {
		t.Fatalf("unexpected definitions: %+v", found)
	}

	missing, err := s.FindByTenantAndUEI(context.Background(), "t1", "uei.other")
	if err != nil || len(missing) != 0 {
		t.Fatalf("expected empty result, got %+v err=%v", missing, err)
	}
}

func TestMemoryTagStorePolicyLookup(t *testing.T) {
	t.Parallel()

	s := NewMemoryTagStore()
	s.Tag("t1", 5, 10, 11)

	ids, err := s.PolicyIDs(context.Background(), "t1", 5)
	if err != nil || len(ids) != 2 {
		t.Fatalf("policy ids: %v %v", ids, err)
	}
	empty, err := s.PolicyIDs(context.Background(), "t1", 6)
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected no policies for untagged node, got %v", empty)
	}
}
