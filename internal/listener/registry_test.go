package listener

import (
	"errors"
	"log/slog"
	"sync"
	"testing"

	"alertengine/internal/domain"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestRegistryIsolatesFailingListener(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(discardLogger())
	registry.Subscribe("broken", func(domain.Change) error {
		return errors.New("boom")
	})
	registry.Subscribe("panicky", func(domain.Change) error {
		panic("boom")
	})

	received := 0
	registry.Subscribe("healthy", func(change domain.Change) error {
		received++
		if change.Kind != domain.ChangeCreated {
			t.Errorf("unexpected kind %q", change.Kind)
		}
		return nil
	})

	registry.Notify(domain.Change{Kind: domain.ChangeCreated, TenantID: "t1"})
	registry.Notify(domain.Change{Kind: domain.ChangeCreated, TenantID: "t1"})

	if received != 2 {
		t.Fatalf("expected healthy listener to receive 2 changes, got %d", received)
	}
}

func TestSubscriptionCancelStopsDelivery(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(discardLogger())
	received := 0
	sub := registry.Subscribe("counting", func(domain.Change) error {
		received++
		return nil
	})

	registry.Notify(domain.Change{Kind: domain.ChangeUpdated})
	sub.Cancel()
	sub.Cancel() // repeated cancel is a no-op
	registry.Notify(domain.Change{Kind: domain.ChangeUpdated})

	if received != 1 {
		t.Fatalf("expected 1 delivery before cancel, got %d", received)
	}
}

func TestRegistryConcurrentSubscribeAndNotify(t *testing.T) {
	t.Parallel()

	registry := NewRegistry(discardLogger())
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := registry.Subscribe("churn", func(domain.Change) error { return nil })
			registry.Notify(domain.Change{Kind: domain.ChangeDeleted})
			sub.Cancel()
		}()
	}
	wg.Wait()
}
