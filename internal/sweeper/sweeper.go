package sweeper

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"alertengine/internal/clock"
	"alertengine/internal/domain"
	"alertengine/internal/lifecycle"
	"alertengine/internal/listener"
	"alertengine/internal/store"
)

// Config carries sweeper tuning knobs.
// Params: tick interval and alert retention window.
// Returns: explicit per-instance configuration.
type Config struct {
	Interval  time.Duration
	Retention time.Duration
}

// DefaultConfig returns the stock sweep cadence and retention window.
// Params: none.
// Returns: 5 second ticks, 14 day retention.
func DefaultConfig() Config {
	return Config{
		Interval:  5 * time.Second,
		Retention: 14 * 24 * time.Hour,
	}
}

// Sweeper deletes alerts whose last update fell outside the retention window.
// Params: per-tenant working set kept current from lifecycle notifications.
// Returns: background aging process.
type Sweeper struct {
	config    Config
	alerts    store.AlertStore
	lifecycle *lifecycle.Service
	registry  *listener.Registry
	clock     clock.Clock
	logger    *slog.Logger

	mu      sync.Mutex
	tracked map[string]map[string]domain.Alert // tenant -> alert id -> snapshot

	subscription *listener.Subscription
	done         chan struct{}
	wg           sync.WaitGroup
}

// New creates the aging sweeper.
// Params: config, alert store, lifecycle service, registry, clock, logger.
// Returns: sweeper ready to start.
func New(
	config Config,
	alerts store.AlertStore,
	lifecycleService *lifecycle.Service,
	registry *listener.Registry,
	clk clock.Clock,
	logger *slog.Logger,
) *Sweeper {
	if config.Interval <= 0 {
		config.Interval = DefaultConfig().Interval
	}
	if config.Retention <= 0 {
		config.Retention = DefaultConfig().Retention
	}
	return &Sweeper{
		config:    config,
		alerts:    alerts,
		lifecycle: lifecycleService,
		registry:  registry,
		clock:     clk,
		logger:    logger,
		tracked:   make(map[string]map[string]domain.Alert),
		done:      make(chan struct{}),
	}
}

// Start warms the working set, subscribes to changes, and begins ticking.
// Params: context bounding the warm load.
// Returns: error when the initial load fails.
func (s *Sweeper) Start(ctx context.Context) error {
	existing, err := s.alerts.FindAll(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	for _, alert := range existing {
		s.trackLocked(alert)
	}
	s.mu.Unlock()

	s.subscription = s.registry.Subscribe("aging-sweeper", s.onChange)
	s.wg.Add(1)
	go s.run()
	s.logger.Info("aging sweeper started",
		"interval", s.config.Interval.String(),
		"retention", s.config.Retention.String(),
		"tracked", len(existing))
	return nil
}

// Stop cancels the subscription and drains the in-flight tick.
// Params: none.
// Returns: none, safe to call once after Start.
func (s *Sweeper) Stop() {
	if s.subscription != nil {
		s.subscription.Cancel()
	}
	close(s.done)
	s.wg.Wait()
}

// run is the single ticking loop, never re-entrant.
// Params: none.
// Returns: none.
func (s *Sweeper) run() {
	defer s.wg.Done()
	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			s.Sweep(context.Background())
		}
	}
}

// Sweep deletes every tracked alert older than the retention window.
// Params: context for the store deletes.
// Returns: none, per-alert failures are logged and never abort the tick.
func (s *Sweeper) Sweep(ctx context.Context) {
	cutoff := s.clock.Now().Add(-s.config.Retention)
	for _, candidate := range s.expired(cutoff) {
		deleted, err := s.lifecycle.Delete(ctx, candidate.TenantID, candidate.ID)
		if err != nil {
			s.logger.Error("failed to age out alert",
				"tenant", candidate.TenantID, "alert", candidate.ID, "error", err.Error())
			continue
		}
		if deleted == nil {
			// Lost the race with an operator delete; stop tracking only.
			s.logger.Warn("alert already deleted before aging sweep",
				"tenant", candidate.TenantID, "alert", candidate.ID)
			s.untrack(candidate.TenantID, candidate.ID)
			continue
		}
		s.logger.Info("aged out alert",
			"tenant", candidate.TenantID, "alert", candidate.ID,
			"last_update", candidate.LastUpdateTime.Format(time.RFC3339))
	}
}

// expired snapshots every tracked alert older than the cutoff.
// Params: retention cutoff time.
// Returns: detached candidates safe to delete outside the lock.
func (s *Sweeper) expired(cutoff time.Time) []domain.Alert {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Alert
	for _, alerts := range s.tracked {
		for _, alert := range alerts {
			if alert.LastUpdateTime.Before(cutoff) {
				out = append(out, alert)
			}
		}
	}
	return out
}

// onChange keeps the working set in sync with lifecycle notifications.
// Params: change payload.
// Returns: nil always.
func (s *Sweeper) onChange(change domain.Change) error {
	switch change.Kind {
	case domain.ChangeDeleted:
		s.untrack(change.TenantID, change.Alert.ID)
	default:
		s.mu.Lock()
		s.trackLocked(change.Alert)
		s.mu.Unlock()
	}
	return nil
}

// Tracked reports how many alerts the sweeper currently watches.
// Params: tenant scope.
// Returns: tracked alert count for the tenant.
func (s *Sweeper) Tracked(tenantID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tracked[tenantID])
}

// trackLocked stores one alert snapshot under the working-set lock.
// Params: alert snapshot.
// Returns: none.
func (s *Sweeper) trackLocked(alert domain.Alert) {
	if s.tracked[alert.TenantID] == nil {
		s.tracked[alert.TenantID] = make(map[string]domain.Alert)
	}
	s.tracked[alert.TenantID][alert.ID] = alert
}

// untrack drops one alert and prunes empty tenant entries.
// Params: tenant scope and alert id.
// Returns: none.
func (s *Sweeper) untrack(tenantID, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.tracked[tenantID], id)
	if len(s.tracked[tenantID]) == 0 {
		delete(s.tracked, tenantID)
	}
}
