package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"alertengine/internal/clock"
	"alertengine/internal/domain"
	"alertengine/internal/listener"
	"alertengine/internal/permanent"
	"alertengine/internal/reduction"
	"alertengine/internal/store"
	"alertengine/internal/threshold"
)

// Processor reduces inbound events into created or folded alerts.
// Params: stores, threshold tracker, listener registry, clock, and logger.
// Returns: event-to-alert decision procedure.
type Processor struct {
	alerts           store.AlertStore
	definitions      store.DefinitionStore
	tags             store.TagStore
	thresholds       *threshold.Tracker
	registry         *listener.Registry
	clock            clock.Clock
	logger           *slog.Logger
	withoutAlertData atomic.Int64
}

// alertData carries the rendered reduction inputs for one definition.
// Params: keys, type, attached policies, and the alert condition.
// Returns: per-definition fold context.
type alertData struct {
	keys      reduction.Keys
	alertType domain.AlertType
	policyIDs []int64
	condition domain.AlertCondition
}

// New creates the event reducer.
// Params: alert/definition/tag stores, threshold tracker, registry, clock, logger.
// Returns: initialized processor.
func New(
	alerts store.AlertStore,
	definitions store.DefinitionStore,
	tags store.TagStore,
	thresholds *threshold.Tracker,
	registry *listener.Registry,
	clk clock.Clock,
	logger *slog.Logger,
) *Processor {
	return &Processor{
		alerts:      alerts,
		definitions: definitions,
		tags:        tags,
		thresholds:  thresholds,
		registry:    registry,
		clock:       clk,
		logger:      logger,
	}
}

// Process reduces one event into zero or more created/updated alerts.
// Params: context and validated inbound event.
// Returns: affected alerts, empty when no definition matched or the
// threshold window absorbed the event; error only on infrastructure failure.
func (p *Processor) Process(ctx context.Context, event domain.Event) ([]domain.Alert, error) {
	if err := event.Validate(); err != nil {
		return nil, permanent.Mark(fmt.Errorf("reject event: %w", err))
	}
	return p.reduce(ctx, event, false)
}

// EventsWithoutAlertData returns how many events matched no definition.
// Params: none.
// Returns: monotonically increasing counter value.
func (p *Processor) EventsWithoutAlertData() int64 {
	return p.withoutAlertData.Load()
}

// reduce runs the full fan-out reduction for one event.
// Params: context, event, and whether this is the post-conflict retry.
// Returns: affected alerts or first infrastructure error.
func (p *Processor) reduce(ctx context.Context, event domain.Event, retried bool) ([]domain.Alert, error) {
	definitions, err := p.lookupDefinitions(ctx, event)
	if err != nil {
		return nil, err
	}
	if len(definitions) == 0 {
		p.withoutAlertData.Add(1)
		p.logger.Debug("event without alert data",
			"tenant", event.TenantID, "uei", event.UEI)
		return nil, nil
	}

	now := p.clock.Now()
	touched := make([]*domain.Alert, 0, len(definitions))
	kinds := make([]domain.ChangeKind, 0, len(definitions))
	for _, definition := range definitions {
		data, err := p.buildAlertData(ctx, event, definition)
		if err != nil {
			return nil, err
		}
		alert, created, err := p.createOrUpdate(ctx, event, data, now, retried)
		if err != nil {
			return nil, err
		}
		if alert == nil {
			continue
		}
		alert.LastUpdateTime = now
		touched = append(touched, alert)
		if created {
			kinds = append(kinds, domain.ChangeCreated)
		} else {
			kinds = append(kinds, domain.ChangeUpdated)
		}
	}
	if len(touched) == 0 {
		return nil, nil
	}

	if err := p.alerts.SaveAll(ctx, touched); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) && !retried {
			// Another worker committed the first insert for this key; the
			// next pass finds the winner and folds onto it instead.
			p.logger.Warn("reduction key insert conflict, refolding event",
				"tenant", event.TenantID, "uei", event.UEI)
			return p.reduce(ctx, event, true)
		}
		return nil, fmt.Errorf("save reduced alerts: %w", err)
	}

	out := make([]domain.Alert, 0, len(touched))
	for i, alert := range touched {
		snapshot := alert.Clone()
		p.registry.Notify(domain.Change{
			Kind:     kinds[i],
			TenantID: snapshot.TenantID,
			Alert:    snapshot,
		})
		out = append(out, snapshot)
	}
	return out, nil
}

// lookupDefinitions loads tenant definitions with system-tenant fallback.
// Params: context and event.
// Returns: matching definitions, possibly empty.
func (p *Processor) lookupDefinitions(ctx context.Context, event domain.Event) ([]domain.AlertDefinition, error) {
	definitions, err := p.definitions.FindByTenantAndUEI(ctx, event.TenantID, event.UEI)
	if err != nil {
		return nil, fmt.Errorf("lookup alert definitions: %w", err)
	}
	if len(definitions) > 0 {
		return definitions, nil
	}
	definitions, err = p.definitions.FindByTenantAndUEI(ctx, domain.SystemTenant, event.UEI)
	if err != nil {
		return nil, fmt.Errorf("lookup system alert definitions: %w", err)
	}
	return definitions, nil
}

// buildAlertData renders keys and resolves attached policies for one definition.
// Params: context, event, and definition.
// Returns: fold context or configuration error on malformed templates.
func (p *Processor) buildAlertData(ctx context.Context, event domain.Event, definition domain.AlertDefinition) (alertData, error) {
	keys, err := reduction.Render(event, definition)
	if err != nil {
		return alertData{}, permanent.Mark(fmt.Errorf("definition %d for uei %q: %w", definition.ID, definition.UEI, err))
	}
	policyIDs, err := p.policyIDs(ctx, event, definition)
	if err != nil {
		return alertData{}, err
	}
	return alertData{
		keys:      keys,
		alertType: definition.Type,
		policyIDs: policyIDs,
		condition: definition.Condition,
	}, nil
}

// policyIDs intersects node tag policies with the definition's owning policy.
// Params: context, event, and definition.
// Returns: policies attached to the resulting alert.
func (p *Processor) policyIDs(ctx context.Context, event domain.Event, definition domain.AlertDefinition) ([]int64, error) {
	tagged, err := p.tags.PolicyIDs(ctx, event.TenantID, event.NodeID)
	if err != nil {
		return nil, fmt.Errorf("lookup node policies: %w", err)
	}
	if definition.PolicyID == 0 {
		return tagged, nil
	}
	for _, id := range tagged {
		if id == definition.PolicyID {
			return []int64{definition.PolicyID}, nil
		}
	}
	return nil, nil
}

// createOrUpdate applies the fold decision for one definition.
// Params: context, event, fold context, processing time, and retry flag.
// Returns: affected alert (nil when absorbed), created flag, and error.
func (p *Processor) createOrUpdate(ctx context.Context, event domain.Event, data alertData, now time.Time, retried bool) (*domain.Alert, bool, error) {
	var existing *domain.Alert

	// Clear-key lookup strictly precedes reduction-key lookup. The clear
	// key of a resolving definition names the raising alert's reduction key,
	// so the rendered value is probed against both key columns.
	if data.keys.HasClearKey() {
		found, err := p.findByClearKey(ctx, event.TenantID, data.keys.ClearKey)
		switch {
		case err == nil:
			existing = &found
		case errors.Is(err, store.ErrNotFound):
			p.logger.Debug("no alert for clear key, possibly an out-of-order event",
				"tenant", event.TenantID, "uei", event.UEI, "clear_key", data.keys.ClearKey)
		default:
			return nil, false, fmt.Errorf("lookup alert by clear key: %w", err)
		}
	}
	if existing == nil {
		found, err := p.alerts.FindByReductionKey(ctx, event.TenantID, data.keys.ReductionKey)
		switch {
		case err == nil:
			existing = &found
		case errors.Is(err, store.ErrNotFound):
		default:
			return nil, false, fmt.Errorf("lookup alert by reduction key: %w", err)
		}
	}

	// A cleared alert for the same UEI resets the threshold run: archive it
	// so its keys are released and the event starts a fresh alert.
	if existing != nil && existing.Severity == domain.SeverityCleared && existing.UEI == event.UEI {
		if err := p.archiveClearedAlert(ctx, existing, now); err != nil {
			return nil, false, err
		}
		existing = nil
	}

	thresholdMet := true
	if data.condition.RequiresThresholding() && data.alertType != domain.AlertTypeClear {
		// The first pass already persisted this occurrence; the conflict
		// retry must not count the same event twice.
		if !retried {
			eventTime := event.Timestamp(now)
			if err := p.thresholds.Record(ctx, event.UEI, data.keys.ReductionKey, event.TenantID, eventTime, data.condition.Window()); err != nil {
				return nil, false, err
			}
		}
		met, err := p.thresholds.IsMet(ctx, data.keys.ReductionKey, event.TenantID, data.condition.Count)
		if err != nil {
			return nil, false, err
		}
		thresholdMet = met
	}

	if existing == nil {
		if !thresholdMet {
			return nil, false, nil
		}
		alert := p.newAlert(event, data, now)
		return &alert, true, nil
	}
	p.fold(existing, event, data, now)
	return existing, false, nil
}

// findByClearKey resolves a rendered clear key to its fold target.
// Params: context, tenant scope, and rendered clear key value.
// Returns: matching alert, store.ErrNotFound when neither key column matches.
func (p *Processor) findByClearKey(ctx context.Context, tenantID, clearKey string) (domain.Alert, error) {
	found, err := p.alerts.FindByReductionKey(ctx, tenantID, clearKey)
	if err == nil || !errors.Is(err, store.ErrNotFound) {
		return found, err
	}
	return p.alerts.FindByClearKey(ctx, tenantID, clearKey)
}

// archiveClearedAlert rewrites a cleared alert's keys into the archive namespace.
// Params: context, cleared alert, and processing time.
// Returns: save error.
func (p *Processor) archiveClearedAlert(ctx context.Context, alert *domain.Alert, now time.Time) error {
	if alert.Severity != domain.SeverityCleared {
		return permanent.Mark(errors.New("only cleared alerts can be archived"))
	}
	keys := reduction.ArchiveKeys(*alert)
	alert.ReductionKey = keys.ReductionKey
	alert.ClearKey = keys.ClearKey
	alert.LastUpdateTime = now
	if err := p.alerts.Save(ctx, alert); err != nil {
		return fmt.Errorf("archive cleared alert %s: %w", alert.ID, err)
	}
	p.logger.Info("archived cleared alert",
		"tenant", alert.TenantID, "alert", alert.ID, "reduction_key", alert.ReductionKey)
	return nil
}

// newAlert builds a brand-new alert for the first qualifying occurrence.
// Params: event, fold context, and processing time.
// Returns: alert with counter 1.
func (p *Processor) newAlert(event domain.Event, data alertData, now time.Time) domain.Alert {
	eventTime := event.Timestamp(now)
	alert := domain.Alert{
		TenantID:            event.TenantID,
		ReductionKey:        data.keys.ReductionKey,
		ClearKey:            data.keys.ClearKey,
		Type:                data.alertType,
		Counter:             1,
		UEI:                 event.UEI,
		Description:         event.Description,
		LogMessage:          event.LogMessage,
		NodeID:              event.NodeID,
		ManagedObjectType:   domain.ManagedObjectUndefined,
		FirstEventTime:      eventTime,
		LastEventTime:       eventTime,
		LastEventSeverity:   event.Severity,
		MonitoringPolicyIDs: data.policyIDs,
	}
	if event.NodeID > 0 {
		alert.ManagedObjectType = domain.ManagedObjectNode
		alert.ManagedObjectInstance = fmt.Sprintf("%d", event.NodeID)
	}
	if event.HasDatabaseID() {
		alert.LastEventID = event.DatabaseID
	}
	if data.alertType == domain.AlertTypeClear {
		alert.Severity = domain.SeverityCleared
	} else {
		alert.Severity = data.condition.Severity
	}
	return alert
}

// fold updates an existing alert with one more occurrence.
// Params: fold target, event, fold context, and processing time.
// Returns: alert mutated in place.
func (p *Processor) fold(alert *domain.Alert, event domain.Event, data alertData, now time.Time) {
	alert.Counter++
	if event.HasDatabaseID() {
		alert.LastEventID = event.DatabaseID
	}
	alert.LastEventTime = event.Timestamp(now)
	if event.Description != "" {
		alert.Description = foldedDescription(event)
	}
	alert.Type = data.alertType
	if data.alertType == domain.AlertTypeClear {
		alert.Severity = domain.SeverityCleared
	} else {
		alert.Severity = data.condition.Severity
	}
	alert.LastEventSeverity = event.Severity
	alert.MonitoringPolicyIDs = data.policyIDs
}

// foldedDescription rewrites the event description for folded alerts.
// Params: event carrying a description.
// Returns: description with raw backend errors masked and service prefix.
func foldedDescription(event domain.Event) string {
	description := event.Description
	if strings.Contains(strings.ToLower(description), "exception") {
		description = "Monitoring error."
	}
	if serviceName, ok := event.Parameter("serviceName"); ok {
		return serviceName + " " + description
	}
	return description
}
