package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"alertengine/internal/clock"
	"alertengine/internal/domain"
	"alertengine/internal/listener"
	"alertengine/internal/store"
)

// Service implements operator- and automation-driven alert transitions.
// Params: alert store, listener registry, clock, and logger.
// Returns: lifecycle command API keyed by tenant and alert id.
type Service struct {
	alerts   store.AlertStore
	registry *listener.Registry
	clock    clock.Clock
	logger   *slog.Logger
}

// New creates the lifecycle service.
// Params: alert store, listener registry, clock, and logger.
// Returns: initialized service.
func New(alerts store.AlertStore, registry *listener.Registry, clk clock.Clock, logger *slog.Logger) *Service {
	return &Service{alerts: alerts, registry: registry, clock: clk, logger: logger}
}

// Clear sets the alert and its associated alerts to cleared severity.
// Params: context, tenant scope, and alert id.
// Returns: cleared alert, nil when it disappeared concurrently.
func (s *Service) Clear(ctx context.Context, tenantID, id string) (*domain.Alert, error) {
	return s.clearCascade(ctx, tenantID, id, map[string]bool{})
}

// clearCascade clears one alert and recurses into its associated alerts.
// Params: context, tenant, alert id, and visited set breaking cycles.
// Returns: cleared alert or nil on concurrent disappearance.
func (s *Service) clearCascade(ctx context.Context, tenantID, id string, visited map[string]bool) (*domain.Alert, error) {
	if visited[id] {
		return nil, nil
	}
	visited[id] = true

	alert, ok, err := s.load(ctx, tenantID, id, "clear")
	if err != nil || !ok {
		return nil, err
	}
	previous := alert.Severity
	alert.Severity = domain.SeverityCleared
	s.touchAutomation(&alert)
	if err := s.persist(ctx, &alert); err != nil {
		return nil, err
	}
	s.notifySeverity(alert, previous)

	for _, associatedID := range alert.AssociatedAlertIDs {
		if _, err := s.clearCascade(ctx, tenantID, associatedID, visited); err != nil {
			return nil, err
		}
	}
	return &alert, nil
}

// Unclear restores the severity the last reduced event carried.
// Params: context, tenant scope, and alert id.
// Returns: updated alert, nil when it disappeared concurrently.
func (s *Service) Unclear(ctx context.Context, tenantID, id string) (*domain.Alert, error) {
	alert, ok, err := s.load(ctx, tenantID, id, "unclear")
	if err != nil || !ok {
		return nil, err
	}
	previous := alert.Severity
	alert.Severity = alert.LastEventSeverity
	s.touchAutomation(&alert)
	if err := s.persist(ctx, &alert); err != nil {
		return nil, err
	}
	s.notifySeverity(alert, previous)
	return &alert, nil
}

// Escalate advances the alert severity by exactly one step.
// Params: context, tenant scope, and alert id.
// Returns: updated alert, nil when it disappeared concurrently.
func (s *Service) Escalate(ctx context.Context, tenantID, id string) (*domain.Alert, error) {
	alert, ok, err := s.load(ctx, tenantID, id, "escalate")
	if err != nil || !ok {
		return nil, err
	}
	previous := alert.Severity
	alert.Severity = alert.Severity.Escalate()
	s.touchAutomation(&alert)
	if err := s.persist(ctx, &alert); err != nil {
		return nil, err
	}
	s.notifySeverity(alert, previous)
	return &alert, nil
}

// SetSeverity overrides the alert severity directly.
// Params: context, tenant scope, alert id, and new severity.
// Returns: updated alert, nil when it disappeared concurrently.
func (s *Service) SetSeverity(ctx context.Context, tenantID, id string, severity domain.Severity) (*domain.Alert, error) {
	alert, ok, err := s.load(ctx, tenantID, id, "set severity")
	if err != nil || !ok {
		return nil, err
	}
	previous := alert.Severity
	alert.Severity = severity
	s.touchAutomation(&alert)
	if err := s.persist(ctx, &alert); err != nil {
		return nil, err
	}
	s.notifySeverity(alert, previous)
	return &alert, nil
}

// Acknowledge sets the ack user/time pair.
// Params: context, tenant scope, alert id, and acknowledging user.
// Returns: updated alert, nil when it disappeared concurrently.
func (s *Service) Acknowledge(ctx context.Context, tenantID, id, user string) (*domain.Alert, error) {
	alert, ok, err := s.load(ctx, tenantID, id, "acknowledge")
	if err != nil || !ok {
		return nil, err
	}
	at := s.clock.Now()
	alert.AcknowledgedBy = user
	alert.AcknowledgedAt = &at
	if err := s.persist(ctx, &alert); err != nil {
		return nil, err
	}
	s.notify(domain.ChangeAcknowledged, alert)
	return &alert, nil
}

// Unacknowledge clears the ack user/time pair.
// Params: context, tenant scope, and alert id.
// Returns: updated alert, nil when it disappeared concurrently.
func (s *Service) Unacknowledge(ctx context.Context, tenantID, id string) (*domain.Alert, error) {
	alert, ok, err := s.load(ctx, tenantID, id, "unacknowledge")
	if err != nil || !ok {
		return nil, err
	}
	alert.AcknowledgedBy = ""
	alert.AcknowledgedAt = nil
	if err := s.persist(ctx, &alert); err != nil {
		return nil, err
	}
	s.notify(domain.ChangeUnacknowledged, alert)
	return &alert, nil
}

// UpdateStickyMemo attaches or edits the operator memo on an alert.
// Params: context, tenant scope, alert id, memo body, and author.
// Returns: updated alert, nil when it disappeared concurrently.
func (s *Service) UpdateStickyMemo(ctx context.Context, tenantID, id, body, author string) (*domain.Alert, error) {
	alert, ok, err := s.load(ctx, tenantID, id, "update memo")
	if err != nil || !ok {
		return nil, err
	}
	if alert.StickyMemo != nil && alert.StickyMemo.Body == body {
		return &alert, nil
	}
	now := s.clock.Now()
	if alert.StickyMemo == nil {
		alert.StickyMemo = &domain.Memo{Body: body, Author: author, Created: now, Updated: now}
	} else {
		alert.StickyMemo.Body = body
		alert.StickyMemo.Author = author
		alert.StickyMemo.Updated = now
	}
	if err := s.persist(ctx, &alert); err != nil {
		return nil, err
	}
	s.notify(domain.ChangeMemoUpdated, alert)
	return &alert, nil
}

// RemoveStickyMemo detaches the operator memo from an alert.
// Params: context, tenant scope, and alert id.
// Returns: updated alert, nil when it disappeared concurrently.
func (s *Service) RemoveStickyMemo(ctx context.Context, tenantID, id string) (*domain.Alert, error) {
	alert, ok, err := s.load(ctx, tenantID, id, "remove memo")
	if err != nil || !ok {
		return nil, err
	}
	if alert.StickyMemo == nil {
		return &alert, nil
	}
	alert.StickyMemo = nil
	if err := s.persist(ctx, &alert); err != nil {
		return nil, err
	}
	s.notify(domain.ChangeMemoRemoved, alert)
	return &alert, nil
}

// Delete removes an alert and detaches it from parent situations first.
// Params: context, tenant scope, and alert id.
// Returns: deleted alert snapshot, nil when it disappeared concurrently.
func (s *Service) Delete(ctx context.Context, tenantID, id string) (*domain.Alert, error) {
	alert, ok, err := s.load(ctx, tenantID, id, "delete")
	if err != nil || !ok {
		return nil, err
	}

	parents, previousSets, err := s.detachFromSituations(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	if err := s.alerts.Delete(ctx, tenantID, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("alert disappeared during delete",
				"tenant", tenantID, "alert", id)
			return nil, nil
		}
		return nil, fmt.Errorf("delete alert %s: %w", id, err)
	}

	// Parents first: by the time listeners see "deleted" the parent
	// situations must already reference the shrunken related set.
	for i, parent := range parents {
		s.registry.Notify(domain.Change{
			Kind:            domain.ChangeRelatedUpdated,
			TenantID:        parent.TenantID,
			Alert:           parent,
			PreviousRelated: previousSets[i],
		})
	}
	s.notify(domain.ChangeDeleted, alert)
	return &alert, nil
}

// detachFromSituations removes the alert from every parent situation.
// Params: context, tenant scope, and alert id being deleted.
// Returns: updated parents and their prior related-alert sets.
func (s *Service) detachFromSituations(ctx context.Context, tenantID, id string) ([]domain.Alert, [][]string, error) {
	all, err := s.alerts.FindAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("list situations: %w", err)
	}
	var parents []domain.Alert
	var previousSets [][]string
	for _, candidate := range all {
		if candidate.TenantID != tenantID || !contains(candidate.RelatedAlertIDs, id) {
			continue
		}
		previous := append([]string(nil), candidate.RelatedAlertIDs...)
		candidate.RelatedAlertIDs = remove(candidate.RelatedAlertIDs, id)
		candidate.LastUpdateTime = s.clock.Now()
		if err := s.alerts.Save(ctx, &candidate); err != nil {
			return nil, nil, fmt.Errorf("detach alert %s from situation %s: %w", id, candidate.ID, err)
		}
		parents = append(parents, candidate.Clone())
		previousSets = append(previousSets, previous)
	}
	return parents, previousSets, nil
}

// load reads one alert and maps concurrent disappearance to a warning.
// Params: context, tenant scope, alert id, and operation name for the log.
// Returns: alert copy, presence flag, and infrastructure error.
func (s *Service) load(ctx context.Context, tenantID, id, operation string) (domain.Alert, bool, error) {
	alert, err := s.alerts.FindByID(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Warn("alert disappeared before lifecycle operation",
				"tenant", tenantID, "alert", id, "operation", operation)
			return domain.Alert{}, false, nil
		}
		return domain.Alert{}, false, fmt.Errorf("load alert %s: %w", id, err)
	}
	return alert, true, nil
}

// persist stamps the update time and saves one mutated alert.
// Params: context and mutated alert.
// Returns: save error.
func (s *Service) persist(ctx context.Context, alert *domain.Alert) error {
	alert.LastUpdateTime = s.clock.Now()
	if err := s.alerts.Save(ctx, alert); err != nil {
		return fmt.Errorf("save alert %s: %w", alert.ID, err)
	}
	return nil
}

// touchAutomation refreshes the automation timestamps.
// Params: mutated alert.
// Returns: first time set only once, last time always refreshed.
func (s *Service) touchAutomation(alert *domain.Alert) {
	now := s.clock.Now()
	if alert.FirstAutomationTime == nil {
		first := now
		alert.FirstAutomationTime = &first
	}
	last := now
	alert.LastAutomationTime = &last
}

// notifySeverity emits a severity-changed notification with the delta.
// Params: updated alert and its previous severity.
// Returns: none.
func (s *Service) notifySeverity(alert domain.Alert, previous domain.Severity) {
	s.registry.Notify(domain.Change{
		Kind:             domain.ChangeSeverity,
		TenantID:         alert.TenantID,
		Alert:            alert.Clone(),
		PreviousSeverity: previous,
	})
}

// notify emits one lifecycle notification.
// Params: change kind and updated alert.
// Returns: none.
func (s *Service) notify(kind domain.ChangeKind, alert domain.Alert) {
	s.registry.Notify(domain.Change{
		Kind:     kind,
		TenantID: alert.TenantID,
		Alert:    alert.Clone(),
	})
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	out := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
