package store

import (
	"context"
	"sync"
	"time"

	"alertengine/internal/domain"

	"github.com/google/uuid"
)

// MemoryAlertStore keeps alerts in process memory for single-instance mode.
// Params: per-tenant maps indexed by id and reduction key.
// Returns: alert store implementation without external dependencies.
type MemoryAlertStore struct {
	mu       sync.RWMutex
	byID     map[string]map[string]domain.Alert // tenant -> id -> alert
	keyIndex map[string]map[string]string       // tenant -> reduction key -> id
}

// NewMemoryAlertStore creates an empty in-memory alert store.
// Params: none.
// Returns: initialized store.
func NewMemoryAlertStore() *MemoryAlertStore {
	return &MemoryAlertStore{
		byID:     make(map[string]map[string]domain.Alert),
		keyIndex: make(map[string]map[string]string),
	}
}

// FindByReductionKey returns the live alert holding a reduction key.
// Params: tenant scope and rendered reduction key.
// Returns: alert copy or ErrNotFound.
func (s *MemoryAlertStore) FindByReductionKey(_ context.Context, tenantID, reductionKey string) (domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.keyIndex[tenantID][reductionKey]
	if !ok {
		return domain.Alert{}, ErrNotFound
	}
	return s.byID[tenantID][id].Clone(), nil
}

// FindByClearKey returns the alert whose clear key matches.
// Params: tenant scope and rendered clear key.
// Returns: alert copy or ErrNotFound.
func (s *MemoryAlertStore) FindByClearKey(_ context.Context, tenantID, clearKey string) (domain.Alert, error) {
	if clearKey == "" {
		return domain.Alert{}, ErrNotFound
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, alert := range s.byID[tenantID] {
		if alert.ClearKey == clearKey {
			return alert.Clone(), nil
		}
	}
	return domain.Alert{}, ErrNotFound
}

// FindByID returns one alert by id.
// Params: tenant scope and alert id.
// Returns: alert copy or ErrNotFound.
func (s *MemoryAlertStore) FindByID(_ context.Context, tenantID, id string) (domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	alert, ok := s.byID[tenantID][id]
	if !ok {
		return domain.Alert{}, ErrNotFound
	}
	return alert.Clone(), nil
}

// Save upserts one alert, assigning an id on first insert.
// Params: alert pointer, mutated with the assigned id.
// Returns: ErrDuplicateKey when another live alert holds the reduction key.
func (s *MemoryAlertStore) Save(_ context.Context, alert *domain.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(alert)
}

// SaveAll upserts a batch of alerts, rejecting the whole batch on conflict.
// Params: alerts touched by one event's processing.
// Returns: first conflict error, applied atomically with respect to conflicts.
func (s *MemoryAlertStore) SaveAll(_ context.Context, alerts []*domain.Alert) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, alert := range alerts {
		if err := s.checkConflictLocked(alert); err != nil {
			return err
		}
	}
	for _, alert := range alerts {
		if err := s.saveLocked(alert); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes one alert and releases its reduction key.
// Params: tenant scope and alert id.
// Returns: ErrNotFound when the alert is already gone.
func (s *MemoryAlertStore) Delete(_ context.Context, tenantID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	alert, ok := s.byID[tenantID][id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byID[tenantID], id)
	if owner, indexed := s.keyIndex[tenantID][alert.ReductionKey]; indexed && owner == id {
		delete(s.keyIndex[tenantID], alert.ReductionKey)
	}
	if len(s.byID[tenantID]) == 0 {
		delete(s.byID, tenantID)
		delete(s.keyIndex, tenantID)
	}
	return nil
}

// FindAll lists every alert across tenants.
// Params: none.
// Returns: detached alert copies.
func (s *MemoryAlertStore) FindAll(_ context.Context) ([]domain.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Alert, 0)
	for _, alerts := range s.byID {
		for _, alert := range alerts {
			out = append(out, alert.Clone())
		}
	}
	return out, nil
}

// checkConflictLocked rejects inserts for an already-held reduction key.
// Params: candidate alert under write lock.
// Returns: ErrDuplicateKey on live-key conflict.
func (s *MemoryAlertStore) checkConflictLocked(alert *domain.Alert) error {
	owner, held := s.keyIndex[alert.TenantID][alert.ReductionKey]
	if !held {
		return nil
	}
	if alert.ID == "" || owner != alert.ID {
		return ErrDuplicateKey
	}
	return nil
}

// saveLocked applies one upsert under the write lock.
// Params: alert pointer, id assigned when empty.
// Returns: ErrDuplicateKey on live-key conflict.
func (s *MemoryAlertStore) saveLocked(alert *domain.Alert) error {
	if err := s.checkConflictLocked(alert); err != nil {
		return err
	}
	if alert.ID == "" {
		alert.ID = uuid.NewString()
	}
	tenantID := alert.TenantID
	if s.byID[tenantID] == nil {
		s.byID[tenantID] = make(map[string]domain.Alert)
		s.keyIndex[tenantID] = make(map[string]string)
	}
	if previous, ok := s.byID[tenantID][alert.ID]; ok && previous.ReductionKey != alert.ReductionKey {
		if owner, indexed := s.keyIndex[tenantID][previous.ReductionKey]; indexed && owner == alert.ID {
			delete(s.keyIndex[tenantID], previous.ReductionKey)
		}
	}
	s.byID[tenantID][alert.ID] = alert.Clone()
	s.keyIndex[tenantID][alert.ReductionKey] = alert.ID
	return nil
}

// MemoryDefinitionStore keeps alert definitions in process memory.
// Params: tenant/UEI indexed definition lists.
// Returns: definition store for tests and single-instance mode.
type MemoryDefinitionStore struct {
	mu          sync.RWMutex
	definitions map[string]map[string][]domain.AlertDefinition
	nextID      int64
}

// NewMemoryDefinitionStore creates an empty in-memory definition store.
// Params: none.
// Returns: initialized store.
func NewMemoryDefinitionStore() *MemoryDefinitionStore {
	return &MemoryDefinitionStore{
		definitions: make(map[string]map[string][]domain.AlertDefinition),
	}
}

// FindByTenantAndUEI lists definitions for a tenant/UEI pair.
// Params: tenant scope and event UEI.
// Returns: matching definitions, empty slice on miss.
func (s *MemoryDefinitionStore) FindByTenantAndUEI(_ context.Context, tenantID, uei string) ([]domain.AlertDefinition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := s.definitions[tenantID][uei]
	out := make([]domain.AlertDefinition, len(found))
	copy(out, found)
	return out, nil
}

// Save upserts one definition, assigning an id on first insert.
// Params: definition payload.
// Returns: nil.
func (s *MemoryDefinitionStore) Save(_ context.Context, definition domain.AlertDefinition) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if definition.ID == 0 {
		s.nextID++
		definition.ID = s.nextID
	}
	if s.definitions[definition.TenantID] == nil {
		s.definitions[definition.TenantID] = make(map[string][]domain.AlertDefinition)
	}
	list := s.definitions[definition.TenantID][definition.UEI]
	for i := range list {
		if list[i].ID == definition.ID {
			list[i] = definition
			return nil
		}
	}
	s.definitions[definition.TenantID][definition.UEI] = append(list, definition)
	return nil
}

// MemoryThresholdStore keeps thresholded events in process memory.
// Params: append-only event list per tenant and reduction key.
// Returns: threshold store for tests and single-instance mode.
type MemoryThresholdStore struct {
	mu     sync.RWMutex
	events map[string][]domain.ThresholdedEvent
}

// NewMemoryThresholdStore creates an empty in-memory threshold store.
// Params: none.
// Returns: initialized store.
func NewMemoryThresholdStore() *MemoryThresholdStore {
	return &MemoryThresholdStore{events: make(map[string][]domain.ThresholdedEvent)}
}

// Save appends one thresholded event.
// Params: event with expiry.
// Returns: nil.
func (s *MemoryThresholdStore) Save(_ context.Context, event domain.ThresholdedEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := event.TenantID + "\x00" + event.ReductionKey
	s.events[key] = append(s.events[key], event)
	return nil
}

// CountActive counts unexpired events for a reduction key.
// Params: tenant scope, reduction key, and current time.
// Returns: number of events with expiry at or after now.
func (s *MemoryThresholdStore) CountActive(_ context.Context, tenantID, reductionKey string, now time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, event := range s.events[tenantID+"\x00"+reductionKey] {
		if !event.ExpiryTime.Before(now) {
			count++
		}
	}
	return count, nil
}

// MemoryTagStore keeps node policy tags in process memory.
// Params: tenant and node indexed policy lists.
// Returns: tag store for tests and single-instance mode.
type MemoryTagStore struct {
	mu       sync.RWMutex
	policies map[string]map[int64][]int64
}

// NewMemoryTagStore creates an empty in-memory tag store.
// Params: none.
// Returns: initialized store.
func NewMemoryTagStore() *MemoryTagStore {
	return &MemoryTagStore{policies: make(map[string]map[int64][]int64)}
}

// Tag attaches policies to a node.
// Params: tenant, node id, and policy id list.
// Returns: none.
func (s *MemoryTagStore) Tag(tenantID string, nodeID int64, policyIDs ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.policies[tenantID] == nil {
		s.policies[tenantID] = make(map[int64][]int64)
	}
	s.policies[tenantID][nodeID] = append(s.policies[tenantID][nodeID], policyIDs...)
}

// PolicyIDs lists policies tagging a node.
// Params: tenant scope and node id.
// Returns: policy ids, empty slice when the node is untagged.
func (s *MemoryTagStore) PolicyIDs(_ context.Context, tenantID string, nodeID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	found := s.policies[tenantID][nodeID]
	out := make([]int64, len(found))
	copy(out, found)
	return out, nil
}
