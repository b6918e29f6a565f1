package store

import (
	"context"
	"errors"
	"time"

	"alertengine/internal/domain"
)

var (
	// ErrNotFound indicates an absent alert or definition.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey indicates a live alert already holds the reduction key.
	ErrDuplicateKey = errors.New("duplicate reduction key")
)

// AlertStore persists reduced alerts per tenant.
// Params: lookup by reduction key, clear key, or id plus save/delete.
// Returns: durable alert persistence behavior.
type AlertStore interface {
	FindByReductionKey(ctx context.Context, tenantID, reductionKey string) (domain.Alert, error)
	FindByClearKey(ctx context.Context, tenantID, clearKey string) (domain.Alert, error)
	FindByID(ctx context.Context, tenantID, id string) (domain.Alert, error)
	Save(ctx context.Context, alert *domain.Alert) error
	SaveAll(ctx context.Context, alerts []*domain.Alert) error
	Delete(ctx context.Context, tenantID, id string) error
	FindAll(ctx context.Context) ([]domain.Alert, error)
}

// DefinitionStore serves read-only alert definitions during reduction.
// Params: tenant/UEI scoped lookup and save for policy updates.
// Returns: definition lookup behavior.
type DefinitionStore interface {
	FindByTenantAndUEI(ctx context.Context, tenantID, uei string) ([]domain.AlertDefinition, error)
	Save(ctx context.Context, definition domain.AlertDefinition) error
}

// ThresholdStore records thresholded events and counts unexpired ones.
// Params: append-only save and aggregate count per reduction key.
// Returns: threshold persistence behavior.
type ThresholdStore interface {
	Save(ctx context.Context, event domain.ThresholdedEvent) error
	CountActive(ctx context.Context, tenantID, reductionKey string, now time.Time) (int, error)
}

// TagStore resolves monitoring policies tagging a node.
// Params: tenant and node scope.
// Returns: policy ids attached through node tags.
type TagStore interface {
	PolicyIDs(ctx context.Context, tenantID string, nodeID int64) ([]int64, error)
}
