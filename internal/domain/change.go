package domain

// ChangeKind identifies one alert lifecycle transition.
type ChangeKind string

const (
	// ChangeCreated fires when reduction creates a new alert.
	ChangeCreated ChangeKind = "created"
	// ChangeUpdated fires when an event folds into an existing alert.
	ChangeUpdated ChangeKind = "updated"
	// ChangeSeverity fires on clear/unclear/escalate/set-severity transitions.
	ChangeSeverity ChangeKind = "severity_changed"
	// ChangeAcknowledged fires when an alert is acknowledged.
	ChangeAcknowledged ChangeKind = "acknowledged"
	// ChangeUnacknowledged fires when an acknowledgement is removed.
	ChangeUnacknowledged ChangeKind = "unacknowledged"
	// ChangeMemoUpdated fires when a sticky memo is attached or edited.
	ChangeMemoUpdated ChangeKind = "memo_updated"
	// ChangeMemoRemoved fires when a sticky memo is detached.
	ChangeMemoRemoved ChangeKind = "memo_removed"
	// ChangeRelatedUpdated fires when a situation's related-alert set changes.
	ChangeRelatedUpdated ChangeKind = "related_updated"
	// ChangeDeleted fires when an alert is removed.
	ChangeDeleted ChangeKind = "deleted"
)

// Change is one lifecycle notification delivered to fan-out listeners.
// Params: transition kind, affected alert snapshot, and transition deltas.
// Returns: immutable notification payload.
type Change struct {
	Kind             ChangeKind `json:"kind"`
	TenantID         string     `json:"tenant_id"`
	Alert            Alert      `json:"alert"`
	PreviousSeverity Severity   `json:"previous_severity,omitempty"`
	PreviousRelated  []string   `json:"previous_related,omitempty"`
}
