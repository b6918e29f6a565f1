package domain

import "time"

// SystemTenant is the fallback tenant for alert definitions shared by all tenants.
const SystemTenant = "system"

// AlertType classifies the reduction behavior of a definition or alert.
// Params: raising vs clearing classification.
// Returns: alert type constant.
type AlertType string

const (
	// AlertTypeUndefined marks definitions without explicit classification.
	AlertTypeUndefined AlertType = "undefined"
	// AlertTypeAlarm marks raising alerts.
	AlertTypeAlarm AlertType = "alarm"
	// AlertTypeClear marks resolution events that clear an existing alert.
	AlertTypeClear AlertType = "clear"
)

// OvertimeUnit is the time unit of a threshold condition window.
type OvertimeUnit string

const (
	// OvertimeUnitSecond counts the threshold window in seconds.
	OvertimeUnitSecond OvertimeUnit = "second"
	// OvertimeUnitMinute counts the threshold window in minutes.
	OvertimeUnitMinute OvertimeUnit = "minute"
	// OvertimeUnitHour counts the threshold window in hours.
	OvertimeUnitHour OvertimeUnit = "hour"
)

// AlertCondition defines severity and threshold rules for one definition.
// Params: assigned severity, trigger count, and overtime window.
// Returns: condition evaluated during reduction.
type AlertCondition struct {
	Severity     Severity     `json:"severity"`
	Count        int32        `json:"count"`
	Overtime     int32        `json:"overtime,omitempty"`
	OvertimeUnit OvertimeUnit `json:"overtime_unit,omitempty"`
}

// Window returns the threshold window duration for the condition.
// Params: none.
// Returns: zero when no overtime is configured.
func (c AlertCondition) Window() time.Duration {
	if c.Overtime <= 0 {
		return 0
	}
	switch c.OvertimeUnit {
	case OvertimeUnitHour:
		return time.Duration(c.Overtime) * time.Hour
	case OvertimeUnitMinute:
		return time.Duration(c.Overtime) * time.Minute
	default:
		return time.Duration(c.Overtime) * time.Second
	}
}

// RequiresThresholding reports whether the condition needs occurrence counting.
// Params: none.
// Returns: true when trigger count >1 or an overtime window is set.
func (c AlertCondition) RequiresThresholding() bool {
	return c.Count > 1 || c.Overtime > 0
}

// AlertDefinition maps a tenant/UEI pair to reduction behavior.
// Params: key templates, alert type, owning policy, and condition.
// Returns: read-only reduction rule.
type AlertDefinition struct {
	ID           int64          `json:"id"`
	TenantID     string         `json:"tenant_id"`
	UEI          string         `json:"uei"`
	ReductionKey string         `json:"reduction_key"`
	ClearKey     string         `json:"clear_key,omitempty"`
	Type         AlertType      `json:"type"`
	PolicyID     int64          `json:"policy_id"`
	Condition    AlertCondition `json:"condition"`
}

// Memo is an operator-authored annotation on an alert.
// Params: free-text body with authorship timestamps.
// Returns: sticky memo record.
type Memo struct {
	Body    string    `json:"body"`
	Author  string    `json:"author,omitempty"`
	Created time.Time `json:"created"`
	Updated time.Time `json:"updated"`
}

// ManagedObjectType identifies the kind of object an alert is raised against.
type ManagedObjectType string

const (
	// ManagedObjectUndefined marks alerts without an attached object.
	ManagedObjectUndefined ManagedObjectType = "undefined"
	// ManagedObjectNode marks node-scoped alerts.
	ManagedObjectNode ManagedObjectType = "node"
)

// Alert is the reduced durable record folding repeated event occurrences.
// Params: identity keys, lifecycle state, and occurrence bookkeeping.
// Returns: canonical in-memory alert representation.
type Alert struct {
	ID                    string            `json:"id"`
	TenantID              string            `json:"tenant_id"`
	ReductionKey          string            `json:"reduction_key"`
	ClearKey              string            `json:"clear_key,omitempty"`
	Type                  AlertType         `json:"type"`
	Severity              Severity          `json:"severity"`
	LastEventSeverity     Severity          `json:"last_event_severity"`
	Counter               int64             `json:"counter"`
	UEI                   string            `json:"uei"`
	Description           string            `json:"description,omitempty"`
	LogMessage            string            `json:"log_message,omitempty"`
	NodeID                int64             `json:"node_id,omitempty"`
	ManagedObjectType     ManagedObjectType `json:"managed_object_type"`
	ManagedObjectInstance string            `json:"managed_object_instance,omitempty"`
	FirstEventTime        time.Time         `json:"first_event_time"`
	LastEventTime         time.Time         `json:"last_event_time"`
	LastEventID           int64             `json:"last_event_id,omitempty"`
	LastUpdateTime        time.Time         `json:"last_update_time"`
	AcknowledgedBy        string            `json:"acknowledged_by,omitempty"`
	AcknowledgedAt        *time.Time        `json:"acknowledged_at,omitempty"`
	MonitoringPolicyIDs   []int64           `json:"monitoring_policy_ids,omitempty"`
	StickyMemo            *Memo             `json:"sticky_memo,omitempty"`
	FirstAutomationTime   *time.Time        `json:"first_automation_time,omitempty"`
	LastAutomationTime    *time.Time        `json:"last_automation_time,omitempty"`
	RelatedAlertIDs       []string          `json:"related_alert_ids,omitempty"`
	AssociatedAlertIDs    []string          `json:"associated_alert_ids,omitempty"`
}

// IsAcknowledged reports whether the ack user/time pair is set.
// Params: none.
// Returns: true when both ack fields are present.
func (a Alert) IsAcknowledged() bool {
	return a.AcknowledgedBy != "" && a.AcknowledgedAt != nil
}

// IsSituation reports whether the alert correlates other alerts.
// Params: none.
// Returns: true when the related-alert set is non-empty.
func (a Alert) IsSituation() bool {
	return len(a.RelatedAlertIDs) > 0
}

// Clone returns a detached copy of the alert.
// Params: none.
// Returns: deep copy safe for concurrent readers.
func (a Alert) Clone() Alert {
	out := a
	out.MonitoringPolicyIDs = append([]int64(nil), a.MonitoringPolicyIDs...)
	out.RelatedAlertIDs = append([]string(nil), a.RelatedAlertIDs...)
	out.AssociatedAlertIDs = append([]string(nil), a.AssociatedAlertIDs...)
	if a.AcknowledgedAt != nil {
		at := *a.AcknowledgedAt
		out.AcknowledgedAt = &at
	}
	if a.FirstAutomationTime != nil {
		at := *a.FirstAutomationTime
		out.FirstAutomationTime = &at
	}
	if a.LastAutomationTime != nil {
		at := *a.LastAutomationTime
		out.LastAutomationTime = &at
	}
	if a.StickyMemo != nil {
		memo := *a.StickyMemo
		out.StickyMemo = &memo
	}
	return out
}

// ThresholdedEvent records one triggering occurrence with an expiry.
// Params: reduction key scope and validity window.
// Returns: append-only threshold marker.
type ThresholdedEvent struct {
	UEI          string    `json:"uei"`
	ReductionKey string    `json:"reduction_key"`
	TenantID     string    `json:"tenant_id"`
	CreateTime   time.Time `json:"create_time"`
	ExpiryTime   time.Time `json:"expiry_time"`
}
