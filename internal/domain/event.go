package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Parameter is one named value attached to an event.
// Params: name/value pair, names may repeat.
// Returns: ordered event metadata entry.
type Parameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Event is one immutable inbound monitoring occurrence.
// Params: tenant scope, UEI event type, and optional event metadata.
// Returns: input record for event-to-alert reduction.
type Event struct {
	TenantID     string      `json:"tenant_id"`
	UEI          string      `json:"uei"`
	NodeID       int64       `json:"node_id,omitempty"`
	ProducedTime time.Time   `json:"produced_time,omitempty"`
	DatabaseID   int64       `json:"database_id,omitempty"`
	Severity     Severity    `json:"severity,omitempty"`
	Description  string      `json:"description,omitempty"`
	LogMessage   string      `json:"log_message,omitempty"`
	Parameters   []Parameter `json:"parameters,omitempty"`
}

// Validate checks required event fields.
// Params: none.
// Returns: error when tenant id or UEI is missing.
func (e Event) Validate() error {
	if e.TenantID == "" {
		return errors.New("event tenant_id is required")
	}
	if e.UEI == "" {
		return errors.New("event uei is required")
	}
	return nil
}

// HasProducedTime reports whether the event carries a produced timestamp.
// Params: none.
// Returns: true when produced time is set.
func (e Event) HasProducedTime() bool {
	return !e.ProducedTime.IsZero()
}

// HasDatabaseID reports whether the event carries a database id.
// Params: none.
// Returns: true when database id is set.
func (e Event) HasDatabaseID() bool {
	return e.DatabaseID != 0
}

// Timestamp returns the effective event time.
// Params: fallback time used when produced time is absent.
// Returns: produced time or fallback.
func (e Event) Timestamp(fallback time.Time) time.Time {
	if e.HasProducedTime() {
		return e.ProducedTime
	}
	return fallback
}

// Parameter returns the first parameter value for a name.
// Params: parameter name.
// Returns: value and presence flag, first match wins.
func (e Event) Parameter(name string) (string, bool) {
	for _, parameter := range e.Parameters {
		if parameter.Name == name {
			return parameter.Value, true
		}
	}
	return "", false
}

// DecodeEvent parses and validates one JSON event payload.
// Params: raw JSON bytes for a single event object.
// Returns: validated event or decode error.
func DecodeEvent(raw []byte) (Event, error) {
	var event Event
	if err := json.Unmarshal(raw, &event); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	if err := event.Validate(); err != nil {
		return Event{}, err
	}
	return event, nil
}

// DecodeEvents parses and validates a JSON event batch payload.
// Params: raw JSON bytes for an event array.
// Returns: validated events or decode error.
func DecodeEvents(raw []byte) ([]Event, error) {
	var events []Event
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("decode event batch: %w", err)
	}
	if len(events) == 0 {
		return nil, errors.New("event batch must contain at least one event")
	}
	for i := range events {
		if err := events[i].Validate(); err != nil {
			return nil, fmt.Errorf("event[%d]: %w", i, err)
		}
	}
	return events, nil
}
