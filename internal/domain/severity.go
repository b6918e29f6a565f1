package domain

import (
	"fmt"
	"strings"
)

// Severity is the ordered alert severity scale.
// Params: ordinal values from undefined up to critical.
// Returns: comparable severity level for lifecycle decisions.
type Severity int

const (
	// SeverityUndefined marks alerts without a known severity.
	SeverityUndefined Severity = iota
	// SeverityIndeterminate marks alerts whose impact is unknown.
	SeverityIndeterminate
	// SeverityCleared marks resolved alerts.
	SeverityCleared
	// SeverityNormal marks informational alerts.
	SeverityNormal
	// SeverityWarning marks low-impact alerts.
	SeverityWarning
	// SeverityMinor marks alerts needing attention.
	SeverityMinor
	// SeverityMajor marks alerts with service impact.
	SeverityMajor
	// SeverityCritical is the maximum severity.
	SeverityCritical
)

var severityLabels = map[Severity]string{
	SeverityUndefined:     "undefined",
	SeverityIndeterminate: "indeterminate",
	SeverityCleared:       "cleared",
	SeverityNormal:        "normal",
	SeverityWarning:       "warning",
	SeverityMinor:         "minor",
	SeverityMajor:         "major",
	SeverityCritical:      "critical",
}

// String returns lower-case severity label.
// Params: none.
// Returns: label or "undefined" for unknown values.
func (s Severity) String() string {
	if label, ok := severityLabels[s]; ok {
		return label
	}
	return severityLabels[SeverityUndefined]
}

// Escalate advances severity by one step, saturating at critical.
// Params: none.
// Returns: next severity level.
func (s Severity) Escalate() Severity {
	if s >= SeverityCritical {
		return SeverityCritical
	}
	return s + 1
}

// IsLessThan compares severity ordinals.
// Params: other severity.
// Returns: true when receiver is strictly lower.
func (s Severity) IsLessThan(other Severity) bool {
	return s < other
}

// ParseSeverity converts a label into a severity value.
// Params: case-insensitive severity label.
// Returns: parsed severity or error on unknown label.
func ParseSeverity(label string) (Severity, error) {
	normalized := strings.TrimSpace(strings.ToLower(label))
	for severity, name := range severityLabels {
		if name == normalized {
			return severity, nil
		}
	}
	return SeverityUndefined, fmt.Errorf("unknown severity %q", label)
}

// MarshalText encodes severity as its label.
// Params: none.
// Returns: label bytes.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes severity from a label.
// Params: label bytes.
// Returns: decode error on unknown label.
func (s *Severity) UnmarshalText(text []byte) error {
	parsed, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
