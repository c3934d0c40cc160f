package core

import (
	"fmt"
	"strings"
)

// =============================================================================
// Severity
// =============================================================================

// Severity indicates how serious a failed rule is.
type Severity int

// Severity levels, declared from most to least severe.
// The zero value is not a valid severity.
const (
	// SeverityCritical marks failures that should stop a pipeline.
	SeverityCritical Severity = iota + 1
	// SeverityHigh marks failures that need attention soon.
	SeverityHigh
	// SeverityMedium marks failures worth reviewing.
	SeverityMedium
	// SeverityLow marks informational failures.
	SeverityLow
)

// severityOrder lists severities from most to least severe.
// Rank compares by index into this table.
var severityOrder = [...]Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// AllSeverities returns every severity, most severe first.
func AllSeverities() []Severity {
	out := make([]Severity, len(severityOrder))
	copy(out, severityOrder[:])
	return out
}

// Rank returns the ordinal weight of the severity. Higher is more severe.
// Unknown values rank below SeverityLow.
func (s Severity) Rank() int {
	for i, v := range severityOrder {
		if v == s {
			return len(severityOrder) - i
		}
	}
	return 0
}

// Valid reports whether s is one of the declared levels.
func (s Severity) Valid() bool {
	return s.Rank() > 0
}

// MoreSevereThan reports whether s outranks other.
func (s Severity) MoreSevereThan(other Severity) bool {
	return s.Rank() > other.Rank()
}

// String returns the string representation of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityCritical:
		return "critical"
	case SeverityHigh:
		return "high"
	case SeverityMedium:
		return "medium"
	case SeverityLow:
		return "low"
	default:
		return "unknown"
	}
}

// ParseSeverity converts a string to a Severity value.
// Returns the severity and true if valid, or SeverityMedium and false if invalid.
func ParseSeverity(s string) (Severity, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "critical":
		return SeverityCritical, true
	case "high":
		return SeverityHigh, true
	case "medium":
		return SeverityMedium, true
	case "low":
		return SeverityLow, true
	default:
		return SeverityMedium, false
	}
}

// MarshalText implements encoding.TextMarshaler.
func (s Severity) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid severity %d", int(s))
	}
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Severity) UnmarshalText(text []byte) error {
	v, ok := ParseSeverity(string(text))
	if !ok {
		return fmt.Errorf("invalid severity %q: must be one of critical, high, medium, low", string(text))
	}
	*s = v
	return nil
}
