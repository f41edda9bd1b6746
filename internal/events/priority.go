package events

import (
	"fmt"
	"strings"
)

// Priority is the canonical priority of an event or notification.
type Priority string

const (
	PriorityLow  Priority = "Low"
	PriorityMid  Priority = "Mid"
	PriorityHigh Priority = "High"
)

// ParsePriority parses a priority string case-insensitively into its
// canonical form. Returns an error for empty or unknown values.
func ParsePriority(s string) (Priority, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return PriorityLow, nil
	case "mid":
		return PriorityMid, nil
	case "high":
		return PriorityHigh, nil
	default:
		return "", fmt.Errorf("invalid priority: %q", s)
	}
}

// String returns the canonical string form.
func (p Priority) String() string {
	return string(p)
}
