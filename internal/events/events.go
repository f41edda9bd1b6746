// Package events defines the inbound event envelope consumed from the
// message bus and its validation rules.
package events

import "encoding/json"

// Event represents a domain event arriving on a bus topic. Events are
// transient: they are consumed once and never persisted.
type Event struct {
	Type            string          `json:"type"`
	Description     string          `json:"description"`
	SourceComponent string          `json:"sourceComponent"`
	Organization    string          `json:"organization"`
	Timestamp       string          `json:"timestamp"`
	Priority        string          `json:"priority"`
	Data            json.RawMessage `json:"data,omitempty"`
}

// Valid reports whether the event carries every field the pipeline needs:
// a parseable priority plus non-empty sourceComponent, organization and
// type. Invalid events are discarded by the caller, not treated as errors.
func (e *Event) Valid() bool {
	if _, err := ParsePriority(e.Priority); err != nil {
		return false
	}
	return e.SourceComponent != "" && e.Organization != "" && e.Type != ""
}
