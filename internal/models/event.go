// Package models defines the shared data types for spindle.
package models

import (
	"encoding/json"
	"strings"
	"time"
)

// EventType categorizes events in the coordination log.
type EventType string

const (
	// Template events
	EventTypeTemplateRendered EventType = "template.rendered"
	EventTypeTemplateReloaded EventType = "template.reloaded"

	// Agent events
	EventTypeAgentLaunched  EventType = "agent.launched"
	EventTypeAgentCompleted EventType = "agent.completed"
	EventTypeAgentFailed    EventType = "agent.failed"

	// System events
	EventTypeError   EventType = "error"
	EventTypeWarning EventType = "warning"
)

// EntityType identifies the type of entity an event relates to.
type EntityType string

const (
	EntityTypeTemplate EntityType = "template"
	EntityTypeAgent    EntityType = "agent"
	EntityTypeSystem   EntityType = "system"
)

// Event represents an append-only coordination log entry.
type Event struct {
	// ID is the unique identifier for the event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type EventType `json:"type"`

	// EntityType identifies what kind of entity this event relates to.
	EntityType EntityType `json:"entity_type"`

	// EntityID is the ID of the related entity (template or agent name).
	EntityID string `json:"entity_id"`

	// Payload contains event-specific data.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Metadata contains additional context.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate checks if the event is valid.
func (e *Event) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(string(e.Type)) == "" {
		validation.AddMessage("type", "event type is required")
	}
	if strings.TrimSpace(string(e.EntityType)) == "" {
		validation.AddMessage("entity_type", "entity_type is required")
	}
	if strings.TrimSpace(e.EntityID) == "" {
		validation.AddMessage("entity_id", "entity_id is required")
	}
	return validation.Err()
}

// TemplateRenderedPayload is the payload for template.rendered events.
type TemplateRenderedPayload struct {
	Template  string   `json:"template"`
	Version   string   `json:"version,omitempty"`
	Includes  []string `json:"includes,omitempty"`
	Variables []string `json:"variables,omitempty"`
	Bytes     int      `json:"bytes"`
}

// AgentLaunchedPayload is the payload for agent.launched events.
type AgentLaunchedPayload struct {
	SessionID string `json:"session_id"`
	Agent     string `json:"agent"`
	Template  string `json:"template"`
	Command   string `json:"command"`
}

// AgentCompletedPayload is the payload for agent.completed events.
type AgentCompletedPayload struct {
	SessionID string `json:"session_id"`
	Agent     string `json:"agent"`
	Duration  string `json:"duration"`
	ExitCode  int    `json:"exit_code"`
}

// AgentFailedPayload is the payload for agent.failed events.
type AgentFailedPayload struct {
	SessionID string `json:"session_id"`
	Agent     string `json:"agent"`
	Error     string `json:"error"`
}

// ErrorPayload is the payload for error events.
type ErrorPayload struct {
	Error   string `json:"error"`
	Context string `json:"context,omitempty"`
}
