// Package domain holds the lifecycle event published by the sharing service.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	EventSessionCreated = "session_created"
	EventShareCreated   = "share_created"
	EventGroupJoined    = "group_joined"
	EventShareAdopted   = "share_adopted"
	EventLocationPosted = "location_posted"
	EventSessionEnded   = "session_ended"
	EventShareEnded     = "share_ended"
	EventGroupCleaned   = "group_cleaned"

	// EventGRPCRequest is emitted per device API call by the server interceptor.
	EventGRPCRequest = "grpc_request"
)

// Event is one lifecycle event. ShareID and SessionRef are empty when not applicable.
// SessionRef is a digest of the session ID, never the ID itself.
type Event struct {
	ID         string          `json:"eventId"`
	EventType  string          `json:"eventType"`
	ShareID    string          `json:"shareId,omitempty"`
	SessionRef string          `json:"sessionRef,omitempty"`
	Source     string          `json:"source"`
	Metadata   json.RawMessage `json:"metadata,omitempty"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// NewEvent returns an event with a fresh ID stamped at now.
func NewEvent(eventType, source string, now time.Time) *Event {
	return &Event{
		ID:        uuid.NewString(),
		EventType: eventType,
		Source:    source,
		CreatedAt: now.UTC(),
	}
}

// WithMetadata sets Metadata to the JSON encoding of v. Encoding failures leave Metadata empty.
func (e *Event) WithMetadata(v any) *Event {
	if b, err := json.Marshal(v); err == nil {
		e.Metadata = b
	}
	return e
}
