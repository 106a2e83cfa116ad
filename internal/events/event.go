package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const RequestLifecycleTopic = "workflow.request.lifecycle.v1"

// Fine-grained event types. The audit trail stores these in entry metadata;
// the coarse audit action alone is a lossy projection.
const (
	TypeRequestCreated   = "request_created"
	TypeRequestUpdated   = "request_updated"
	TypeRequestSubmitted = "request_submitted"
	TypeRequestAssigned  = "request_assigned"
	TypeRequestApproved  = "request_approved"
	TypeRequestRejected  = "request_rejected"
	TypeRequestCancelled = "request_cancelled"
	TypeRequestReopened  = "request_reopened"

	// Reconstruction-only types: never emitted by the aggregate, used when an
	// audit entry has no recorded fine-grained type.
	TypeCommentDeleted = "comment_deleted"
	TypeSystemError    = "system_error"
)

// Event is an immutable fact describing a completed request transition. The
// aggregate returns exactly one Event per successful operation; the
// orchestrator owns the collected slice until the transaction commits.
type Event interface {
	EventType() string
	EventID() string
	AggregateID() string
	OccurredAt() time.Time
}

// Envelope is the outbox/Kafka wire shape for a lifecycle event.
type Envelope struct {
	EventID    string          `json:"event_id"`
	EventType  string          `json:"event_type"`
	RequestID  string          `json:"request_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// Marshal wraps an event in its envelope for transport.
func Marshal(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{
		EventID:    ev.EventID(),
		EventType:  ev.EventType(),
		RequestID:  ev.AggregateID(),
		OccurredAt: ev.OccurredAt(),
		Data:       data,
	})
}

// NewEventID issues identity for a single event value.
func NewEventID() string {
	return uuid.NewString()
}
