package audit

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"go-reqflow/internal/events"
	"go-reqflow/internal/shared/contextutil"
)

// actionByEventType projects fine-grained event types onto coarse audit
// actions. The projection is many-to-one; unclassified types fall through to
// VIEW as the safe default.
var actionByEventType = map[string]string{
	events.TypeRequestCreated:   ActionCreate,
	events.TypeRequestUpdated:   ActionUpdate,
	events.TypeRequestAssigned:  ActionUpdate,
	events.TypeRequestReopened:  ActionUpdate,
	events.TypeRequestSubmitted: ActionSubmit,
	events.TypeRequestApproved:  ActionApprove,
	events.TypeRequestRejected:  ActionReject,
	events.TypeRequestCancelled: ActionCancel,
	events.TypeCommentDeleted:   ActionDelete,
}

// eventTypeByAction is the reconstruction fallback for entries whose metadata
// carries no fine-grained type. It is intentionally lossy: each coarse action
// maps back to one representative type, and VIEW stands for "unknown". It
// exists so old or malformed rows still render instead of crashing history.
var eventTypeByAction = map[string]string{
	ActionCreate:  events.TypeRequestCreated,
	ActionUpdate:  events.TypeRequestUpdated,
	ActionDelete:  events.TypeCommentDeleted,
	ActionSubmit:  events.TypeRequestSubmitted,
	ActionApprove: events.TypeRequestApproved,
	ActionReject:  events.TypeRequestRejected,
	ActionCancel:  events.TypeRequestCancelled,
	ActionView:    events.TypeSystemError,
}

// ActionFor exposes the forward table for tests and callers.
func ActionFor(eventType string) string {
	if action, ok := actionByEventType[eventType]; ok {
		return action
	}
	return ActionView
}

// Record maps one domain event to an audit entry. Pure construction: no I/O,
// persistence is the orchestrator's job.
func Record(ev events.Event, actorID *uuid.UUID, client contextutil.ClientInfo) (AuditLog, error) {
	meta := Metadata{
		EventType:   ev.EventType(),
		Description: describe(ev),
		IPAddress:   client.IPAddress,
		UserAgent:   client.UserAgent,
		SessionID:   client.SessionID,
	}

	var changes []byte
	switch e := ev.(type) {
	case events.RequestRejected:
		meta.Reason = e.Reason
	case events.RequestCancelled:
		if e.Reason != nil {
			meta.Reason = *e.Reason
		}
	case events.RequestUpdated:
		if len(e.Changes) > 0 {
			b, err := json.Marshal(e.Changes)
			if err != nil {
				return AuditLog{}, err
			}
			changes = b
		}
	}

	metaBytes, err := json.Marshal(meta)
	if err != nil {
		return AuditLog{}, err
	}

	return AuditLog{
		ID:         uuid.New(),
		Action:     ActionFor(ev.EventType()),
		EntityType: EntityTypeRequest,
		EntityID:   ev.AggregateID(),
		ActorID:    actorID,
		Changes:    changes,
		Metadata:   metaBytes,
		CreatedAt:  ev.OccurredAt(),
	}, nil
}

// Reconstruct rebuilds the display event for a stored entry. The fine-grained
// type recorded in metadata wins; only when it is absent does the lossy
// action fallback apply.
func Reconstruct(entry AuditLog) DisplayEvent {
	var meta Metadata
	if len(entry.Metadata) > 0 {
		// Malformed metadata degrades to the fallback path rather than failing.
		_ = json.Unmarshal(entry.Metadata, &meta)
	}

	eventType := meta.EventType
	if eventType == "" {
		eventType = eventTypeByAction[entry.Action]
		if eventType == "" {
			eventType = events.TypeSystemError
		}
	}

	var actorID *string
	if entry.ActorID != nil {
		s := entry.ActorID.String()
		actorID = &s
	}

	var changes []FieldChange
	if len(entry.Changes) > 0 {
		_ = json.Unmarshal(entry.Changes, &changes)
	}

	return DisplayEvent{
		ID:          entry.ID.String(),
		EventType:   eventType,
		Action:      entry.Action,
		EntityType:  entry.EntityType,
		EntityID:    entry.EntityID,
		ActorID:     actorID,
		Description: meta.Description,
		Reason:      meta.Reason,
		Changes:     changes,
		OccurredAt:  entry.CreatedAt,
	}
}

func describe(ev events.Event) string {
	switch e := ev.(type) {
	case events.RequestCreated:
		return "Request created as draft"
	case events.RequestUpdated:
		return fmt.Sprintf("Request details updated (%d fields)", len(e.Changes))
	case events.RequestSubmitted:
		return "Request submitted for review"
	case events.RequestAssigned:
		return "Request assigned for review"
	case events.RequestApproved:
		return "Request approved"
	case events.RequestRejected:
		if e.Reason != "" {
			return "Request rejected: " + e.Reason
		}
		return "Request rejected"
	case events.RequestCancelled:
		return "Request cancelled"
	case events.RequestReopened:
		return "Request reopened as draft"
	default:
		return "Request activity"
	}
}
