package notification

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"go-reqflow/internal/events"
)

const relatedEntityRequest = "request"

// Derive fans one domain event out into recipient-specific notifications.
// Pure construction: the orchestrator persists the result in the same
// transaction as the state change, which is what makes delivery exactly-once
// per transition. An event with no interested recipient yields an empty slice.
func Derive(ev events.Event) []Notification {
	switch e := ev.(type) {
	case events.RequestSubmitted:
		if e.AssigneeID == nil {
			return nil
		}
		return build(
			TypeRequestSubmitted,
			"New request awaiting review",
			fmt.Sprintf("Request %s was submitted and awaits your review", e.RequestID),
			*e.AssigneeID,
			e,
		)

	case events.RequestAssigned:
		return build(
			TypeRequestAssigned,
			"Request assigned to you",
			fmt.Sprintf("Request %s was assigned to you for review", e.RequestID),
			e.AssigneeID,
			e,
		)

	case events.RequestApproved:
		return build(
			TypeRequestApproved,
			"Your request was approved",
			fmt.Sprintf("Request %s was approved", e.RequestID),
			e.RequesterID,
			e,
		)

	case events.RequestRejected:
		msg := fmt.Sprintf("Request %s was rejected", e.RequestID)
		if e.Reason != "" {
			msg = fmt.Sprintf("Request %s was rejected: %s", e.RequestID, e.Reason)
		}
		return build(
			TypeRequestRejected,
			"Your request was rejected",
			msg,
			e.RequesterID,
			e,
		)

	case events.RequestCancelled:
		if e.AssigneeID == nil || *e.AssigneeID == e.ActorID {
			return nil
		}
		return build(
			TypeSystem,
			"Request cancelled",
			fmt.Sprintf("Request %s was cancelled and no longer needs review", e.RequestID),
			*e.AssigneeID,
			e,
		)

	default:
		return nil
	}
}

// build drops the notification when the recipient id is not a UUID. Events
// decoded off the wire are not trusted: the consumer must survive a poisoned
// envelope rather than crash-loop on it.
func build(notifType, title, message, recipientID string, ev events.Event) []Notification {
	recipient, err := uuid.Parse(recipientID)
	if err != nil {
		zap.L().Named("notification.dispatcher").Warn("skipping notification with malformed recipient",
			zap.String("event_type", ev.EventType()),
			zap.String("request_id", ev.AggregateID()),
			zap.String("recipient_id", recipientID),
		)
		return nil
	}

	return []Notification{{
		ID:                uuid.New(),
		Type:              notifType,
		Title:             title,
		Message:           message,
		RecipientID:       recipient,
		RelatedEntityType: relatedEntityRequest,
		RelatedEntityID:   ev.AggregateID(),
		CreatedAt:         ev.OccurredAt(),
	}}
}
