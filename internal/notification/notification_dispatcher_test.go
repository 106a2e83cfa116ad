package notification_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"go-reqflow/internal/events"
	"go-reqflow/internal/notification"
)

func TestDerive_SubmittedNotifiesAssignee(t *testing.T) {
	requestID := uuid.New().String()
	assigneeID := uuid.New().String()
	now := time.Now().UTC()

	notifs := notification.Derive(events.NewRequestSubmitted(requestID, uuid.New().String(), &assigneeID, now))
	assert.Len(t, notifs, 1)

	n := notifs[0]
	assert.Equal(t, notification.TypeRequestSubmitted, n.Type)
	assert.Equal(t, assigneeID, n.RecipientID.String())
	assert.Equal(t, "request", n.RelatedEntityType)
	assert.Equal(t, requestID, n.RelatedEntityID)
	assert.Equal(t, now, n.CreatedAt)
}

func TestDerive_SubmittedWithoutAssigneeNotifiesNobody(t *testing.T) {
	notifs := notification.Derive(events.NewRequestSubmitted(uuid.New().String(), uuid.New().String(), nil, time.Now().UTC()))
	assert.Empty(t, notifs)
}

func TestDerive_AssignedNotifiesAssignee(t *testing.T) {
	assigneeID := uuid.New().String()
	notifs := notification.Derive(events.NewRequestAssigned(uuid.New().String(), assigneeID, uuid.New().String(), time.Now().UTC()))
	assert.Len(t, notifs, 1)
	assert.Equal(t, notification.TypeRequestAssigned, notifs[0].Type)
	assert.Equal(t, assigneeID, notifs[0].RecipientID.String())
}

func TestDerive_DecisionsNotifyRequester(t *testing.T) {
	requesterID := uuid.New().String()

	approved := notification.Derive(events.NewRequestApproved(uuid.New().String(), uuid.New().String(), requesterID, time.Now().UTC()))
	assert.Len(t, approved, 1)
	assert.Equal(t, notification.TypeRequestApproved, approved[0].Type)
	assert.Equal(t, requesterID, approved[0].RecipientID.String())

	rejected := notification.Derive(events.NewRequestRejected(uuid.New().String(), uuid.New().String(), requesterID, "missing receipts", time.Now().UTC()))
	assert.Len(t, rejected, 1)
	assert.Equal(t, notification.TypeRequestRejected, rejected[0].Type)
	assert.Equal(t, requesterID, rejected[0].RecipientID.String())
	assert.Contains(t, rejected[0].Message, "missing receipts")
}

func TestDerive_CancelledNotifiesAssigneeUnlessSelf(t *testing.T) {
	requesterID := uuid.New().String()
	assigneeID := uuid.New().String()

	// A third party (the requester) cancelled: the assignee hears about it.
	notifs := notification.Derive(events.NewRequestCancelled(uuid.New().String(), requesterID, requesterID, &assigneeID, nil, time.Now().UTC()))
	assert.Len(t, notifs, 1)
	assert.Equal(t, notification.TypeSystem, notifs[0].Type)
	assert.Equal(t, assigneeID, notifs[0].RecipientID.String())

	// The assignee cancelling their own queue entry needs no notification.
	self := notification.Derive(events.NewRequestCancelled(uuid.New().String(), assigneeID, requesterID, &assigneeID, nil, time.Now().UTC()))
	assert.Empty(t, self)

	// No assignee, nobody to tell.
	unassigned := notification.Derive(events.NewRequestCancelled(uuid.New().String(), requesterID, requesterID, nil, nil, time.Now().UTC()))
	assert.Empty(t, unassigned)
}

func TestDerive_CreatedAndReopenedAreSilent(t *testing.T) {
	assert.Empty(t, notification.Derive(events.NewRequestCreated(uuid.New().String(), uuid.New().String(), time.Now().UTC())))
	assert.Empty(t, notification.Derive(events.NewRequestReopened(uuid.New().String(), uuid.New().String(), time.Now().UTC())))
}

func TestDerive_MalformedRecipientIsDroppedNotPanic(t *testing.T) {
	// Events arriving off the wire can carry junk ids; the dispatcher must
	// drop the notification instead of panicking.
	assert.NotPanics(t, func() {
		approved := notification.Derive(events.NewRequestApproved(uuid.New().String(), uuid.New().String(), "not-a-uuid", time.Now().UTC()))
		assert.Empty(t, approved)
	})

	badAssignee := "also-not-a-uuid"
	assert.NotPanics(t, func() {
		submitted := notification.Derive(events.NewRequestSubmitted(uuid.New().String(), uuid.New().String(), &badAssignee, time.Now().UTC()))
		assert.Empty(t, submitted)
	})
}
