package request_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"go-reqflow/internal/events"
	"go-reqflow/internal/request"
	"go-reqflow/internal/shared/apperror"
)

func newDraft(t *testing.T) *request.Request {
	t.Helper()
	now := time.Now().UTC()
	return &request.Request{
		ID:          uuid.New(),
		Title:       "New laptop",
		Description: "Current one is dying",
		Type:        request.TypeEquipment,
		Priority:    request.PriorityMedium,
		Status:      request.StatusDraft,
		RequesterID: uuid.New(),
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestRequest_SubmitFromDraft(t *testing.T) {
	r := newDraft(t)
	now := time.Now().UTC()

	ev, err := r.Submit(now)
	assert.NoError(t, err)

	assert.Equal(t, request.StatusSubmitted, r.Status)
	assert.NotNil(t, r.SubmittedAt)
	assert.Equal(t, now, *r.SubmittedAt)

	submitted, ok := ev.(events.RequestSubmitted)
	assert.True(t, ok)
	assert.Equal(t, r.ID.String(), submitted.AggregateID())
	assert.Equal(t, r.RequesterID.String(), submitted.RequesterID)
	assert.Nil(t, submitted.AssigneeID)
	assert.NotEmpty(t, submitted.EventID())
}

func TestRequest_SubmitTwiceFails(t *testing.T) {
	r := newDraft(t)
	now := time.Now().UTC()

	_, err := r.Submit(now)
	assert.NoError(t, err)

	_, err = r.Submit(now)
	assert.Error(t, err)

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeInvalidState, appErr.Code)
	assert.Contains(t, appErr.Message, "SUBMITTED")

	// Failed transition leaves the aggregate untouched.
	assert.Equal(t, request.StatusSubmitted, r.Status)
}

func TestRequest_BeginReviewSetsAssignee(t *testing.T) {
	r := newDraft(t)
	now := time.Now().UTC()
	_, err := r.Submit(now)
	assert.NoError(t, err)

	assignee := uuid.New()
	assigner := uuid.New()

	ev, err := r.BeginReview(assignee, assigner, now)
	assert.NoError(t, err)

	assert.Equal(t, request.StatusInReview, r.Status)
	assert.NotNil(t, r.AssigneeID)
	assert.Equal(t, assignee, *r.AssigneeID)

	assigned, ok := ev.(events.RequestAssigned)
	assert.True(t, ok)
	assert.Equal(t, assignee.String(), assigned.AssigneeID)
	assert.Equal(t, assigner.String(), assigned.AssignedBy)
}

func TestRequest_ApproveFromSubmittedAndInReview(t *testing.T) {
	for _, begin := range []bool{false, true} {
		r := newDraft(t)
		now := time.Now().UTC()
		_, err := r.Submit(now)
		assert.NoError(t, err)

		reviewer := uuid.New()
		if begin {
			_, err := r.BeginReview(reviewer, reviewer, now)
			assert.NoError(t, err)
		}

		ev, err := r.Approve(reviewer, now)
		assert.NoError(t, err)

		assert.Equal(t, request.StatusApproved, r.Status)
		assert.NotNil(t, r.ReviewerID)
		assert.Equal(t, reviewer, *r.ReviewerID)
		assert.NotNil(t, r.ReviewedAt)
		assert.Nil(t, r.RejectionReason)

		approved, ok := ev.(events.RequestApproved)
		assert.True(t, ok)
		assert.Equal(t, reviewer.String(), approved.ReviewerID)
		assert.Equal(t, r.RequesterID.String(), approved.RequesterID)
	}
}

func TestRequest_DecideFromSubmittedPicksUpAssignment(t *testing.T) {
	now := time.Now().UTC()
	reviewer := uuid.New()

	r := newDraft(t)
	_, err := r.Submit(now)
	assert.NoError(t, err)
	_, err = r.Approve(reviewer, now)
	assert.NoError(t, err)
	if assert.NotNil(t, r.AssigneeID) {
		assert.Equal(t, reviewer, *r.AssigneeID)
	}

	r = newDraft(t)
	_, err = r.Submit(now)
	assert.NoError(t, err)
	_, err = r.Reject(reviewer, "out of scope", now)
	assert.NoError(t, err)
	if assert.NotNil(t, r.AssigneeID) {
		assert.Equal(t, reviewer, *r.AssigneeID)
	}

	// An explicit assignment is never overwritten by the decision.
	r = newDraft(t)
	_, err = r.Submit(now)
	assert.NoError(t, err)
	assignee := uuid.New()
	_, err = r.BeginReview(assignee, assignee, now)
	assert.NoError(t, err)
	_, err = r.Approve(assignee, now)
	assert.NoError(t, err)
	assert.Equal(t, assignee, *r.AssigneeID)
}

func TestRequest_RejectRecordsReason(t *testing.T) {
	r := newDraft(t)
	now := time.Now().UTC()
	_, err := r.Submit(now)
	assert.NoError(t, err)

	reviewer := uuid.New()
	ev, err := r.Reject(reviewer, "budget exhausted", now)
	assert.NoError(t, err)

	assert.Equal(t, request.StatusRejected, r.Status)
	assert.NotNil(t, r.RejectionReason)
	assert.Equal(t, "budget exhausted", *r.RejectionReason)
	assert.NotNil(t, r.ReviewedAt)

	rejected, ok := ev.(events.RequestRejected)
	assert.True(t, ok)
	assert.Equal(t, "budget exhausted", rejected.Reason)
}

func TestRequest_CancelFromDraftAndSubmitted(t *testing.T) {
	reason := "no longer needed"

	for _, submitFirst := range []bool{false, true} {
		r := newDraft(t)
		now := time.Now().UTC()
		if submitFirst {
			_, err := r.Submit(now)
			assert.NoError(t, err)
		}

		ev, err := r.Cancel(r.RequesterID, &reason, now)
		assert.NoError(t, err)

		assert.Equal(t, request.StatusCancelled, r.Status)
		assert.NotNil(t, r.CancelReason)
		assert.Equal(t, reason, *r.CancelReason)

		cancelled, ok := ev.(events.RequestCancelled)
		assert.True(t, ok)
		assert.Equal(t, r.RequesterID.String(), cancelled.ActorID)
	}
}

func TestRequest_CancelAfterDecisionFails(t *testing.T) {
	r := newDraft(t)
	now := time.Now().UTC()
	_, err := r.Submit(now)
	assert.NoError(t, err)
	_, err = r.Approve(uuid.New(), now)
	assert.NoError(t, err)

	_, err = r.Cancel(r.RequesterID, nil, now)
	assert.Error(t, err)

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeInvalidState, appErr.Code)
	assert.Equal(t, request.StatusApproved, r.Status)
}

func TestRequest_ReopenClearsReviewOutcome(t *testing.T) {
	r := newDraft(t)
	now := time.Now().UTC()
	_, err := r.Submit(now)
	assert.NoError(t, err)

	reviewer := uuid.New()
	_, err = r.BeginReview(reviewer, reviewer, now)
	assert.NoError(t, err)
	_, err = r.Reject(reviewer, "missing details", now)
	assert.NoError(t, err)

	ev, err := r.Reopen(now)
	assert.NoError(t, err)

	assert.Equal(t, request.StatusDraft, r.Status)
	assert.Nil(t, r.ReviewerID)
	assert.Nil(t, r.ReviewedAt)
	assert.Nil(t, r.SubmittedAt)
	assert.Nil(t, r.RejectionReason)
	assert.Nil(t, r.CancelReason)

	reopened, ok := ev.(events.RequestReopened)
	assert.True(t, ok)
	assert.Equal(t, r.RequesterID.String(), reopened.RequesterID)

	// The reopened draft can immediately go around again.
	later := now.Add(time.Hour)
	_, err = r.Submit(later)
	assert.NoError(t, err)
	assert.Equal(t, later, *r.SubmittedAt)
}

func TestRequest_ReopenFromCancelled(t *testing.T) {
	r := newDraft(t)
	now := time.Now().UTC()
	_, err := r.Cancel(r.RequesterID, nil, now)
	assert.NoError(t, err)

	_, err = r.Reopen(now)
	assert.NoError(t, err)
	assert.Equal(t, request.StatusDraft, r.Status)
}

func TestRequest_ReopenFromApprovedFails(t *testing.T) {
	r := newDraft(t)
	now := time.Now().UTC()
	_, err := r.Submit(now)
	assert.NoError(t, err)
	_, err = r.Approve(uuid.New(), now)
	assert.NoError(t, err)

	_, err = r.Reopen(now)
	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeInvalidState, appErr.Code)
	assert.Contains(t, appErr.Message, "reopen")
	assert.True(t, r.IsTerminal())
}

func TestRequest_BeginReviewFromDraftFails(t *testing.T) {
	r := newDraft(t)
	now := time.Now().UTC()

	_, err := r.BeginReview(uuid.New(), uuid.New(), now)
	assert.Error(t, err)
	assert.Nil(t, r.AssigneeID)
	assert.Equal(t, request.StatusDraft, r.Status)
}
