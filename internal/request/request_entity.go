package request

import (
	"time"

	"github.com/google/uuid"

	"go-reqflow/internal/events"
	requesterrors "go-reqflow/internal/request/errors"
)

const (
	StatusDraft     = "DRAFT"
	StatusSubmitted = "SUBMITTED"
	StatusInReview  = "IN_REVIEW"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

const (
	TypeLeave     = "LEAVE"
	TypeEquipment = "EQUIPMENT"
	TypeExpense   = "EXPENSE"
	TypeAccess    = "ACCESS"
	TypeOther     = "OTHER"
)

const (
	PriorityLow    = "LOW"
	PriorityMedium = "MEDIUM"
	PriorityHigh   = "HIGH"
	PriorityUrgent = "URGENT"
)

// Request is the aggregate root of the approval workflow. All status changes
// go through the named transition methods below; each successful transition
// returns exactly one domain event and mutates the struct only after its
// preconditions pass. Rows are never hard-deleted.
type Request struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Title       string    `gorm:"type:varchar(200);not null"`
	Description string    `gorm:"type:text"`
	Type        string    `gorm:"type:varchar(20);not null;default:'OTHER'"`
	Priority    string    `gorm:"type:varchar(10);not null;default:'MEDIUM';index:idx_requests_priority"`

	Status      string     `gorm:"type:varchar(20);not null;default:'DRAFT';index:idx_requests_status"`
	RequesterID uuid.UUID  `gorm:"type:uuid;not null;index:idx_requests_requester"`
	AssigneeID  *uuid.UUID `gorm:"type:uuid;index:idx_requests_assignee"`
	ReviewerID  *uuid.UUID `gorm:"type:uuid"`

	RejectionReason *string `gorm:"type:text"`
	CancelReason    *string `gorm:"type:text"`
	AttachmentIDs   []byte  `gorm:"type:jsonb"`

	// Version backs the conditional write in the orchestrator: an update only
	// lands when the stored version still matches the loaded one.
	Version int64 `gorm:"not null;default:1"`

	CreatedAt   time.Time
	UpdatedAt   time.Time
	SubmittedAt *time.Time
	ReviewedAt  *time.Time
}

// transitions lists the legal status edges. Operations not covered here fail
// with an invalid-transition error and leave the aggregate untouched.
var transitions = map[string][]string{
	StatusDraft:     {StatusSubmitted, StatusCancelled},
	StatusSubmitted: {StatusInReview, StatusApproved, StatusRejected, StatusCancelled},
	StatusInReview:  {StatusApproved, StatusRejected, StatusCancelled},
	StatusRejected:  {StatusDraft},
	StatusCancelled: {StatusDraft},
}

func canTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (r *Request) guard(op, target string) error {
	if !canTransition(r.Status, target) {
		return requesterrors.InvalidTransition(op, r.Status)
	}
	return nil
}

// Submit moves a draft into the review queue. The submitted timestamp is set
// only on the first submission and survives later reopen/submit cycles via
// Reopen clearing it explicitly.
func (r *Request) Submit(now time.Time) (events.Event, error) {
	if err := r.guard("submit", StatusSubmitted); err != nil {
		return nil, err
	}

	r.Status = StatusSubmitted
	if r.SubmittedAt == nil {
		t := now
		r.SubmittedAt = &t
	}

	return events.NewRequestSubmitted(r.ID.String(), r.RequesterID.String(), uuidPtrString(r.AssigneeID), now), nil
}

// BeginReview assigns a reviewer and marks the request in review.
func (r *Request) BeginReview(assigneeID, assignedBy uuid.UUID, now time.Time) (events.Event, error) {
	if err := r.guard("begin_review", StatusInReview); err != nil {
		return nil, err
	}

	r.Status = StatusInReview
	a := assigneeID
	r.AssigneeID = &a

	return events.NewRequestAssigned(r.ID.String(), assigneeID.String(), assignedBy.String(), now), nil
}

// Approve finishes the workflow positively, recording the deciding reviewer.
func (r *Request) Approve(reviewerID uuid.UUID, now time.Time) (events.Event, error) {
	if err := r.guard("approve", StatusApproved); err != nil {
		return nil, err
	}

	r.Status = StatusApproved
	rv := reviewerID
	r.ReviewerID = &rv
	// Deciding a request nobody picked up is an implicit pickup.
	if r.AssigneeID == nil {
		r.AssigneeID = &rv
	}
	t := now
	r.ReviewedAt = &t
	r.RejectionReason = nil

	return events.NewRequestApproved(r.ID.String(), reviewerID.String(), r.RequesterID.String(), now), nil
}

// Reject finishes the workflow negatively. The reason is required; the caller
// validates presence before invoking the aggregate.
func (r *Request) Reject(reviewerID uuid.UUID, reason string, now time.Time) (events.Event, error) {
	if err := r.guard("reject", StatusRejected); err != nil {
		return nil, err
	}

	r.Status = StatusRejected
	rv := reviewerID
	r.ReviewerID = &rv
	if r.AssigneeID == nil {
		r.AssigneeID = &rv
	}
	t := now
	r.ReviewedAt = &t
	r.RejectionReason = &reason

	return events.NewRequestRejected(r.ID.String(), reviewerID.String(), r.RequesterID.String(), reason, now), nil
}

// Cancel withdraws the request before a decision lands.
func (r *Request) Cancel(actorID uuid.UUID, reason *string, now time.Time) (events.Event, error) {
	if err := r.guard("cancel", StatusCancelled); err != nil {
		return nil, err
	}

	assignee := uuidPtrString(r.AssigneeID)

	r.Status = StatusCancelled
	r.CancelReason = reason

	return events.NewRequestCancelled(r.ID.String(), actorID.String(), r.RequesterID.String(), assignee, reason, now), nil
}

// Reopen returns a rejected or cancelled request to draft so the requester
// can rework and resubmit it. Review outcome fields are cleared so the
// reviewed-iff-decided invariant keeps holding.
func (r *Request) Reopen(now time.Time) (events.Event, error) {
	if err := r.guard("reopen", StatusDraft); err != nil {
		return nil, err
	}

	r.Status = StatusDraft
	r.ReviewerID = nil
	r.ReviewedAt = nil
	r.SubmittedAt = nil
	r.RejectionReason = nil
	r.CancelReason = nil

	return events.NewRequestReopened(r.ID.String(), r.RequesterID.String(), now), nil
}

// IsTerminal reports whether no further transition is defined except reopen.
func (r *Request) IsTerminal() bool {
	return r.Status == StatusApproved || r.Status == StatusCancelled || r.Status == StatusRejected
}

func uuidPtrString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
