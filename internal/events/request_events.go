package events

import "time"

type base struct {
	ID        string    `json:"event_id"`
	RequestID string    `json:"request_id"`
	At        time.Time `json:"occurred_at"`
}

func newBase(requestID string, at time.Time) base {
	return base{ID: NewEventID(), RequestID: requestID, At: at}
}

func (b base) EventID() string       { return b.ID }
func (b base) AggregateID() string   { return b.RequestID }
func (b base) OccurredAt() time.Time { return b.At }

// FieldChange is one old/new pair in a draft edit.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}

type RequestCreated struct {
	base
	RequesterID string `json:"requester_id"`
}

func (RequestCreated) EventType() string { return TypeRequestCreated }

func NewRequestCreated(requestID, requesterID string, at time.Time) RequestCreated {
	return RequestCreated{base: newBase(requestID, at), RequesterID: requesterID}
}

type RequestUpdated struct {
	base
	ActorID string        `json:"actor_id"`
	Changes []FieldChange `json:"changes,omitempty"`
}

func (RequestUpdated) EventType() string { return TypeRequestUpdated }

func NewRequestUpdated(requestID, actorID string, changes []FieldChange, at time.Time) RequestUpdated {
	return RequestUpdated{base: newBase(requestID, at), ActorID: actorID, Changes: changes}
}

type RequestSubmitted struct {
	base
	RequesterID string    `json:"requester_id"`
	AssigneeID  *string   `json:"assignee_id,omitempty"`
	SubmittedAt time.Time `json:"submitted_at"`
}

func (RequestSubmitted) EventType() string { return TypeRequestSubmitted }

func NewRequestSubmitted(requestID, requesterID string, assigneeID *string, at time.Time) RequestSubmitted {
	return RequestSubmitted{base: newBase(requestID, at), RequesterID: requesterID, AssigneeID: assigneeID, SubmittedAt: at}
}

type RequestAssigned struct {
	base
	AssigneeID string `json:"assignee_id"`
	AssignedBy string `json:"assigned_by"`
}

func (RequestAssigned) EventType() string { return TypeRequestAssigned }

func NewRequestAssigned(requestID, assigneeID, assignedBy string, at time.Time) RequestAssigned {
	return RequestAssigned{base: newBase(requestID, at), AssigneeID: assigneeID, AssignedBy: assignedBy}
}

type RequestApproved struct {
	base
	ReviewerID  string    `json:"reviewer_id"`
	RequesterID string    `json:"requester_id"`
	ApprovedAt  time.Time `json:"approved_at"`
}

func (RequestApproved) EventType() string { return TypeRequestApproved }

func NewRequestApproved(requestID, reviewerID, requesterID string, at time.Time) RequestApproved {
	return RequestApproved{base: newBase(requestID, at), ReviewerID: reviewerID, RequesterID: requesterID, ApprovedAt: at}
}

type RequestRejected struct {
	base
	ReviewerID  string    `json:"reviewer_id"`
	RequesterID string    `json:"requester_id"`
	RejectedAt  time.Time `json:"rejected_at"`
	Reason      string    `json:"reason,omitempty"`
}

func (RequestRejected) EventType() string { return TypeRequestRejected }

func NewRequestRejected(requestID, reviewerID, requesterID, reason string, at time.Time) RequestRejected {
	return RequestRejected{base: newBase(requestID, at), ReviewerID: reviewerID, RequesterID: requesterID, RejectedAt: at, Reason: reason}
}

type RequestCancelled struct {
	base
	ActorID     string  `json:"actor_id"`
	RequesterID string  `json:"requester_id"`
	AssigneeID  *string `json:"assignee_id,omitempty"`
	Reason      *string `json:"reason,omitempty"`
}

func (RequestCancelled) EventType() string { return TypeRequestCancelled }

func NewRequestCancelled(requestID, actorID, requesterID string, assigneeID, reason *string, at time.Time) RequestCancelled {
	return RequestCancelled{base: newBase(requestID, at), ActorID: actorID, RequesterID: requesterID, AssigneeID: assigneeID, Reason: reason}
}

type RequestReopened struct {
	base
	RequesterID string `json:"requester_id"`
}

func (RequestReopened) EventType() string { return TypeRequestReopened }

func NewRequestReopened(requestID, requesterID string, at time.Time) RequestReopened {
	return RequestReopened{base: newBase(requestID, at), RequesterID: requesterID}
}
