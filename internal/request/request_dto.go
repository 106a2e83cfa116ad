package request

import (
	"encoding/json"
	"time"
)

type CreateRequestRequest struct {
	Title         string   `json:"title" binding:"required,max=200"`
	Description   string   `json:"description"`
	Type          string   `json:"type" binding:"required,oneof=LEAVE EQUIPMENT EXPENSE ACCESS OTHER"`
	Priority      string   `json:"priority" binding:"required,oneof=LOW MEDIUM HIGH URGENT"`
	AssigneeID    *string  `json:"assignee_id" binding:"omitempty,uuid"`
	AttachmentIDs []string `json:"attachment_ids" binding:"omitempty,dive,uuid"`
}

type UpdateRequestRequest struct {
	Title         string   `json:"title" binding:"required,max=200"`
	Description   string   `json:"description"`
	Type          string   `json:"type" binding:"required,oneof=LEAVE EQUIPMENT EXPENSE ACCESS OTHER"`
	Priority      string   `json:"priority" binding:"required,oneof=LOW MEDIUM HIGH URGENT"`
	AttachmentIDs []string `json:"attachment_ids" binding:"omitempty,dive,uuid"`
}

type AssignRequestRequest struct {
	// Optional: a reviewer picking a request up themselves leaves this empty.
	AssigneeID *string `json:"assignee_id" binding:"omitempty,uuid"`
}

type RejectRequestRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type CancelRequestRequest struct {
	Reason *string `json:"reason"`
}

type RequestResponse struct {
	ID              string   `json:"id"`
	Title           string   `json:"title"`
	Description     string   `json:"description"`
	Type            string   `json:"type"`
	Priority        string   `json:"priority"`
	Status          string   `json:"status"`
	RequesterID     string   `json:"requester_id"`
	AssigneeID      *string  `json:"assignee_id,omitempty"`
	ReviewerID      *string  `json:"reviewer_id,omitempty"`
	RejectionReason *string  `json:"rejection_reason,omitempty"`
	CancelReason    *string  `json:"cancel_reason,omitempty"`
	AttachmentIDs   []string `json:"attachment_ids,omitempty"`
	Version         int64    `json:"version"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
	SubmittedAt     *string  `json:"submitted_at,omitempty"`
	ReviewedAt      *string  `json:"reviewed_at,omitempty"`
}

// RequestDetailResponse adds actor names resolved from the user directory.
type RequestDetailResponse struct {
	RequestResponse
	RequesterName string `json:"requester_name,omitempty"`
	AssigneeName  string `json:"assignee_name,omitempty"`
	ReviewerName  string `json:"reviewer_name,omitempty"`
}

func mapToResponse(r Request) RequestResponse {
	resp := RequestResponse{
		ID:              r.ID.String(),
		Title:           r.Title,
		Description:     r.Description,
		Type:            r.Type,
		Priority:        r.Priority,
		Status:          r.Status,
		RequesterID:     r.RequesterID.String(),
		RejectionReason: r.RejectionReason,
		CancelReason:    r.CancelReason,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt.Format(time.RFC3339),
	}
	if r.AssigneeID != nil {
		v := r.AssigneeID.String()
		resp.AssigneeID = &v
	}
	if r.ReviewerID != nil {
		v := r.ReviewerID.String()
		resp.ReviewerID = &v
	}
	if len(r.AttachmentIDs) > 0 {
		_ = json.Unmarshal(r.AttachmentIDs, &resp.AttachmentIDs)
	}
	if r.SubmittedAt != nil {
		v := r.SubmittedAt.Format(time.RFC3339)
		resp.SubmittedAt = &v
	}
	if r.ReviewedAt != nil {
		v := r.ReviewedAt.Format(time.RFC3339)
		resp.ReviewedAt = &v
	}
	return resp
}

func mapToListResponse(requests []Request) []RequestResponse {
	resp := make([]RequestResponse, len(requests))
	for i, r := range requests {
		resp[i] = mapToResponse(r)
	}
	return resp
}
