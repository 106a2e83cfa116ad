package notification

import "time"

type NotificationResponse struct {
	ID                string  `json:"id"`
	Type              string  `json:"type"`
	Title             string  `json:"title"`
	Message           string  `json:"message"`
	RelatedEntityType string  `json:"related_entity_type"`
	RelatedEntityID   string  `json:"related_entity_id"`
	IsRead            bool    `json:"is_read"`
	ReadAt            *string `json:"read_at,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

func mapToResponse(n Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:                n.ID.String(),
		Type:              n.Type,
		Title:             n.Title,
		Message:           n.Message,
		RelatedEntityType: n.RelatedEntityType,
		RelatedEntityID:   n.RelatedEntityID,
		IsRead:            n.IsRead,
		CreatedAt:         n.CreatedAt.Format(time.RFC3339),
	}
	if n.ReadAt != nil {
		v := n.ReadAt.Format(time.RFC3339)
		resp.ReadAt = &v
	}
	return resp
}

func mapToListResponse(notifs []Notification) []NotificationResponse {
	resp := make([]NotificationResponse, len(notifs))
	for i, n := range notifs {
		resp[i] = mapToResponse(n)
	}
	return resp
}
