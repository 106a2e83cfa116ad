package notification

import (
	"time"

	"github.com/google/uuid"
)

const (
	TypeRequestSubmitted = "REQUEST_SUBMITTED"
	TypeRequestApproved  = "REQUEST_APPROVED"
	TypeRequestRejected  = "REQUEST_REJECTED"
	TypeRequestAssigned  = "REQUEST_ASSIGNED"
	TypeCommentAdded     = "COMMENT_ADDED"
	TypeMention          = "MENTION"
	TypeSystem           = "SYSTEM"
)

// Notification is a per-recipient projection of a domain event. Only the
// recipient mutates it, and only by marking it read.
type Notification struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Type              string    `gorm:"type:varchar(30);not null"`
	Title             string    `gorm:"type:varchar(200);not null"`
	Message           string    `gorm:"type:text;not null"`
	RecipientID       uuid.UUID `gorm:"type:uuid;not null;index:idx_notifications_recipient"`
	RelatedEntityType string    `gorm:"type:varchar(50);not null"`
	RelatedEntityID   string    `gorm:"type:varchar(64);not null"`
	IsRead            bool      `gorm:"not null;default:false;index:idx_notifications_recipient"`
	ReadAt            *time.Time
	CreatedAt         time.Time
}
