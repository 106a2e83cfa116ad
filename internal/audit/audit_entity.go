package audit

import (
	"time"

	"github.com/google/uuid"
)

// Coarse audit actions. The mapping from fine-grained event types is
// many-to-one; the original type is kept in Metadata.
const (
	ActionCreate  = "CREATE"
	ActionUpdate  = "UPDATE"
	ActionDelete  = "DELETE"
	ActionView    = "VIEW"
	ActionSubmit  = "SUBMIT"
	ActionApprove = "APPROVE"
	ActionReject  = "REJECT"
	ActionCancel  = "CANCEL"
)

const EntityTypeRequest = "request"

// AuditLog is an append-only record of one coarse action against an entity.
// Rows are never updated or deleted after insert.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Action     string     `gorm:"type:varchar(20);not null;index:idx_audit_logs_action"`
	EntityType string     `gorm:"type:varchar(50);not null;index:idx_audit_logs_entity"`
	EntityID   string     `gorm:"type:varchar(64);not null;index:idx_audit_logs_entity"`
	ActorID    *uuid.UUID `gorm:"type:uuid"` // nil means the system acted
	Changes    []byte     `gorm:"type:jsonb"`
	Metadata   []byte     `gorm:"type:jsonb"`
	CreatedAt  time.Time
}

// Metadata preserves what the coarse action loses: the fine-grained event
// type, a human description, the decision reason, and the HTTP request
// context the action arrived with. Extra is the fallback for anything that
// does not fit a typed field.
type Metadata struct {
	EventType   string         `json:"event_type,omitempty"`
	Description string         `json:"description,omitempty"`
	Reason      string         `json:"reason,omitempty"`
	IPAddress   string         `json:"ip_address,omitempty"`
	UserAgent   string         `json:"user_agent,omitempty"`
	SessionID   string         `json:"session_id,omitempty"`
	Extra       map[string]any `json:"extra,omitempty"`
}

// DisplayEvent is the read shape history rendering consumes, reconstructed
// from a stored entry.
type DisplayEvent struct {
	ID          string        `json:"id"`
	EventType   string        `json:"event_type"`
	Action      string        `json:"action"`
	EntityType  string        `json:"entity_type"`
	EntityID    string        `json:"entity_id"`
	ActorID     *string       `json:"actor_id,omitempty"`
	Description string        `json:"description,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	Changes     []FieldChange `json:"changes,omitempty"`
	OccurredAt  time.Time     `json:"occurred_at"`
}

// FieldChange mirrors the stored old/new pair for display.
type FieldChange struct {
	Field string `json:"field"`
	Old   string `json:"old"`
	New   string `json:"new"`
}
