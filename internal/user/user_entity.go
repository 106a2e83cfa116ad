package user

import (
	"time"

	"github.com/google/uuid"
)

const (
	RoleUser     = "USER"
	RoleReviewer = "REVIEWER"
	RoleAdmin    = "ADMIN"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName  string
	Email     string `gorm:"uniqueIndex:uq_user_email"`
	Role      string `gorm:"default:USER"`
	IsActive  bool   `gorm:"default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
