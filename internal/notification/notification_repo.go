package notification

import (
	"context"
	"database/sql"
	"time"

	"gorm.io/gorm"
)

// ListFilter narrows the recipient feed.
type ListFilter struct {
	UnreadOnly bool
	Limit      int
	Offset     int
}

//go:generate mockgen -source=notification_repo.go -destination=mock/notification_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, n Notification) error
	FindByRecipient(ctx context.Context, recipientID string, filter ListFilter) ([]Notification, int64, error)
	MarkRead(ctx context.Context, recipientID, id string, readAt time.Time) (bool, error)
	CountUnread(ctx context.Context, recipientID string) (int64, error)
}

type repository struct {
	db    *gorm.DB
	sqlDB *sql.DB
	tx    *sql.Tx
}

func NewRepository(db *gorm.DB, sqlDB *sql.DB) Repository {
	return &repository{db: db, sqlDB: sqlDB}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, sqlDB: r.sqlDB, tx: tx}
}

func (r *repository) Create(ctx context.Context, n Notification) error {
	query := `
        INSERT INTO notifications (
            id, type, title, message, recipient_id,
            related_entity_type, related_entity_id, is_read, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
    `

	exec := r.execer()
	_, err := exec.ExecContext(
		ctx, query,
		n.ID, n.Type, n.Title, n.Message, n.RecipientID,
		n.RelatedEntityType, n.RelatedEntityID, n.IsRead, n.CreatedAt,
	)
	return err
}

func (r *repository) FindByRecipient(ctx context.Context, recipientID string, filter ListFilter) ([]Notification, int64, error) {
	db := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("recipient_id = ?", recipientID)
	if filter.UnreadOnly {
		db = db.Where("is_read = ?", false)
	}

	var total int64
	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Limit > 0 {
		db = db.Limit(filter.Limit).Offset(filter.Offset)
	}

	var notifs []Notification
	err := db.Order("created_at DESC").Find(&notifs).Error
	return notifs, total, err
}

// MarkRead flips the read flag for the recipient's own notification. Returns
// false when no unread row matched, so marking twice stays a no-op.
func (r *repository) MarkRead(ctx context.Context, recipientID, id string, readAt time.Time) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("id = ?", id).
		Where("recipient_id = ?", recipientID).
		Where("is_read = ?", false).
		Updates(map[string]any{"is_read": true, "read_at": readAt})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&Notification{}).
		Where("recipient_id = ?", recipientID).
		Where("is_read = ?", false).
		Count(&count).Error
	return count, err
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.sqlDB
}
