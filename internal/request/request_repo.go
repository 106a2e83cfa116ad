package request

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
)

// ListFilter narrows request listings.
type ListFilter struct {
	RequesterID string
	AssigneeID  string
	Status      string
	Type        string
	Priority    string
}

//go:generate mockgen -source=request_repo.go -destination=mock/request_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, r *Request) error
	FindByID(ctx context.Context, id string) (*Request, error)
	FindAll(ctx context.Context, filter ListFilter) ([]Request, error)
	// UpdateVersioned persists the mutated aggregate only when the stored
	// version still equals expectedVersion; returns false when another writer
	// advanced the row first.
	UpdateVersioned(ctx context.Context, r *Request, expectedVersion int64) (bool, error)
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

func (r *repository) Create(ctx context.Context, req *Request) error {
	query := `
        INSERT INTO requests (
            id, title, description, type, priority, status,
            requester_id, assignee_id, attachment_ids, version,
            created_at, updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
    `

	exec := r.execer()
	_, err := exec.ExecContext(
		ctx, query,
		req.ID, req.Title, req.Description, req.Type, req.Priority, req.Status,
		req.RequesterID, req.AssigneeID, req.AttachmentIDs, req.Version,
		req.CreatedAt, req.UpdatedAt,
	)
	return err
}

func (r *repository) FindByID(ctx context.Context, id string) (*Request, error) {
	var req Request
	err := r.db.WithContext(ctx).
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) FindAll(ctx context.Context, filter ListFilter) ([]Request, error) {
	db := r.db.WithContext(ctx).Model(&Request{})
	if filter.RequesterID != "" {
		db = db.Where("requester_id = ?", filter.RequesterID)
	}
	if filter.AssigneeID != "" {
		db = db.Where("assignee_id = ?", filter.AssigneeID)
	}
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}
	if filter.Priority != "" {
		db = db.Where("priority = ?", filter.Priority)
	}

	var requests []Request
	err := db.Order("created_at DESC").Find(&requests).Error
	return requests, err
}

func (r *repository) UpdateVersioned(ctx context.Context, req *Request, expectedVersion int64) (bool, error) {
	query := `
        UPDATE requests SET
            title = $3,
            description = $4,
            type = $5,
            priority = $6,
            status = $7,
            assignee_id = $8,
            reviewer_id = $9,
            rejection_reason = $10,
            cancel_reason = $11,
            attachment_ids = $12,
            submitted_at = $13,
            reviewed_at = $14,
            version = $2 + 1,
            updated_at = NOW()
        WHERE id = $1 AND version = $2
    `

	exec := r.execer()
	res, err := exec.ExecContext(
		ctx, query,
		req.ID, expectedVersion,
		req.Title, req.Description, req.Type, req.Priority, req.Status,
		req.AssigneeID, req.ReviewerID, req.RejectionReason, req.CancelReason,
		req.AttachmentIDs, req.SubmittedAt, req.ReviewedAt,
	)
	if err != nil {
		return false, err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if affected == 0 {
		return false, nil
	}

	req.Version = expectedVersion + 1
	return true, nil
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.sqlDB
}
