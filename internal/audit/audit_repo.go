package audit

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	auditerrors "go-reqflow/internal/audit/errors"
)

//go:generate mockgen -source=audit_repo.go -destination=mock/audit_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, entry AuditLog) error
	ListByEntity(ctx context.Context, entityType, entityID string) ([]AuditLog, error)
	// Delete always fails: the trail is append-only.
	Delete(ctx context.Context, id string) error
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

func (r *repository) Create(ctx context.Context, entry AuditLog) error {
	query := `
        INSERT INTO audit_logs (
            id, action, entity_type, entity_id, actor_id, changes, metadata, created_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
    `

	exec := r.execer()
	_, err := exec.ExecContext(
		ctx, query,
		entry.ID, entry.Action, entry.EntityType, entry.EntityID,
		entry.ActorID, entry.Changes, entry.Metadata, entry.CreatedAt,
	)
	return err
}

func (r *repository) ListByEntity(ctx context.Context, entityType, entityID string) ([]AuditLog, error) {
	var entries []AuditLog
	err := r.db.WithContext(ctx).
		Where("entity_type = ?", entityType).
		Where("entity_id = ?", entityID).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

func (r *repository) Delete(ctx context.Context, id string) error {
	return auditerrors.ErrDeleteUnsupported
}

func (r *repository) execer() interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
} {
	if r.tx != nil {
		return r.tx
	}
	return r.sqlDB
}
