package audit

import (
	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	auditerrors "go-reqflow/internal/audit/errors"
)

//go:generate mockgen -source=audit_service.go -destination=mock/audit_service_mock.go -package=mock
type Service interface {
	EntityHistory(ctx context.Context, entityType, entityID string) ([]DisplayEvent, error)
	// Delete exists to make the append-only guarantee explicit at the service
	// boundary; it always fails.
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo   Repository
	logger *zap.Logger
}

func NewService(repo Repository, logger ...*zap.Logger) Service {
	l := zap.L().Named("audit.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("audit.service")
	}
	return &service{repo: repo, logger: l}
}

func (s *service) EntityHistory(ctx context.Context, entityType, entityID string) ([]DisplayEvent, error) {
	if _, err := uuid.Parse(entityID); err != nil {
		return nil, auditerrors.ErrInvalidEntityID
	}

	entries, err := s.repo.ListByEntity(ctx, entityType, entityID)
	if err != nil {
		s.logger.Error("list audit entries failed",
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.Error(err),
		)
		return nil, err
	}

	history := make([]DisplayEvent, len(entries))
	for i, entry := range entries {
		history[i] = Reconstruct(entry)
	}
	return history, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	s.logger.Warn("audit delete attempted", zap.String("audit_id", id))
	return auditerrors.ErrDeleteUnsupported
}
