package audit_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"go-reqflow/internal/audit"
	"go-reqflow/internal/events"
	"go-reqflow/internal/shared/apperror"
	"go-reqflow/internal/shared/contextutil"
)

type fakeAuditRepo struct {
	entries        []audit.AuditLog
	listByEntityFn func(ctx context.Context, entityType, entityID string) ([]audit.AuditLog, error)
}

func (f *fakeAuditRepo) WithTx(tx *sql.Tx) audit.Repository { return f }
func (f *fakeAuditRepo) Create(ctx context.Context, entry audit.AuditLog) error {
	f.entries = append(f.entries, entry)
	return nil
}
func (f *fakeAuditRepo) ListByEntity(ctx context.Context, entityType, entityID string) ([]audit.AuditLog, error) {
	if f.listByEntityFn != nil {
		return f.listByEntityFn(ctx, entityType, entityID)
	}
	return f.entries, nil
}
func (f *fakeAuditRepo) Delete(ctx context.Context, id string) error {
	return nil
}

func TestAuditService_EntityHistoryReconstructsInOrder(t *testing.T) {
	requestID := uuid.New().String()
	actorID := uuid.New()
	base := time.Now().UTC().Add(-time.Hour)

	repo := &fakeAuditRepo{}
	evs := []events.Event{
		events.NewRequestCreated(requestID, actorID.String(), base),
		events.NewRequestSubmitted(requestID, actorID.String(), nil, base.Add(time.Minute)),
		events.NewRequestRejected(requestID, uuid.New().String(), actorID.String(), "incomplete", base.Add(2*time.Minute)),
	}
	for _, ev := range evs {
		entry, err := audit.Record(ev, &actorID, contextutil.ClientInfo{})
		assert.NoError(t, err)
		assert.NoError(t, repo.Create(context.Background(), entry))
	}

	svc := audit.NewService(repo)
	history, err := svc.EntityHistory(context.Background(), audit.EntityTypeRequest, requestID)
	assert.NoError(t, err)
	assert.Len(t, history, 3)

	assert.Equal(t, events.TypeRequestCreated, history[0].EventType)
	assert.Equal(t, events.TypeRequestSubmitted, history[1].EventType)
	assert.Equal(t, events.TypeRequestRejected, history[2].EventType)
	assert.Equal(t, "incomplete", history[2].Reason)
	assert.True(t, history[0].OccurredAt.Before(history[2].OccurredAt))
}

func TestAuditService_EntityHistoryInvalidID(t *testing.T) {
	svc := audit.NewService(&fakeAuditRepo{})

	_, err := svc.EntityHistory(context.Background(), audit.EntityTypeRequest, "nope")
	assert.Error(t, err)

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeInvalidInput, appErr.Code)
}

func TestAuditService_DeleteAlwaysUnsupported(t *testing.T) {
	svc := audit.NewService(&fakeAuditRepo{})

	err := svc.Delete(context.Background(), uuid.New().String())
	assert.Error(t, err)

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeUnsupported, appErr.Code)
	assert.Equal(t, 405, appErr.HTTPStatus)
}
