package notification_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"go-reqflow/internal/notification"
	"go-reqflow/internal/shared/apperror"
)

type fakeNotificationRepo struct {
	countUnreadFn     func(ctx context.Context, recipientID string) (int64, error)
	markReadFn        func(ctx context.Context, recipientID, id string, readAt time.Time) (bool, error)
	findByRecipientFn func(ctx context.Context, recipientID string, filter notification.ListFilter) ([]notification.Notification, int64, error)
}

func (f *fakeNotificationRepo) WithTx(tx *sql.Tx) notification.Repository { return f }
func (f *fakeNotificationRepo) Create(ctx context.Context, n notification.Notification) error {
	return nil
}
func (f *fakeNotificationRepo) FindByRecipient(ctx context.Context, recipientID string, filter notification.ListFilter) ([]notification.Notification, int64, error) {
	if f.findByRecipientFn != nil {
		return f.findByRecipientFn(ctx, recipientID, filter)
	}
	return nil, 0, nil
}
func (f *fakeNotificationRepo) MarkRead(ctx context.Context, recipientID, id string, readAt time.Time) (bool, error) {
	if f.markReadFn != nil {
		return f.markReadFn(ctx, recipientID, id, readAt)
	}
	return false, nil
}
func (f *fakeNotificationRepo) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	if f.countUnreadFn != nil {
		return f.countUnreadFn(ctx, recipientID)
	}
	return 0, nil
}

func TestNotificationService_UnreadCountCacheHit(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	repo := &fakeNotificationRepo{
		countUnreadFn: func(ctx context.Context, recipientID string) (int64, error) {
			t.Fatal("cache hit must not reach the database")
			return 0, nil
		},
	}
	svc := notification.NewService(repo, rdb)

	recipientID := uuid.New().String()
	mock.ExpectGet(notification.GetUnreadCountKey(recipientID)).SetVal("7")

	count, err := svc.UnreadCount(context.Background(), recipientID)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationService_UnreadCountCacheMissFillsCache(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	repo := &fakeNotificationRepo{
		countUnreadFn: func(ctx context.Context, recipientID string) (int64, error) {
			return 4, nil
		},
	}
	svc := notification.NewService(repo, rdb)

	recipientID := uuid.New().String()
	key := notification.GetUnreadCountKey(recipientID)
	mock.ExpectGet(key).RedisNil()
	mock.ExpectSet(key, "4", 5*time.Minute).SetVal("OK")

	count, err := svc.UnreadCount(context.Background(), recipientID)
	assert.NoError(t, err)
	assert.Equal(t, int64(4), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationService_UnreadCountInvalidRecipient(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	svc := notification.NewService(&fakeNotificationRepo{}, rdb)

	_, err := svc.UnreadCount(context.Background(), "not-a-uuid")
	assert.Error(t, err)

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeInvalidInput, appErr.Code)
}

func TestNotificationService_MarkReadInvalidatesCache(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	repo := &fakeNotificationRepo{
		markReadFn: func(ctx context.Context, recipientID, id string, readAt time.Time) (bool, error) {
			return true, nil
		},
	}
	svc := notification.NewService(repo, rdb)

	recipientID := uuid.New().String()
	id := uuid.New().String()
	mock.ExpectDel(notification.GetUnreadCountKey(recipientID)).SetVal(1)

	resp, err := svc.MarkRead(context.Background(), recipientID, id)
	assert.NoError(t, err)
	assert.True(t, resp.IsRead)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationService_MarkReadForeignNotificationNotFound(t *testing.T) {
	rdb, _ := redismock.NewClientMock()
	repo := &fakeNotificationRepo{
		markReadFn: func(ctx context.Context, recipientID, id string, readAt time.Time) (bool, error) {
			// The recipient-scoped update matched nothing.
			return false, nil
		},
	}
	svc := notification.NewService(repo, rdb)

	_, err := svc.MarkRead(context.Background(), uuid.New().String(), uuid.New().String())
	assert.Error(t, err)

	var appErr *apperror.AppError
	assert.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperror.CodeNotFound, appErr.Code)
}
