package notification

import (
	"context"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	notificationerrors "go-reqflow/internal/notification/errors"
)

const UnreadCountKeyPrefix = "notifications:unread:"

func GetUnreadCountKey(recipientID string) string {
	return UnreadCountKeyPrefix + recipientID
}

const unreadCountTTL = 5 * time.Minute

//go:generate mockgen -source=notification_service.go -destination=mock/notification_service_mock.go -package=mock
type Service interface {
	List(ctx context.Context, recipientID string, filter ListFilter) ([]NotificationResponse, int64, error)
	MarkRead(ctx context.Context, recipientID, id string) (NotificationResponse, error)
	UnreadCount(ctx context.Context, recipientID string) (int64, error)
	InvalidateUnreadCount(ctx context.Context, recipientID string) error
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("notification.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("notification.service")
	}
	return &service{
		repo:   repo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) List(ctx context.Context, recipientID string, filter ListFilter) ([]NotificationResponse, int64, error) {
	if _, err := uuid.Parse(recipientID); err != nil {
		return nil, 0, notificationerrors.ErrInvalidRecipientID
	}

	notifs, total, err := s.repo.FindByRecipient(ctx, recipientID, filter)
	if err != nil {
		s.logger.Error("list notifications failed",
			zap.String("recipient_id", recipientID),
			zap.Error(err),
		)
		return nil, 0, err
	}
	return mapToListResponse(notifs), total, nil
}

func (s *service) MarkRead(ctx context.Context, recipientID, id string) (NotificationResponse, error) {
	if _, err := uuid.Parse(recipientID); err != nil {
		return NotificationResponse{}, notificationerrors.ErrInvalidRecipientID
	}
	if _, err := uuid.Parse(id); err != nil {
		return NotificationResponse{}, notificationerrors.ErrInvalidNotificationID
	}

	now := time.Now().UTC()
	updated, err := s.repo.MarkRead(ctx, recipientID, id, now)
	if err != nil {
		s.logger.Error("mark notification read failed",
			zap.String("notification_id", id),
			zap.Error(err),
		)
		return NotificationResponse{}, err
	}
	if !updated {
		// Either not theirs, unknown, or already read. The recipient-scoped
		// query makes all three indistinguishable on purpose.
		return NotificationResponse{}, notificationerrors.ErrNotificationNotFound
	}

	if err := s.InvalidateUnreadCount(ctx, recipientID); err != nil {
		s.logger.Warn("invalidate unread count failed",
			zap.String("recipient_id", recipientID),
			zap.Error(err),
		)
	}

	s.logger.Info("notification marked read",
		zap.String("notification_id", id),
		zap.String("recipient_id", recipientID),
	)

	return NotificationResponse{ID: id, IsRead: true}, nil
}

// UnreadCount serves the badge number. Cached in Redis; singleflight keeps a
// cold cache from stampeding the database.
func (s *service) UnreadCount(ctx context.Context, recipientID string) (int64, error) {
	if _, err := uuid.Parse(recipientID); err != nil {
		return 0, notificationerrors.ErrInvalidRecipientID
	}

	if s.rdb != nil {
		if val, err := s.rdb.Get(ctx, GetUnreadCountKey(recipientID)).Result(); err == nil {
			if count, parseErr := strconv.ParseInt(val, 10, 64); parseErr == nil {
				return count, nil
			}
		}
	}

	v, err, _ := s.sf.Do(recipientID, func() (any, error) {
		count, err := s.repo.CountUnread(ctx, recipientID)
		if err != nil {
			return int64(0), err
		}

		if s.rdb != nil {
			key := GetUnreadCountKey(recipientID)
			if err := s.rdb.Set(ctx, key, strconv.FormatInt(count, 10), unreadCountTTL).Err(); err != nil {
				s.logger.Warn("cache unread count failed", zap.String("key", key), zap.Error(err))
			}
		}
		return count, nil
	})
	if err != nil {
		s.logger.Error("count unread notifications failed",
			zap.String("recipient_id", recipientID),
			zap.Error(err),
		)
		return 0, err
	}

	return v.(int64), nil
}

func (s *service) InvalidateUnreadCount(ctx context.Context, recipientID string) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, GetUnreadCountKey(recipientID)).Err()
}
