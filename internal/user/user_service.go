package user

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"go-reqflow/internal/shared/contextutil"
	usererrors "go-reqflow/internal/user/errors"
)

// ReviewerOptionsKey caches the reviewer picklist shown when assigning a
// request for review.
const ReviewerOptionsKey = "users:reviewer-options"

const reviewerOptionsTTL = 5 * time.Minute

//go:generate mockgen -source=user_service.go -destination=mock/user_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, req CreateUserRequest) (UserResponse, error)
	GetAll(ctx context.Context) ([]UserResponse, error)
	GetReviewerOptions(ctx context.Context) ([]UserResponse, error)
	GetByID(ctx context.Context, id string) (UserResponse, error)
	Update(ctx context.Context, id string, req UpdateUserRequest) (UserResponse, error)
}

type service struct {
	repo   Repository
	rdb    *redis.Client
	sf     *singleflight.Group
	logger *zap.Logger
}

func NewService(repo Repository, rdb *redis.Client, logger ...*zap.Logger) Service {
	l := zap.L().Named("user.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("user.service")
	}
	return &service{
		repo:   repo,
		rdb:    rdb,
		sf:     &singleflight.Group{},
		logger: l,
	}
}

func (s *service) Create(ctx context.Context, req CreateUserRequest) (UserResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create user requested",
		zap.String("request_id", rid),
		zap.String("email", req.Email),
	)

	role := req.Role
	if role == "" {
		role = RoleUser
	}

	now := time.Now().UTC()
	u := &User{
		ID:        uuid.New(),
		FullName:  req.FullName,
		Email:     req.Email,
		Role:      role,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, u); err != nil {
		mapped := mapRepositoryError(err)
		s.logger.Error("create user persist failed", zap.String("request_id", rid), zap.Error(err))
		return UserResponse{}, mapped
	}

	s.invalidateReviewerOptions(ctx)

	s.logger.Info("create user success",
		zap.String("request_id", rid),
		zap.String("id", u.ID.String()),
	)
	return mapToResponse(*u), nil
}

func (s *service) GetAll(ctx context.Context) ([]UserResponse, error) {
	users, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(users), nil
}

// GetReviewerOptions serves the assign picklist through a cache. A stale
// picklist is harmless: assignment still validates against the request's
// state, so a five minute TTL plus best effort invalidation is enough.
func (s *service) GetReviewerOptions(ctx context.Context) ([]UserResponse, error) {
	if s.rdb != nil {
		cached, err := s.rdb.Get(ctx, ReviewerOptionsKey).Result()
		if err == nil {
			var resp []UserResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return resp, nil
			}
			s.logger.Warn("reviewer options cache corrupt, refetching", zap.Error(err))
		} else if err != redis.Nil {
			s.logger.Warn("reviewer options cache read failed", zap.Error(err))
		}
	}

	v, err, _ := s.sf.Do(ReviewerOptionsKey, func() (interface{}, error) {
		users, err := s.repo.FindActiveReviewers(ctx)
		if err != nil {
			return nil, err
		}
		resp := mapToListResponse(users)

		if s.rdb != nil {
			if buf, err := json.Marshal(resp); err == nil {
				if err := s.rdb.Set(ctx, ReviewerOptionsKey, buf, reviewerOptionsTTL).Err(); err != nil {
					s.logger.Warn("reviewer options cache write failed", zap.Error(err))
				}
			}
		}
		return resp, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]UserResponse), nil
}

func (s *service) GetByID(ctx context.Context, id string) (UserResponse, error) {
	if _, err := uuid.Parse(id); err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return UserResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*u), nil
}

func (s *service) Update(ctx context.Context, id string, req UpdateUserRequest) (UserResponse, error) {
	rid := contextutil.GetRequestID(ctx)

	if _, err := uuid.Parse(id); err != nil {
		return UserResponse{}, usererrors.ErrInvalidUserID
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return UserResponse{}, mapRepositoryError(err)
	}

	u.FullName = req.FullName
	u.Role = req.Role
	if req.IsActive != nil {
		u.IsActive = *req.IsActive
	}
	u.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, u); err != nil {
		mapped := mapRepositoryError(err)
		s.logger.Error("update user persist failed", zap.String("request_id", rid), zap.String("id", id), zap.Error(err))
		return UserResponse{}, mapped
	}

	s.invalidateReviewerOptions(ctx)

	s.logger.Info("update user success",
		zap.String("request_id", rid),
		zap.String("id", id),
		zap.String("role", u.Role),
	)
	return mapToResponse(*u), nil
}

func (s *service) invalidateReviewerOptions(ctx context.Context) {
	if s.rdb == nil {
		return
	}
	if err := s.rdb.Del(ctx, ReviewerOptionsKey).Err(); err != nil {
		s.logger.Warn("reviewer options cache invalidation failed", zap.Error(err))
	}
}
