package request

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"go-reqflow/internal/audit"
	"go-reqflow/internal/events"
	"go-reqflow/internal/messaging/kafka"
	"go-reqflow/internal/notification"
	requesterrors "go-reqflow/internal/request/errors"
	"go-reqflow/internal/shared/apperror"
	"go-reqflow/internal/shared/contextutil"
	"go-reqflow/internal/user"
)

//go:generate mockgen -source=request_service.go -destination=mock/request_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, actorID string, req CreateRequestRequest) (RequestResponse, error)
	GetAll(ctx context.Context, actorID string, canReadAll bool, filter ListFilter) ([]RequestResponse, error)
	GetByID(ctx context.Context, id string) (RequestDetailResponse, error)
	Update(ctx context.Context, actorID, id string, req UpdateRequestRequest) (RequestResponse, error)
	Submit(ctx context.Context, actorID, id string) (RequestResponse, error)
	BeginReview(ctx context.Context, actorID, id string, assigneeID *string) (RequestResponse, error)
	Approve(ctx context.Context, actorID, id string) (RequestResponse, error)
	Reject(ctx context.Context, actorID, id, reason string) (RequestResponse, error)
	Cancel(ctx context.Context, actorID, id string, reason *string) (RequestResponse, error)
	Reopen(ctx context.Context, actorID, id string) (RequestResponse, error)
}

// service is the lifecycle orchestrator: the only entry point through which a
// request transitions. Per command it loads the aggregate, authorizes the
// actor, applies the aggregate operation, derives the audit entry and
// notifications from the returned event, and persists the new row state plus
// all projections in one transaction guarded by the aggregate's version. The
// event is dropped only after the commit succeeds, so projections fire
// exactly once per transition.
type service struct {
	db        *sql.DB
	repo      Repository
	users     user.Repository
	auditRepo audit.Repository
	notifRepo notification.Repository
	outbox    kafka.OutboxRepository
	logger    *zap.Logger
}

func NewService(
	db *sql.DB,
	repo Repository,
	users user.Repository,
	auditRepo audit.Repository,
	notifRepo notification.Repository,
	logger ...*zap.Logger,
) Service {
	return NewServiceWithOutbox(db, repo, users, auditRepo, notifRepo, nil, logger...)
}

func NewServiceWithOutbox(
	db *sql.DB,
	repo Repository,
	users user.Repository,
	auditRepo audit.Repository,
	notifRepo notification.Repository,
	outboxRepo kafka.OutboxRepository,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("request.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("request.service")
	}
	return &service{
		db:        db,
		repo:      repo,
		users:     users,
		auditRepo: auditRepo,
		notifRepo: notifRepo,
		outbox:    outboxRepo,
		logger:    l,
	}
}

func (s *service) Create(ctx context.Context, actorID string, req CreateRequestRequest) (RequestResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("create request requested",
		zap.String("request_id", rid),
		zap.String("actor_id", actorID),
		zap.String("type", req.Type),
	)

	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return RequestResponse{}, requesterrors.ErrInvalidActorID
	}

	var assigneeUUID *uuid.UUID
	if req.AssigneeID != nil && *req.AssigneeID != "" {
		a, err := uuid.Parse(*req.AssigneeID)
		if err != nil {
			return RequestResponse{}, requesterrors.ErrInvalidAssigneeID
		}
		assigneeUUID = &a
	}

	attachments, err := marshalAttachmentIDs(req.AttachmentIDs)
	if err != nil {
		return RequestResponse{}, apperror.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("create request begin tx failed", zap.Error(err))
		return RequestResponse{}, wrapPersistence(err)
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	r := &Request{
		ID:            uuid.New(),
		Title:         req.Title,
		Description:   req.Description,
		Type:          req.Type,
		Priority:      req.Priority,
		Status:        StatusDraft,
		RequesterID:   actorUUID,
		AssigneeID:    assigneeUUID,
		AttachmentIDs: attachments,
		Version:       1,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.WithTx(tx).Create(ctx, r); err != nil {
		s.logger.Error("create request persist failed", zap.Error(err))
		return RequestResponse{}, wrapPersistence(err)
	}

	ev := events.NewRequestCreated(r.ID.String(), actorUUID.String(), now)
	if err := s.commitProjections(ctx, tx, &actorUUID, ev); err != nil {
		return RequestResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("create request commit failed", zap.Error(err))
		return RequestResponse{}, wrapPersistence(err)
	}

	s.logger.Info("create request success",
		zap.String("request_id", rid),
		zap.String("id", r.ID.String()),
	)
	return mapToResponse(*r), nil
}

func (s *service) GetAll(ctx context.Context, actorID string, canReadAll bool, filter ListFilter) ([]RequestResponse, error) {
	if !canReadAll {
		filter.RequesterID = actorID
	}

	requests, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(requests), nil
}

func (s *service) GetByID(ctx context.Context, id string) (RequestDetailResponse, error) {
	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestDetailResponse{}, requesterrors.ErrRequestNotFound
		}
		return RequestDetailResponse{}, err
	}

	detail := RequestDetailResponse{RequestResponse: mapToResponse(*r)}

	ids := []string{r.RequesterID.String()}
	if r.AssigneeID != nil {
		ids = append(ids, r.AssigneeID.String())
	}
	if r.ReviewerID != nil {
		ids = append(ids, r.ReviewerID.String())
	}

	names, err := s.resolveNames(ctx, ids)
	if err != nil {
		// Name resolution is cosmetic; the detail view still renders.
		s.logger.Warn("resolve actor names failed", zap.String("id", id), zap.Error(err))
		return detail, nil
	}

	detail.RequesterName = names[r.RequesterID.String()]
	if r.AssigneeID != nil {
		detail.AssigneeName = names[r.AssigneeID.String()]
	}
	if r.ReviewerID != nil {
		detail.ReviewerName = names[r.ReviewerID.String()]
	}
	return detail, nil
}

func (s *service) Update(ctx context.Context, actorID, id string, req UpdateRequestRequest) (RequestResponse, error) {
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return RequestResponse{}, requesterrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return RequestResponse{}, requesterrors.ErrInvalidRequestID
	}

	attachments, err := marshalAttachmentIDs(req.AttachmentIDs)
	if err != nil {
		return RequestResponse{}, apperror.ErrInvalidInput
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("update request begin tx failed", zap.Error(err))
		return RequestResponse{}, wrapPersistence(err)
	}
	defer tx.Rollback()

	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, requesterrors.ErrRequestNotFound
		}
		return RequestResponse{}, err
	}
	loadedVersion := r.Version

	if r.RequesterID != actorUUID {
		return RequestResponse{}, requesterrors.ErrNotRequester
	}
	if r.Status != StatusDraft {
		return RequestResponse{}, requesterrors.ErrDraftOnlyEdit
	}

	changes := diffDraft(r, req)
	r.Title = req.Title
	r.Description = req.Description
	r.Type = req.Type
	r.Priority = req.Priority
	r.AttachmentIDs = attachments

	now := time.Now().UTC()
	ev := events.NewRequestUpdated(r.ID.String(), actorUUID.String(), changes, now)
	if err := s.commitProjections(ctx, tx, &actorUUID, ev); err != nil {
		return RequestResponse{}, err
	}

	ok, err := s.repo.WithTx(tx).UpdateVersioned(ctx, r, loadedVersion)
	if err != nil {
		s.logger.Error("update request persist failed", zap.String("id", id), zap.Error(err))
		return RequestResponse{}, wrapPersistence(err)
	}
	if !ok {
		return RequestResponse{}, requesterrors.ErrRequestConflict
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("update request commit failed", zap.String("id", id), zap.Error(err))
		return RequestResponse{}, wrapPersistence(err)
	}

	s.logger.Info("update request success",
		zap.String("id", id),
		zap.Int("changed_fields", len(changes)),
	)
	return mapToResponse(*r), nil
}

func (s *service) Submit(ctx context.Context, actorID, id string) (RequestResponse, error) {
	return s.applyTransition(ctx, "submit", actorID, id,
		requireRequester,
		func(r *Request, _ uuid.UUID, now time.Time) (events.Event, error) {
			return r.Submit(now)
		},
	)
}

func (s *service) BeginReview(ctx context.Context, actorID, id string, assigneeID *string) (RequestResponse, error) {
	var assigneeUUID uuid.UUID
	if assigneeID != nil && *assigneeID != "" {
		a, err := uuid.Parse(*assigneeID)
		if err != nil {
			return RequestResponse{}, requesterrors.ErrInvalidAssigneeID
		}
		assigneeUUID = a
	}

	return s.applyTransition(ctx, "begin_review", actorID, id,
		nil, // any reviewer may pick up or assign; the route guards the role
		func(r *Request, actor uuid.UUID, now time.Time) (events.Event, error) {
			assignee := assigneeUUID
			if assignee == uuid.Nil {
				assignee = actor
			}
			return r.BeginReview(assignee, actor, now)
		},
	)
}

func (s *service) Approve(ctx context.Context, actorID, id string) (RequestResponse, error) {
	return s.applyTransition(ctx, "approve", actorID, id,
		requireAssignee,
		func(r *Request, actor uuid.UUID, now time.Time) (events.Event, error) {
			return r.Approve(actor, now)
		},
	)
}

func (s *service) Reject(ctx context.Context, actorID, id, reason string) (RequestResponse, error) {
	if reason == "" {
		return RequestResponse{}, requesterrors.ErrRejectionReasonRequired
	}

	return s.applyTransition(ctx, "reject", actorID, id,
		requireAssignee,
		func(r *Request, actor uuid.UUID, now time.Time) (events.Event, error) {
			return r.Reject(actor, reason, now)
		},
	)
}

func (s *service) Cancel(ctx context.Context, actorID, id string, reason *string) (RequestResponse, error) {
	return s.applyTransition(ctx, "cancel", actorID, id,
		requireRequester,
		func(r *Request, actor uuid.UUID, now time.Time) (events.Event, error) {
			return r.Cancel(actor, reason, now)
		},
	)
}

func (s *service) Reopen(ctx context.Context, actorID, id string) (RequestResponse, error) {
	return s.applyTransition(ctx, "reopen", actorID, id,
		requireRequester,
		func(r *Request, _ uuid.UUID, now time.Time) (events.Event, error) {
			return r.Reopen(now)
		},
	)
}

// requireRequester restricts submit/cancel/reopen to the request's owner.
func requireRequester(r *Request, actor uuid.UUID) error {
	if r.RequesterID != actor {
		return requesterrors.ErrNotRequester
	}
	return nil
}

// requireAssignee restricts decisions to the assigned reviewer when one
// exists. With no assignee the decision is an implicit pickup and any
// reviewer-role actor (already enforced at the route) may decide.
func requireAssignee(r *Request, actor uuid.UUID) error {
	if r.AssigneeID != nil && *r.AssigneeID != actor {
		return requesterrors.ErrNotAssignee
	}
	return nil
}

func (s *service) applyTransition(
	ctx context.Context,
	op string,
	actorID, id string,
	authorize func(r *Request, actor uuid.UUID) error,
	transition func(r *Request, actor uuid.UUID, now time.Time) (events.Event, error),
) (RequestResponse, error) {
	rid := contextutil.GetRequestID(ctx)
	s.logger.Debug("request transition requested",
		zap.String("request_id", rid),
		zap.String("op", op),
		zap.String("id", id),
		zap.String("actor_id", actorID),
	)

	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return RequestResponse{}, requesterrors.ErrInvalidActorID
	}
	if _, err := uuid.Parse(id); err != nil {
		return RequestResponse{}, requesterrors.ErrInvalidRequestID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.logger.Error("request transition begin tx failed", zap.String("op", op), zap.Error(err))
		return RequestResponse{}, wrapPersistence(err)
	}
	defer tx.Rollback()

	r, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RequestResponse{}, requesterrors.ErrRequestNotFound
		}
		return RequestResponse{}, err
	}
	loadedVersion := r.Version

	if authorize != nil {
		if err := authorize(r, actorUUID); err != nil {
			s.logger.Warn("request transition forbidden",
				zap.String("op", op),
				zap.String("id", id),
				zap.String("actor_id", actorID),
			)
			return RequestResponse{}, err
		}
	}

	now := time.Now().UTC()
	ev, err := transition(r, actorUUID, now)
	if err != nil {
		s.logger.Warn("request transition invalid",
			zap.String("op", op),
			zap.String("id", id),
			zap.String("status", r.Status),
		)
		return RequestResponse{}, err
	}

	if err := s.commitProjections(ctx, tx, &actorUUID, ev); err != nil {
		return RequestResponse{}, err
	}

	ok, err := s.repo.WithTx(tx).UpdateVersioned(ctx, r, loadedVersion)
	if err != nil {
		s.logger.Error("request transition persist failed",
			zap.String("op", op),
			zap.String("id", id),
			zap.Error(err),
		)
		return RequestResponse{}, wrapPersistence(err)
	}
	if !ok {
		s.logger.Warn("request transition version conflict",
			zap.String("op", op),
			zap.String("id", id),
			zap.Int64("expected_version", loadedVersion),
		)
		return RequestResponse{}, requesterrors.ErrRequestConflict
	}

	if err := tx.Commit(); err != nil {
		s.logger.Error("request transition commit failed",
			zap.String("op", op),
			zap.String("id", id),
			zap.Error(err),
		)
		return RequestResponse{}, wrapPersistence(err)
	}

	s.logger.Info("request transition success",
		zap.String("request_id", rid),
		zap.String("op", op),
		zap.String("id", id),
		zap.String("status", r.Status),
	)
	return mapToResponse(*r), nil
}

// commitProjections derives and stages the audit entry, the notifications,
// and the outbox row for one event inside the caller's transaction. Nothing
// here is visible to readers until the transaction commits, and the event is
// discarded afterwards: projections can neither double-fire nor silently
// drop for a committed transition.
func (s *service) commitProjections(ctx context.Context, tx *sql.Tx, actorID *uuid.UUID, ev events.Event) error {
	entry, err := audit.Record(ev, actorID, contextutil.GetClientInfo(ctx))
	if err != nil {
		s.logger.Error("build audit entry failed", zap.String("event_type", ev.EventType()), zap.Error(err))
		return wrapPersistence(err)
	}
	if err := s.auditRepo.WithTx(tx).Create(ctx, entry); err != nil {
		s.logger.Error("audit entry persist failed", zap.String("event_type", ev.EventType()), zap.Error(err))
		return wrapPersistence(err)
	}

	notifRepo := s.notifRepo.WithTx(tx)
	for _, n := range notification.Derive(ev) {
		if err := notifRepo.Create(ctx, n); err != nil {
			s.logger.Error("notification persist failed",
				zap.String("event_type", ev.EventType()),
				zap.String("recipient_id", n.RecipientID.String()),
				zap.Error(err),
			)
			return wrapPersistence(err)
		}
	}

	if s.outbox != nil {
		payload, err := events.Marshal(ev)
		if err != nil {
			s.logger.Error("marshal lifecycle event failed", zap.String("event_type", ev.EventType()), zap.Error(err))
			return wrapPersistence(err)
		}

		if err := s.outbox.WithTx(tx).Create(ctx, kafka.OutboxEvent{
			ID:            uuid.NewString(),
			CorrelationID: contextutil.GetRequestID(ctx),
			AggregateID:   ev.AggregateID(),
			EventType:     ev.EventType(),
			Topic:         events.RequestLifecycleTopic,
			Payload:       payload,
			Status:        kafka.OutboxStatusPending,
		}); err != nil {
			s.logger.Error("outbox persist failed", zap.String("event_type", ev.EventType()), zap.Error(err))
			return wrapPersistence(err)
		}
	}

	return nil
}

func (s *service) resolveNames(ctx context.Context, ids []string) (map[string]string, error) {
	if s.users == nil || len(ids) == 0 {
		return map[string]string{}, nil
	}

	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(users))
	for _, u := range users {
		names[u.ID.String()] = u.FullName
	}
	return names, nil
}

func diffDraft(r *Request, req UpdateRequestRequest) []events.FieldChange {
	var changes []events.FieldChange
	if r.Title != req.Title {
		changes = append(changes, events.FieldChange{Field: "title", Old: r.Title, New: req.Title})
	}
	if r.Description != req.Description {
		changes = append(changes, events.FieldChange{Field: "description", Old: r.Description, New: req.Description})
	}
	if r.Type != req.Type {
		changes = append(changes, events.FieldChange{Field: "type", Old: r.Type, New: req.Type})
	}
	if r.Priority != req.Priority {
		changes = append(changes, events.FieldChange{Field: "priority", Old: r.Priority, New: req.Priority})
	}
	return changes
}

func marshalAttachmentIDs(ids []string) ([]byte, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return json.Marshal(ids)
}

func wrapPersistence(err error) error {
	return apperror.Wrap(err, apperror.CodePersistenceError, apperror.ErrPersistence.Message, apperror.ErrPersistence.HTTPStatus)
}
