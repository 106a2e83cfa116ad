package request_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"go-reqflow/internal/audit"
	"go-reqflow/internal/middleware"
	"go-reqflow/internal/request"
	requesterrors "go-reqflow/internal/request/errors"
)

type fakeRequestService struct {
	submitFn  func(ctx context.Context, actorID, id string) (request.RequestResponse, error)
	rejectFn  func(ctx context.Context, actorID, id, reason string) (request.RequestResponse, error)
	approveFn func(ctx context.Context, actorID, id string) (request.RequestResponse, error)
}

func (f *fakeRequestService) Create(ctx context.Context, actorID string, req request.CreateRequestRequest) (request.RequestResponse, error) {
	return request.RequestResponse{}, nil
}
func (f *fakeRequestService) GetAll(ctx context.Context, actorID string, canReadAll bool, filter request.ListFilter) ([]request.RequestResponse, error) {
	return nil, nil
}
func (f *fakeRequestService) GetByID(ctx context.Context, id string) (request.RequestDetailResponse, error) {
	return request.RequestDetailResponse{}, nil
}
func (f *fakeRequestService) Update(ctx context.Context, actorID, id string, req request.UpdateRequestRequest) (request.RequestResponse, error) {
	return request.RequestResponse{}, nil
}
func (f *fakeRequestService) Submit(ctx context.Context, actorID, id string) (request.RequestResponse, error) {
	if f.submitFn != nil {
		return f.submitFn(ctx, actorID, id)
	}
	return request.RequestResponse{}, nil
}
func (f *fakeRequestService) BeginReview(ctx context.Context, actorID, id string, assigneeID *string) (request.RequestResponse, error) {
	return request.RequestResponse{}, nil
}
func (f *fakeRequestService) Approve(ctx context.Context, actorID, id string) (request.RequestResponse, error) {
	if f.approveFn != nil {
		return f.approveFn(ctx, actorID, id)
	}
	return request.RequestResponse{}, nil
}
func (f *fakeRequestService) Reject(ctx context.Context, actorID, id, reason string) (request.RequestResponse, error) {
	if f.rejectFn != nil {
		return f.rejectFn(ctx, actorID, id, reason)
	}
	return request.RequestResponse{}, nil
}
func (f *fakeRequestService) Cancel(ctx context.Context, actorID, id string, reason *string) (request.RequestResponse, error) {
	return request.RequestResponse{}, nil
}
func (f *fakeRequestService) Reopen(ctx context.Context, actorID, id string) (request.RequestResponse, error) {
	return request.RequestResponse{}, nil
}

type fakeAuditService struct {
	entityHistoryFn func(ctx context.Context, entityType, entityID string) ([]audit.DisplayEvent, error)
}

func (f *fakeAuditService) EntityHistory(ctx context.Context, entityType, entityID string) ([]audit.DisplayEvent, error) {
	if f.entityHistoryFn != nil {
		return f.entityHistoryFn(ctx, entityType, entityID)
	}
	return nil, nil
}
func (f *fakeAuditService) Delete(ctx context.Context, id string) error { return nil }

func setupRequestRouter(svc request.Service, auditSvc audit.Service, actorID string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", actorID)
		c.Next()
	})

	handler := request.NewHandler(svc, auditSvc)
	router.POST("/requests/:id/submit", handler.Submit)
	router.POST("/requests/:id/approve", handler.Approve)
	router.POST("/requests/:id/reject", handler.Reject)
	router.GET("/requests/:id/history", handler.GetHistory)
	return router
}

func TestRequestHandler_SubmitSuccess(t *testing.T) {
	actorID := uuid.New().String()
	id := uuid.New().String()

	svc := &fakeRequestService{
		submitFn: func(ctx context.Context, gotActor, gotID string) (request.RequestResponse, error) {
			assert.Equal(t, actorID, gotActor)
			assert.Equal(t, id, gotID)
			return request.RequestResponse{ID: gotID, Status: request.StatusSubmitted}, nil
		},
	}
	router := setupRequestRouter(svc, &fakeAuditService{}, actorID)

	req, _ := http.NewRequest(http.MethodPost, "/requests/"+id+"/submit", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Ok   bool                    `json:"ok"`
		Data request.RequestResponse `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.True(t, envelope.Ok)
	assert.Equal(t, request.StatusSubmitted, envelope.Data.Status)
}

func TestRequestHandler_ApproveConflictMapsTo409(t *testing.T) {
	actorID := uuid.New().String()
	svc := &fakeRequestService{
		approveFn: func(ctx context.Context, actorID, id string) (request.RequestResponse, error) {
			return request.RequestResponse{}, requesterrors.ErrRequestConflict
		},
	}
	router := setupRequestRouter(svc, &fakeAuditService{}, actorID)

	req, _ := http.NewRequest(http.MethodPost, "/requests/"+uuid.New().String()+"/approve", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var envelope struct {
		Ok    bool `json:"ok"`
		Error struct {
			Code string `json:"code"`
		} `json:"error"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.False(t, envelope.Ok)
	assert.Equal(t, "CONFLICT", envelope.Error.Code)
}

func TestRequestHandler_RejectRequiresReasonBody(t *testing.T) {
	actorID := uuid.New().String()
	router := setupRequestRouter(&fakeRequestService{}, &fakeAuditService{}, actorID)

	body := bytes.NewBufferString(`{}`)
	req, _ := http.NewRequest(http.MethodPost, "/requests/"+uuid.New().String()+"/reject", body)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRequestHandler_ForbiddenMapsTo403(t *testing.T) {
	actorID := uuid.New().String()
	svc := &fakeRequestService{
		submitFn: func(ctx context.Context, actorID, id string) (request.RequestResponse, error) {
			return request.RequestResponse{}, requesterrors.ErrNotRequester
		},
	}
	router := setupRequestRouter(svc, &fakeAuditService{}, actorID)

	req, _ := http.NewRequest(http.MethodPost, "/requests/"+uuid.New().String()+"/submit", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequestHandler_SubmitIdempotencyKeyReplaysCachedResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	actorID := uuid.New().String()
	id := uuid.New().String()
	idempKey := uuid.New().String()

	submitCalls := 0
	resp := request.RequestResponse{ID: id, Status: request.StatusSubmitted}
	svc := &fakeRequestService{
		submitFn: func(ctx context.Context, actorID, id string) (request.RequestResponse, error) {
			submitCalls++
			return resp, nil
		},
	}

	rdb, mock := redismock.NewClientMock()
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", actorID)
		c.Next()
	})
	handler := request.NewHandlerWithRedis(svc, &fakeAuditService{}, rdb)
	router.POST("/requests/:id/submit", middleware.Idempotency(rdb), handler.Submit)

	cacheKey := fmt.Sprintf("idemp:/requests/:id/submit:%s:%s", actorID, idempKey)
	lockKey := cacheKey + ":lock"
	payload, _ := json.Marshal(resp)

	// First attempt runs the transition and stores the response.
	mock.ExpectGet(cacheKey).RedisNil()
	mock.ExpectSetNX(lockKey, "locked", 30*time.Second).SetVal(true)
	mock.ExpectSet(cacheKey, payload, 24*time.Hour).SetVal("OK")
	mock.ExpectDel(lockKey).SetVal(1)

	req, _ := http.NewRequest(http.MethodPost, "/requests/"+id+"/submit", nil)
	req.Header.Set("Idempotency-Key", idempKey)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, submitCalls)

	// Retry with the same key is served from cache without re-running the transition.
	mock.ExpectGet(cacheKey).SetVal(string(payload))

	req2, _ := http.NewRequest(http.MethodPost, "/requests/"+id+"/submit", nil)
	req2.Header.Set("Idempotency-Key", idempKey)
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, req2)
	assert.Equal(t, http.StatusOK, w2.Code)
	assert.Equal(t, 1, submitCalls)

	var envelope struct {
		Ok   bool                    `json:"ok"`
		Data request.RequestResponse `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w2.Body.Bytes(), &envelope))
	assert.True(t, envelope.Ok)
	assert.Equal(t, id, envelope.Data.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequestHandler_HistoryUsesRequestEntityType(t *testing.T) {
	actorID := uuid.New().String()
	id := uuid.New().String()

	auditSvc := &fakeAuditService{
		entityHistoryFn: func(ctx context.Context, entityType, entityID string) ([]audit.DisplayEvent, error) {
			assert.Equal(t, audit.EntityTypeRequest, entityType)
			assert.Equal(t, id, entityID)
			return []audit.DisplayEvent{{EventType: "request_created"}}, nil
		},
	}
	router := setupRequestRouter(&fakeRequestService{}, auditSvc, actorID)

	req, _ := http.NewRequest(http.MethodGet, "/requests/"+id+"/history", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var envelope struct {
		Data []audit.DisplayEvent `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Len(t, envelope.Data, 1)
}
