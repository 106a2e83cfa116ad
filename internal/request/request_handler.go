package request

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"go-reqflow/internal/audit"
	"go-reqflow/internal/shared/apperror"
	"go-reqflow/internal/shared/response"
)

const idempotencyCacheTTL = 24 * time.Hour

type Handler struct {
	service  Service
	auditSvc audit.Service
	rdb      *redis.Client
	logger   *zap.Logger
}

func NewHandler(service Service, auditSvc audit.Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("request.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("request.handler")
	}
	return &Handler{service: service, auditSvc: auditSvc, logger: l}
}

// NewHandlerWithRedis also lets mutating handlers cache their responses for
// Idempotency-Key replay and release the in-flight lock.
func NewHandlerWithRedis(service Service, auditSvc audit.Service, rdb *redis.Client, logger ...*zap.Logger) *Handler {
	h := NewHandler(service, auditSvc, logger...)
	h.rdb = rdb
	return h
}

// releaseIdempotencyLock drops the lock the Idempotency middleware took, so
// the client may retry immediately after a failure response.
func (h *Handler) releaseIdempotencyLock(c *gin.Context) {
	if h.rdb == nil {
		return
	}
	if lockKey := c.GetString("idempotency_lock_key"); lockKey != "" {
		h.rdb.Del(c.Request.Context(), lockKey)
	}
}

func (h *Handler) cacheIdempotentResponse(c *gin.Context, resp any) {
	if h.rdb == nil {
		return
	}
	cacheKey := c.GetString("idempotency_cache_key")
	if cacheKey == "" {
		return
	}
	if payload, err := json.Marshal(resp); err == nil {
		_ = h.rdb.Set(c.Request.Context(), cacheKey, payload, idempotencyCacheTTL).Err()
	}
}

func getActorID(c *gin.Context) string {
	actorID := c.GetString("user_id")
	if actorID == "" {
		actorID = c.GetString("user_id_validated")
	}
	return actorID
}

// canReadAll reports whether the actor may list requests beyond their own.
func canReadAll(c *gin.Context) bool {
	role := c.GetString("role")
	return role == "REVIEWER" || role == "ADMIN"
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	h.logger.Warn("request operation failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Int("status", httpErr.Status),
		zap.String("code", httpErr.Code),
		zap.String("message", httpErr.Message),
	)
	response.Error(c, httpErr.Status, httpErr.Code, httpErr.Message, httpErr.Details)
}

func (h *Handler) Create(c *gin.Context) {
	defer h.releaseIdempotencyLock(c)

	actorID := getActorID(c)
	h.logger.Debug("http create request", zap.String("actor_id", actorID))

	var req CreateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http create request validation failed", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "INVALID_INPUT", "invalid input", err.Error())
		return
	}

	resp, err := h.service.Create(c.Request.Context(), actorID, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.cacheIdempotentResponse(c, resp)
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	ctx := c.Request.Context()
	actorID := getActorID(c)
	readAll := canReadAll(c)

	filter := ListFilter{
		Status:   c.Query("status"),
		Type:     c.Query("type"),
		Priority: c.Query("priority"),
	}
	if readAll {
		filter.RequesterID = c.Query("requester_id")
		filter.AssigneeID = c.Query("assignee_id")
	}

	resp, err := h.service.GetAll(ctx, actorID, readAll, filter)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if pageSize < 1 {
		pageSize = 10
	}

	total := int64(len(resp))
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(resp) {
		start = len(resp)
	}
	if end > len(resp) {
		end = len(resp)
	}

	meta := response.NewPaginationMeta(total, page, pageSize)
	response.Success(c, http.StatusOK, resp[start:end], &meta)
}

func (h *Handler) GetById(c *gin.Context) {
	resp, err := h.service.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetHistory(c *gin.Context) {
	resp, err := h.auditSvc.EntityHistory(c.Request.Context(), audit.EntityTypeRequest, c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	id := c.Param("id")
	actorID := getActorID(c)

	var req UpdateRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http update request validation failed", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "INVALID_INPUT", "invalid input", err.Error())
		return
	}

	resp, err := h.service.Update(ctx, actorID, id, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Submit(c *gin.Context) {
	defer h.releaseIdempotencyLock(c)

	resp, err := h.service.Submit(c.Request.Context(), getActorID(c), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.cacheIdempotentResponse(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) BeginReview(c *gin.Context) {
	defer h.releaseIdempotencyLock(c)

	ctx := c.Request.Context()
	id := c.Param("id")
	actorID := getActorID(c)

	// Body is optional: no body means the reviewer picks the request up.
	var req AssignRequestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warn("http review request validation failed", zap.Error(err))
			response.Error(c, http.StatusBadRequest, "INVALID_INPUT", "invalid input", err.Error())
			return
		}
	}

	resp, err := h.service.BeginReview(ctx, actorID, id, req.AssigneeID)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.cacheIdempotentResponse(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	defer h.releaseIdempotencyLock(c)

	resp, err := h.service.Approve(c.Request.Context(), getActorID(c), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.cacheIdempotentResponse(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Reject(c *gin.Context) {
	defer h.releaseIdempotencyLock(c)

	ctx := c.Request.Context()
	id := c.Param("id")
	actorID := getActorID(c)

	var req RejectRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("http reject request validation failed", zap.Error(err))
		response.Error(c, http.StatusBadRequest, "INVALID_INPUT", "invalid input", err.Error())
		return
	}

	resp, err := h.service.Reject(ctx, actorID, id, req.Reason)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.cacheIdempotentResponse(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Cancel(c *gin.Context) {
	defer h.releaseIdempotencyLock(c)

	ctx := c.Request.Context()
	id := c.Param("id")
	actorID := getActorID(c)

	var req CancelRequestRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.logger.Warn("http cancel request validation failed", zap.Error(err))
			response.Error(c, http.StatusBadRequest, "INVALID_INPUT", "invalid input", err.Error())
			return
		}
	}

	resp, err := h.service.Cancel(ctx, actorID, id, req.Reason)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.cacheIdempotentResponse(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Reopen(c *gin.Context) {
	defer h.releaseIdempotencyLock(c)

	resp, err := h.service.Reopen(c.Request.Context(), getActorID(c), c.Param("id"))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	h.cacheIdempotentResponse(c, resp)
	response.Success(c, http.StatusOK, resp, nil)
}
