package leave

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go-hrms/internal/domain"
	"go-hrms/internal/middleware"
	"go-hrms/internal/shared/apperror"
	"go-hrms/internal/shared/contextutil"
	"go-hrms/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const idempotencyResultTTL = 24 * time.Hour

type Handler struct {
	service Service
	rdb     *redis.Client
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("leave.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.handler")
	}
	return &Handler{service: service, logger: l}
}

// NewHandlerWithRedis enables replay of submitted leaves for requests
// carrying an Idempotency-Key.
func NewHandlerWithRedis(service Service, rdb *redis.Client, logger ...*zap.Logger) *Handler {
	h := NewHandler(service, logger...)
	h.rdb = rdb
	return h
}

// writeServiceError logs the cause, which the client never sees, and
// writes the mapped error.
func (h *Handler) writeServiceError(c *gin.Context, err error) {
	httpErr := apperror.ToHTTP(err)
	log := contextutil.GetLogger(c.Request.Context(), h.logger)
	if httpErr.Status >= http.StatusInternalServerError {
		log.Error("leave request failed", zap.String("route", c.FullPath()), zap.Error(err))
	} else {
		log.Debug("leave request rejected", zap.String("route", c.FullPath()), zap.String("code", httpErr.Code), zap.Error(err))
	}
	response.Fail(c, err)
}

func (h *Handler) Submit(c *gin.Context) {
	lockKey, _ := c.Get(middleware.IdempotencyLockKey)
	cacheKey, _ := c.Get(middleware.IdempotencyCacheKey)

	if h.rdb != nil {
		if lk, ok := lockKey.(string); ok && lk != "" {
			defer h.rdb.Del(c.Request.Context(), lk)
		}
	}

	actor := middleware.Actor(c)
	h.logger.Debug("http submit leave", zap.String("company_id", actor.CompanyID))

	var req SubmitLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Submit(c.Request.Context(), actor, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	if h.rdb != nil {
		if ck, ok := cacheKey.(string); ok && ck != "" {
			if payload, marshalErr := json.Marshal(resp); marshalErr == nil {
				_ = h.rdb.Set(c.Request.Context(), ck, payload, idempotencyResultTTL).Err()
			}
		}
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) Create(c *gin.Context) {
	actor := middleware.Actor(c)
	h.logger.Debug("http admin create leave", zap.String("company_id", actor.CompanyID))

	var req AdminCreateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Create(c.Request.Context(), actor, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) GetAll(c *gin.Context) {
	actor := middleware.Actor(c)

	var filter ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}
	filter.Page, filter.PageSize = normalizePage(filter.Page, filter.PageSize)

	resp, total, err := h.service.List(c.Request.Context(), actor, filter)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Paged(c, resp, total, filter.Page, filter.PageSize)
}

func (h *Handler) SelectAll(c *gin.Context) {
	actor := middleware.Actor(c)

	var filter ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.SelectAll(c.Request.Context(), actor, filter)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Export(c *gin.Context) {
	actor := middleware.Actor(c)

	var filter ListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	file, err := h.service.Export(c.Request.Context(), actor, filter, c.DefaultQuery("format", FormatCSV))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Attachment(c, file.Filename, file.ContentType, file.Content)
}

func (h *Handler) GetById(c *gin.Context) {
	actor := middleware.Actor(c)
	id := c.Param("id")

	resp, err := h.service.GetByID(c.Request.Context(), actor, id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Update(c *gin.Context) {
	actor := middleware.Actor(c)
	id := c.Param("id")
	h.logger.Debug("http update leave",
		zap.String("company_id", actor.CompanyID),
		zap.String("leave_id", id),
	)

	var req UpdateLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Update(c.Request.Context(), actor, id, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Approve(c *gin.Context) {
	h.decide(c, h.service.Approve)
}

func (h *Handler) Reject(c *gin.Context) {
	h.decide(c, h.service.Reject)
}

type decideFunc func(ctx context.Context, actor domain.Actor, id string, req DecisionRequest) (LeaveResponse, error)

// decide serves approve and reject. The body is optional.
func (h *Handler) decide(c *gin.Context, fn decideFunc) {
	actor := middleware.Actor(c)
	id := c.Param("id")

	// Chunked bodies report no length, so only an absent or empty body
	// counts as no notes.
	var req DecisionRequest
	if c.Request.Body != nil && c.Request.Body != http.NoBody {
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			h.writeServiceError(c, apperror.MapValidationError(err))
			return
		}
	}

	resp, err := fn(c.Request.Context(), actor, id, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Cancel(c *gin.Context) {
	actor := middleware.Actor(c)
	id := c.Param("id")

	resp, err := h.service.Cancel(c.Request.Context(), actor, id)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Override(c *gin.Context) {
	actor := middleware.Actor(c)
	id := c.Param("id")
	h.logger.Debug("http override leave",
		zap.String("company_id", actor.CompanyID),
		zap.String("leave_id", id),
	)

	var req OverrideLeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.Override(c.Request.Context(), actor, id, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) Delete(c *gin.Context) {
	actor := middleware.Actor(c)
	id := c.Param("id")

	if err := h.service.Delete(c.Request.Context(), actor, id); err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true}, nil)
}

func (h *Handler) BulkDelete(c *gin.Context) {
	actor := middleware.Actor(c)

	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeServiceError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.BulkDelete(c.Request.Context(), actor, req)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, resp, nil)
}
