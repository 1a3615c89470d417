package rbac

import (
	"net/http"
	"strings"

	"go-hrms/internal/middleware"
	"go-hrms/internal/shared/apperror"
	"go-hrms/internal/shared/contextutil"
	"go-hrms/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("rbac.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("rbac.handler")
	}
	return &Handler{service: service, logger: l}
}

// Enforce answers a capability question for the authenticated caller.
func (h *Handler) Enforce(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Fail(c, apperror.MapValidationError(err))
		return
	}

	actor := middleware.Actor(c)
	if actor.UserID == "" || actor.CompanyID == "" {
		response.Fail(c, apperror.ErrUnauthorized)
		return
	}
	enforceReq := actor.Can(strings.TrimSpace(req.Resource), strings.TrimSpace(req.Action))

	allowed, err := h.service.Enforce(enforceReq)
	if err != nil {
		contextutil.GetLogger(c.Request.Context(), h.logger).Error("rbac enforce failed", zap.Error(err))
		response.Fail(c, err)
		return
	}

	response.Success(c, http.StatusOK, EnforceResponse{Allowed: allowed}, nil)
}
