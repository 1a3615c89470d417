package middleware

import (
	"go-hrms/internal/domain"
	"go-hrms/internal/shared/apperror"
	"go-hrms/internal/shared/contextutil"
	"go-hrms/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ContextKey string

const (
	ContextUserID    ContextKey = "user_id"
	ContextCompanyID ContextKey = "company_id"
)

// RBACService is satisfied by anything that can answer an enforce request.
type RBACService interface {
	Enforce(req domain.EnforceRequest) (bool, error)
}

func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(string(ContextUserID))
		companyID := c.GetString(string(ContextCompanyID))

		if userID == "" || companyID == "" {
			abortWith(c, apperror.ErrUnauthorized, "missing auth context")
			return
		}

		allowed, err := service.Enforce(domain.EnforceRequest{
			UserID:    userID,
			CompanyID: companyID,
			Resource:  resource,
			Action:    action,
		})
		if err != nil {
			contextutil.GetLogger(c.Request.Context(), zap.L()).Error("rbac enforce failed",
				zap.String("resource", resource),
				zap.String("action", action),
				zap.Error(err),
			)
			abortWith(c, apperror.ErrInternal, "")
			return
		}

		if !allowed {
			denied := *apperror.ErrForbidden
			denied.Details = gin.H{"required": resource + ":" + action}
			response.Abort(c, &denied)
			return
		}
		c.Next()
	}
}
