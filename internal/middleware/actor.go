package middleware

import (
	"go-hrms/internal/domain"

	"github.com/gin-gonic/gin"
)

// Actor returns the authenticated caller set by AuthMiddleware.
func Actor(c *gin.Context) domain.Actor {
	return domain.Actor{
		UserID:    c.GetString(string(ContextUserID)),
		CompanyID: c.GetString(string(ContextCompanyID)),
	}
}
