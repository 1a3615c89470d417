package middleware

import (
	"go-hrms/internal/shared/apperror"

	"github.com/gin-gonic/gin"
)

// ValidatedUserID is the gin key holding the caller's user id once
// RequireActor has passed. Idempotency keys are scoped by it.
const ValidatedUserID = "user_id_validated"

// RequireActor rejects requests that reach a tenant route without both a
// user and a company. It runs right after AuthMiddleware.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := Actor(c)
		if actor.UserID == "" {
			abortWith(c, apperror.ErrUnauthorized, "User is not authenticated")
			return
		}
		if actor.CompanyID == "" {
			abortWith(c, apperror.ErrUnauthorized, "No company is selected for this session")
			return
		}

		c.Set(ValidatedUserID, actor.UserID)
		c.Next()
	}
}
