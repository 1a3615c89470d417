package rbac

import (
	"go-hrms/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, auth gin.HandlerFunc) {
	group := r.Group("/rbac")
	group.Use(auth, middleware.RequireActor())
	{
		group.POST("/enforce", handler.Enforce)
	}
}
