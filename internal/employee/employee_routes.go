package employee

import (
	"go-hrms/internal/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the directory under /employees. Reads share one
// permission; each write has its own.
func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	auth gin.HandlerFunc,
	rbacService middleware.RBACService,
) {
	can := func(action string) gin.HandlerFunc {
		return middleware.RBACAuthorize(rbacService, "employee", action)
	}
	reads := middleware.RateLimitByUser(3, 10)
	writes := middleware.RateLimitByUser(0.5, 2)

	employees := r.Group("/employees", auth, middleware.RequireActor())
	employees.GET("", reads, can("read"), handler.List)
	employees.GET("/options", middleware.RateLimitByUser(5, 20), can("read"), handler.Options)
	employees.GET("/:id", reads, can("read"), handler.Get)
	employees.POST("", writes, can("create"), handler.Create)
	employees.PUT("/:id", writes, can("update"), handler.Update)
	employees.DELETE("/:id", middleware.RateLimitByUser(0.2, 1), can("delete"), handler.Delete)
}
