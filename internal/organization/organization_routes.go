package organization

import (
	"go-hrms/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	h *Handler,
	auth gin.HandlerFunc,
	rbacService middleware.RBACService,
) {
	units := r.Group("/organization/:kind")
	units.Use(auth, middleware.RequireActor())
	{
		units.GET("", middleware.RBACAuthorize(rbacService, "organization", "read"), h.GetAll)
		units.POST("", middleware.RBACAuthorize(rbacService, "organization", "manage"), h.Create)
		units.GET("/:id", middleware.RBACAuthorize(rbacService, "organization", "read"), h.GetById)
		units.PUT("/:id", middleware.RBACAuthorize(rbacService, "organization", "manage"), h.Update)
		units.DELETE("/:id", middleware.RBACAuthorize(rbacService, "organization", "manage"), h.Delete)
	}
}
