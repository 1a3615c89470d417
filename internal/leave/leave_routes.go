package leave

import (
	"go-hrms/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	auth gin.HandlerFunc,
	rbacService middleware.RBACService,
	rdb ...*redis.Client,
) {
	var redisClient *redis.Client
	if len(rdb) > 0 {
		redisClient = rdb[0]
	}

	leaves := r.Group("/leaves")
	leaves.Use(auth, middleware.RequireActor())
	{
		leaves.GET("",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "leave", "read"),
			handler.GetAll,
		)

		leaves.GET("/select-all",
			middleware.RateLimitByUser(1, 3),
			middleware.RBACAuthorize(rbacService, "leave", "read"),
			handler.SelectAll,
		)

		leaves.GET("/export",
			middleware.RateLimitByUser(0.2, 2),
			middleware.RBACAuthorize(rbacService, "leave", "export"),
			handler.Export,
		)

		leaves.GET("/:id",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, "leave", "read"),
			handler.GetById,
		)

		submit := []gin.HandlerFunc{
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, "leave", "create"),
		}
		if redisClient != nil {
			submit = append(submit, middleware.Idempotency(redisClient))
		}
		leaves.POST("", append(submit, handler.Submit)...)

		leaves.POST("/admin",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, "leave", "manage_all"),
			handler.Create,
		)

		leaves.PUT("/:id",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, "leave", "create"),
			handler.Update,
		)

		leaves.POST("/:id/approve",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "leave", "approve"),
			handler.Approve,
		)

		leaves.POST("/:id/reject",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, "leave", "approve"),
			handler.Reject,
		)

		leaves.POST("/:id/cancel",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, "leave", "create"),
			handler.Cancel,
		)

		leaves.POST("/:id/override",
			middleware.RateLimitByUser(0.2, 1),
			middleware.RBACAuthorize(rbacService, "leave", "manage_all"),
			handler.Override,
		)

		leaves.DELETE("/:id",
			middleware.RateLimitByUser(0.2, 1),
			middleware.RBACAuthorize(rbacService, "leave", "delete"),
			handler.Delete,
		)

		leaves.POST("/bulk-delete",
			middleware.RateLimitByUser(0.1, 1),
			middleware.RBACAuthorize(rbacService, "leave", "delete"),
			handler.BulkDelete,
		)
	}
}
