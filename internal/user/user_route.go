package user

import (
	"go-payroll/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, auth *middleware.Authenticator, rbac middleware.RBACService) {
	users := r.Group("/users")
	users.Use(auth.Handle(), middleware.RateLimitByUser(5, 10))
	{
		users.GET("", middleware.RBACAuthorize(rbac, "user", "list"), handler.GetAll)
		users.POST("", middleware.RBACAuthorize(rbac, "user", "create"), handler.Create)
		users.GET("/:id", middleware.RBACAuthorize(rbac, "user", "read"), handler.GetByID)
	}
}
