package rbac_http

import (
	"go-payroll/internal/domain"
	"go-payroll/internal/middleware"
	"go-payroll/internal/rbac"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *rbac.Handler, auth *middleware.Authenticator) {
	group := r.Group("/rbac")
	group.Use(auth.Handle())
	{
		group.POST("/enforce", middleware.RequireRoles(domain.RoleAdmin), handler.Enforce)
		group.GET("/permissions", handler.ListPermissions)
	}
}
