package payroll

import (
	"go-payroll/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RegisterRoutes mounts /payroll. When rdb is given, generate honours the
// Idempotency-Key header.
func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	auth *middleware.Authenticator,
	rbacService middleware.RBACService,
	rdb ...redis.Cmdable,
) {
	var redisClient redis.Cmdable
	if len(rdb) > 0 {
		redisClient = rdb[0]
	}

	payroll := r.Group("/payroll")
	payroll.Use(auth.Handle(), middleware.ExtractUserID())
	{
		payroll.POST("/calc", middleware.RBACAuthorize(rbacService, "payroll", "calc"), handler.Calculate)
		if redisClient != nil {
			payroll.POST(
				"/generate",
				middleware.RBACAuthorize(rbacService, "payroll", "generate"),
				middleware.Idempotency(redisClient),
				handler.Generate,
			)
		} else {
			payroll.POST("/generate", middleware.RBACAuthorize(rbacService, "payroll", "generate"), handler.Generate)
		}
		payroll.GET("", middleware.RBACAuthorize(rbacService, "payroll", "list"), handler.GetAll)
		payroll.GET("/:id", middleware.RBACAuthorize(rbacService, "payroll", "read"), handler.GetByID)
		payroll.PUT("/:id", middleware.RBACAuthorize(rbacService, "payroll", "update"), handler.Update)
		payroll.GET("/:id/payslip", middleware.RBACAuthorize(rbacService, "payroll", "payslip"), handler.GetPayslip)
		payroll.GET("/:id/payslip/download", middleware.RBACAuthorize(rbacService, "payroll", "payslip"), handler.DownloadPayslip)
	}
}
