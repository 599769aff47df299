package middleware

import (
	"net/http"

	"go-payroll/internal/shared/apperror"

	"github.com/gin-gonic/gin"
)

func ExtractUserID() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := c.Get("user_id")
		if !exists {
			abortWithError(c, apperror.ErrUnauthorized)
			return
		}

		userIDStr, ok := userID.(string)
		if !ok || userIDStr == "" {
			abortWithError(c, apperror.New(apperror.CodeUnauthorized, "Invalid user id", http.StatusUnauthorized))
			return
		}

		c.Set("user_id_validated", userIDStr)
		c.Next()
	}
}
