package middleware

import (
	"unicode"

	"go-payroll/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	RequestIDHeader = "X-Request-ID"
	maxRequestIDLen = 128
)

// ContextLogger assigns the request id, echoing a usable inbound
// X-Request-ID or minting one, and attaches a request-scoped logger carrying
// it and, when already known, the user id.
func ContextLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		rid := contextutil.GetRequestID(ctx)
		if rid == "" {
			rid = c.GetHeader(RequestIDHeader)
			if !usableRequestID(rid) {
				rid = uuid.NewString()
			}
			ctx = contextutil.WithRequestID(ctx, rid)
		}
		c.Header(RequestIDHeader, rid)

		if uid := c.GetString("user_id_validated"); uid != "" {
			ctx = contextutil.WithUserID(ctx, uid)
		}

		reqLogger := logger.With(contextutil.ExtractMetadata(ctx).Fields()...)
		ctx = contextutil.WithLogger(ctx, reqLogger)

		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// usableRequestID rejects ids that would bloat or break log lines.
func usableRequestID(rid string) bool {
	if rid == "" || len(rid) > maxRequestIDLen {
		return false
	}
	for _, r := range rid {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) || r == ' ' {
			return false
		}
	}
	return true
}
