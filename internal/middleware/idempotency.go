package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go-payroll/internal/shared/apperror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	IdempotencyHeader = "Idempotency-Key"
	ReplayedHeader    = "Idempotent-Replayed"

	idempotencyLockTTL   = 30 * time.Second
	idempotencyResultTTL = 24 * time.Hour
)

var errRequestInProgress = apperror.New("PROCESSING", "A request with this Idempotency-Key is still being processed", http.StatusConflict)

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType"`
	Body        []byte `json:"body"`
}

type capturingWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *capturingWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *capturingWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the first response for a repeated POST carrying the
// same Idempotency-Key (scoped to route and user). A concurrent duplicate
// gets 409 while the first one runs. Server errors are not remembered so
// the client may retry.
func Idempotency(rdb redis.Cmdable, logger ...*zap.Logger) gin.HandlerFunc {
	l := zap.L().Named("middleware.idempotency")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("middleware.idempotency")
	}

	return func(c *gin.Context) {
		idempKey := c.GetHeader(IdempotencyHeader)
		if idempKey == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		cacheKey := fmt.Sprintf("idemp:%s:%s:%s", c.FullPath(), c.GetString("user_id"), idempKey)
		lockKey := cacheKey + ":lock"

		val, err := rdb.Get(ctx, cacheKey).Bytes()
		switch {
		case err == nil:
			var stored storedResponse
			if jsonErr := json.Unmarshal(val, &stored); jsonErr == nil {
				c.Header(ReplayedHeader, "true")
				c.Data(stored.Status, stored.ContentType, stored.Body)
				c.Abort()
				return
			}
			l.Warn("discarding unreadable idempotent response", zap.String("key", cacheKey))
		case !errors.Is(err, redis.Nil):
			abortWithError(c, apperror.Transient(err, "idempotency store unavailable"))
			return
		}

		locked, err := rdb.SetNX(ctx, lockKey, "locked", idempotencyLockTTL).Result()
		if err != nil {
			abortWithError(c, apperror.Transient(err, "idempotency store unavailable"))
			return
		}
		if !locked {
			abortWithError(c, errRequestInProgress)
			return
		}

		w := &capturingWriter{ResponseWriter: c.Writer}
		c.Writer = w

		c.Next()

		// The request context may already be cancelled once the handler returns.
		bg := context.WithoutCancel(ctx)
		defer func() {
			if err := rdb.Del(bg, lockKey).Err(); err != nil {
				l.Warn("failed to release idempotency lock", zap.String("key", lockKey), zap.Error(err))
			}
		}()

		status := w.Status()
		if status >= http.StatusInternalServerError {
			return
		}
		payload, err := json.Marshal(storedResponse{
			Status:      status,
			ContentType: w.Header().Get("Content-Type"),
			Body:        w.body.Bytes(),
		})
		if err != nil {
			return
		}
		if err := rdb.Set(bg, cacheKey, payload, idempotencyResultTTL).Err(); err != nil {
			l.Warn("failed to store idempotent response", zap.String("key", cacheKey), zap.Error(err))
		}
	}
}
