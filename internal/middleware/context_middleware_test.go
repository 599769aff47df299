package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-payroll/internal/middleware"
	"go-payroll/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestContextLogger_RequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zap.InfoLevel)

	var seen string
	r := gin.New()
	r.Use(middleware.ContextLogger(zap.New(core)))
	r.GET("/x", func(c *gin.Context) {
		ctx := c.Request.Context()
		seen = contextutil.GetRequestID(ctx)
		contextutil.GetLogger(ctx, zap.NewNop()).Info("handled")
		c.Status(http.StatusOK)
	})

	do := func(rid string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		if rid != "" {
			req.Header.Set(middleware.RequestIDHeader, rid)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	t.Run("inbound id is echoed and logged", func(t *testing.T) {
		w := do("rid-123")

		assert.Equal(t, "rid-123", w.Header().Get(middleware.RequestIDHeader))
		assert.Equal(t, "rid-123", seen)
		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		assert.Equal(t, "rid-123", entries[0].ContextMap()["request_id"])
	})

	t.Run("missing id is minted", func(t *testing.T) {
		w := do("")

		rid := w.Header().Get(middleware.RequestIDHeader)
		_, err := uuid.Parse(rid)
		assert.NoError(t, err)
		assert.Equal(t, rid, seen)
		logs.TakeAll()
	})

	t.Run("unusable ids are replaced", func(t *testing.T) {
		for _, bad := range []string{strings.Repeat("a", 129), "has space", "tab\tid"} {
			w := do(bad)

			rid := w.Header().Get(middleware.RequestIDHeader)
			assert.NotEqual(t, bad, rid)
			_, err := uuid.Parse(rid)
			assert.NoError(t, err)
		}
		logs.TakeAll()
	})
}
