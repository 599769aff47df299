package auth_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go-payroll/internal/auth"
	autherrors "go-payroll/internal/auth/errors"
	mock_auth "go-payroll/internal/auth/mock"
	"go-payroll/internal/user"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func newRouter(t *testing.T) (*gin.Engine, *mock_auth.MockService) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	svc := mock_auth.NewMockService(ctrl)
	h := auth.NewHandler(svc, auth.CookieConfig{TTL: time.Hour}, zap.NewNop())

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.POST("/auth/login", h.Login)
	r.GET("/auth/me", func(c *gin.Context) {
		if uid := c.GetHeader("X-Test-User"); uid != "" {
			c.Set("user_id", uid)
		}
		c.Next()
	}, h.Me)
	return r, svc
}

func jsonBody(v any) *bytes.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func TestHandler_Login(t *testing.T) {
	t.Run("success sets cookie", func(t *testing.T) {
		r, svc := newRouter(t)
		svc.EXPECT().Login(gomock.Any(), "hr@example.com", "secret1").
			Return(auth.AuthResponse{Token: "tok", User: user.UserResponse{ID: "u-1", Role: "hr"}}, nil)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", jsonBody(map[string]string{
			"email": "hr@example.com", "password": "secret1",
		})))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Set-Cookie"), "access_token=tok")

		var env struct {
			Data auth.AuthResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
		assert.Equal(t, "tok", env.Data.Token)
	})

	t.Run("invalid credentials", func(t *testing.T) {
		r, svc := newRouter(t)
		svc.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).Return(auth.AuthResponse{}, autherrors.ErrInvalidCredentials)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", jsonBody(map[string]string{
			"email": "hr@example.com", "password": "bad",
		})))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("malformed email", func(t *testing.T) {
		r, _ := newRouter(t)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/login", jsonBody(map[string]string{
			"email": "not-an-email", "password": "x",
		})))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandler_Register(t *testing.T) {
	r, svc := newRouter(t)
	svc.EXPECT().Register(gomock.Any(), auth.RegisterRequest{Name: "Jane", Email: "jane@example.com", Password: "secret1"}).
		Return(auth.AuthResponse{Token: "tok", User: user.UserResponse{ID: "u-1"}}, nil)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/auth/register", jsonBody(map[string]string{
		"name": "Jane", "email": "jane@example.com", "password": "secret1", "role": "admin",
	})))

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestHandler_Me(t *testing.T) {
	t.Run("authenticated", func(t *testing.T) {
		r, svc := newRouter(t)
		svc.EXPECT().GetMe(gomock.Any(), "u-1").Return(user.UserResponse{ID: "u-1", Email: "hr@example.com"}, nil)

		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("X-Test-User", "u-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), "password")
	})

	t.Run("anonymous", func(t *testing.T) {
		r, _ := newRouter(t)

		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/me", nil))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
