package user_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-payroll/internal/user"
	usererrors "go-payroll/internal/user/errors"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeService struct {
	CreateFn  func(ctx context.Context, req user.CreateUserRequest) (user.UserResponse, error)
	GetByIDFn func(ctx context.Context, id string) (user.UserResponse, error)
	GetAllFn  func(ctx context.Context, page, limit int) ([]user.UserResponse, int, error)
}

func (f *fakeService) Create(ctx context.Context, req user.CreateUserRequest) (user.UserResponse, error) {
	return f.CreateFn(ctx, req)
}

func (f *fakeService) GetByID(ctx context.Context, id string) (user.UserResponse, error) {
	return f.GetByIDFn(ctx, id)
}

func (f *fakeService) GetAll(ctx context.Context, page, limit int) ([]user.UserResponse, int, error) {
	return f.GetAllFn(ctx, page, limit)
}

func newRouter(svc user.Service) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := user.NewHandler(svc, zap.NewNop())
	r := gin.New()
	r.GET("/users", h.GetAll)
	r.POST("/users", h.Create)
	r.GET("/users/:id", h.GetByID)
	return r
}

func TestUserHandler_Create(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		svc := &fakeService{CreateFn: func(_ context.Context, req user.CreateUserRequest) (user.UserResponse, error) {
			return user.UserResponse{ID: "u-1", Name: req.Name, Email: req.Email, Role: "hr"}, nil
		}}
		body, _ := json.Marshal(map[string]string{"name": "HR", "email": "hr@example.com", "password": "secret1", "role": "hr"})

		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body)))

		assert.Equal(t, http.StatusCreated, w.Code)
		assert.NotContains(t, w.Body.String(), "passwordHash")
	})

	t.Run("short password", func(t *testing.T) {
		body, _ := json.Marshal(map[string]string{"name": "HR", "email": "hr@example.com", "password": "123"})

		w := httptest.NewRecorder()
		newRouter(&fakeService{}).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("conflict", func(t *testing.T) {
		svc := &fakeService{CreateFn: func(context.Context, user.CreateUserRequest) (user.UserResponse, error) {
			return user.UserResponse{}, usererrors.ErrUserAlreadyExists
		}}
		body, _ := json.Marshal(map[string]string{"name": "HR", "email": "hr@example.com", "password": "secret1"})

		w := httptest.NewRecorder()
		newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/users", bytes.NewReader(body)))

		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestUserHandler_GetAll(t *testing.T) {
	var gotPage, gotLimit int
	svc := &fakeService{GetAllFn: func(_ context.Context, page, limit int) ([]user.UserResponse, int, error) {
		gotPage, gotLimit = page, limit
		return []user.UserResponse{{ID: "u-1"}}, 3, nil
	}}

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users?page=2&limit=1", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 2, gotPage)
	assert.Equal(t, 1, gotLimit)

	var env struct {
		Meta struct {
			Total int `json:"total"`
			Page  int `json:"page"`
			Limit int `json:"limit"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(t, 3, env.Meta.Total)
	assert.Equal(t, 1, env.Meta.Limit)
}

func TestUserHandler_GetByID(t *testing.T) {
	svc := &fakeService{GetByIDFn: func(context.Context, string) (user.UserResponse, error) {
		return user.UserResponse{}, usererrors.ErrUserNotFound
	}}

	w := httptest.NewRecorder()
	newRouter(svc).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/users/nope", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
