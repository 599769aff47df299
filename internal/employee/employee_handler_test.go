package employee_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"go-payroll/internal/employee"
	employeeerrors "go-payroll/internal/employee/errors"
	employeeMock "go-payroll/internal/employee/mock"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
)

func setupHandler(t *testing.T) (*gin.Engine, *employeeMock.MockService) {
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	svc := employeeMock.NewMockService(ctrl)
	h := employee.NewHandler(svc, zap.NewNop())

	r := gin.New()
	r.POST("/api/employees", h.Create)
	r.GET("/api/employees", h.GetAll)
	r.GET("/api/employees/:id", h.GetByID)
	r.PUT("/api/employees/:id", h.Update)
	r.DELETE("/api/employees/:id", h.Delete)
	return r, svc
}

func doJSON(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestEmployeeHandler_Create(t *testing.T) {
	t.Run("201", func(t *testing.T) {
		r, svc := setupHandler(t)
		svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(employee.EmployeeResponse{ID: "e-1", EmployeeID: "1001"}, nil)

		w := doJSON(r, http.MethodPost, "/api/employees", map[string]any{
			"employeeId": "1001", "firstName": "Jane", "email": "jane@example.com", "basicSalary": 20000,
		})

		assert.Equal(t, http.StatusCreated, w.Code)
	})

	t.Run("missing salary", func(t *testing.T) {
		r, _ := setupHandler(t)

		w := doJSON(r, http.MethodPost, "/api/employees", map[string]any{
			"firstName": "Jane", "email": "jane@example.com",
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("conflict", func(t *testing.T) {
		r, svc := setupHandler(t)
		svc.EXPECT().Create(gomock.Any(), gomock.Any()).Return(employee.EmployeeResponse{}, employeeerrors.ErrEmployeeNumberAlreadyExists)

		w := doJSON(r, http.MethodPost, "/api/employees", map[string]any{
			"employeeId": "1001", "firstName": "Jane", "email": "jane@example.com", "basicSalary": 1,
		})

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "employeeId already exists")
	})
}

func TestEmployeeHandler_GetAll(t *testing.T) {
	r, svc := setupHandler(t)
	svc.EXPECT().
		GetAll(gomock.Any(), employee.ListQuery{Q: "jo", Department: "Sales", Page: 2, Limit: 5}, "/api/employees?q=jo&department=Sales&page=2&limit=5").
		Return(employee.ListResponse{
			Data: []employee.EmployeeResponse{{ID: "e-1"}},
			Meta: employee.ListMeta{Total: 6, Page: 2, Limit: 5},
		}, nil)

	w := doJSON(r, http.MethodGet, "/api/employees?q=jo&department=Sales&page=2&limit=5", nil)

	require.Equal(t, http.StatusOK, w.Code)
	var env struct {
		Data []employee.EmployeeResponse `json:"data"`
		Meta struct {
			Total      int `json:"total"`
			TotalPages int `json:"totalPages"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Len(t, env.Data, 1)
	assert.Equal(t, 6, env.Meta.Total)
	assert.Equal(t, 2, env.Meta.TotalPages)
}

func TestEmployeeHandler_GetByID(t *testing.T) {
	r, svc := setupHandler(t)
	svc.EXPECT().GetByID(gomock.Any(), "missing").Return(employee.EmployeeResponse{}, employeeerrors.ErrEmployeeNotFound)

	w := doJSON(r, http.MethodGet, "/api/employees/missing", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEmployeeHandler_Update(t *testing.T) {
	t.Run("partial update", func(t *testing.T) {
		r, svc := setupHandler(t)
		svc.EXPECT().Update(gomock.Any(), "e-1", gomock.Any()).DoAndReturn(
			func(_ any, _ string, req employee.UpdateEmployeeRequest) (employee.EmployeeResponse, error) {
				require.NotNil(t, req.Designation)
				assert.Nil(t, req.Email)
				return employee.EmployeeResponse{ID: "e-1", Designation: *req.Designation}, nil
			})

		w := doJSON(r, http.MethodPut, "/api/employees/e-1", map[string]any{"designation": "Lead"})

		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("bad email", func(t *testing.T) {
		r, _ := setupHandler(t)

		w := doJSON(r, http.MethodPut, "/api/employees/e-1", map[string]any{"email": "nope"})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestEmployeeHandler_Delete(t *testing.T) {
	r, svc := setupHandler(t)
	svc.EXPECT().Delete(gomock.Any(), "e-1").Return(nil)

	w := doJSON(r, http.MethodDelete, "/api/employees/e-1", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Deleted")
}
