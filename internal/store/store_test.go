package store_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"go-payroll/internal/shared/apperror"
	"go-payroll/internal/store"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

const fixedTS = "2025-01-15T10:00:00.000Z"

func employeeEntity() *store.Entity {
	return store.NewEntity("employee", "employees:set").
		Unique("employeeId").
		Unique("email").
		WithSchema(store.Schema{"employeeId": store.KindString}).
		WithTimestamps()
}

func setupMockStore(t *testing.T) (*store.Store, redismock.ClientMock) {
	t.Helper()
	db, mock := redismock.NewClientMock()
	s := store.New(db,
		store.WithIDGenerator(func() string { return "e-1" }),
		store.WithClock(func() time.Time { return fixedNow }),
	)
	s.Register(employeeEntity())
	return s, mock
}

func TestStore_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("success writes record, membership and both indexes", func(t *testing.T) {
		s, mock := setupMockStore(t)

		mock.ExpectSetNX("employee:employeeId:EMP-1", "e-1", 0).SetVal(true)
		mock.ExpectSetNX("employee:email:asha@example.com", "e-1", 0).SetVal(true)
		mock.ExpectHSet("employee:e-1",
			"basicSalary", "20000",
			"createdAt", fixedTS,
			"email", "asha@example.com",
			"employeeId", "EMP-1",
			"id", "e-1",
			"updatedAt", fixedTS,
		).SetVal(6)
		mock.ExpectSAdd("employees:set", "e-1").SetVal(1)

		rec, err := s.Create(ctx, "employee", store.Record{
			"employeeId":  "EMP-1",
			"email":       "asha@example.com",
			"basicSalary": 20000,
		})

		require.NoError(t, err)
		assert.Equal(t, "e-1", rec.ID())
		assert.Equal(t, "EMP-1", rec["employeeId"])
		assert.Equal(t, float64(20000), rec["basicSalary"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("conflict releases earlier claims", func(t *testing.T) {
		s, mock := setupMockStore(t)

		mock.ExpectSetNX("employee:employeeId:EMP-2", "e-1", 0).SetVal(true)
		mock.ExpectSetNX("employee:email:asha@example.com", "e-1", 0).SetVal(false)
		mock.ExpectDel("employee:employeeId:EMP-2").SetVal(1)

		_, err := s.Create(ctx, "employee", store.Record{
			"employeeId": "EMP-2",
			"email":      "asha@example.com",
		})

		assert.True(t, apperror.IsConflict(err))
		assert.Contains(t, err.Error(), "email already exists")
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("redis failure is transient", func(t *testing.T) {
		s, mock := setupMockStore(t)

		mock.ExpectSetNX("employee:employeeId:EMP-3", "e-1", 0).SetErr(errors.New("connection refused"))

		_, err := s.Create(ctx, "employee", store.Record{"employeeId": "EMP-3"})

		assert.True(t, apperror.IsTransient(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown entity", func(t *testing.T) {
		s, _ := setupMockStore(t)

		_, err := s.Create(ctx, "invoice", store.Record{})

		assert.ErrorIs(t, err, store.ErrUnknownEntity)
	})
}

func storedEmployee() map[string]string {
	return map[string]string{
		"id":          "e-1",
		"employeeId":  "EMP-1",
		"email":       "asha@example.com",
		"basicSalary": "20000",
		"createdAt":   "2025-01-01T00:00:00.000Z",
		"updatedAt":   "2025-01-01T00:00:00.000Z",
	}
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("changed email moves the index entry", func(t *testing.T) {
		s, mock := setupMockStore(t)

		mock.ExpectHGetAll("employee:e-1").SetVal(storedEmployee())
		mock.ExpectSetNX("employee:email:asha.r@example.com", "e-1", 0).SetVal(true)
		mock.ExpectHSet("employee:e-1",
			"basicSalary", "20000",
			"createdAt", "2025-01-01T00:00:00.000Z",
			"email", "asha.r@example.com",
			"employeeId", "EMP-1",
			"id", "e-1",
			"updatedAt", fixedTS,
		).SetVal(0)
		mock.ExpectSAdd("employees:set", "e-1").SetVal(0)
		mock.ExpectDel("employee:email:asha@example.com").SetVal(1)

		rec, err := s.Update(ctx, "employee", "e-1", store.Record{"email": "asha.r@example.com"})

		require.NoError(t, err)
		assert.Equal(t, "asha.r@example.com", rec["email"])
		assert.Equal(t, fixedTS, rec["updatedAt"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("taken email is a conflict and nothing is written", func(t *testing.T) {
		s, mock := setupMockStore(t)

		mock.ExpectHGetAll("employee:e-1").SetVal(storedEmployee())
		mock.ExpectSetNX("employee:email:taken@example.com", "e-1", 0).SetVal(false)

		_, err := s.Update(ctx, "employee", "e-1", store.Record{"email": "taken@example.com"})

		assert.True(t, apperror.IsConflict(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing record", func(t *testing.T) {
		s, mock := setupMockStore(t)

		mock.ExpectHGetAll("employee:e-9").SetVal(map[string]string{})

		_, err := s.Update(ctx, "employee", "e-9", store.Record{"email": "x@example.com"})

		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestStore_Delete(t *testing.T) {
	s, mock := setupMockStore(t)

	mock.ExpectHGetAll("employee:e-1").SetVal(storedEmployee())
	mock.ExpectDel("employee:e-1").SetVal(1)
	mock.ExpectSRem("employees:set", "e-1").SetVal(1)
	mock.ExpectDel("employee:employeeId:EMP-1", "employee:email:asha@example.com").SetVal(2)

	err := s.Delete(context.Background(), "employee", "e-1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_FindByUnique(t *testing.T) {
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		s, mock := setupMockStore(t)

		mock.ExpectGet("employee:email:asha@example.com").SetVal("e-1")
		mock.ExpectHGetAll("employee:e-1").SetVal(storedEmployee())

		rec, err := s.FindByUnique(ctx, "employee", "email", "asha@example.com")

		require.NoError(t, err)
		assert.Equal(t, "EMP-1", rec["employeeId"])
	})

	t.Run("absent index entry", func(t *testing.T) {
		s, mock := setupMockStore(t)

		mock.ExpectGet("employee:email:nobody@example.com").RedisNil()

		_, err := s.FindByUnique(ctx, "employee", "email", "nobody@example.com")

		assert.True(t, apperror.IsNotFound(err))
	})
}

func TestStore_Upsert(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	s := store.New(db,
		store.WithIDGenerator(func() string { return "p-new" }),
		store.WithClock(func() time.Time { return fixedNow }),
	)
	s.Register(store.NewEntity("payroll", "payroll:set").Unique("employee", "period"))

	t.Run("existing key reuses the id", func(t *testing.T) {
		mock.ExpectSetNX("payroll:employee:e-1:period:2025-01", "p-new", 0).SetVal(false)
		mock.ExpectGet("payroll:employee:e-1:period:2025-01").SetVal("p-1")
		mock.ExpectHGetAll("payroll:p-1").SetVal(map[string]string{"id": "p-1", "employee": "e-1", "period": "2025-01", "netPay": "100"})
		mock.ExpectHSet("payroll:p-1",
			"employee", "e-1",
			"id", "p-1",
			"netPay", "200",
			"period", "2025-01",
		).SetVal(0)
		mock.ExpectSAdd("payroll:set", "p-1").SetVal(0)

		rec, created, err := s.Upsert(ctx, "payroll", store.Record{"employee": "e-1", "period": "2025-01", "netPay": 200})

		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, "p-1", rec.ID())
		assert.Equal(t, float64(200), rec["netPay"])
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing key fields", func(t *testing.T) {
		_, _, err := s.Upsert(ctx, "payroll", store.Record{"employee": "e-1"})

		assert.True(t, apperror.IsValidation(err))
	})
}
