package employee_test

import (
	"context"
	"fmt"
	"testing"

	"go-payroll/internal/employee"
	employeeerrors "go-payroll/internal/employee/errors"
	"go-payroll/internal/payrollcalc"
	"go-payroll/internal/store"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) (employee.Repository, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return employee.NewRepository(store.New(rdb)), mr
}

func seed(t *testing.T, repo employee.Repository, e employee.Employee) employee.Employee {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), &e))
	return e
}

func TestRepository_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo, mr := setupRepo(t)

	e := seed(t, repo, employee.Employee{
		EmployeeID:  "1001",
		FirstName:   "Asha",
		LastName:    "Rao",
		Email:       "asha@example.com",
		Phone:       "0123456",
		Department:  "Engineering",
		BasicSalary: 20000,
		Allowances:  payrollcalc.Allowances{HRA: 5000, Conveyance: 1000},
	})
	require.NotEmpty(t, e.ID)

	got, err := repo.FindByID(ctx, e.ID)
	require.NoError(t, err)
	assert.Equal(t, "1001", got.EmployeeID)
	assert.Equal(t, "0123456", got.Phone)
	assert.Equal(t, 5000.0, got.Allowances.HRA)
	assert.False(t, got.CreatedAt.IsZero())
	assert.Equal(t, "Asha Rao", got.FullName())

	id, err := mr.Get("employee:employeeId:1001")
	require.NoError(t, err)
	assert.Equal(t, e.ID, id)

	t.Run("duplicate email", func(t *testing.T) {
		err := repo.Create(ctx, &employee.Employee{EmployeeID: "1002", FirstName: "B", Email: "asha@example.com", BasicSalary: 1})
		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeAlreadyExists)
	})

	t.Run("duplicate employee id", func(t *testing.T) {
		err := repo.Create(ctx, &employee.Employee{EmployeeID: "1001", FirstName: "B", Email: "b@example.com", BasicSalary: 1})
		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNumberAlreadyExists)
	})

	t.Run("update moves the email index", func(t *testing.T) {
		updated, err := repo.Update(ctx, e.ID, store.Record{"email": "asha.rao@example.com"})
		require.NoError(t, err)
		assert.Equal(t, "asha.rao@example.com", updated.Email)
		assert.False(t, mr.Exists("employee:email:asha@example.com"))
		assert.True(t, mr.Exists("employee:email:asha.rao@example.com"))
	})

	t.Run("delete removes indexes", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, e.ID))
		assert.False(t, mr.Exists("employee:"+e.ID))
		assert.False(t, mr.Exists("employee:employeeId:1001"))
		assert.False(t, mr.Exists("employee:email:asha.rao@example.com"))

		_, err := repo.FindByID(ctx, e.ID)
		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, e.ID), employeeerrors.ErrEmployeeNotFound)
	})
}

func TestRepository_List(t *testing.T) {
	ctx := context.Background()
	repo, _ := setupRepo(t)

	seed(t, repo, employee.Employee{EmployeeID: "1001", FirstName: "Asha", LastName: "Rao", Email: "asha@example.com", Department: "Engineering", Designation: "Engineer", BasicSalary: 1})
	seed(t, repo, employee.Employee{EmployeeID: "1002", FirstName: "Ben", LastName: "Cole", Email: "ben@example.com", Department: "Sales", Designation: "Manager", BasicSalary: 1})
	seed(t, repo, employee.Employee{EmployeeID: "2001", FirstName: "Chandra", LastName: "Rao", Email: "chandra@example.com", Department: "Engineering", Designation: "Manager", BasicSalary: 1})

	tests := []struct {
		name   string
		filter employee.Filter
		want   int
	}{
		{"no filter", employee.Filter{}, 3},
		{"search last name", employee.Filter{Q: "rao"}, 2},
		{"search employee id", employee.Filter{Q: "^100"}, 2},
		{"department", employee.Filter{Department: "Engineering"}, 2},
		{"department and designation", employee.Filter{Department: "Engineering", Designation: "Manager"}, 1},
		{"department is exact", employee.Filter{Department: "engineering"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, total, err := repo.List(ctx, tt.filter, 1, 20)
			require.NoError(t, err)
			assert.Equal(t, tt.want, total)
		})
	}

	t.Run("pagination", func(t *testing.T) {
		items, total, err := repo.List(ctx, employee.Filter{}, 2, 2)
		require.NoError(t, err)
		assert.Equal(t, 3, total)
		assert.Len(t, items, 1)
	})

	t.Run("bad pattern", func(t *testing.T) {
		_, _, err := repo.List(ctx, employee.Filter{Q: "("}, 1, 20)
		assert.Error(t, err)
	})

	t.Run("list all", func(t *testing.T) {
		all, err := repo.ListAll(ctx)
		require.NoError(t, err)
		ids := make([]string, 0, len(all))
		for _, e := range all {
			ids = append(ids, e.EmployeeID)
		}
		assert.ElementsMatch(t, []string{"1001", "1002", "2001"}, ids, fmt.Sprint(ids))
	})
}

func TestRepository_ListAllReadsEachRecordOnce(t *testing.T) {
	ctx := context.Background()
	repo, mr := setupRepo(t)

	const n = 250
	for i := 0; i < n; i++ {
		seed(t, repo, employee.Employee{
			EmployeeID:  fmt.Sprintf("E%03d", i),
			FirstName:   "Staff",
			Email:       fmt.Sprintf("staff%d@example.com", i),
			BasicSalary: 1000,
		})
	}

	before := mr.CommandCount()
	all, err := repo.ListAll(ctx)
	require.NoError(t, err)

	assert.Len(t, all, n)
	// one SMEMBERS plus one HGETALL per employee
	assert.Equal(t, n+1, mr.CommandCount()-before)
}
