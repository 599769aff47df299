package counter

import (
	"context"
	"fmt"

	"go-payroll/internal/shared/apperror"

	"github.com/redis/go-redis/v9"
)

const EmployeeNumber = "employee"

//go:generate mockgen -destination=mock/counter_repo_mock.go -package=mock . Repository
type Repository interface {
	GetNextValue(ctx context.Context, counterType string) (int64, error)
}

type repository struct {
	rdb redis.Cmdable
}

func NewRepository(rdb redis.Cmdable) Repository {
	return &repository{rdb: rdb}
}

func Key(counterType string) string {
	return "counter:" + counterType
}

// GetNextValue increments atomically; the first value handed out is 1.
func (r *repository) GetNextValue(ctx context.Context, counterType string) (int64, error) {
	n, err := r.rdb.Incr(ctx, Key(counterType)).Result()
	if err != nil {
		return 0, apperror.Transient(err, "counter unavailable")
	}
	return n, nil
}

// FormatEmployeeNumber renders n as EMP-000042.
func FormatEmployeeNumber(n int64) string {
	return fmt.Sprintf("EMP-%06d", n)
}
