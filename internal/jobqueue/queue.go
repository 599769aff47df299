package jobqueue

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"go-payroll/internal/shared/apperror"

	"github.com/redis/go-redis/v9"
)

const DefaultKey = "payroll_tasks"

var (
	ErrEmpty          = errors.New("jobqueue: empty")
	ErrConsumerActive = errors.New("jobqueue: consumer already active")
	ErrClaimLost      = errors.New("jobqueue: consumer claim lost")
)

// Queue is a FIFO of payroll jobs on a Redis list: producers LPUSH, the
// consumer pops from the right.
type Queue struct {
	rdb    redis.Cmdable
	key    string
	active atomic.Bool
}

func New(rdb redis.Cmdable, key string) *Queue {
	if key == "" {
		key = DefaultKey
	}
	return &Queue{rdb: rdb, key: key}
}

func (q *Queue) Key() string { return q.key }

func (q *Queue) Push(ctx context.Context, job PayrollJob) error {
	if err := job.Validate(); err != nil {
		return err
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := q.rdb.LPush(ctx, q.key, string(payload)).Err(); err != nil {
		return apperror.Transient(err, "job queue unavailable")
	}
	return nil
}

// PopBlocking waits up to timeout for a job (0 waits indefinitely). It
// returns ErrEmpty when the wait times out.
func (q *Queue) PopBlocking(ctx context.Context, timeout time.Duration) (PayrollJob, error) {
	res, err := q.rdb.BRPop(ctx, timeout, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return PayrollJob{}, ErrEmpty
	}
	if err != nil {
		if ctx.Err() != nil {
			return PayrollJob{}, ctx.Err()
		}
		return PayrollJob{}, apperror.Transient(err, "job queue unavailable")
	}
	if len(res) != 2 {
		return PayrollJob{}, apperror.New(apperror.CodeInternalError, "unexpected BRPOP reply", http.StatusInternalServerError)
	}
	return decode(res[1])
}

// PopNonBlocking takes the oldest job or returns ErrEmpty.
func (q *Queue) PopNonBlocking(ctx context.Context) (PayrollJob, error) {
	payload, err := q.rdb.RPop(ctx, q.key).Result()
	if errors.Is(err, redis.Nil) {
		return PayrollJob{}, ErrEmpty
	}
	if err != nil {
		return PayrollJob{}, apperror.Transient(err, "job queue unavailable")
	}
	return decode(payload)
}

func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.rdb.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, apperror.Transient(err, "job queue unavailable")
	}
	return n, nil
}

// decode fails with a validation error; the payload has already left the
// list by then.
func decode(payload string) (PayrollJob, error) {
	var job PayrollJob
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		return PayrollJob{}, apperror.Wrap(err, apperror.CodeInvalidInput, "undecodable job payload", http.StatusBadRequest)
	}
	return job, nil
}
