package jobqueue

import (
	"context"
	"sync"
	"time"

	"go-payroll/internal/shared/apperror"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const DefaultClaimTTL = 30 * time.Second

var (
	refreshClaim = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)

	releaseClaim = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
)

// Claim is the single-consumer lock on a queue. It lives in Redis under
// ClaimKey so consumers in other processes see it, and expires after its
// TTL unless refreshed.
type Claim struct {
	q     *Queue
	token string
	ttl   time.Duration
	once  sync.Once
}

func (q *Queue) ClaimKey() string { return q.key + ":consumer" }

// Claim takes the consumer lock with SETNX. A claim held by this Queue value
// is rejected without a round trip.
func (q *Queue) Claim(ctx context.Context, ttl time.Duration) (*Claim, error) {
	if ttl <= 0 {
		ttl = DefaultClaimTTL
	}
	if !q.active.CompareAndSwap(false, true) {
		return nil, ErrConsumerActive
	}

	c := &Claim{q: q, token: uuid.NewString(), ttl: ttl}
	if err := c.acquire(ctx); err != nil {
		q.active.Store(false)
		return nil, err
	}
	return c, nil
}

func (c *Claim) acquire(ctx context.Context) error {
	ok, err := c.q.rdb.SetNX(ctx, c.q.ClaimKey(), c.token, c.ttl).Result()
	if err != nil {
		return apperror.Transient(err, "job queue unavailable")
	}
	if !ok {
		return ErrConsumerActive
	}
	return nil
}

func (c *Claim) Token() string { return c.token }

func (c *Claim) TTL() time.Duration { return c.ttl }

// Refresh extends the lock by one TTL. It returns ErrClaimLost when the key
// expired or now belongs to another consumer.
func (c *Claim) Refresh(ctx context.Context) error {
	n, err := refreshClaim.Run(ctx, c.q.rdb, []string{c.q.ClaimKey()}, c.token, c.ttl.Milliseconds()).Int64()
	if err != nil {
		return apperror.Transient(err, "job queue unavailable")
	}
	if n == 0 {
		return ErrClaimLost
	}
	return nil
}

// Reacquire takes a lost lock back with the same token, failing with
// ErrConsumerActive if another consumer holds it.
func (c *Claim) Reacquire(ctx context.Context) error {
	return c.acquire(ctx)
}

// Release deletes the key only if it still carries this claim's token.
// Calling it more than once is a no-op.
func (c *Claim) Release(ctx context.Context) error {
	var err error
	c.once.Do(func() {
		defer c.q.active.Store(false)
		if rerr := releaseClaim.Run(ctx, c.q.rdb, []string{c.q.ClaimKey()}, c.token).Err(); rerr != nil {
			err = apperror.Transient(rerr, "job queue unavailable")
		}
	})
	return err
}
