package jobqueue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go-payroll/internal/shared/apperror"

	"go.uber.org/zap"
)

type Mode int

const (
	// Blocking pops with BRPOP and a finite wait so cancellation is seen.
	Blocking Mode = iota
	// Polling pops with RPOP and sleeps between empty polls.
	Polling
)

const (
	DefaultPollTimeout  = 5 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
)

type DispatcherConfig struct {
	Mode         Mode
	PollTimeout  time.Duration
	PollInterval time.Duration

	// ClaimTTL bounds how long a crashed consumer blocks the queue. The
	// claim is refreshed every third of it.
	ClaimTTL time.Duration
}

// Dispatcher is the only consumer of a Queue while it is open, across
// processes sharing the Redis instance.
type Dispatcher struct {
	q     *Queue
	cfg   DispatcherConfig
	claim *Claim
	lost  atomic.Bool
	stop  context.CancelFunc
	wg    sync.WaitGroup
	once  sync.Once
	log   *zap.Logger
}

func NewDispatcher(ctx context.Context, q *Queue, cfg DispatcherConfig, logger ...*zap.Logger) (*Dispatcher, error) {
	claim, err := q.Claim(ctx, cfg.ClaimTTL)
	if err != nil {
		return nil, err
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = DefaultPollTimeout
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}

	l := zap.L()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}

	keepCtx, stop := context.WithCancel(context.Background())
	d := &Dispatcher{
		q:     q,
		cfg:   cfg,
		claim: claim,
		stop:  stop,
		log:   l.Named("jobqueue.dispatcher"),
	}
	d.wg.Add(1)
	go d.keepAlive(keepCtx)
	return d, nil
}

func (d *Dispatcher) keepAlive(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(max(d.claim.TTL()/3, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		err := d.claim.Refresh(ctx)
		switch {
		case err == nil:
		case errors.Is(err, ErrClaimLost):
			if d.lost.CompareAndSwap(false, true) {
				d.log.Error("consumer claim lost", zap.String("key", d.q.ClaimKey()))
			}
		case ctx.Err() == nil:
			d.log.Warn("consumer claim refresh failed", zap.String("key", d.q.ClaimKey()), zap.Error(err))
		}
	}
}

// Next returns the next job. ErrEmpty means nothing arrived within one poll.
func (d *Dispatcher) Next(ctx context.Context) (PayrollJob, error) {
	if d.lost.Load() {
		// stay idle until the other consumer lets go
		if err := d.claim.Reacquire(ctx); err != nil {
			return PayrollJob{}, err
		}
		d.lost.Store(false)
		d.log.Info("consumer claim reacquired", zap.String("key", d.q.ClaimKey()))
	}

	var (
		job PayrollJob
		err error
	)
	switch d.cfg.Mode {
	case Polling:
		job, err = d.q.PopNonBlocking(ctx)
		if errors.Is(err, ErrEmpty) {
			select {
			case <-ctx.Done():
				return PayrollJob{}, ctx.Err()
			case <-time.After(d.cfg.PollInterval):
			}
		}
	default:
		job, err = d.q.PopBlocking(ctx, d.cfg.PollTimeout)
	}

	if apperror.IsValidation(err) {
		d.log.Warn("dropped undecodable job", zap.String("queue", d.q.Key()), zap.Error(err))
	}
	return job, err
}

// Close stops the refresh loop and gives up the claim on the queue.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		d.stop()
		d.wg.Wait()

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := d.claim.Release(ctx); err != nil {
			d.log.Warn("consumer claim release failed", zap.String("key", d.q.ClaimKey()), zap.Error(err))
		}
	})
}
