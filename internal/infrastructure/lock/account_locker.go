package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bsm/redislock"
	"github.com/sangkips/billing-core/pkg/logger"
	"github.com/sirupsen/logrus"
)

// ErrNotObtained is returned when an account lock could not be taken in time
var ErrNotObtained = errors.New("account lock not obtained")

// AccountLocker serializes work on one account
type AccountLocker interface {
	// Lock returns a release func, or ErrNotObtained when the wait runs out
	Lock(ctx context.Context, key string) (func(), error)
}

// Locker always takes an in-process lock and, when a redis client is
// configured, a distributed lock on the same key so that several
// instances of the service also serialize.
type Locker struct {
	local  *KeyedMutex
	redis  *redislock.Client
	ttl    time.Duration
	wait   time.Duration
	logger *logrus.Logger
}

// NewLocker creates a Locker. redisLock may be nil for single-instance setups.
func NewLocker(redisLock *redislock.Client, ttl, wait time.Duration, log *logrus.Logger) *Locker {
	return &Locker{
		local:  NewKeyedMutex(),
		redis:  redisLock,
		ttl:    ttl,
		wait:   wait,
		logger: log,
	}
}

func (l *Locker) Lock(ctx context.Context, key string) (func(), error) {
	waitCtx, cancel := context.WithTimeout(ctx, l.wait)
	defer cancel()

	release, err := l.local.Lock(waitCtx, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
	}
	if l.redis == nil {
		return release, nil
	}

	distributed, err := l.redis.Obtain(waitCtx, key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(25 * time.Millisecond),
	})
	if err != nil {
		release()
		if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
			logger.LogError(l.logger, "lock", "Lock", "Could not obtain redis lock for account", key, err)
			return nil, fmt.Errorf("%w: %s", ErrNotObtained, key)
		}
		logger.LogError(l.logger, "lock", "Lock", "Error obtaining redis lock for account", key, err)
		return nil, err
	}

	return func() {
		if err := distributed.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			logger.LogError(l.logger, "lock", "Release", "Error releasing redis lock", key, err)
		}
		release()
	}, nil
}
