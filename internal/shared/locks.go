package shared

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// YearCloseLockKey builds redis keys for the year-end close critical section.
func YearCloseLockKey(businessID, fiscalYearID int64) string {
	return fmt.Sprintf("finance:business:%d:year:%d:close", businessID, fiscalYearID)
}

// PeriodLockKey builds redis keys for period-level critical sections.
func PeriodLockKey(businessID, periodID int64) string {
	return fmt.Sprintf("finance:business:%d:period:%d:lock", businessID, periodID)
}

// ErrLockHeld indicates another caller owns the critical section.
var ErrLockHeld = errors.New("lock already held")

// Locker provides mutual exclusion backed by redis SET NX.
type Locker struct {
	client *redis.Client
	ttl    time.Duration
	owner  string
}

// NewLocker constructs a Locker with the given lease duration. Each
// instance holds locks under its own owner token, so releasing never
// clobbers a lock another process re-acquired after expiry.
func NewLocker(client *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{client: client, ttl: ttl, owner: uuid.NewString()}
}

// Acquire takes the lock or returns ErrLockHeld.
func (l *Locker) Acquire(ctx context.Context, key string) error {
	if l == nil || l.client == nil {
		return errors.New("locker not initialised")
	}
	ok, err := l.client.SetNX(ctx, key, l.owner, l.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockHeld
	}
	return nil
}

// Release frees the lock if this locker still owns it. Releasing an
// expired or reassigned lock is not an error.
func (l *Locker) Release(ctx context.Context, key string) error {
	if l == nil || l.client == nil {
		return nil
	}
	held, err := l.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	if held != l.owner {
		return nil
	}
	return l.client.Del(ctx, key).Err()
}

// WithLock runs fn inside the critical section identified by key.
func (l *Locker) WithLock(ctx context.Context, key string, fn func(context.Context) error) error {
	if err := l.Acquire(ctx, key); err != nil {
		return err
	}
	defer func() { _ = l.Release(ctx, key) }()
	return fn(ctx)
}
