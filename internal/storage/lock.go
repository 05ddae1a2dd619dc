package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

// Lock keys for the logical resources guarded during read-modify-write.
const (
	CatalogLock   = "catalog"
	EmployeesLock = "employees"
)

// EmployeeLock is the lock key of one employee's shift log and request queue.
func EmployeeLock(company, employeeID string) string {
	return fmt.Sprintf("employee:%s/%s", company, employeeID)
}

// ErrLockNotObtained is returned when a lock could not be acquired before
// the context ended.
var ErrLockNotObtained = errors.New("could not obtain lock")

// Locker serialises access to a logical resource. The returned function
// releases the lock.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// LocalLocker holds one single-slot channel per key so that waiting can be
// abandoned when the context ends. It only guards a single process.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: map[string]chan struct{}{}}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w %q: %v", ErrLockNotObtained, key, ctx.Err())
	}
}

// RedisLocker takes the lock in Redis so that several processes sharing a
// data directory do not overwrite each other.
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	prefix string
}

// NewRedisLocker returns a locker over rdb. Locks expire after ttl if the
// holder dies without releasing them.
func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &RedisLocker{client: redislock.New(rdb), ttl: ttl, prefix: "shifts:"}
}

// Lock retries until the lock is free or ctx ends.
func (l *RedisLocker) Lock(ctx context.Context, key string) (func(), error) {
	lock, err := l.client.Obtain(ctx, l.prefix+key, l.ttl, &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(100 * time.Millisecond),
	})
	if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return nil, fmt.Errorf("%w %q: %v", ErrLockNotObtained, key, err)
	}
	if err != nil {
		return nil, fmt.Errorf("redis lock %q: %w", key, err)
	}
	return func() {
		_ = lock.Release(context.Background())
	}, nil
}
