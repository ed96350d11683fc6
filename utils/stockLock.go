package utils

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
	"github.com/wiredpart/parts_backend/config"
)

const stockLockTTL = 30 * time.Second

// StockLocker serializes ledger mutations. Lock blocks until the lock is held
// or ctx is done; the returned func releases it.
type StockLocker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// LocalStockLocker is used when the process is the only writer.
type LocalStockLocker struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewLocalStockLocker() *LocalStockLocker {
	return &LocalStockLocker{locks: map[string]chan struct{}{}}
}

func (l *LocalStockLocker) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	ch, ok := l.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		l.locks[key] = ch
	}
	l.mu.Unlock()

	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() {
		once.Do(func() { <-ch })
	}, nil
}

// RedisStockLocker holds the lock in redis so several processes can share one database.
type RedisStockLocker struct {
	client     *redislock.Client
	logger     *logrus.Logger
	moduleName string
}

func NewRedisStockLocker(client *redislock.Client, logger *logrus.Logger) *RedisStockLocker {
	return &RedisStockLocker{client: client, logger: logger, moduleName: "utils"}
}

func (l *RedisStockLocker) Lock(ctx context.Context, key string) (func(), error) {
	if l.client == nil {
		return nil, errors.New("service not ready (redis lock not initialized)")
	}
	lockKey := fmt.Sprintf("stockLock:%s", key)
	lock, err := l.client.Obtain(ctx, lockKey, stockLockTTL, &redislock.Options{
		RetryStrategy: redislock.LimitRetry(redislock.LinearBackoff(50*time.Millisecond), 200),
	})
	if errors.Is(err, redislock.ErrNotObtained) {
		config.LogError(l.logger, l.moduleName, "Lock", "could not obtain stock lock", lockKey, err)
		return nil, errors.New("could not obtain stock lock, try again")
	} else if err != nil {
		config.LogError(l.logger, l.moduleName, "Lock", "error obtaining stock lock", lockKey, err)
		return nil, err
	}
	return func() {
		// the request context may already be cancelled here
		if err := lock.Release(context.Background()); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			config.LogError(l.logger, l.moduleName, "Lock", "error releasing stock lock", lockKey, err)
		}
	}, nil
}
