package config

import (
	"context"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// ConnectRedis returns a client and a lock client for settings.RedisAddress.
// Both are nil when no address is configured; callers fall back to in-process locking.
func ConnectRedis(ctx context.Context, s *Settings, logg *logrus.Logger, maxAttempts int) (*redis.Client, *redislock.Client, error) {
	if s.RedisAddress == "" {
		return nil, nil, nil
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	rdb := redis.NewClient(&redis.Options{
		Addr:     s.RedisAddress,
		Password: "",
		DB:       0,
	})

	var err error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err = rdb.Ping(ctx).Err(); err == nil {
			break
		}
		if attempt == maxAttempts {
			_ = rdb.Close()
			return nil, nil, err
		}
		sleep := time.Second * time.Duration(1<<min(attempt, 5))
		logg.WithFields(logrus.Fields{
			"field":   "redis",
			"attempt": attempt,
		}).Warn("failed to connect redis; retrying in " + sleep.String() + ": " + err.Error())
		select {
		case <-ctx.Done():
			_ = rdb.Close()
			return nil, nil, ctx.Err()
		case <-time.After(sleep):
		}
	}
	return rdb, redislock.New(rdb), nil
}
