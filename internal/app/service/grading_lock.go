package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var errLockBusy = errors.New("grading lock held")

// Compare-and-delete so an expired lock re-taken by another pass is left alone.
var releaseScript = redis.NewScript(`
    if redis.call("get", KEYS[1]) == ARGV[1] then
        return redis.call("del", KEYS[1])
    else
        return 0
    end
`)

// GradingLock serialises grading passes per (user, problem) pair across
// server instances. A nil *GradingLock is valid and never blocks.
type GradingLock struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewGradingLock returns nil when rdb is nil.
func NewGradingLock(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *GradingLock {
	if rdb == nil {
		return nil
	}
	return &GradingLock{rdb: rdb, ttl: ttl, logger: logger.Named("grading_lock")}
}

func lockKey(userID, problemID string) string {
	return fmt.Sprintf("grading:lock:%s:%s", userID, problemID)
}

// Acquire takes the lock for one pass. The returned release func is always
// non-nil and safe to call once the pass is over.
func (l *GradingLock) Acquire(ctx context.Context, userID, problemID string) (func(), error) {
	noop := func() {}
	if l == nil {
		return noop, nil
	}

	key := lockKey(userID, problemID)
	value := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, key, value, l.ttl).Result()
	if err != nil {
		return noop, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return noop, errLockBusy
	}

	return func() {
		// The request context may already be cancelled here.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		deleted, err := releaseScript.Run(releaseCtx, l.rdb, []string{key}, value).Int64()
		if err != nil {
			l.logger.Error("failed to release grading lock", zap.String("key", key), zap.Error(err))
		} else if deleted != 1 {
			l.logger.Warn("grading lock expired before release", zap.String("key", key))
		}
	}, nil
}
