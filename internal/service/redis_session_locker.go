package service

import (
	"context"
	"sync"
	"time"

	"lmp_backend/internal/util"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// 仅当值仍为本实例持有的 token 时删除，避免误删他人续上的锁
var releaseLockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisSessionLocker 多实例部署下的会话锁，基于 SET NX PX
type RedisSessionLocker struct {
	Redis *redis.Client
	Retry time.Duration

	mu   sync.RWMutex
	ttl  time.Duration // 锁自动过期时间，持有者崩溃后自动释放
	wait time.Duration // 最长等待时间，超时返回 ErrSessionBusy
}

func NewRedisSessionLocker(rdb *redis.Client, ttl, wait time.Duration) *RedisSessionLocker {
	return &RedisSessionLocker{
		Redis: rdb,
		Retry: 50 * time.Millisecond,
		ttl:   ttl,
		wait:  wait,
	}
}

// SetTimings 配置热加载时调用
func (l *RedisSessionLocker) SetTimings(ttl, wait time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.ttl, l.wait = ttl, wait
}

func (l *RedisSessionLocker) timings() (time.Duration, time.Duration) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.ttl, l.wait
}

func (l *RedisSessionLocker) Lock(ctx context.Context, testID, userID uint) (func(), error) {
	key := sessionLockKey(testID, userID)
	token := uuid.NewString()
	ttl, wait := l.timings()
	deadline := time.Now().Add(wait)

	for {
		ok, err := l.Redis.SetNX(ctx, key, token, ttl).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				releaseLockScript.Run(context.Background(), l.Redis, []string{key}, token)
			}, nil
		}
		if time.Now().After(deadline) {
			return nil, util.ErrSessionBusy
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.Retry):
		}
	}
}
