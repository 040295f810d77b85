package ownerlock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// defaultRetryInterval 锁被占用时的重试间隔
const defaultRetryInterval = 50 * time.Millisecond

// releaseScript 只删除自己持有的锁
//  1. 读取key当前的值
//  2. 与本次加锁时的token相同才删除
var releaseScript = redis.NewScript(
	`if redis.call('GET', KEYS[1]) == ARGV[1] then
		return redis.call('DEL', KEYS[1])
	end
	return 0`,
)

// RedisLocker 基于Redis的分布式锁，多实例部署时使用
type RedisLocker struct {
	client        *redis.Client
	keyPrefix     string
	ttl           time.Duration
	retryInterval time.Duration
	logger        logrus.FieldLogger
}

// NewRedisLocker 创建基于Redis的锁，ttl 为持有者异常退出后锁自动失效的时间
func NewRedisLocker(client *redis.Client, keyPrefix string, ttl time.Duration, logger logrus.FieldLogger) *RedisLocker {
	return &RedisLocker{
		client:        client,
		keyPrefix:     keyPrefix,
		ttl:           ttl,
		retryInterval: defaultRetryInterval,
		logger:        logger,
	}
}

// Lock 获取锁，SET NX 失败时按间隔重试直到ctx结束
func (l *RedisLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	redisKey := l.keyPrefix + key
	token := uuid.NewString()

	ticker := time.NewTicker(l.retryInterval)
	defer ticker.Stop()

	for {
		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ErrLockTimeout
			}
			return nil, fmt.Errorf("获取Redis锁失败: %w", err)
		}
		if ok {
			return l.unlocker(redisKey, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-ticker.C:
		}
	}
}

func (l *RedisLocker) unlocker(redisKey, token string) Unlock {
	var once sync.Once
	return func() {
		once.Do(func() {
			// 请求ctx可能已取消，释放锁使用独立的ctx
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
				l.logger.WithError(err).WithField("key", redisKey).Warn("释放Redis锁失败")
			}
		})
	}
}
