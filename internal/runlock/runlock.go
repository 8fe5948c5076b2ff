package runlock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"TickerSync/internal/config"
	"TickerSync/internal/interfaces"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	defaultKey = "ticker:pipeline:lock"
	defaultTTL = 10 * time.Minute
)

// NoopLock 单进程部署使用：总是获取成功
type NoopLock struct{}

func NewNoopLock() *NoopLock {
	return &NoopLock{}
}

func (NoopLock) TryAcquire(ctx context.Context) (bool, error) {
	_ = ctx
	return true, nil
}

func (NoopLock) Release(ctx context.Context) error {
	_ = ctx
	return nil
}

// 仅当值仍为本实例的 token 时删除，避免误删其他实例在 TTL 过期后获得的锁
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLock 基于 SET NX PX 的跨进程互斥锁
type RedisLock struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	token  string
	logger *logrus.Logger
}

// NewRedisLock 使用已有 redis 客户端
func NewRedisLock(client redis.UniversalClient, key string, ttl time.Duration, logger *logrus.Logger) *RedisLock {
	if key == "" {
		key = defaultKey
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisLock{client: client, key: key, ttl: ttl, token: uuid.NewString(), logger: logger}
}

func (l *RedisLock) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("获取运行锁失败: %w", err)
	}
	if !ok {
		l.logger.WithField("key", l.key).Debug("运行锁被其他实例持有")
	}
	return ok, nil
}

func (l *RedisLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.token).Err(); err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("释放运行锁失败: %w", err)
	}
	return nil
}

// New 按配置创建运行锁：未配置 redis_addr 时为 NoopLock
func New(ctx context.Context, cfg config.LockConfig, logger *logrus.Logger) (interfaces.RunLock, error) {
	if cfg.RedisAddr == "" {
		return NewNoopLock(), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DialTimeout: 5 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("连接Redis失败: %w", err)
	}
	logger.WithField("addr", cfg.RedisAddr).Info("已启用Redis运行锁")
	return NewRedisLock(client, cfg.Key, cfg.TTL, logger), nil
}
