package repo

import (
	"Go_Share/config"
	"Go_Share/internal/logger"
	"Go_Share/model"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

var Redis *redis.Client

// ErrLockBusy is returned when another holder owns the lock.
var ErrLockBusy = errors.New("lock is busy")

const linkExpirePrefix = "link:expire:"

// LockClient is the part of a Redis client used by RedisLock.
type LockClient interface {
	redis.Scripter
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

type RedisLock struct {
	rdb   LockClient
	key   string
	token string
	ttl   time.Duration
}

// InitRedis initializes the Redis client. Redis is optional: on failure the
// client stays nil and callers fall back to their non-Redis paths.
func InitRedis() error {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", config.AppConfig.RedisHost, config.AppConfig.RedisPort),
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return err
	}
	logger.L().Info("init redis success")
	Redis = client
	return nil
}

// EnableKeyspaceNotifications enables Redis expired-key events.
func EnableKeyspaceNotifications(ctx context.Context) error {
	if Redis == nil {
		return errors.New("redis not initialized")
	}
	return Redis.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err()
}

// NewRedisLock creates a Redis lock helper.
func NewRedisLock(rdb LockClient, key string, ttl time.Duration) *RedisLock {
	return &RedisLock{
		rdb: rdb,
		key: key,
		ttl: ttl,
	}
}

// Lock acquires the lock or returns ErrLockBusy.
func (l *RedisLock) Lock(ctx context.Context) error {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrLockBusy
	}
	l.token = token
	return nil
}

var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Unlock releases the lock if this holder still owns it.
func (l *RedisLock) Unlock(ctx context.Context) error {
	if l.token == "" {
		return nil
	}
	_, err := unlockScript.Run(
		ctx,
		l.rdb,
		[]string{l.key},
		l.token,
	).Result()
	l.token = ""
	return err
}

// ScheduleLinkExpiry sets a key that expires together with the share link.
// No-op without Redis or for links already past expiry.
func ScheduleLinkExpiry(ctx context.Context, linkID uint64, expireAt time.Time) error {
	if Redis == nil {
		return nil
	}
	ttl := time.Until(expireAt)
	if ttl <= 0 {
		return nil
	}
	return Redis.Set(ctx, linkExpirePrefix+strconv.FormatUint(linkID, 10), 1, ttl).Err()
}

// ClearLinkExpiry drops the expiry key of a link deactivated early.
func ClearLinkExpiry(ctx context.Context, linkID uint64) error {
	if Redis == nil {
		return nil
	}
	return Redis.Del(ctx, linkExpirePrefix+strconv.FormatUint(linkID, 10)).Err()
}

// ListenRedisExpired listens for expired keys until ctx is done. ready is
// closed once the subscription is confirmed.
func ListenRedisExpired(ctx context.Context, rdb *redis.Client, ready chan<- struct{}) error {
	channel := fmt.Sprintf("__keyevent@%d__:expired", rdb.Options().DB)
	pubsub := rdb.Subscribe(ctx, channel)
	defer pubsub.Close()
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", channel, err)
	}
	if ready != nil {
		close(ready)
	}
	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			handleExpiredKey(ctx, msg.Payload)
		}
	}
}

// handleExpiredKey dispatches expired-key handlers.
func handleExpiredKey(ctx context.Context, key string) {
	switch {
	case strings.HasPrefix(key, linkExpirePrefix):
		handleLinkExpired(ctx, key)
	default:
	}
}

// handleLinkExpired deactivates the link whose expiry key fired and returns
// the number of links changed.
func handleLinkExpired(ctx context.Context, key string) int64 {
	id, err := strconv.ParseUint(strings.TrimPrefix(key, linkExpirePrefix), 10, 64)
	if err != nil || Db == nil {
		return 0
	}
	res := Db.WithContext(ctx).Model(&model.ShareLink{}).
		Where("id = ? AND is_active = ?", id, true).
		Update("is_active", false)
	if res.Error != nil {
		logger.L().Warn("deactivate expired link fail", zap.Uint64("link_id", id), zap.Error(res.Error))
		return 0
	}
	if res.RowsAffected > 0 {
		logger.L().Info("share link expired", zap.Uint64("link_id", id))
	}
	return res.RowsAffected
}
