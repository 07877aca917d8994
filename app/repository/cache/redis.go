package cache

import (
	"context"
	"fmt"
	"log/slog"
	"storefront-service/app/domain"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/redis/go-redis/v9"
)

const orderLockKeyPrefix = "lock:order:"

// releaseLockScript deletes the key only while it still holds our token.
var releaseLockScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
	return redis.call('DEL', KEYS[1])
end
return 0
`)

type redisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewClient(addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewRedisLocker locks orders across service instances. The ttl bounds how long a
// crashed holder can block an order.
func NewRedisLocker(client *redis.Client, ttl time.Duration) domain.OrderLocker {
	return &redisLocker{client: client, ttl: ttl}
}

func (l *redisLocker) Lock(ctx context.Context, orderID string) (domain.Unlock, error) {
	key := orderLockKeyPrefix + orderID
	token, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}

	ok, err := l.client.SetNX(ctx, key, token.String(), l.ttl).Result()
	if err != nil {
		slog.ErrorContext(ctx, "[redisLocker] Lock", "setNX", err)
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: order %s is being updated", domain.ErrConflict, orderID)
	}

	return func(ctx context.Context) error {
		if err := releaseLockScript.Run(ctx, l.client, []string{key}, token.String()).Err(); err != nil {
			slog.ErrorContext(ctx, "[redisLocker] Unlock", "script", err)
			return err
		}
		return nil
	}, nil
}
