package lock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "lock:"

// Удаляем ключ только если значение совпадает с токеном владельца
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock блокировка на SET NX с TTL
type RedisLock struct {
	client *redis.Client
}

// NewRedisLock создает блокировку поверх готового клиента и проверяет соединение
func NewRedisLock(ctx context.Context, client *redis.Client) (*RedisLock, error) {
	const op = "lock.NewRedisLock"

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLockFailed, op, err)
	}

	return &RedisLock{client: client}, nil
}

func (r *RedisLock) Lock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	const op = "lock.RedisLock.Lock"

	token := newToken()
	ok, err := r.client.SetNX(ctx, keyPrefix+key, token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("%w: %s: %v", ErrLockFailed, op, err)
	}
	if !ok {
		return "", false, nil
	}

	return token, true, nil
}

func (r *RedisLock) Unlock(ctx context.Context, key, token string) error {
	const op = "lock.RedisLock.Unlock"

	if err := unlockScript.Run(ctx, r.client, []string{keyPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrLockFailed, op, err)
	}

	return nil
}

func (r *RedisLock) Close() error {
	return r.client.Close()
}
