package lock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrLockFailed возвращается при ошибке хранилища блокировок
var ErrLockFailed = errors.New("lock: storage error")

// Locker короткоживущая блокировка по ключу
// Lock возвращает токен владельца; Unlock снимает блокировку только с тем же токеном
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (token string, acquired bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

func newToken() string {
	return uuid.NewString()
}
