package lock

import (
	"context"
	"sync"
	"time"
)

type localEntry struct {
	token     string
	expiresAt time.Time
}

// LocalLock блокировка в памяти процесса (один инстанс, Redis выключен)
type LocalLock struct {
	mu      sync.Mutex
	entries map[string]localEntry
	now     func() time.Time
}

func NewLocalLock() *LocalLock {
	return &LocalLock{
		entries: make(map[string]localEntry),
		now:     time.Now,
	}
}

func (l *LocalLock) Lock(_ context.Context, key string, ttl time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if entry, ok := l.entries[key]; ok && now.Before(entry.expiresAt) {
		return "", false, nil
	}

	// Чистим протухшие ключи, чтобы карта не росла
	for k, entry := range l.entries {
		if !now.Before(entry.expiresAt) {
			delete(l.entries, k)
		}
	}

	token := newToken()
	l.entries[key] = localEntry{token: token, expiresAt: now.Add(ttl)}
	return token, true, nil
}

func (l *LocalLock) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if entry, ok := l.entries[key]; ok && entry.token == token {
		delete(l.entries, key)
	}
	return nil
}
