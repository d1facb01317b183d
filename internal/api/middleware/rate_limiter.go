package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/m04kA/DrivingSchool-BookingService/internal/api/handlers"
)

const msgTooManyRequests = "слишком много запросов, повторите позже"

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter ограничивает частоту запросов на клиента (IP)
// Таблица клиентов ограничена maxClients, неактивные клиенты вытесняются через ttl
type RateLimiter struct {
	mu         sync.Mutex
	clients    map[string]*client
	limit      rate.Limit
	burst      int
	maxClients int
	ttl        time.Duration
	now        func() time.Time
	logger     Logger
}

func NewRateLimiter(rps float64, burst, maxClients int, ttl time.Duration, logger Logger) *RateLimiter {
	if maxClients <= 0 {
		maxClients = 10000
	}
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		clients:    make(map[string]*client),
		limit:      rate.Limit(rps),
		burst:      burst,
		maxClients: maxClients,
		ttl:        ttl,
		now:        time.Now,
		logger:     logger,
	}
}

// Middleware отвечает 429 с Retry-After, когда клиент превысил лимит
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientIP(r)

		if wait, ok := rl.allow(key); !ok {
			rl.logger.Warn("%s %s - Rate limit exceeded: client=%s", r.Method, r.URL.Path, key)
			seconds := int(math.Ceil(wait.Seconds()))
			if seconds < 1 {
				seconds = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(seconds))
			handlers.RespondError(w, http.StatusTooManyRequests, msgTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow резервирует токен; при отказе возвращает время ожидания
func (rl *RateLimiter) allow(key string) (time.Duration, bool) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()

	c, ok := rl.clients[key]
	if !ok {
		if len(rl.clients) >= rl.maxClients {
			rl.evict(now)
		}
		c = &client{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now

	res := c.limiter.ReserveN(now, 1)
	if !res.OK() {
		return time.Second, false
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return delay, false
	}
	return 0, true
}

// evict удаляет неактивных клиентов, а если таких нет, самого давнего
func (rl *RateLimiter) evict(now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
	)
	for key, c := range rl.clients {
		if rl.ttl > 0 && now.Sub(c.lastSeen) > rl.ttl {
			delete(rl.clients, key)
			continue
		}
		if oldestKey == "" || c.lastSeen.Before(oldest) {
			oldestKey, oldest = key, c.lastSeen
		}
	}

	if len(rl.clients) >= rl.maxClients && oldestKey != "" {
		delete(rl.clients, oldestKey)
	}
}

// Len количество отслеживаемых клиентов
func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.clients)
}

func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
