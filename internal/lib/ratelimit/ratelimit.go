// Package ratelimit ограничивает частоту запросов по ключу (IP или IP+пользователь).
//
// Memory держит token bucket на каждый ключ в памяти процесса, Redis считает
// запросы в фиксированном окне и разделяет лимит между экземплярами сервиса.
package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/campus-market/internal/lib/sl"
)

// Limiter решает, можно ли пропустить ещё один запрос с ключом key.
type Limiter interface {
	TryAcquire(ctx context.Context, key string) bool
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// Memory ограничитель в памяти процесса.
type Memory struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idle     time.Duration
	now      func() time.Time
}

// NewMemory создаёт ограничитель с rps запросами в секунду и запасом burst.
// Записи, не использовавшиеся дольше idle, удаляются фоновой очисткой до отмены ctx.
func NewMemory(ctx context.Context, rps float64, burst int, idle time.Duration) *Memory {
	m := &Memory{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(rps),
		burst:    burst,
		idle:     idle,
		now:      time.Now,
	}
	go m.cleanupLoop(ctx)
	return m
}

// TryAcquire реализует Limiter.
func (m *Memory) TryAcquire(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	v, ok := m.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(m.limit, m.burst)}
		m.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter.AllowN(now, 1)
}

func (m *Memory) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.cleanup()
		}
	}
}

func (m *Memory) cleanup() {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	for key, v := range m.visitors {
		if now.Sub(v.lastSeen) > m.idle {
			delete(m.visitors, key)
		}
	}
}

// Len возвращает число отслеживаемых ключей.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.visitors)
}

// Redis ограничитель с фиксированным окном в Redis.
type Redis struct {
	db     *redis.Client
	log    *slog.Logger
	limit  int64
	window time.Duration
	prefix string
}

// NewRedis создаёт ограничитель, пропускающий limit запросов за окно window.
func NewRedis(db *redis.Client, log *slog.Logger, limit int64, window time.Duration) *Redis {
	return &Redis{
		db:     db,
		log:    log,
		limit:  limit,
		window: window,
		prefix: "ratelimit:",
	}
}

// TryAcquire реализует Limiter. При недоступности Redis запрос пропускается.
// Счётчик и его TTL читаются одной транзакцией; ключ без TTL (например,
// после сбоя между INCR и PEXPIRE) получает окно заново.
func (r *Redis) TryAcquire(ctx context.Context, key string) bool {
	const op = "ratelimit.Redis.TryAcquire"
	k := r.prefix + key

	var (
		incr *redis.IntCmd
		ttl  *redis.DurationCmd
	)
	_, err := r.db.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		incr = pipe.Incr(ctx, k)
		ttl = pipe.PTTL(ctx, k)
		return nil
	})
	if err != nil {
		r.log.Warn("rate limiter backend unavailable, allowing request", slog.String("op", op), sl.Err(err))
		return true
	}
	if ttl.Val() < 0 {
		if err := r.db.PExpire(ctx, k, r.window).Err(); err != nil {
			r.log.Warn("failed to set rate limit window", slog.String("op", op), sl.Err(err))
		}
	}
	return incr.Val() <= r.limit
}
