// AngelaMos | 2026
// limiter.go

package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// Decision is the outcome of spending one unit against a key.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
	ResetAfter time.Duration
}

// Limiter runs GCRA in redis and degrades to per-key token buckets held in
// process while redis is unreachable.
type Limiter struct {
	remote    *redis_rate.Limiter
	local     *localBuckets
	limit     redis_rate.Limit
	namespace string
}

func NewLimiter(
	rdb *redis.Client,
	namespace string,
	limit redis_rate.Limit,
) *Limiter {
	return &Limiter{
		remote:    redis_rate.NewLimiter(rdb),
		local:     newLocalBuckets(),
		limit:     limit,
		namespace: namespace,
	}
}

func (l *Limiter) Limit() redis_rate.Limit {
	return l.limit
}

func (l *Limiter) Allow(ctx context.Context, key string) Decision {
	key = l.key(key)

	res, err := l.remote.Allow(ctx, key, l.limit)
	if err != nil {
		slog.Debug("rate limiter falling back to local buckets",
			"error", err,
			"key", key,
		)
		return l.local.take(key, l.limit, time.Now())
	}

	return Decision{
		Allowed:    res.Allowed > 0,
		Remaining:  res.Remaining,
		RetryAfter: res.RetryAfter,
		ResetAfter: res.ResetAfter,
	}
}

// Reset clears everything spent against key.
func (l *Limiter) Reset(ctx context.Context, key string) error {
	key = l.key(key)
	l.local.forget(key)

	if err := l.remote.Reset(ctx, key); err != nil {
		return fmt.Errorf("reset rate limit: %w", err)
	}
	return nil
}

func (l *Limiter) key(key string) string {
	if l.namespace == "" {
		return key
	}
	return l.namespace + ":" + key
}

func PerMinute(rate, burst int) redis_rate.Limit {
	return redis_rate.Limit{
		Rate:   rate,
		Burst:  burst,
		Period: time.Minute,
	}
}

const bucketIdleTTL = 10 * time.Minute

type bucket struct {
	tokens *rate.Limiter
	seen   time.Time
}

type localBuckets struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	lastSweep time.Time
}

func newLocalBuckets() *localBuckets {
	return &localBuckets{buckets: make(map[string]*bucket)}
}

func (b *localBuckets) take(
	key string,
	limit redis_rate.Limit,
	now time.Time,
) Decision {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.sweep(now)

	bk, ok := b.buckets[key]
	if !ok {
		bk = &bucket{tokens: rate.NewLimiter(perSecond(limit), limit.Burst)}
		b.buckets[key] = bk
	}
	bk.seen = now

	allowed := bk.tokens.AllowN(now, 1)
	left := bk.tokens.TokensAt(now)
	rps := float64(perSecond(limit))

	d := Decision{
		Allowed:    allowed,
		Remaining:  max(int(left), 0),
		RetryAfter: -1,
		ResetAfter: secondsToDuration((float64(limit.Burst) - left) / rps),
	}
	if !allowed {
		d.RetryAfter = secondsToDuration((1 - left) / rps)
	}
	return d
}

func (b *localBuckets) forget(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.buckets, key)
}

// sweep drops idle buckets at most once per TTL. Caller holds mu.
func (b *localBuckets) sweep(now time.Time) {
	if now.Sub(b.lastSweep) < bucketIdleTTL {
		return
	}
	for key, bk := range b.buckets {
		if now.Sub(bk.seen) > bucketIdleTTL {
			delete(b.buckets, key)
		}
	}
	b.lastSweep = now
}

func perSecond(limit redis_rate.Limit) rate.Limit {
	return rate.Limit(float64(limit.Rate) / limit.Period.Seconds())
}

func secondsToDuration(s float64) time.Duration {
	if s <= 0 {
		return 0
	}
	return time.Duration(s * float64(time.Second))
}
