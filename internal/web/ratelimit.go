package web

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// userLimiter keeps one token bucket per user.
type userLimiter struct {
	mu      sync.Mutex
	buckets map[string]*limiterBucket
	limit   rate.Limit
	burst   int
	now     func() time.Time
}

type limiterBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newUserLimiter allows perMinute requests per minute with the given burst.
func newUserLimiter(perMinute, burst int) *userLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	if burst <= 0 {
		burst = 1
	}
	return &userLimiter{
		buckets: make(map[string]*limiterBucket),
		limit:   rate.Limit(float64(perMinute) / 60),
		burst:   burst,
		now:     time.Now,
	}
}

// Allow takes a token for key. When refused it returns how long to wait.
func (l *userLimiter) Allow(key string) (bool, time.Duration) {
	now := l.now()
	l.mu.Lock()
	b, ok := l.buckets[key]
	if !ok {
		b = &limiterBucket{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.buckets[key] = b
	}
	b.lastSeen = now
	if len(l.buckets) > 1024 {
		l.pruneLocked(now)
	}
	l.mu.Unlock()

	res := b.limiter.ReserveN(now, 1)
	if !res.OK() {
		return false, time.Minute
	}
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return false, delay
	}
	return true, 0
}

func (l *userLimiter) pruneLocked(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.lastSeen) > time.Hour {
			delete(l.buckets, key)
		}
	}
}
