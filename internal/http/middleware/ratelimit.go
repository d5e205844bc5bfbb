package middleware

import (
	"net/http"
	"sync"
	"time"
)

// RateLimit rejects callers exceeding the configured request rate with a 429
// and the API's JSON error shape. Buckets are per client IP; chi's RealIP
// middleware runs earlier so X-Real-Ip identifies the caller behind a proxy.
func RateLimit(perSecond float64, burst int) func(http.Handler) http.Handler {
	limiter := newIPLimiter(perSecond, burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := r.Header.Get("X-Real-Ip")
			if ip == "" {
				ip = r.RemoteAddr
			}
			if !limiter.allow(ip) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":"Demasiadas solicitudes, intentá nuevamente en unos segundos"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ipLimiter is a token-bucket limiter keyed by client IP. Idle buckets are
// swept lazily on the next allow call, so no background goroutine is needed.
type ipLimiter struct {
	mu        sync.Mutex
	buckets   map[string]*tokenBucket
	perSecond float64
	burst     float64
	lastSweep time.Time
	now       func() time.Time
}

type tokenBucket struct {
	tokens float64
	seen   time.Time
}

func newIPLimiter(perSecond float64, burst int) *ipLimiter {
	if burst < 1 {
		burst = 1
	}
	return &ipLimiter{
		buckets:   make(map[string]*tokenBucket),
		perSecond: perSecond,
		burst:     float64(burst),
		now:       time.Now,
	}
}

func (l *ipLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.sweepLocked(now)

	b, ok := l.buckets[ip]
	if !ok {
		b = &tokenBucket{tokens: l.burst}
		l.buckets[ip] = b
	} else {
		b.tokens += now.Sub(b.seen).Seconds() * l.perSecond
		if b.tokens > l.burst {
			b.tokens = l.burst
		}
	}
	b.seen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// sweepLocked drops buckets idle long enough to have refilled completely.
func (l *ipLimiter) sweepLocked(now time.Time) {
	if now.Sub(l.lastSweep) < time.Minute {
		return
	}
	l.lastSweep = now
	cutoff := now.Add(-10 * time.Minute)
	for ip, b := range l.buckets {
		if b.seen.Before(cutoff) {
			delete(l.buckets, ip)
		}
	}
}
