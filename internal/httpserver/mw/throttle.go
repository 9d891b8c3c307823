package mw

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"
)

type ThrottleConfig struct {
	Burst        int // requests a client may send at once, default 5
	RefillPerMin int // tokens regained per client per minute, default 30
	MaxClients   int // sweep idle clients past this many, default 1024
	IdleTTL      time.Duration
	TrustProxy   bool
	Now          func() time.Time
}

type bucket struct {
	tokens   float64
	lastSeen time.Time
}

// throttle is a per-client token bucket.
type throttle struct {
	cfg     ThrottleConfig
	rate    float64 // tokens per second
	mu      sync.Mutex
	buckets map[string]*bucket
}

func newThrottle(cfg ThrottleConfig) *throttle {
	if cfg.Burst < 1 {
		cfg.Burst = 5
	}
	if cfg.RefillPerMin < 1 {
		cfg.RefillPerMin = 30
	}
	if cfg.MaxClients < 1 {
		cfg.MaxClients = 1024
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = 15 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &throttle{
		cfg:     cfg,
		rate:    float64(cfg.RefillPerMin) / 60,
		buckets: make(map[string]*bucket),
	}
}

// take consumes one token for key. When none is left it returns the seconds
// until the next one.
func (t *throttle) take(key string) (ok bool, retryAfter int) {
	now := t.cfg.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	b := t.buckets[key]
	if b == nil {
		if len(t.buckets) >= t.cfg.MaxClients {
			t.sweepLocked(now)
		}
		b = &bucket{tokens: float64(t.cfg.Burst), lastSeen: now}
		t.buckets[key] = b
	}

	if elapsed := now.Sub(b.lastSeen).Seconds(); elapsed > 0 {
		b.tokens = math.Min(float64(t.cfg.Burst), b.tokens+elapsed*t.rate)
	}
	b.lastSeen = now

	if b.tokens >= 1 {
		b.tokens--
		return true, 0
	}
	return false, max(1, int(math.Ceil((1-b.tokens)/t.rate)))
}

func (t *throttle) sweepLocked(now time.Time) {
	for k, b := range t.buckets {
		if now.Sub(b.lastSeen) > t.cfg.IdleTTL {
			delete(t.buckets, k)
		}
	}
}

// Throttle answers 429 with Retry-After once a client runs out of tokens.
func Throttle(cfg ThrottleConfig) func(http.Handler) http.Handler {
	t := newThrottle(cfg)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retry := t.take(ClientIP(r, t.cfg.TrustProxy))
			if !ok {
				w.Header().Set("Retry-After", strconv.Itoa(retry))
				http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
