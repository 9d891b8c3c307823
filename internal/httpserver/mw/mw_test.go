package mw

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/MrSnakeDoc/cobus/internal/logger"
)

func TestClientIP(t *testing.T) {
	tests := []struct {
		name       string
		remote     string
		headers    map[string]string
		trustProxy bool
		want       string
	}{
		{name: "remote addr", remote: "10.0.0.1:5555", want: "10.0.0.1"},
		{name: "ipv6 remote addr", remote: "[::1]:5555", want: "::1"},
		{
			name:    "proxy headers ignored when untrusted",
			remote:  "10.0.0.1:5555",
			headers: map[string]string{"X-Forwarded-For": "1.2.3.4"},
			want:    "10.0.0.1",
		},
		{
			name:       "cloudflare header first",
			remote:     "127.0.0.1:5555",
			headers:    map[string]string{"CF-Connecting-IP": "5.6.7.8", "X-Forwarded-For": "1.2.3.4"},
			trustProxy: true,
			want:       "5.6.7.8",
		},
		{
			name:       "left-most forwarded for",
			remote:     "127.0.0.1:5555",
			headers:    map[string]string{"X-Forwarded-For": " 1.2.3.4 , 9.9.9.9"},
			trustProxy: true,
			want:       "1.2.3.4",
		},
		{
			name:       "real ip fallback",
			remote:     "127.0.0.1:5555",
			headers:    map[string]string{"X-Real-IP": "4.4.4.4:80"},
			trustProxy: true,
			want:       "4.4.4.4",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				r.Header.Set(k, v)
			}
			if got := ClientIP(r, tt.trustProxy); got != tt.want {
				t.Errorf("ClientIP() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIPMatcher(t *testing.T) {
	m := newIPMatcher([]string{"10.0.0.0/8", " 192.168.1.10 ", "2001:db8::/32", "garbage", ""})
	if len(m.prefixes) != 3 {
		t.Fatalf("parsed %d rules, want 3", len(m.prefixes))
	}

	tests := []struct {
		ip   string
		want bool
	}{
		{"10.200.0.1", true},
		{"192.168.1.10", true},
		{"192.168.1.11", false},
		{"::ffff:10.0.0.1", true},
		{"2001:db8::1", true},
		{"2001:db9::1", false},
		{"not-an-ip", false},
	}
	for _, tt := range tests {
		if got := m.allow(tt.ip); got != tt.want {
			t.Errorf("allow(%q) = %v, want %v", tt.ip, got, tt.want)
		}
	}
}

// fakeClock is advanced by hand.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func TestThrottle_Take(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	th := newThrottle(ThrottleConfig{Burst: 2, RefillPerMin: 60, Now: clk.now})

	for i := 0; i < 2; i++ {
		if ok, _ := th.take("a"); !ok {
			t.Fatalf("take %d refused within burst", i)
		}
	}
	ok, retry := th.take("a")
	if ok || retry != 1 {
		t.Errorf("take() over burst = %v, retry %d; want false, 1", ok, retry)
	}

	clk.advance(time.Second)
	if ok, _ := th.take("a"); !ok {
		t.Error("take() refused after refill")
	}
}

func TestThrottle_SweepsIdleClients(t *testing.T) {
	clk := &fakeClock{t: time.Unix(0, 0)}
	th := newThrottle(ThrottleConfig{MaxClients: 2, IdleTTL: time.Minute, Now: clk.now})

	th.take("a")
	th.take("b")
	clk.advance(2 * time.Minute)
	th.take("c")

	if len(th.buckets) != 1 {
		t.Errorf("buckets = %d, want 1 after sweep", len(th.buckets))
	}
}

func TestAllowOnlyCIDRS_Passthrough(t *testing.T) {
	called := false
	h := AllowOnlyCIDRS(nil, false, logger.Nop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		called = true
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	if !called {
		t.Error("empty allow-list must not filter")
	}
}
