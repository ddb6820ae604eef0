package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
}

func TestTimingMiddleware(t *testing.T) {
	rec := httptest.NewRecorder()
	TimingMiddleware(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	got := rec.Header().Get("X-Process-Time")
	if !strings.HasSuffix(got, "ms") {
		t.Errorf("X-Process-Time = %q", got)
	}
}

func TestTimingMiddlewareNoBody(t *testing.T) {
	empty := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	rec := httptest.NewRecorder()
	TimingMiddleware(empty).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Header().Get("X-Process-Time") == "" {
		t.Error("X-Process-Time missing when handler writes nothing")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	// 4 per minute gives a burst of 2.
	h := RateLimitMiddleware(4, time.Minute)(okHandler())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:5000"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
		if rec.Code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "60" {
			t.Errorf("Retry-After = %q", rec.Header().Get("Retry-After"))
		}
	}
	if codes[0] != 200 || codes[1] != 200 || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 200 429]", codes)
	}

	// Another client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:5000"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("second client = %d", rec.Code)
	}
}

func TestIPLimiterSweep(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	l := newIPLimiter(4, time.Minute)
	l.now = func() time.Time { return now }

	l.getLimiter("10.0.0.1")
	now = now.Add(8 * time.Minute)
	l.getLimiter("10.0.0.2")
	now = now.Add(5 * time.Minute)

	if n := l.sweep(limiterIdle); n != 1 {
		t.Errorf("sweep removed %d, want 1", n)
	}
	if _, ok := l.limiters["10.0.0.1"]; ok {
		t.Error("idle client kept")
	}
	if _, ok := l.limiters["10.0.0.2"]; !ok {
		t.Error("recent client dropped")
	}

	// A returning client starts with a full bucket.
	if !l.getLimiter("10.0.0.1").Allow() {
		t.Error("returning client rate limited")
	}
	if len(l.limiters) != 2 {
		t.Errorf("limiters = %d, want 2", len(l.limiters))
	}
}
