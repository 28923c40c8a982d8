package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestKeyRateLimiter(t *testing.T) {
	limiter := NewKeyRateLimiter(1, time.Hour, 2, time.Hour)

	if !limiter.Allow("a") {
		t.Fatal("first request should pass")
	}
	if !limiter.Allow("a") {
		t.Fatal("second request should pass (burst)")
	}
	if limiter.Allow("a") {
		t.Fatal("third request should be limited")
	}

	// Independent keys have independent budgets.
	if !limiter.Allow("b") {
		t.Fatal("a fresh key should pass")
	}
}

func TestKeyRateLimiterExpiry(t *testing.T) {
	l := NewKeyRateLimiter(1, time.Hour, 1, time.Minute).(*keyRateLimiter)
	base := time.Now()
	l.WithNowFunc(func() time.Time { return base })

	if !l.Allow("a") {
		t.Fatal("first request should pass")
	}
	if l.Allow("a") {
		t.Fatal("second request should be limited")
	}

	// After the ttl the visitor entry is collected and the budget resets.
	l.WithNowFunc(func() time.Time { return base.Add(2 * time.Minute) })
	l.Allow("other") // trigger gc
	if !l.Allow("a") {
		t.Fatal("request after expiry should pass again")
	}
}

func TestWithRateLimit(t *testing.T) {
	limiter := NewKeyRateLimiter(1, time.Hour, 1, time.Hour)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	handler := WithRateLimit(limiter)(next)

	req := httptest.NewRequest(http.MethodPost, "/generations", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d; want 204", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d; want 429", rec.Code)
	}

	// A different client keeps its own budget.
	other := httptest.NewRequest(http.MethodPost, "/generations", nil)
	other.RemoteAddr = "10.0.0.2:1234"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, other)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d; want 204", rec.Code)
	}
}
